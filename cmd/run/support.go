package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zintix-labs/ablab"
	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/report"
	"github.com/zintix-labs/ablab/sdk/perf"
	"github.com/zintix-labs/ablab/server/logger"
	"github.com/zintix-labs/ablab/setting"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type config struct {
	client    string
	all       bool
	path      string
	logMode   logger.LogMode
	out       string
	workers   int
	pprofmode string
}

func bindVar(args []string) (*config, error) {
	cfg := new(config)
	var mode string
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.StringVar(&cfg.client, "client", "", "client to evaluate (see the clients list in the config)")
	fs.BoolVar(&cfg.all, "all", false, "evaluate every configured client")
	fs.StringVar(&cfg.path, "config", "", "settings file (.yaml/.yml/.json); empty uses the embedded defaults")
	fs.StringVar(&mode, "log-mode", "silence", "log mode: dev|prod|silence")
	fs.StringVar(&cfg.out, "out", report.FormatTable, "output format: table|json|yaml")
	fs.IntVar(&cfg.workers, "workers", 0, "parallel clients with -all (0 uses the config)")
	fs.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	lm, err := logger.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	cfg.logMode = lm
	return cfg, cfg.valid()
}

func (cfg *config) valid() error {
	cfg.client = strings.TrimSpace(cfg.client)
	if cfg.all == (cfg.client != "") {
		return errs.NewWarn("exactly one of -client or -all is required")
	}
	if _, err := report.RenderFor(cfg.out); err != nil {
		return err
	}
	if cfg.workers < 0 {
		return errs.NewWarn("workers must be >= 0")
	}
	if !perf.Valid(cfg.pprofmode) {
		return errs.Warnf("unknown pprof mode %q", cfg.pprofmode)
	}
	return nil
}

// execute 跑 pipeline 並把報表寫到 w。任一 client 失敗時回傳第一個錯誤（含失敗的 stage）。
func execute(cfg *config, w io.Writer) error {
	set, err := setting.LoadFile(cfg.path)
	if err != nil {
		return errs.Wrap(err, "config")
	}
	log, ah := logger.NewAsync(4096, cfg.logMode)
	defer ah.Close()

	lab, err := ablab.New(set, ablab.WithLogger(log))
	if err != nil {
		return err
	}
	defer lab.Close()

	rd, _ := report.RenderFor(cfg.out)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.all {
		rep, err := lab.Run(ctx, cfg.client)
		if err != nil {
			return fmt.Errorf("client %s: %w", cfg.client, err)
		}
		return rep.WriteWith(w, rd)
	}

	clients := lab.Catalog().Names()
	banner(w, cfg, len(clients))
	results, used, err := lab.RunAll(ctx, clients, cfg.workers, cfg.out == report.FormatTable)
	if err != nil {
		return err
	}
	return writeResults(w, rd, results, used)
}

func banner(w io.Writer, cfg *config, n int) {
	if cfg.out != report.FormatTable {
		return
	}
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "%s[CLIENTS:%d] [WORKERS:%d]%s\n", green, n, cfg.workers, reset)
}

func writeResults(w io.Writer, rd report.Render, results []ablab.Result, used time.Duration) error {
	var first error
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "client %s: %v\n", r.Client, r.Err)
			if first == nil {
				first = fmt.Errorf("client %s: %w", r.Client, r.Err)
			}
			continue
		}
		if err := r.Report.WriteWith(w, rd); err != nil {
			return err
		}
	}
	if _, ok := rd.(*report.TableRender); ok {
		fmt.Fprintf(w, "%d clients, %d failed, used %s\n", len(results), failed, used.Round(time.Millisecond))
	}
	if first != nil {
		return errs.Warnf("%d of %d clients failed; first: %v", failed, len(results), first)
	}
	return nil
}
