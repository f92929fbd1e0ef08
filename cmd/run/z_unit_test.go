package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zintix-labs/ablab/dataset"
	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/sdk/core"
	"github.com/zintix-labs/ablab/server/logger"
	"github.com/zintix-labs/ablab/snapshot"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestBindVar(t *testing.T) {
	cfg, err := bindVar([]string{"-client", "homw", "-out", "json", "-log-mode", "ModeProd"})
	if err != nil {
		t.Fatalf("bindVar: %v", err)
	}
	if cfg.client != "homw" || cfg.out != "json" || cfg.logMode != logger.ModeProd {
		t.Fatalf("got %+v", cfg)
	}

	bad := [][]string{
		{},
		{"-client", "homw", "-all"},
		{"-client", "homw", "-out", "csv"},
		{"-all", "-workers", "-1"},
		{"-all", "-p", "trace"},
		{"-all", "-log-mode", "loud"},
	}
	for _, args := range bad {
		if _, err := bindVar(args); err == nil {
			t.Fatalf("args %v: expected error", args)
		}
	}
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	raw := filepath.Join(dir, "raw")

	c := core.NewWithSeed(42)
	ln := distuv.LogNormal{Mu: 1, Sigma: 1, Src: c}
	rows := make([]dataset.Row, 6000)
	for i := range rows {
		group := "C"
		if i%2 == 0 {
			group = "Assetario"
		}
		var spend float64
		if c.IntN(2) == 0 {
			spend = ln.Rand()
		}
		rows[i] = dataset.Row{UserID: fmt.Sprintf("u%d", i), TestGroup: group, TotalSpend: spend, TotalWinsSpend: spend}
	}
	if err := snapshot.New(raw).SaveTable("homw", dataset.New(rows...)); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	doc := fmt.Sprintf("sim_count: 2000\nraw_dir: %s\nprocessed_dir: %s\nclients:\n  - name: homw\n  - name: ultimex\n",
		raw, filepath.Join(dir, "processed"))
	path := filepath.Join(dir, "ablab.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestExecuteSingleClient(t *testing.T) {
	cfg := &config{client: "homw", path: writeConfig(t), logMode: logger.ModeSilence, out: "table"}
	var out bytes.Buffer
	if err := execute(cfg, &out); err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"P( P > C)", "E( loss | P > C)", "E( loss | C > P)"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestExecuteAllReportsFailure(t *testing.T) {
	cfg := &config{all: true, path: writeConfig(t), logMode: logger.ModeSilence, out: "json", workers: 2}
	var out bytes.Buffer
	err := execute(cfg, &out)
	if err == nil || !strings.Contains(err.Error(), "ultimex") {
		t.Fatalf("expected ultimex failure, got %v", err)
	}
	if !strings.Contains(out.String(), `"client": "homw"`) && !strings.Contains(out.String(), `"client":"homw"`) {
		t.Fatalf("homw report missing:\n%s", out.String())
	}
}

func TestExecuteMissingClient(t *testing.T) {
	cfg := &config{client: "ultimex", path: writeConfig(t), logMode: logger.ModeSilence, out: "json"}
	err := execute(cfg, new(bytes.Buffer))
	if err == nil || !strings.Contains(err.Error(), "stage fetch") {
		t.Fatalf("expected fetch stage failure, got %v", err)
	}
	if !errors.Is(err, errs.ErrDataUnavailable) {
		t.Fatalf("expected data unavailable, got %v", err)
	}
}
