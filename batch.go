package ablab

import (
	"context"
	"io"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/report"
	"golang.org/x/sync/errgroup"
)

// Result 批次執行中單一客戶的結果
type Result struct {
	Client string
	Report *report.Report
	Err    error
}

// RunAll 以最多 workers 個 goroutine 平行執行多個客戶，回傳結果（與 clients 同順序）與用時。
//
// 單一客戶失敗不影響其他客戶，錯誤記錄在對應的 Result.Err。
// 只有 ctx 被取消時才回傳 error。
func (l *Lab) RunAll(ctx context.Context, clients []string, workers int, showpb bool) ([]Result, time.Duration, error) {
	if len(clients) == 0 {
		return nil, 0, errs.NewWarn("no client to run")
	}
	if workers <= 0 {
		workers = l.set.Workers
	}
	results := make([]Result, len(clients))

	if workers <= 0 {
		workers = 1
	}
	bar := pb.New(len(clients))
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	bar.Start()
	var g errgroup.Group
	g.SetLimit(workers)
	for i, c := range clients {
		g.Go(func() error {
			defer bar.Increment()
			rep, err := l.Run(ctx, c)
			results[i] = Result{Client: c, Report: rep, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	if err := ctx.Err(); err != nil {
		return results, used, err
	}
	return results, used, nil
}
