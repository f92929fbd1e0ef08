package ablab

import (
	"context"
	"log/slog"
	"time"

	"github.com/zintix-labs/ablab/bayes"
	"github.com/zintix-labs/ablab/dataset"
	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/report"
)

// 流程階段名稱，用於錯誤訊息、日誌與指標
const (
	StageFetch      = "fetch"
	StageValidate   = "validate"
	StageFit        = "fit"
	StageConversion = "conversion"
	StageRevenue    = "revenue"
	StageSamples    = "samples"
	StageReport     = "report"
)

// Run 對單一客戶執行完整流程：取資料 → 擬合 → 轉換率檢定 → 營收檢定 → 報告。
func (l *Lab) Run(ctx context.Context, client string) (rep *report.Report, err error) {
	defer func() { l.met.RunDone(client, err) }()

	var t *dataset.Table
	err = l.stage(ctx, client, StageFetch, func() error {
		var e error
		t, e = l.provider.Fetch(ctx, client)
		return e
	})
	if err != nil {
		return nil, err
	}
	name := client
	if e, ok := l.cat.Get(client); ok {
		name = e.Name
	}
	return l.evaluate(ctx, name, t, true)
}

// EvaluateTable 對呼叫端提供的表執行擬合與檢定，不寫入任何產物。
func (l *Lab) EvaluateTable(ctx context.Context, name string, t *dataset.Table) (rep *report.Report, err error) {
	defer func() { l.met.RunDone(name, err) }()
	return l.evaluate(ctx, name, t, false)
}

// Samples 回傳營收後驗的原始樣本
func (l *Lab) Samples(ctx context.Context, family string, t *dataset.Table) (*bayes.PosteriorSamples, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, errs.Wrap(err, "stage "+StageValidate)
	}
	ps, err := l.eval.RevenueSamples(family, t)
	if err != nil {
		return nil, errs.Wrap(err, "stage "+StageSamples)
	}
	return ps, nil
}

func (l *Lab) evaluate(ctx context.Context, client string, t *dataset.Table, persist bool) (*report.Report, error) {
	if err := l.stage(ctx, client, StageValidate, t.Validate); err != nil {
		return nil, err
	}

	in := report.Input{Client: client}
	err := l.stage(ctx, client, StageFit, func() error {
		sample, err := t.Positive(l.set.Target)
		if err != nil {
			return err
		}
		_, rk, err := l.sel.Select(sample, l.set.Target)
		if err != nil {
			return err
		}
		for _, ex := range rk.Excluded {
			l.met.FitExcluded(ex.Name)
			l.log.Warn("distribution excluded",
				slog.String("client", client), slog.String("family", ex.Name), slog.String("reason", ex.Reason))
		}
		in.Ranking = rk
		if persist {
			return l.processed.SaveRanking(client, rk)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	family := in.Ranking.Best().Name

	err = l.stage(ctx, client, StageConversion, func() error {
		res, err := l.eval.EvaluateConversion(t)
		in.Conversion = res
		l.warnDegenerate(client, StageConversion, res)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = l.stage(ctx, client, StageRevenue, func() error {
		res, err := l.eval.EvaluateRevenue(family, t)
		in.Revenue = res
		l.warnDegenerate(client, StageRevenue, res)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = l.stage(ctx, client, StageSamples, func() error {
		ps, err := l.eval.RevenueSamples(family, t)
		if err != nil {
			return err
		}
		iv, err := ps.Intervals(l.set.HDIProb)
		if err != nil {
			return err
		}
		in.Intervals = iv
		if persist {
			return l.processed.SaveSamples(client, ps)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var rep *report.Report
	err = l.stage(ctx, client, StageReport, func() error {
		var e error
		rep, e = report.New(in)
		return e
	})
	return rep, err
}

// stage 執行一個階段：檢查 ctx、計時、記錄日誌與指標，錯誤以階段名稱包裝。
func (l *Lab) stage(ctx context.Context, client, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	l.met.ObserveStage(name, elapsed)
	if err != nil {
		l.log.Error("stage failed",
			slog.String("client", client), slog.String("stage", name),
			slog.Duration("elapsed", elapsed), slog.String("err", err.Error()))
		return errs.Wrap(err, "stage "+name)
	}
	l.log.Info("stage done",
		slog.String("client", client), slog.String("stage", name), slog.Duration("elapsed", elapsed))
	return nil
}

func (l *Lab) warnDegenerate(client, stage string, res []bayes.VariantResult) {
	for _, r := range res {
		for _, d := range r.Degenerate {
			l.log.Warn("numeric degeneracy",
				slog.String("client", client), slog.String("stage", stage),
				slog.String("variant", r.Variant), slog.String("field", d.Field), slog.String("reason", d.Reason))
		}
	}
}
