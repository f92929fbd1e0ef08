package ablab_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/zintix-labs/ablab"
	"github.com/zintix-labs/ablab/dataset"
	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/metrics"
	"github.com/zintix-labs/ablab/report"
	"github.com/zintix-labs/ablab/sdk/core"
	"github.com/zintix-labs/ablab/setting"
	"github.com/zintix-labs/ablab/snapshot"
	"gonum.org/v1/gonum/stat/distuv"
)

func testSetting(t *testing.T, extra string) *setting.Setting {
	t.Helper()
	dir := t.TempDir()
	doc := fmt.Sprintf("sim_count: 2000\nraw_dir: %s\nprocessed_dir: %s\nclients:\n  - name: homw\n  - name: ultimex\n%s",
		filepath.Join(dir, "raw"), filepath.Join(dir, "processed"), extra)
	s, err := setting.FromYAML([]byte(doc))
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	return s
}

// experimentTable 約一半用戶付費，付費金額服從 log-normal
func experimentTable(n int, seed int64) *dataset.Table {
	c := core.NewWithSeed(seed)
	ln := distuv.LogNormal{Mu: 1, Sigma: 1, Src: c}
	rows := make([]dataset.Row, n)
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
	return dataset.New(rows...)
}

type staticProvider map[string]*dataset.Table

func (p staticProvider) Fetch(_ context.Context, client string) (*dataset.Table, error) {
	if t, ok := p[client]; ok {
		return t, nil
	}
	return nil, errs.Kindf(errs.DataUnavailable, "no data for %s", client)
}

func TestRunFromCache(t *testing.T) {
	set := testSetting(t, "")
	if err := snapshot.New(set.RawDir).SaveTable("homw", experimentTable(6000, 42)); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	m := metrics.New()
	lab, err := ablab.New(set, ablab.WithMetrics(m))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer lab.Close()

	rep, err := lab.Run(context.Background(), "HOMW")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Client != "homw" || rep.Distribution != "lognorm" {
		t.Fatalf("got client=%s distribution=%s", rep.Client, rep.Distribution)
	}
	row, ok := rep.Row(report.MetricProbBest)
	if !ok || *row.Conversion < 0 || *row.Conversion > 1 {
		t.Fatalf("got %+v", row)
	}
	if len(rep.Intervals) != 3 {
		t.Fatalf("got %d intervals want 3", len(rep.Intervals))
	}
	for _, name := range []string{"homw_distribution_fit", "homw_posterior_samples"} {
		if _, err := os.Stat(snapshot.New(set.ProcessedDir).Path(name)); err != nil {
			t.Fatalf("%s not persisted: %v", name, err)
		}
	}
	rk, ok, err := snapshot.New(set.ProcessedDir).LoadRanking("homw")
	if err != nil || !ok || rk.Best().Name != "lognorm" {
		t.Fatalf("persisted ranking: %v %v", ok, err)
	}
}

func TestRunMissingData(t *testing.T) {
	lab, err := ablab.New(testSetting(t, ""))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = lab.Run(context.Background(), "ultimex")
	if !errors.Is(err, errs.ErrDataUnavailable) {
		t.Fatalf("got %v want data unavailable", err)
	}
}

func TestUnsupportedWinner(t *testing.T) {
	set := testSetting(t, "distributions: [gamma, weibull_min]\n")
	lab, err := ablab.New(set, ablab.WithProvider(staticProvider{"homw": experimentTable(400, 1)}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rep, err := lab.Run(context.Background(), "homw")
	if !errors.Is(err, errs.ErrUnsupportedDistribution) || rep != nil {
		t.Fatalf("got %v,%v want unsupported distribution and no report", rep, err)
	}
}

func TestEvaluateTableAmbiguousCohort(t *testing.T) {
	lab, err := ablab.New(testSetting(t, ""))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	tb := dataset.New(
		dataset.Row{UserID: "u1", TestGroup: "X", TotalWinsSpend: 2},
		dataset.Row{UserID: "u2", TestGroup: "Y", TotalWinsSpend: 3},
		dataset.Row{UserID: "u3", TestGroup: "Y", TotalWinsSpend: 5},
	)
	_, err = lab.EvaluateTable(context.Background(), "upload", tb)
	if !errors.Is(err, errs.ErrAmbiguousCohort) {
		t.Fatalf("got %v want ambiguous cohort", err)
	}
}

func TestRunAllKeepsOrderAndErrors(t *testing.T) {
	set := testSetting(t, "")
	p := staticProvider{"homw": experimentTable(3000, 3), "knighthood": experimentTable(3000, 4)}
	lab, err := ablab.New(set, ablab.WithProvider(p))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, _, err := lab.RunAll(context.Background(), []string{"homw", "missing", "knighthood"}, 2, false)
	if err != nil {
		t.Fatalf("run all: %v", err)
	}
	if len(res) != 3 || res[0].Client != "homw" || res[1].Client != "missing" || res[2].Client != "knighthood" {
		t.Fatalf("results out of order: %+v", res)
	}
	if res[0].Err != nil || res[2].Err != nil {
		t.Fatalf("unexpected errors: %v / %v", res[0].Err, res[2].Err)
	}
	if !errors.Is(res[1].Err, errs.ErrDataUnavailable) {
		t.Fatalf("got %v want data unavailable", res[1].Err)
	}
	// 相同 seed 下，同一張表的結果與單獨執行一致
	single, err := lab.Run(context.Background(), "homw")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if single.Summary[0].Revenue == nil || *single.Summary[0].Revenue != *res[0].Report.Summary[0].Revenue {
		t.Fatalf("parallel run is not reproducible")
	}
}

func TestRunAllCancelled(t *testing.T) {
	lab, err := ablab.New(testSetting(t, ""), ablab.WithProvider(staticProvider{}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, _, err := lab.RunAll(ctx, []string{"homw"}, 1, false)
	if !errors.Is(err, context.Canceled) || !errors.Is(res[0].Err, context.Canceled) {
		t.Fatalf("got %v / %v want context canceled", err, res[0].Err)
	}
}
