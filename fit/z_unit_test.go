package fit_test

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/fit"
	"github.com/zintix-labs/ablab/sdk/core"
	"gonum.org/v1/gonum/stat/distuv"
)

func defaultSelector(t *testing.T) *fit.Selector {
	t.Helper()
	s, err := fit.NewSelector(fit.DefaultRegistry(), fit.DefaultNames())
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	return s
}

func lognormalSample(n int, seed int64) []float64 {
	d := distuv.LogNormal{Mu: 2, Sigma: 1, Src: core.NewWithSeed(seed)}
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	return out
}

func TestRankSelectsGeneratingFamily(t *testing.T) {
	s := defaultSelector(t)
	best, rk, err := s.Select(lognormalSample(3000, 42), "total_wins_spend")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if best != fit.Lognorm {
		t.Fatalf("best got %s want lognorm (ranking %+v)", best, rk.Candidates)
	}
	if len(rk.Candidates) != 6 || len(rk.Excluded) != 0 {
		t.Fatalf("got %d candidates / %d excluded", len(rk.Candidates), len(rk.Excluded))
	}
	for i := 1; i < len(rk.Candidates); i++ {
		if rk.Candidates[i-1].AIC > rk.Candidates[i].AIC {
			t.Fatalf("candidates not sorted by AIC at %d", i)
		}
	}
	c := rk.Best()
	if math.Abs(c.AIC-(2*float64(c.K)-2*c.LogLik)) > 1e-9 {
		t.Fatalf("aic mismatch: %+v", c)
	}
	if math.Abs(c.BIC-(float64(c.K)*math.Log(float64(c.N))-2*c.LogLik)) > 1e-9 {
		t.Fatalf("bic mismatch: %+v", c)
	}
}

func TestRankDeterministic(t *testing.T) {
	s := defaultSelector(t)
	sample := lognormalSample(500, 7)
	a, err := s.Rank(sample, "x")
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	b, err := s.Rank(sample, "x")
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same sample produced different rankings")
	}
}

func TestRankEmptySample(t *testing.T) {
	_, err := defaultSelector(t).Rank(nil, "total_wins_spend")
	if !errors.Is(err, errs.ErrEmptySample) {
		t.Fatalf("got %v want empty sample", err)
	}
}

func TestNegativeValuesExcludePositiveFamilies(t *testing.T) {
	rk, err := defaultSelector(t).Rank([]float64{-1.5, 0.3, 2.2, 4.1, 0.9}, "x")
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(rk.Candidates) != 1 || rk.Candidates[0].Name != fit.Norm {
		t.Fatalf("got candidates %+v want only norm", rk.Candidates)
	}
	excluded := map[string]bool{}
	for _, e := range rk.Excluded {
		excluded[e.Name] = true
	}
	for _, n := range []string{fit.Expon, fit.Lognorm, fit.Gamma, fit.WeibullMin, fit.Pareto} {
		if !excluded[n] {
			t.Fatalf("%s should be excluded, excluded=%v", n, excluded)
		}
	}
}

func TestAllFamiliesFail(t *testing.T) {
	_, err := defaultSelector(t).Rank([]float64{0, 0, 0}, "x")
	if !errors.Is(err, errs.ErrFitFailure) {
		t.Fatalf("got %v want fit failure", err)
	}
	if !strings.Contains(err.Error(), "pareto") {
		t.Fatalf("error should name excluded families: %v", err)
	}
}

func TestConstantSampleExcludesDivergentFits(t *testing.T) {
	for _, sample := range [][]float64{{5, 5, 5, 5}, {4.99}} {
		best, rk, err := defaultSelector(t).Select(sample, "x")
		if err != nil {
			t.Fatalf("sample %v: select: %v", sample, err)
		}
		if best != fit.Expon {
			t.Fatalf("sample %v: best got %s want expon", sample, best)
		}
		for _, c := range rk.Candidates {
			if c.Name == fit.WeibullMin {
				t.Fatalf("sample %v: weibull_min ranked with params %v", sample, c.Params)
			}
			for _, p := range c.Params {
				if math.Abs(p) > 1e8 {
					t.Fatalf("sample %v: %s params diverged: %v", sample, c.Name, c.Params)
				}
			}
		}
		excluded := map[string]bool{}
		for _, e := range rk.Excluded {
			excluded[e.Name] = true
		}
		for _, n := range []string{fit.Norm, fit.Lognorm, fit.Gamma, fit.WeibullMin, fit.Pareto} {
			if !excluded[n] {
				t.Fatalf("sample %v: %s should be excluded, excluded=%v", sample, n, excluded)
			}
		}
	}
}

type fixed struct {
	name string
	ll   float64
}

func (f fixed) Name() string { return f.name }
func (f fixed) Fit([]float64) (fit.Fitted, error) {
	return fit.Fitted{Params: []float64{1}, LogLik: f.ll, K: 1}, nil
}

func TestTieGoesToFirstConfigured(t *testing.T) {
	reg, err := fit.NewRegistry(fixed{"b", -10}, fixed{"a", -10}, fixed{"c", -50})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	s, err := fit.NewSelector(reg, []string{"c", "b", "a"})
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	best, rk, err := s.Select([]float64{1, 2}, "x")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if best != "b" || rk.Candidates[1].Name != "a" || rk.Candidates[2].Name != "c" {
		t.Fatalf("got order %s,%s,%s want b,a,c", rk.Candidates[0].Name, rk.Candidates[1].Name, rk.Candidates[2].Name)
	}
}

func TestRegistryRules(t *testing.T) {
	if _, err := fit.NewRegistry(fixed{"Norm", 0}, fixed{" norm", 0}); err == nil {
		t.Fatalf("duplicate case-insensitive name accepted")
	}
	if _, ok := fit.DefaultRegistry().Lookup("LOGNORM"); !ok {
		t.Fatalf("lookup should be case-insensitive")
	}
	_, err := fit.NewSelector(fit.DefaultRegistry(), []string{"norm", "cauchy"})
	if err == nil || !strings.Contains(err.Error(), "cauchy") {
		t.Fatalf("unknown family should be named: %v", err)
	}
}
