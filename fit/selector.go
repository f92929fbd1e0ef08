package fit

import (
	"math"
	"sort"
	"strings"

	"github.com/zintix-labs/ablab/errs"
)

// Candidate 單一分布族的擬合紀錄
type Candidate struct {
	Name       string    `json:"name" yaml:"name"`
	ParamNames []string  `json:"param_names" yaml:"param_names"`
	Params     []float64 `json:"params" yaml:"params"`
	LogLik     float64   `json:"loglik" yaml:"loglik"`
	AIC        float64   `json:"aic" yaml:"aic"`
	BIC        float64   `json:"bic" yaml:"bic"`
	K          int       `json:"k" yaml:"k"`
	N          int       `json:"n" yaml:"n"`
}

// Exclusion 擬合失敗而被排除的分布族
type Exclusion struct {
	Name   string `json:"name" yaml:"name"`
	Reason string `json:"reason" yaml:"reason"`
}

// Ranking 以 AIC 由小到大排序的候選清單
type Ranking struct {
	Target     string      `json:"target" yaml:"target"`
	Candidates []Candidate `json:"candidates" yaml:"candidates"`
	Excluded   []Exclusion `json:"excluded,omitempty" yaml:"excluded,omitempty"`
}

// Best 排名第一的候選
func (r *Ranking) Best() Candidate {
	return r.Candidates[0]
}

// Selector 依設定順序對樣本逐一擬合
type Selector struct {
	Families []Family
}

// NewSelector 由 Registry 中挑出 names 指定的分布族，保持給定順序。
func NewSelector(reg *Registry, names []string) (*Selector, error) {
	if reg == nil {
		return nil, errs.NewFatal("nil distribution registry")
	}
	if len(names) == 0 {
		return nil, errs.NewFatal("no distribution family configured")
	}
	s := &Selector{Families: make([]Family, 0, len(names))}
	seen := map[string]struct{}{}
	for _, n := range names {
		f, ok := reg.Lookup(n)
		if !ok {
			return nil, errs.Fatalf("unknown distribution family: %q (registered: %v)", n, reg.Names())
		}
		if _, dup := seen[key(n)]; dup {
			return nil, errs.Fatalf("distribution family configured twice: %q", n)
		}
		seen[key(n)] = struct{}{}
		s.Families = append(s.Families, f)
	}
	return s, nil
}

// Names 設定順序下的分布族名稱
func (s *Selector) Names() []string {
	out := make([]string, len(s.Families))
	for i, f := range s.Families {
		out[i] = f.Name()
	}
	return out
}

// Rank 對每個分布族擬合並計算 AIC / BIC。
//
// 擬合失敗的分布族記錄在 Excluded，其餘以 AIC 穩定排序（平手時設定順序在前者優先）。
// 全部失敗時回傳 errs.ErrFitFailure。
func (s *Selector) Rank(sample []float64, target string) (*Ranking, error) {
	if len(sample) == 0 {
		return nil, errs.Kindf(errs.EmptySample, "no positive values to fit for %s", target)
	}
	n := len(sample)
	rk := &Ranking{Target: target, Candidates: make([]Candidate, 0, len(s.Families))}
	for _, f := range s.Families {
		res, err := f.Fit(sample)
		if err == nil && !res.finite() {
			err = errs.Kindf(errs.FitFailure, "%s: non-finite parameters or log-likelihood", f.Name())
		}
		if err != nil {
			rk.Excluded = append(rk.Excluded, Exclusion{Name: f.Name(), Reason: reason(err)})
			continue
		}
		rk.Candidates = append(rk.Candidates, Candidate{
			Name:       f.Name(),
			ParamNames: res.ParamNames,
			Params:     res.Params,
			LogLik:     res.LogLik,
			AIC:        2*float64(res.K) - 2*res.LogLik,
			BIC:        float64(res.K)*math.Log(float64(n)) - 2*res.LogLik,
			K:          res.K,
			N:          n,
		})
	}
	if len(rk.Candidates) == 0 {
		names := make([]string, len(rk.Excluded))
		for i, e := range rk.Excluded {
			names[i] = e.Name
		}
		return nil, errs.Kindf(errs.FitFailure, "every distribution family failed to fit %s: %s",
			target, strings.Join(names, ", "))
	}
	sort.SliceStable(rk.Candidates, func(i, j int) bool {
		return rk.Candidates[i].AIC < rk.Candidates[j].AIC
	})
	return rk, nil
}

// Select 回傳 AIC 最小的分布族名稱與完整排名。
func (s *Selector) Select(sample []float64, target string) (string, *Ranking, error) {
	rk, err := s.Rank(sample, target)
	if err != nil {
		return "", nil, err
	}
	return rk.Best().Name, rk, nil
}

func reason(err error) string {
	if e, ok := errs.AsErr(err); ok {
		return e.Message
	}
	return err.Error()
}
