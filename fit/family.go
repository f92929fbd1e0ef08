// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fit

import (
	"math"

	"github.com/zintix-labs/ablab/errs"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// 分布族名稱（沿用常見的統計套件命名）
const (
	Norm       = "norm"
	Expon      = "expon"
	Lognorm    = "lognorm"
	Gamma      = "gamma"
	WeibullMin = "weibull_min"
	Pareto     = "pareto"
)

// 數值最佳化的迭代上限
const (
	maxIterations = 400
	maxEvals      = 2000
	// 對數參數的合理範圍，超出視為發散
	maxLogParam = 20
)

// Family 一個候選分布族。Fit 以最大概似估計參數並回傳對數概似值。
//
// 實作必須是決定性的：相同樣本得到相同結果。
type Family interface {
	Name() string
	Fit(sample []float64) (Fitted, error)
}

// Fitted 單一分布族的擬合結果
type Fitted struct {
	ParamNames []string
	Params     []float64
	LogLik     float64
	K          int
}

func (f Fitted) finite() bool {
	if math.IsNaN(f.LogLik) || math.IsInf(f.LogLik, 0) {
		return false
	}
	for _, p := range f.Params {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return false
		}
	}
	return true
}

type logProber interface {
	LogProb(x float64) float64
}

func logLik(d logProber, sample []float64) float64 {
	var ll float64
	for _, x := range sample {
		ll += d.LogProb(x)
	}
	return ll
}

func requirePositive(name string, sample []float64) error {
	for _, x := range sample {
		if !(x > 0) {
			return errs.Kindf(errs.FitFailure, "%s: value %g outside support (x > 0)", name, x)
		}
	}
	return nil
}

func requireNonNegative(name string, sample []float64) error {
	for _, x := range sample {
		if !(x >= 0) {
			return errs.Kindf(errs.FitFailure, "%s: value %g outside support (x >= 0)", name, x)
		}
	}
	return nil
}

// ============================================================
// ** norm **
// ============================================================

type normal struct{}

func (normal) Name() string { return Norm }

func (normal) Fit(sample []float64) (Fitted, error) {
	mu, sd := stat.PopMeanStdDev(sample, nil)
	if !(sd > 0) {
		return Fitted{}, errs.Kindf(errs.FitFailure, "norm: zero variance")
	}
	d := distuv.Normal{Mu: mu, Sigma: sd}
	return Fitted{ParamNames: []string{"loc", "scale"}, Params: []float64{mu, sd}, LogLik: logLik(d, sample), K: 2}, nil
}

// ============================================================
// ** expon **
// ============================================================

type exponential struct{}

func (exponential) Name() string { return Expon }

func (exponential) Fit(sample []float64) (Fitted, error) {
	if err := requireNonNegative(Expon, sample); err != nil {
		return Fitted{}, err
	}
	mean := stat.Mean(sample, nil)
	if !(mean > 0) {
		return Fitted{}, errs.Kindf(errs.FitFailure, "expon: mean is zero")
	}
	d := distuv.Exponential{Rate: 1 / mean}
	return Fitted{ParamNames: []string{"scale"}, Params: []float64{mean}, LogLik: logLik(d, sample), K: 1}, nil
}

// ============================================================
// ** lognorm **
// ============================================================

type logNormal struct{}

func (logNormal) Name() string { return Lognorm }

func (logNormal) Fit(sample []float64) (Fitted, error) {
	if err := requirePositive(Lognorm, sample); err != nil {
		return Fitted{}, err
	}
	logs := make([]float64, len(sample))
	for i, x := range sample {
		logs[i] = math.Log(x)
	}
	mu, sigma := stat.PopMeanStdDev(logs, nil)
	if !(sigma > 0) {
		return Fitted{}, errs.Kindf(errs.FitFailure, "lognorm: zero variance of log values")
	}
	d := distuv.LogNormal{Mu: mu, Sigma: sigma}
	// scipy 形式：s = sigma, scale = exp(mu)
	return Fitted{ParamNames: []string{"s", "scale"}, Params: []float64{sigma, math.Exp(mu)}, LogLik: logLik(d, sample), K: 2}, nil
}

// ============================================================
// ** gamma **
// ============================================================

type gammaFamily struct{}

func (gammaFamily) Name() string { return Gamma }

func (gammaFamily) Fit(sample []float64) (Fitted, error) {
	if err := requirePositive(Gamma, sample); err != nil {
		return Fitted{}, err
	}
	mean, variance := stat.PopMeanVariance(sample, nil)
	if !(variance > 0) {
		return Fitted{}, errs.Kindf(errs.FitFailure, "gamma: zero variance")
	}
	// 動差法起點
	shape := mean * mean / variance
	rate := mean / variance
	nll := func(x []float64) float64 {
		d := distuv.Gamma{Alpha: math.Exp(x[0]), Beta: math.Exp(x[1])}
		return -logLik(d, sample)
	}
	x, err := minimize(nll, []float64{math.Log(shape), math.Log(rate)})
	if err != nil {
		return Fitted{}, errs.Wrap(err, "gamma: optimiser failed")
	}
	a, b := math.Exp(x[0]), math.Exp(x[1])
	d := distuv.Gamma{Alpha: a, Beta: b}
	return Fitted{ParamNames: []string{"a", "scale"}, Params: []float64{a, 1 / b}, LogLik: logLik(d, sample), K: 2}, nil
}

// ============================================================
// ** weibull_min **
// ============================================================

type weibullMin struct{}

func (weibullMin) Name() string { return WeibullMin }

func (weibullMin) Fit(sample []float64) (Fitted, error) {
	if err := requirePositive(WeibullMin, sample); err != nil {
		return Fitted{}, err
	}
	mean, variance := stat.PopMeanVariance(sample, nil)
	if !(variance > 0) {
		return Fitted{}, errs.Kindf(errs.FitFailure, "weibull_min: zero variance")
	}
	nll := func(x []float64) float64 {
		d := distuv.Weibull{K: math.Exp(x[0]), Lambda: math.Exp(x[1])}
		return -logLik(d, sample)
	}
	x, err := minimize(nll, []float64{0, math.Log(mean)})
	if err != nil {
		return Fitted{}, errs.Wrap(err, "weibull_min: optimiser failed")
	}
	k, lambda := math.Exp(x[0]), math.Exp(x[1])
	d := distuv.Weibull{K: k, Lambda: lambda}
	return Fitted{ParamNames: []string{"c", "scale"}, Params: []float64{k, lambda}, LogLik: logLik(d, sample), K: 2}, nil
}

// ============================================================
// ** pareto **
// ============================================================

type pareto struct{}

func (pareto) Name() string { return Pareto }

func (pareto) Fit(sample []float64) (Fitted, error) {
	if err := requirePositive(Pareto, sample); err != nil {
		return Fitted{}, err
	}
	xm := sample[0]
	for _, x := range sample[1:] {
		xm = math.Min(xm, x)
	}
	var s float64
	for _, x := range sample {
		s += math.Log(x / xm)
	}
	if !(s > 0) {
		return Fitted{}, errs.Kindf(errs.FitFailure, "pareto: all values equal the minimum")
	}
	alpha := float64(len(sample)) / s
	d := distuv.Pareto{Xm: xm, Alpha: alpha}
	return Fitted{ParamNames: []string{"b", "scale"}, Params: []float64{alpha, xm}, LogLik: logLik(d, sample), K: 2}, nil
}

// minimize 以 Nelder-Mead 最小化 f（x 為對數參數），迭代次數與函數評估次數皆有上限。
//
// 達到上限時只有在參數仍落在合理範圍內才採用目前最佳點，否則視為發散。
func minimize(f func([]float64) float64, x0 []float64) ([]float64, error) {
	p := optimize.Problem{Func: f}
	settings := &optimize.Settings{
		MajorIterations: maxIterations,
		FuncEvaluations: maxEvals,
	}
	res, err := optimize.Minimize(p, x0, settings, &optimize.NelderMead{})
	if res == nil {
		return nil, errs.Wrap(err, "optimiser returned no result")
	}
	if !bounded(res.X) {
		return nil, errs.Kindf(errs.FitFailure, "optimiser diverged (status %v, log-params %v)", res.Status, res.X)
	}
	if err != nil && !capped(res.Status) {
		return nil, err
	}
	return res.X, nil
}

func bounded(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.Abs(v) > maxLogParam {
			return false
		}
	}
	return true
}

func capped(s optimize.Status) bool {
	return s == optimize.IterationLimit || s == optimize.FunctionEvaluationLimit
}
