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

// Package bayes 提供轉換率與營收的貝氏 A/B 檢定。
//
// 所有抽樣都使用呼叫端傳入的亂數來源（通常是以 seed 建立的 core.Core），
// 套件內沒有任何全域亂數狀態。
package bayes

import (
	"math"
	r2 "math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// LognormalPrior Normal-Inverse-Gamma 共軛先驗
type LognormalPrior struct {
	M float64 // 平均數先驗
	A float64 // inverse-gamma shape
	B float64 // inverse-gamma rate
	W float64 // 平均數先驗的樣本數權重
}

// DefaultLognormalPrior m=1, a=0, b=0, w=0.01
func DefaultLognormalPrior() LognormalPrior {
	return LognormalPrior{M: 1, A: 0, B: 0, W: 0.01}
}

// BetaPosteriors 對每個 variant 從 Beta(a+positives, b+totals-positives) 抽 n 個樣本。
func BetaPosteriors(totals, positives []int, aPrior, bPrior []float64, n int, src r2.Source) [][]float64 {
	out := make([][]float64, len(totals))
	for i := range totals {
		d := distuv.Beta{
			Alpha: aPrior[i] + float64(positives[i]),
			Beta:  bPrior[i] + float64(totals[i]-positives[i]),
			Src:   src,
		}
		s := make([]float64, n)
		for j := range s {
			s[j] = d.Rand()
		}
		out[i] = s
	}
	return out
}

// LognormalPosteriors 以 Normal-Inverse-Gamma 共軛更新，對每個 variant 抽 n 個
// 對數常態平均數 exp(μ + σ²/2) 的後驗樣本。
//
// positives 為正值觀測數，sumLogs / sumLogs2 為正值取對數後的和與平方和。
// 後驗不成立的 variant（無正值、參數非有限）回傳全 0 的樣本，並在對應的 issues 中標記。
func LognormalPosteriors(positives []int, sumLogs, sumLogs2 []float64, n int, prior LognormalPrior, src r2.Source) ([][]float64, [][]FieldIssue) {
	out := make([][]float64, len(positives))
	issues := make([][]FieldIssue, len(positives))
	for i := range positives {
		s := make([]float64, n)
		out[i] = s
		k := float64(positives[i])
		if positives[i] == 0 {
			issues[i] = append(issues[i], FieldIssue{Field: FieldAvgPositiveValues, Reason: "zero converters: log-normal posterior undefined"})
			continue
		}
		if positives[i] == 1 {
			issues[i] = append(issues[i], FieldIssue{Field: FieldAvgPositiveValues, Reason: "single converter: log variance estimated from one value"})
		}
		xbar := sumLogs[i] / k
		aPost := prior.A + k/2
		bPost := prior.B + 0.5*(sumLogs2[i]-2*sumLogs[i]*xbar+k*xbar*xbar) +
			(k*prior.W/(2*(k+prior.W)))*(xbar-prior.M)*(xbar-prior.M)
		wPost := prior.W + k
		mPost := (k*xbar + prior.W*prior.M) / (k + prior.W)
		if !validParam(aPost) || !validParam(bPost) || !validParam(wPost) || !finite(mPost) {
			issues[i] = append(issues[i], FieldIssue{Field: FieldExpectedLoss, Reason: "non-finite or non-positive posterior parameters"})
			continue
		}
		prec := distuv.Gamma{Alpha: aPost, Beta: bPost, Src: src}
		std := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
		bad := 0
		for j := range s {
			sig2 := 1 / prec.Rand()
			mu := mPost + std.Rand()*math.Sqrt(sig2/wPost)
			v := math.Exp(mu + sig2/2)
			if !finite(v) {
				bad++
				v = 0
			}
			s[j] = v
		}
		if bad > 0 {
			issues[i] = append(issues[i], FieldIssue{Field: FieldExpectedLoss, Reason: "posterior draws overflowed; affected draws set to 0"})
		}
	}
	return out, issues
}

// EvalSamples 由各 variant 的後驗樣本計算 prob_being_best 與 expected_loss。
//
// 每次抽樣取各 variant 的最大值；平手時歸給順序在前者。
func EvalSamples(samples [][]float64) (probBest, expLoss []float64) {
	k := len(samples)
	probBest = make([]float64, k)
	expLoss = make([]float64, k)
	if k == 0 || len(samples[0]) == 0 {
		return probBest, expLoss
	}
	n := len(samples[0])
	wins := make([]int, k)
	for j := 0; j < n; j++ {
		best := 0
		for i := 1; i < k; i++ {
			if samples[i][j] > samples[best][j] {
				best = i
			}
		}
		wins[best]++
		top := samples[best][j]
		for i := 0; i < k; i++ {
			expLoss[i] += top - samples[i][j]
		}
	}
	for i := 0; i < k; i++ {
		probBest[i] = float64(wins[i]) / float64(n)
		expLoss[i] /= float64(n)
	}
	return probBest, expLoss
}

// HDI 最高密度可信區間：包含 prob 比例樣本的最窄區間。
// 樣本中的非有限值會被忽略；沒有可用樣本時回傳 NaN。
func HDI(samples []float64, prob float64) (lo, hi float64) {
	xs := make([]float64, 0, len(samples))
	for _, v := range samples {
		if finite(v) {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 || !(prob > 0 && prob <= 1) {
		return math.NaN(), math.NaN()
	}
	sort.Float64s(xs)
	n := len(xs)
	inc := int(math.Floor(prob * float64(n)))
	if inc >= n {
		return xs[0], xs[n-1]
	}
	if inc < 1 {
		inc = 1
	}
	best := 0
	width := math.Inf(1)
	for i := 0; i+inc < n; i++ {
		if w := xs[i+inc] - xs[i]; w < width {
			width = w
			best = i
		}
	}
	return xs[best], xs[best+inc]
}

// Uplift 逐元素相對差 (treatment − control) / control。control 為 0 的位置略過。
func Uplift(treatment, control []float64) []float64 {
	n := min(len(treatment), len(control))
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if control[i] == 0 {
			continue
		}
		out = append(out, (treatment[i]-control[i])/control[i])
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validParam(v float64) bool {
	return finite(v) && v > 0
}
