package bayes

import (
	"math"

	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/sdk/core"
)

type deltaVariant struct {
	name      string
	totals    int
	positives int
	sumValues float64
	sumLogs   float64
	sumLogs2  float64
}

// DeltaLognormalTest 營收檢定：轉換（Beta）× 正值營收（log-normal）。
type DeltaLognormalTest struct {
	variants []deltaVariant
	index    map[string]int
	prior    LognormalPrior
}

func NewDeltaLognormalTest() *DeltaLognormalTest {
	return &DeltaLognormalTest{index: map[string]int{}, prior: DefaultLognormalPrior()}
}

// AddVariant 以原始營收值新增 variant，只彙總 > 0 的值。
func (d *DeltaLognormalTest) AddVariant(name string, data []float64) error {
	if name == "" {
		return errs.NewWarn("variant name required")
	}
	if _, ok := d.index[name]; ok {
		return errs.Warnf("duplicate variant: %s", name)
	}
	v := deltaVariant{name: name, totals: len(data)}
	for i, x := range data {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return errs.Warnf("variant %s: value at %d is not finite", name, i)
		}
		if x > 0 {
			l := math.Log(x)
			v.positives++
			v.sumValues += x
			v.sumLogs += l
			v.sumLogs2 += l * l
		}
	}
	d.index[name] = len(d.variants)
	d.variants = append(d.variants, v)
	return nil
}

// Variants 註冊順序的 variant 名稱
func (d *DeltaLognormalTest) Variants() []string {
	out := make([]string, len(d.variants))
	for i, v := range d.variants {
		out[i] = v.name
	}
	return out
}

func (d *DeltaLognormalTest) draw(seed int64, simCount int) ([][]float64, [][]FieldIssue, error) {
	if err := checkRun(len(d.variants), simCount); err != nil {
		return nil, nil, err
	}
	k := len(d.variants)
	totals, positives := make([]int, k), make([]int, k)
	sumLogs, sumLogs2 := make([]float64, k), make([]float64, k)
	ones := make([]float64, k)
	for i, v := range d.variants {
		totals[i], positives[i] = v.totals, v.positives
		sumLogs[i], sumLogs2[i] = v.sumLogs, v.sumLogs2
		ones[i] = 1
	}
	src := core.NewWithSeed(seed)
	conv := BetaPosteriors(totals, positives, ones, ones, simCount, src)
	means, issues := LognormalPosteriors(positives, sumLogs, sumLogs2, simCount, d.prior, src)
	for i := range conv {
		for j := range conv[i] {
			conv[i][j] *= means[i][j]
		}
	}
	return conv, issues, nil
}

// Samples 各 variant 的每用戶營收後驗樣本（與 Evaluate 使用同一組抽樣）。
func (d *DeltaLognormalTest) Samples(seed int64, simCount int) ([][]float64, error) {
	s, _, err := d.draw(seed, simCount)
	return s, err
}

// Evaluate 回傳各 variant 的結果，順序與註冊順序相同。
func (d *DeltaLognormalTest) Evaluate(seed int64, simCount int) ([]VariantResult, error) {
	samples, issues, err := d.draw(seed, simCount)
	if err != nil {
		return nil, err
	}
	pbb, loss := EvalSamples(samples)
	out := make([]VariantResult, len(d.variants))
	for i, v := range d.variants {
		r := VariantResult{
			Variant:       v.name,
			Totals:        v.totals,
			Positives:     v.positives,
			SumValues:     v.sumValues,
			ProbBeingBest: pbb[i],
			ExpectedLoss:  loss[i],
			Degenerate:    issues[i],
		}
		if v.totals > 0 {
			r.AvgValues = v.sumValues / float64(v.totals)
		} else {
			r.Degenerate = append(r.Degenerate, FieldIssue{Field: FieldAvgValues, Reason: "no observations"})
		}
		if v.positives > 0 {
			r.AvgPositiveValues = v.sumValues / float64(v.positives)
		}
		if len(issues[i]) > 0 {
			// 該 variant 的後驗樣本不可靠，勝率與損失都一併標記
			r.Degenerate = append(r.Degenerate, FieldIssue{Field: FieldProbBeingBest, Reason: "computed from a degenerate posterior"})
		}
		out[i] = r
	}
	return out, nil
}
