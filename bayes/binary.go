package bayes

import (
	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/sdk/core"
)

type binaryVariant struct {
	name      string
	totals    int
	positives int
	aPrior    float64
	bPrior    float64
}

// BinaryTest 轉換率檢定，先驗 Beta(1,1)。
type BinaryTest struct {
	variants []binaryVariant
	index    map[string]int
}

func NewBinaryTest() *BinaryTest {
	return &BinaryTest{index: map[string]int{}}
}

// AddVariant 以 0/1 觀測新增 variant
func (b *BinaryTest) AddVariant(name string, data []int) error {
	pos := 0
	for i, v := range data {
		switch v {
		case 0:
		case 1:
			pos++
		default:
			return errs.Warnf("variant %s: value %d at %d is not 0/1", name, v, i)
		}
	}
	return b.AddVariantAgg(name, len(data), pos)
}

// AddVariantAgg 以彙總值新增 variant
func (b *BinaryTest) AddVariantAgg(name string, totals, positives int) error {
	if name == "" {
		return errs.NewWarn("variant name required")
	}
	if _, ok := b.index[name]; ok {
		return errs.Warnf("duplicate variant: %s", name)
	}
	if totals < 0 || positives < 0 || positives > totals {
		return errs.Warnf("variant %s: invalid totals=%d positives=%d", name, totals, positives)
	}
	b.index[name] = len(b.variants)
	b.variants = append(b.variants, binaryVariant{name: name, totals: totals, positives: positives, aPrior: 1, bPrior: 1})
	return nil
}

// Variants 註冊順序的 variant 名稱
func (b *BinaryTest) Variants() []string {
	out := make([]string, len(b.variants))
	for i, v := range b.variants {
		out[i] = v.name
	}
	return out
}

// Samples 各 variant 的轉換率後驗樣本
func (b *BinaryTest) Samples(seed int64, simCount int) ([][]float64, error) {
	if err := checkRun(len(b.variants), simCount); err != nil {
		return nil, err
	}
	k := len(b.variants)
	totals, positives := make([]int, k), make([]int, k)
	aPrior, bPrior := make([]float64, k), make([]float64, k)
	for i, v := range b.variants {
		totals[i], positives[i] = v.totals, v.positives
		aPrior[i], bPrior[i] = v.aPrior, v.bPrior
	}
	return BetaPosteriors(totals, positives, aPrior, bPrior, simCount, core.NewWithSeed(seed)), nil
}

// Evaluate 回傳各 variant 的結果，順序與註冊順序相同。
func (b *BinaryTest) Evaluate(seed int64, simCount int) ([]VariantResult, error) {
	samples, err := b.Samples(seed, simCount)
	if err != nil {
		return nil, err
	}
	pbb, loss := EvalSamples(samples)
	out := make([]VariantResult, len(b.variants))
	for i, v := range b.variants {
		r := VariantResult{
			Variant:       v.name,
			Totals:        v.totals,
			Positives:     v.positives,
			SumValues:     float64(v.positives),
			ProbBeingBest: pbb[i],
			ExpectedLoss:  loss[i],
		}
		if v.totals > 0 {
			r.PositiveRate = float64(v.positives) / float64(v.totals)
		} else {
			r.Degenerate = append(r.Degenerate, FieldIssue{Field: FieldPositiveRate, Reason: "no observations: posterior equals the prior"})
		}
		out[i] = r
	}
	return out, nil
}

func checkRun(variants, simCount int) error {
	if variants < 2 {
		return errs.Fatalf("at least two variants required, got %d", variants)
	}
	if simCount <= 0 {
		return errs.Fatalf("sim count must be positive, got %d", simCount)
	}
	return nil
}
