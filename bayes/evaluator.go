package bayes

import (
	"strings"

	"github.com/zintix-labs/ablab/cohort"
	"github.com/zintix-labs/ablab/dataset"
	"github.com/zintix-labs/ablab/errs"
)

// variant 名稱：實驗組 P、對照組 C
const (
	VariantTreatment = "P"
	VariantControl   = "C"
)

// 預設值
const (
	DefaultSeed     int64 = 42
	DefaultSimCount       = 20000
	DefaultTarget         = dataset.ColTotalWinsSpend
	// SupportedRevenueFamily 營收檢定目前唯一支援的分布族
	SupportedRevenueFamily = "lognorm"
)

// Evaluator 將觀測表切成兩組後執行轉換率與營收檢定。
//
// Evaluator 不做 I/O、不修改輸入表，每次呼叫都以 Seed 建立自己的亂數來源，
// 可被多個 goroutine 同時使用。
type Evaluator struct {
	Vocab    *cohort.Vocabulary
	Target   string
	Seed     int64
	SimCount int
}

type Option func(*Evaluator)

func WithVocabulary(v *cohort.Vocabulary) Option {
	return func(e *Evaluator) {
		if v != nil {
			e.Vocab = v
		}
	}
}

func WithTarget(target string) Option {
	return func(e *Evaluator) {
		if target != "" {
			e.Target = target
		}
	}
}

func WithSeed(seed int64) Option {
	return func(e *Evaluator) { e.Seed = seed }
}

func WithSimCount(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.SimCount = n
		}
	}
}

func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		Vocab:    cohort.Default(),
		Target:   DefaultTarget,
		Seed:     DefaultSeed,
		SimCount: DefaultSimCount,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// split 解析分組並取出兩組的目標欄數值（實驗組在前）。
func (e *Evaluator) split(t *dataset.Table) (treat, ctrl []float64, err error) {
	if t == nil {
		return nil, nil, errs.NewFatal("nil table")
	}
	p, err := e.Vocab.Resolve(t)
	if err != nil {
		return nil, nil, err
	}
	if treat, err = p.Values(cohort.Treatment, e.Target); err != nil {
		return nil, nil, err
	}
	if ctrl, err = p.Values(cohort.Control, e.Target); err != nil {
		return nil, nil, err
	}
	return treat, ctrl, nil
}

// EvaluateConversion 轉換率檢定，結果依序為 P、C。
func (e *Evaluator) EvaluateConversion(t *dataset.Table) ([]VariantResult, error) {
	treat, ctrl, err := e.split(t)
	if err != nil {
		return nil, err
	}
	test := NewBinaryTest()
	if err := test.AddVariant(VariantTreatment, dataset.Conversions(treat)); err != nil {
		return nil, err
	}
	if err := test.AddVariant(VariantControl, dataset.Conversions(ctrl)); err != nil {
		return nil, err
	}
	return test.Evaluate(e.Seed, e.SimCount)
}

// EvaluateRevenue 營收檢定，結果依序為 P、C。只支援 lognorm。
func (e *Evaluator) EvaluateRevenue(family string, t *dataset.Table) ([]VariantResult, error) {
	test, err := e.revenueTest(family, t)
	if err != nil {
		return nil, err
	}
	return test.Evaluate(e.Seed, e.SimCount)
}

// RevenueSamples 營收後驗的原始樣本，與 EvaluateRevenue 使用相同的抽樣。
func (e *Evaluator) RevenueSamples(family string, t *dataset.Table) (*PosteriorSamples, error) {
	test, err := e.revenueTest(family, t)
	if err != nil {
		return nil, err
	}
	s, err := test.Samples(e.Seed, e.SimCount)
	if err != nil {
		return nil, err
	}
	return &PosteriorSamples{Variants: test.Variants(), Samples: s}, nil
}

func (e *Evaluator) revenueTest(family string, t *dataset.Table) (*DeltaLognormalTest, error) {
	if !strings.EqualFold(strings.TrimSpace(family), SupportedRevenueFamily) {
		return nil, errs.Kindf(errs.UnsupportedDistribution,
			"revenue test is not implemented for distribution %q (supported: %s)", family, SupportedRevenueFamily)
	}
	treat, ctrl, err := e.split(t)
	if err != nil {
		return nil, err
	}
	test := NewDeltaLognormalTest()
	if err := test.AddVariant(VariantTreatment, treat); err != nil {
		return nil, err
	}
	if err := test.AddVariant(VariantControl, ctrl); err != nil {
		return nil, err
	}
	return test, nil
}
