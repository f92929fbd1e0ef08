package bayes

import "github.com/zintix-labs/ablab/errs"

// PosteriorSamples 各 variant 的後驗樣本，Samples[i] 對應 Variants[i]。
type PosteriorSamples struct {
	Variants []string    `json:"variants"`
	Samples  [][]float64 `json:"samples"`
}

// Interval 可信區間
type Interval struct {
	Variant string  `json:"variant" yaml:"variant"`
	Prob    float64 `json:"prob" yaml:"prob"`
	Low     float64 `json:"low" yaml:"low"`
	High    float64 `json:"high" yaml:"high"`
}

// UpliftName 相對提升區間的名稱
const UpliftName = "uplift"

func (p *PosteriorSamples) Of(variant string) ([]float64, bool) {
	for i, v := range p.Variants {
		if v == variant {
			return p.Samples[i], true
		}
	}
	return nil, false
}

// HDI 每個 variant 的最高密度區間
func (p *PosteriorSamples) HDI(prob float64) []Interval {
	out := make([]Interval, len(p.Variants))
	for i, v := range p.Variants {
		lo, hi := HDI(p.Samples[i], prob)
		out[i] = Interval{Variant: v, Prob: prob, Low: lo, High: hi}
	}
	return out
}

// Uplift 實驗組相對對照組的逐抽樣提升
func (p *PosteriorSamples) Uplift() ([]float64, error) {
	t, ok := p.Of(VariantTreatment)
	if !ok {
		return nil, errs.Fatalf("posterior samples missing variant %s", VariantTreatment)
	}
	c, ok := p.Of(VariantControl)
	if !ok {
		return nil, errs.Fatalf("posterior samples missing variant %s", VariantControl)
	}
	return Uplift(t, c), nil
}

// Intervals 各 variant 的 HDI 加上提升的 HDI
func (p *PosteriorSamples) Intervals(prob float64) ([]Interval, error) {
	out := p.HDI(prob)
	up, err := p.Uplift()
	if err != nil {
		return nil, err
	}
	lo, hi := HDI(up, prob)
	return append(out, Interval{Variant: UpliftName, Prob: prob, Low: lo, High: hi}), nil
}
