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

package report

import (
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/zintix-labs/ablab/bayes"
	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/fit"
)

// 摘要列名稱
const (
	MetricProbBest        = "P( P > C)"
	MetricLossIfTreatment = "E( loss | P > C)"
	MetricLossIfControl   = "E( loss | C > P)"
	MetricDeltaARPU       = "Delta ARPU"
	MetricDeltaConversion = "Delta Conversion"
)

// SummaryRow 摘要表的一列；不適用的欄位為 nil。
type SummaryRow struct {
	Metric     string   `json:"metric" yaml:"metric"`
	Conversion *float64 `json:"conversion" yaml:"conversion"`
	Revenue    *float64 `json:"revenue" yaml:"revenue"`
}

// Report 一次評估的完整結果
type Report struct {
	RunID        uuid.UUID             `json:"run_id" yaml:"run_id"`
	Client       string                `json:"client" yaml:"client"`
	Target       string                `json:"target" yaml:"target"`
	Distribution string                `json:"distribution" yaml:"distribution"`
	Ranking      *fit.Ranking          `json:"ranking" yaml:"ranking"`
	Conversion   []bayes.VariantResult `json:"conversion" yaml:"conversion"`
	Revenue      []bayes.VariantResult `json:"revenue" yaml:"revenue"`
	Intervals    []bayes.Interval      `json:"intervals,omitempty" yaml:"intervals,omitempty"`
	Summary      []SummaryRow          `json:"summary" yaml:"summary"`
	Warnings     []string              `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	CreatedAt    time.Time             `json:"created_at" yaml:"created_at"`
}

// Input 組裝報告所需的結果；Conversion 與 Revenue 皆為 [P, C] 順序。
type Input struct {
	Client     string
	Ranking    *fit.Ranking
	Conversion []bayes.VariantResult
	Revenue    []bayes.VariantResult
	Intervals  []bayes.Interval
}

// New 組裝報告並計算摘要列。
func New(in Input) (*Report, error) {
	if in.Ranking == nil || len(in.Ranking.Candidates) == 0 {
		return nil, errs.NewFatal("report: ranking is empty")
	}
	if len(in.Conversion) != 2 || len(in.Revenue) != 2 {
		return nil, errs.Fatalf("report: need two variants, got conversion=%d revenue=%d",
			len(in.Conversion), len(in.Revenue))
	}
	r := &Report{
		RunID:        uuid.New(),
		Client:       in.Client,
		Target:       in.Ranking.Target,
		Distribution: in.Ranking.Best().Name,
		Ranking:      in.Ranking,
		Conversion:   in.Conversion,
		Revenue:      in.Revenue,
		CreatedAt:    time.Now().UTC(),
	}
	for _, iv := range in.Intervals {
		if isFinite(iv.Low) && isFinite(iv.High) {
			r.Intervals = append(r.Intervals, iv)
			continue
		}
		r.Warnings = append(r.Warnings, "credible interval undefined for "+iv.Variant)
	}
	if err := bayes.Degeneracy(in.Conversion); err != nil {
		r.Warnings = append(r.Warnings, "conversion: "+errMessage(err))
	}
	if err := bayes.Degeneracy(in.Revenue); err != nil {
		r.Warnings = append(r.Warnings, "revenue: "+errMessage(err))
	}
	c, v := in.Conversion, in.Revenue
	r.Summary = []SummaryRow{
		{Metric: MetricProbBest, Conversion: ptr(c[0].ProbBeingBest), Revenue: ptr(v[0].ProbBeingBest)},
		{Metric: MetricLossIfTreatment, Conversion: ptr(c[0].ExpectedLoss), Revenue: ptr(v[0].ExpectedLoss)},
		{Metric: MetricLossIfControl, Conversion: ptr(c[1].ExpectedLoss), Revenue: ptr(v[1].ExpectedLoss)},
		{Metric: MetricDeltaARPU, Revenue: ptr(v[0].AvgValues - v[1].AvgValues)},
		{Metric: MetricDeltaConversion, Conversion: ptr(c[0].PositiveRate - c[1].PositiveRate)},
	}
	return r, nil
}

// Row 依名稱取摘要列
func (r *Report) Row(metric string) (SummaryRow, bool) {
	for _, s := range r.Summary {
		if s.Metric == metric {
			return s, true
		}
	}
	return SummaryRow{}, false
}

func (r *Report) WriteWith(w io.Writer, rd Render) error {
	return rd.Write(w, r)
}

func ptr(v float64) *float64 {
	return &v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func errMessage(err error) string {
	if e, ok := errs.AsErr(err); ok {
		return e.Message
	}
	return err.Error()
}
