package bayes

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/ablab/errs"
)

// 欄位名稱，用於 FieldIssue.Field
const (
	FieldPositiveRate      = "positive_rate"
	FieldAvgValues         = "avg_values"
	FieldAvgPositiveValues = "avg_positive_values"
	FieldProbBeingBest     = "prob_being_best"
	FieldExpectedLoss      = "expected_loss"
)

// FieldIssue 欄位層級的數值退化標記：該欄位的值不可直接解讀。
type FieldIssue struct {
	Field  string `json:"field" yaml:"field"`
	Reason string `json:"reason" yaml:"reason"`
}

// VariantResult 單一 variant 的後驗摘要。回傳後不再修改。
type VariantResult struct {
	Variant           string       `json:"variant" yaml:"variant"`
	Totals            int          `json:"totals" yaml:"totals"`
	Positives         int          `json:"positives" yaml:"positives"`
	SumValues         float64      `json:"sum_values" yaml:"sum_values"`
	PositiveRate      float64      `json:"positive_rate" yaml:"positive_rate"`
	AvgValues         float64      `json:"avg_values" yaml:"avg_values"`
	AvgPositiveValues float64      `json:"avg_positive_values" yaml:"avg_positive_values"`
	ProbBeingBest     float64      `json:"prob_being_best" yaml:"prob_being_best"`
	ExpectedLoss      float64      `json:"expected_loss" yaml:"expected_loss"`
	Degenerate        []FieldIssue `json:"degenerate,omitempty" yaml:"degenerate,omitempty"`
}

// IsDegenerate 回報指定欄位是否被標記
func (v VariantResult) IsDegenerate(field string) bool {
	for _, d := range v.Degenerate {
		if d.Field == field {
			return true
		}
	}
	return false
}

// Degeneracy 彙整所有被標記的欄位為一個 Warn 等級的 NumericDegeneracy 錯誤；沒有標記時回傳 nil。
func Degeneracy(results []VariantResult) error {
	parts := []string{}
	for _, r := range results {
		for _, d := range r.Degenerate {
			parts = append(parts, fmt.Sprintf("%s.%s: %s", r.Variant, d.Field, d.Reason))
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return errs.Kindf(errs.NumericDegeneracy, "%s", strings.Join(parts, "; "))
}
