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

// Package dataset 定義實驗觀測表：一列代表一個用戶在實驗期間的消費結果。
package dataset

import (
	"fmt"
	"math"
	"strings"

	"github.com/zintix-labs/ablab/errs"
)

// 欄位名稱，與倉儲查詢輸出的欄位一致。
const (
	ColUserID         = "user_id"
	ColTestGroup      = "test_group"
	ColTotalSpend     = "total_spend"
	ColTotalWinsSpend = "total_wins_spend"
)

// Row 單一用戶的觀測值
type Row struct {
	UserID         string  `json:"user_id"`
	TestGroup      string  `json:"test_group"`
	TotalSpend     float64 `json:"total_spend"`
	TotalWinsSpend float64 `json:"total_wins_spend"`
}

// Table 觀測表。核心元件只讀不寫。
type Table struct {
	Rows []Row
}

// New 以給定列建立 Table（複製一份，呼叫端之後修改 rows 不影響 Table）。
func New(rows ...Row) *Table {
	return &Table{Rows: append([]Row(nil), rows...)}
}

// Len 列數
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Validate 檢查 user_id 非空且唯一、消費值有限且非負。
func (t *Table) Validate() error {
	if t == nil {
		return errs.NewWarn("nil table")
	}
	seen := make(map[string]struct{}, len(t.Rows))
	for i, r := range t.Rows {
		id := strings.TrimSpace(r.UserID)
		if id == "" {
			return errs.Warnf("row %d: empty %s", i, ColUserID)
		}
		if _, ok := seen[id]; ok {
			return errs.Warnf("row %d: duplicate %s %q", i, ColUserID, id)
		}
		seen[id] = struct{}{}
		if err := checkSpend(i, ColTotalSpend, r.TotalSpend); err != nil {
			return err
		}
		if err := checkSpend(i, ColTotalWinsSpend, r.TotalWinsSpend); err != nil {
			return err
		}
	}
	return nil
}

func checkSpend(i int, col string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errs.Warnf("row %d: %s is not finite", i, col)
	}
	if v < 0 {
		return errs.Warnf("row %d: %s is negative (%g)", i, col, v)
	}
	return nil
}

// Column 依欄位名稱取出數值欄（回傳新 slice）。
func (t *Table) Column(name string) ([]float64, error) {
	get, err := accessor(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, t.Len())
	for i := range out {
		out[i] = get(&t.Rows[i])
	}
	return out, nil
}

// Positive 回傳目標欄中大於 0 的值，即分布擬合使用的正值子集。
func (t *Table) Positive(target string) ([]float64, error) {
	get, err := accessor(target)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, t.Len())
	for i := range t.Rows {
		if v := get(&t.Rows[i]); v > 0 {
			out = append(out, v)
		}
	}
	return out, nil
}

// Labels 回傳表中出現過的分組標籤（依首次出現順序）。
func (t *Table) Labels() []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range t.Rows {
		if _, ok := seen[r.TestGroup]; ok {
			continue
		}
		seen[r.TestGroup] = struct{}{}
		out = append(out, r.TestGroup)
	}
	return out
}

// Conversions 將數值轉成轉換指標：v > 0 為 1，否則為 0。不修改輸入。
func Conversions(values []float64) []int {
	out := make([]int, len(values))
	for i, v := range values {
		if v > 0 {
			out[i] = 1
		}
	}
	return out
}

// ValuesOf 取出一組列的目標欄數值。
func ValuesOf(rows []Row, target string) ([]float64, error) {
	get, err := accessor(target)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i := range rows {
		out[i] = get(&rows[i])
	}
	return out, nil
}

// IsNumeric 回報欄位名稱是否為可分析的數值欄。
func IsNumeric(name string) bool {
	_, err := accessor(name)
	return err == nil
}

func accessor(name string) (func(*Row) float64, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ColTotalSpend:
		return func(r *Row) float64 { return r.TotalSpend }, nil
	case ColTotalWinsSpend:
		return func(r *Row) float64 { return r.TotalWinsSpend }, nil
	default:
		return nil, errs.NewWarn(fmt.Sprintf("unknown numeric column: %q", name))
	}
}
