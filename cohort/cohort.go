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

// Package cohort 將原始分組標籤解析為實驗組 / 對照組。
package cohort

import (
	"sort"
	"strings"

	"github.com/zintix-labs/ablab/dataset"
	"github.com/zintix-labs/ablab/errs"
)

// Role 分組角色
type Role uint8

const (
	Treatment Role = iota + 1
	Control
)

func (r Role) String() string {
	switch r {
	case Treatment:
		return "treatment"
	case Control:
		return "control"
	default:
		return "unknown"
	}
}

// 預設標籤
var (
	DefaultTreatment = []string{"p", "assetario"}
	DefaultControl   = []string{"c", "control"}
)

// Vocabulary 標籤（小寫、去空白）到角色的對照表。
type Vocabulary struct {
	roles map[string]Role
}

// NewVocabulary 建立標籤對照表。任一清單為空，或同一標籤同時屬於兩組，皆為錯誤。
func NewVocabulary(treatment, control []string) (*Vocabulary, error) {
	if len(treatment) == 0 || len(control) == 0 {
		return nil, errs.NewFatal("cohort vocabulary needs at least one treatment and one control label")
	}
	v := &Vocabulary{roles: make(map[string]Role, len(treatment)+len(control))}
	if err := v.add(treatment, Treatment); err != nil {
		return nil, err
	}
	if err := v.add(control, Control); err != nil {
		return nil, err
	}
	return v, nil
}

// Default 預設對照表 {p, assetario} → treatment、{c, control} → control
func Default() *Vocabulary {
	v, err := NewVocabulary(DefaultTreatment, DefaultControl)
	if err != nil {
		panic(err)
	}
	return v
}

func (v *Vocabulary) add(labels []string, role Role) error {
	for _, raw := range labels {
		l := normalize(raw)
		if l == "" {
			return errs.Fatalf("empty %s label", role)
		}
		if prev, ok := v.roles[l]; ok && prev != role {
			return errs.Fatalf("label %q mapped to both treatment and control", l)
		}
		v.roles[l] = role
	}
	return nil
}

// RoleOf 查詢單一標籤的角色
func (v *Vocabulary) RoleOf(label string) (Role, bool) {
	r, ok := v.roles[normalize(label)]
	return r, ok
}

// Labels 回傳屬於指定角色的標籤（排序後）
func (v *Vocabulary) Labels(role Role) []string {
	out := []string{}
	for l, r := range v.roles {
		if r == role {
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

// Partition 解析後的兩組資料
type Partition struct {
	Treatment []dataset.Row
	Control   []dataset.Row
}

// Rows 依角色取列
func (p *Partition) Rows(role Role) []dataset.Row {
	if role == Treatment {
		return p.Treatment
	}
	return p.Control
}

// Values 依角色取目標欄數值
func (p *Partition) Values(role Role, target string) ([]float64, error) {
	return dataset.ValuesOf(p.Rows(role), target)
}

// Resolve 將每一列分入恰好一組。
//
// 出現未知標籤或任一組為空時回傳 errs.ErrAmbiguousCohort，錯誤訊息列出所有未知標籤。
// 結果與列的順序無關。
func (v *Vocabulary) Resolve(t *dataset.Table) (*Partition, error) {
	p := &Partition{}
	unknown := map[string]struct{}{}
	for _, r := range t.Rows {
		role, ok := v.RoleOf(r.TestGroup)
		switch {
		case !ok:
			unknown[r.TestGroup] = struct{}{}
		case role == Treatment:
			p.Treatment = append(p.Treatment, r)
		default:
			p.Control = append(p.Control, r)
		}
	}
	if len(unknown) > 0 {
		names := make([]string, 0, len(unknown))
		for l := range unknown {
			names = append(names, l)
		}
		sort.Strings(names)
		return nil, errs.Kindf(errs.AmbiguousCohort, "unmapped cohort labels %q (treatment=%v control=%v)",
			names, v.Labels(Treatment), v.Labels(Control))
	}
	if len(p.Treatment) == 0 {
		return nil, errs.Kindf(errs.AmbiguousCohort, "no rows resolved to treatment")
	}
	if len(p.Control) == 0 {
		return nil, errs.Kindf(errs.AmbiguousCohort, "no rows resolved to control")
	}
	return p, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
