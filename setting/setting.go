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

package setting

import (
	"runtime"
	"strings"

	"github.com/zintix-labs/ablab/cohort"
	"github.com/zintix-labs/ablab/dataset"
	"github.com/zintix-labs/ablab/errs"
)

// DriverSQLite 目前唯一支援的倉儲驅動
const DriverSQLite = "sqlite"

// Setting 一次評估執行所需的全部設定。
type Setting struct {
	Target        string           `yaml:"target"         json:"target"`
	Distributions []string         `yaml:"distributions"  json:"distributions"`
	Cohorts       CohortSetting    `yaml:"cohorts"        json:"cohorts"`
	Seed          int64            `yaml:"seed"           json:"seed"`
	SimCount      int              `yaml:"sim_count"      json:"sim_count"`
	HDIProb       float64          `yaml:"hdi_prob"       json:"hdi_prob"`
	RawDir        string           `yaml:"raw_dir"        json:"raw_dir"`
	ProcessedDir  string           `yaml:"processed_dir"  json:"processed_dir"`
	Workers       int              `yaml:"workers"        json:"workers"`
	Warehouse     WarehouseSetting `yaml:"warehouse"      json:"warehouse"`
	Clients       []ClientSetting  `yaml:"clients"        json:"clients"`
}

// CohortSetting 分組標籤
type CohortSetting struct {
	Treatment []string `yaml:"treatment" json:"treatment"`
	Control   []string `yaml:"control"   json:"control"`
}

// WarehouseSetting 資料倉儲連線
type WarehouseSetting struct {
	Driver string `yaml:"driver" json:"driver"`
	DSN    string `yaml:"dsn"    json:"dsn"`
}

// ClientSetting 一個客戶（遊戲）與其倉儲查詢。Query 為空代表只能讀快取。
type ClientSetting struct {
	Name  string `yaml:"name"  json:"name"`
	Query string `yaml:"query" json:"query"`
}

// base 解碼前的預設值：檔案中沒寫的欄位沿用這裡的值。
func base() *Setting {
	return &Setting{
		Target:        dataset.ColTotalWinsSpend,
		Distributions: []string{"norm", "expon", "lognorm", "gamma", "weibull_min", "pareto"},
		Cohorts: CohortSetting{
			Treatment: append([]string(nil), cohort.DefaultTreatment...),
			Control:   append([]string(nil), cohort.DefaultControl...),
		},
		Seed:         42,
		SimCount:     20000,
		HDIProb:      0.90,
		RawDir:       "raw_data",
		ProcessedDir: "processed_data",
		Warehouse:    WarehouseSetting{Driver: DriverSQLite},
	}
}

// init 正規化後驗證
func (s *Setting) init() error {
	s.Target = strings.ToLower(strings.TrimSpace(s.Target))
	for i, d := range s.Distributions {
		s.Distributions[i] = strings.ToLower(strings.TrimSpace(d))
	}
	for i := range s.Clients {
		s.Clients[i].Name = strings.ToLower(strings.TrimSpace(s.Clients[i].Name))
		s.Clients[i].Query = strings.TrimSpace(s.Clients[i].Query)
	}
	s.Warehouse.Driver = strings.ToLower(strings.TrimSpace(s.Warehouse.Driver))
	if s.Workers <= 0 {
		s.Workers = runtime.NumCPU()
	}
	return s.valid()
}

func (s *Setting) valid() error {
	if !dataset.IsNumeric(s.Target) {
		return errs.Fatalf("target %q is not a numeric column", s.Target)
	}
	if len(s.Distributions) == 0 {
		return errs.NewFatal("empty distributions")
	}
	if s.SimCount <= 0 {
		return errs.Fatalf("sim_count must be positive, got %d", s.SimCount)
	}
	if !(s.HDIProb > 0 && s.HDIProb < 1) {
		return errs.Fatalf("hdi_prob must be in (0,1), got %v", s.HDIProb)
	}
	if _, err := s.Vocabulary(); err != nil {
		return errs.Wrap(err, "invalid cohorts")
	}
	if s.RawDir == "" || s.ProcessedDir == "" {
		return errs.NewFatal("raw_dir and processed_dir are required")
	}
	needWarehouse := false
	for i, c := range s.Clients {
		if c.Name == "" {
			return errs.Fatalf("clients[%d]: name required", i)
		}
		if c.Query != "" {
			needWarehouse = true
		}
	}
	if needWarehouse {
		if s.Warehouse.Driver != DriverSQLite {
			return errs.Fatalf("unsupported warehouse driver: %q", s.Warehouse.Driver)
		}
		if s.Warehouse.DSN == "" {
			return errs.NewFatal("warehouse.dsn required when a client query is configured")
		}
	}
	return nil
}

// Vocabulary 依設定建立分組對照表
func (s *Setting) Vocabulary() (*cohort.Vocabulary, error) {
	return cohort.NewVocabulary(s.Cohorts.Treatment, s.Cohorts.Control)
}

// Client 依名稱取客戶設定
func (s *Setting) Client(name string) (ClientSetting, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range s.Clients {
		if c.Name == name {
			return c, true
		}
	}
	return ClientSetting{}, false
}
