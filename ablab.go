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

// Package ablab 提供評估引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Lab 把下列元件組裝在一起：
//  1. Catalog：客戶目錄，定義有哪些客戶以及各自的倉儲查詢。
//  2. Selector：分布擬合，依 AIC 挑出最適合正值營收的分布族。
//  3. Evaluator：貝氏檢定，計算轉換率與營收的勝率與期望損失。
//  4. Provider / Store：資料取得（快取或倉儲）與中間產物保存。
//
// 評估核心（fit / bayes）是純計算：不做 I/O、不修改輸入表、每次呼叫自帶 seed。
// I/O 全部集中在 Lab 這一層。
package ablab

import (
	"log/slog"

	"github.com/zintix-labs/ablab/bayes"
	"github.com/zintix-labs/ablab/catalog"
	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/fit"
	"github.com/zintix-labs/ablab/metrics"
	"github.com/zintix-labs/ablab/setting"
	"github.com/zintix-labs/ablab/snapshot"
	"github.com/zintix-labs/ablab/source"
)

// Lab 評估流程的組裝結果。建立後唯讀，可被多個 goroutine 同時使用。
type Lab struct {
	set       *setting.Setting
	cat       *catalog.Catalog
	reg       *fit.Registry
	sel       *fit.Selector
	eval      *bayes.Evaluator
	raw       *snapshot.Store
	processed *snapshot.Store
	provider  source.Provider
	wh        *source.Warehouse
	log       *slog.Logger
	met       *metrics.Metrics
}

type Option func(*Lab)

// WithProvider 以自訂的資料來源取代預設的快取 + 倉儲
func WithProvider(p source.Provider) Option {
	return func(l *Lab) { l.provider = p }
}

func WithLogger(log *slog.Logger) Option {
	return func(l *Lab) {
		if log != nil {
			l.log = log
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Lab) { l.met = m }
}

// WithRegistry 以自訂的分布族註冊表取代內建的六個分布族
func WithRegistry(reg *fit.Registry) Option {
	return func(l *Lab) {
		if reg != nil {
			l.reg = reg
		}
	}
}

// New 建立一個 Lab。
//
// 參數要求：
//   - set 不能為 nil，且必須已經過 setting 的初始化檢查（setting.Load / setting.Default）。
//   - 設定中的分布族必須全部存在於註冊表中，否則直接失敗。
func New(set *setting.Setting, opts ...Option) (*Lab, error) {
	if set == nil {
		return nil, errs.NewFatal("setting required")
	}
	l := &Lab{
		set: set,
		reg: fit.DefaultRegistry(),
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}

	cat, err := catalog.FromSetting(set)
	if err != nil {
		return nil, errs.Wrap(err, "build client catalog")
	}
	l.cat = cat

	sel, err := fit.NewSelector(l.reg, set.Distributions)
	if err != nil {
		return nil, errs.Wrap(err, "build distribution selector")
	}
	l.sel = sel

	vocab, err := set.Vocabulary()
	if err != nil {
		return nil, errs.Wrap(err, "build cohort vocabulary")
	}
	l.eval = bayes.NewEvaluator(
		bayes.WithVocabulary(vocab),
		bayes.WithTarget(set.Target),
		bayes.WithSeed(set.Seed),
		bayes.WithSimCount(set.SimCount),
	)

	l.raw = snapshot.New(set.RawDir)
	l.processed = snapshot.New(set.ProcessedDir)

	if l.provider == nil {
		c := &source.Cached{Store: l.raw, Catalog: cat, Log: l.log}
		if set.Warehouse.DSN != "" {
			wh, err := source.OpenWarehouse(set.Warehouse)
			if err != nil {
				return nil, errs.Wrap(err, "open warehouse")
			}
			l.wh = wh
			c.Warehouse = wh
		}
		l.provider = c
	}
	return l, nil
}

// Close 釋放 Lab 自行開啟的倉儲連線
func (l *Lab) Close() error {
	if l.wh == nil {
		return nil
	}
	return l.wh.Close()
}

func (l *Lab) Setting() *setting.Setting { return l.set }

func (l *Lab) Catalog() *catalog.Catalog { return l.cat }

func (l *Lab) Evaluator() *bayes.Evaluator { return l.eval }

func (l *Lab) Metrics() *metrics.Metrics { return l.met }

func (l *Lab) Logger() *slog.Logger { return l.log }

// Distributions 設定順序下參與擬合的分布族
func (l *Lab) Distributions() []string { return l.sel.Names() }

// Registered 註冊表中所有可用的分布族
func (l *Lab) Registered() []string { return l.reg.Names() }
