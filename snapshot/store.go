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

// Package snapshot 以 JSON + zstd（.json.zst）保存觀測表與中間產物。
package snapshot

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/ablab/bayes"
	"github.com/zintix-labs/ablab/dataset"
	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/fit"
)

// Ext 快照檔副檔名
const Ext = ".json.zst"

// 各產物的檔名後綴
const (
	suffixData    = "_data"
	suffixFit     = "_distribution_fit"
	suffixSamples = "_posterior_samples"
)

// Store 一個目錄下的快照檔。目錄在第一次寫入時建立。
type Store struct {
	Dir string
}

func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Path 名稱對應的檔案路徑
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name+Ext)
}

// Save 將 v 以 JSON 編碼並 zstd 壓縮寫入 name.json.zst。先寫同目錄暫存檔再 rename，失敗時不留下半成品。
func (s *Store) Save(name string, v any) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errs.Wrap(err, "snapshot: mkdir output dir")
	}
	path := s.Path(name)
	f, err := os.CreateTemp(s.Dir, "."+name+"-*.tmp")
	if err != nil {
		return errs.Wrap(err, "snapshot: create temp for "+path)
	}
	tmp := f.Name()
	// 寫入失敗時移除暫存檔，目標檔保持原狀
	ok := false
	defer func() {
		if !ok {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return errs.Wrap(err, "snapshot: create zstd writer")
	}
	if err := json.NewEncoder(zw).Encode(v); err != nil {
		_ = zw.Close()
		return errs.Wrap(err, "snapshot: write "+path)
	}
	if err := zw.Close(); err != nil {
		return errs.Wrap(err, "snapshot: close zstd writer")
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(err, "snapshot: close "+tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.Wrap(err, "snapshot: rename into "+path)
	}
	ok = true
	return nil
}

func (s *Store) Load(name string, v any) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}
	path := s.Path(name)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errs.Wrap(err, "snapshot: open "+path)
	}
	defer func() { _ = f.Close() }()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return false, errs.Wrap(err, "snapshot: create zstd reader")
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return false, errs.Wrap(err, "snapshot: read "+path)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errs.Wrap(err, "snapshot: decode "+path)
	}
	return true, nil
}

// SaveTable 保存客戶的觀測表（欄式格式）
func (s *Store) SaveTable(client string, t *dataset.Table) error {
	if t == nil {
		return errs.NewWarn("snapshot: table is nil")
	}
	return s.Save(client+suffixData, t.ToColumns())
}

// LoadTable 讀取客戶的觀測表；沒有快取時回傳 (nil, false, nil)。
func (s *Store) LoadTable(client string) (*dataset.Table, bool, error) {
	var cols dataset.Columns
	ok, err := s.Load(client+suffixData, &cols)
	if err != nil || !ok {
		return nil, ok, err
	}
	t, err := cols.Table()
	if err != nil {
		return nil, false, errs.Wrap(err, "snapshot: corrupted table for "+client)
	}
	return t, true, nil
}

// SaveRanking 保存分布擬合排名
func (s *Store) SaveRanking(client string, rk *fit.Ranking) error {
	if rk == nil {
		return errs.NewWarn("snapshot: ranking is nil")
	}
	return s.Save(client+suffixFit, rk)
}

// LoadRanking 讀取分布擬合排名
func (s *Store) LoadRanking(client string) (*fit.Ranking, bool, error) {
	var rk fit.Ranking
	ok, err := s.Load(client+suffixFit, &rk)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &rk, true, nil
}

// SaveSamples 保存營收後驗樣本
func (s *Store) SaveSamples(client string, ps *bayes.PosteriorSamples) error {
	if ps == nil {
		return errs.NewWarn("snapshot: samples are nil")
	}
	return s.Save(client+suffixSamples, ps)
}

func validName(name string) error {
	if name == "" {
		return errs.NewWarn("snapshot: empty name")
	}
	if strings.ContainsAny(name, `/\:`) || strings.HasPrefix(name, ".") {
		return errs.Warnf("snapshot: invalid name %q", name)
	}
	return nil
}
