package setting

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/setting/defaults"
	"gopkg.in/yaml.v3"
)

// FromYAML 解析 YAML（嚴格模式：未知欄位視為錯誤），初始化並檢查後回傳。
func FromYAML(data []byte) (*Setting, error) {
	s := base()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.Wrap(err, "failed to decode setting yaml")
	}
	if err := s.init(); err != nil {
		return nil, errs.Wrap(err, "setting initialized err")
	}
	return s, nil
}

// FromJSON 解析 JSON，初始化並檢查後回傳。
func FromJSON(data []byte) (*Setting, error) {
	s := base()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		return nil, errs.Wrap(err, "failed to decode setting json")
	}
	if err := s.init(); err != nil {
		return nil, errs.Wrap(err, "setting initialized err")
	}
	return s, nil
}

// Load 由 fsys 讀取設定檔，依副檔名決定格式。
func Load(fsys fs.FS, name string) (*Setting, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.Wrap(err, "can not read setting file")
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FromYAML(raw)
	case ".json":
		return FromJSON(raw)
	default:
		return nil, errs.Fatalf("unsupported setting format: %q", name)
	}
}

// LoadFile 讀取本機路徑上的設定檔；path 為空時回傳內建預設值。
func LoadFile(path string) (*Setting, error) {
	if path == "" {
		return Default()
	}
	dir, file := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	return Load(os.DirFS(dir), file)
}

// Default 內建的預設設定
func Default() (*Setting, error) {
	return Load(defaults.FS, defaults.Name)
}
