package fit

import (
	"sort"
	"strings"

	"github.com/zintix-labs/ablab/errs"
)

// Registry 分布族名稱 → 實作。名稱不分大小寫。
type Registry struct {
	families map[string]Family
}

// NewRegistry 建立 Registry，重複名稱為 fatal 錯誤。
func NewRegistry(families ...Family) (*Registry, error) {
	r := &Registry{families: make(map[string]Family, len(families))}
	for _, f := range families {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry 內建的六個分布族
func DefaultRegistry() *Registry {
	r, err := NewRegistry(normal{}, exponential{}, logNormal{}, gammaFamily{}, weibullMin{}, pareto{})
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultNames 預設的分布族順序
func DefaultNames() []string {
	return []string{Norm, Expon, Lognorm, Gamma, WeibullMin, Pareto}
}

func (r *Registry) Register(f Family) error {
	if f == nil {
		return errs.NewFatal("nil distribution family")
	}
	name := key(f.Name())
	if name == "" {
		return errs.NewFatal("distribution family name required")
	}
	if _, ok := r.families[name]; ok {
		return errs.Fatalf("duplicate distribution family: %s", name)
	}
	r.families[name] = f
	return nil
}

func (r *Registry) Lookup(name string) (Family, bool) {
	f, ok := r.families[key(name)]
	return f, ok
}

// Names 已註冊的名稱（排序後）
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.families))
	for n := range r.families {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
