package catalog

import (
	"sort"
	"strings"

	"github.com/zintix-labs/ablab/errs"
	"github.com/zintix-labs/ablab/setting"
)

var (
	ErrDupName = errs.NewFatal("duplicate client name")
)

// Entry 一個客戶與其倉儲查詢。Query 為空時只能從快取讀取資料。
type Entry struct {
	Name  string `json:"name"`
	Query string `json:"-"`
}

// HasQuery 是否設定了倉儲查詢
func (e Entry) HasQuery() bool {
	return e.Query != ""
}

// Summary 對外公開的客戶摘要
type Summary struct {
	Name     string `json:"name"`
	HasQuery bool   `json:"has_query"`
}

type Catalog struct {
	byName map[string]Entry
	names  []string // 用來穩定排序
	frozen bool
}

func New() *Catalog {
	return &Catalog{
		byName: map[string]Entry{},
		names:  make([]string, 0, 16),
	}
}

// FromSetting 以設定中的 clients 建立並凍結 Catalog
func FromSetting(s *setting.Setting) (*Catalog, error) {
	c := New()
	entries := make([]Entry, len(s.Clients))
	for i, cl := range s.Clients {
		entries[i] = Entry{Name: cl.Name, Query: cl.Query}
	}
	if err := c.Register(entries...); err != nil {
		return nil, err
	}
	c.Freeze()
	return c, nil
}

func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seen := map[string]struct{}{}
	for i := range metas {
		metas[i].Name = normalize(metas[i].Name)
		metas[i].Query = strings.TrimSpace(metas[i].Query)
		name := metas[i].Name
		if name == "" {
			return errs.NewFatal("client name required")
		}
		if strings.ContainsAny(name, `/\:`) {
			return errs.Fatalf("invalid client name: %q (no / \\ :)", name)
		}
		if _, ok := c.byName[name]; ok {
			return errs.WrapWithExtra(ErrDupName, "register client", name)
		}
		if _, ok := seen[name]; ok {
			return errs.WrapWithExtra(ErrDupName, "register client", name)
		}
		seen[name] = struct{}{}
	}
	for _, meta := range metas {
		c.byName[meta.Name] = meta
		c.names = append(c.names, meta.Name)
	}
	sort.Strings(c.names)
	return nil
}

func (c *Catalog) Get(name string) (Entry, bool) {
	m, ok := c.byName[normalize(name)]
	return m, ok
}

func (c *Catalog) Names() []string {
	if len(c.names) == 0 {
		return nil
	}
	return append([]string(nil), c.names...)
}

func (c *Catalog) Summaries() []Summary {
	out := make([]Summary, 0, len(c.names))
	for _, n := range c.names {
		out = append(out, Summary{Name: n, HasQuery: c.byName[n].HasQuery()})
	}
	return out
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
