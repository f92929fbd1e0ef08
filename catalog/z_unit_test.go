package catalog

import (
	"errors"
	"reflect"
	"testing"

	"github.com/zintix-labs/ablab/setting"
)

func TestRegisterAndLookup(t *testing.T) {
	c := New()
	if err := c.Register(Entry{Name: " Homw ", Query: " select 1 "}, Entry{Name: "bingo_aloha"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	e, ok := c.Get("HOMW")
	if !ok || e.Query != "select 1" || !e.HasQuery() {
		t.Fatalf("got %+v,%v", e, ok)
	}
	if got := c.Names(); !reflect.DeepEqual(got, []string{"bingo_aloha", "homw"}) {
		t.Fatalf("got %v", got)
	}
	if s := c.Summaries(); s[0].HasQuery || !s[1].HasQuery {
		t.Fatalf("got %+v", s)
	}
}

func TestDuplicateAndFrozen(t *testing.T) {
	c := New()
	err := c.Register(Entry{Name: "a"}, Entry{Name: "A"})
	if !errors.Is(err, ErrDupName) {
		t.Fatalf("got %v want duplicate", err)
	}
	if len(c.Names()) != 0 {
		t.Fatalf("failed register must not leave partial entries")
	}
	c.Freeze()
	if err := c.Register(Entry{Name: "b"}); err == nil {
		t.Fatalf("register after freeze accepted")
	}
	if err := New().Register(Entry{Name: "../etc"}); err == nil {
		t.Fatalf("path-like name accepted")
	}
}

func TestFromSetting(t *testing.T) {
	s, err := setting.Default()
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	c, err := FromSetting(s)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if !c.IsFrozen() || len(c.Names()) != len(s.Clients) {
		t.Fatalf("got frozen=%v names=%d", c.IsFrozen(), len(c.Names()))
	}
}
