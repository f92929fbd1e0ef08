package dataset

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/zintix-labs/ablab/errs"
)

func scenario() *Table {
	return New(
		Row{UserID: "u1", TestGroup: "Control", TotalSpend: 0, TotalWinsSpend: 0},
		Row{UserID: "u2", TestGroup: "Control", TotalSpend: 100, TotalWinsSpend: 95},
		Row{UserID: "u3", TestGroup: "P", TotalSpend: 50, TotalWinsSpend: 50},
		Row{UserID: "u4", TestGroup: "P", TotalSpend: 0, TotalWinsSpend: 0},
	)
}

func TestConversionsIndicator(t *testing.T) {
	tb := scenario()
	col, err := tb.Column(ColTotalWinsSpend)
	if err != nil {
		t.Fatalf("column: %v", err)
	}
	got := Conversions(col)
	want := []int{0, 1, 1, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	again := Conversions(col)
	if !reflect.DeepEqual(again, got) {
		t.Fatalf("conversion is not idempotent: %v vs %v", again, got)
	}
	if col[1] != 95 {
		t.Fatalf("input mutated: %v", col)
	}
}

func TestPositiveSubset(t *testing.T) {
	got, err := scenario().Positive("total_wins_spend")
	if err != nil {
		t.Fatalf("positive: %v", err)
	}
	if !reflect.DeepEqual(got, []float64{95, 50}) {
		t.Fatalf("got %v want [95 50]", got)
	}
}

func TestUnknownColumn(t *testing.T) {
	if _, err := scenario().Column("revenue"); err == nil {
		t.Fatalf("expected error for unknown column")
	}
	if IsNumeric(ColTestGroup) {
		t.Fatalf("test_group must not be numeric")
	}
}

func TestValidate(t *testing.T) {
	if err := scenario().Validate(); err != nil {
		t.Fatalf("valid table rejected: %v", err)
	}
	dup := New(Row{UserID: "a"}, Row{UserID: "a"})
	if err := dup.Validate(); err == nil {
		t.Fatalf("duplicate user id accepted")
	}
	bad := New(Row{UserID: "a", TotalSpend: math.NaN()})
	err := bad.Validate()
	var e *errs.E
	if !errors.As(err, &e) || e.ErrLv != errs.Warn {
		t.Fatalf("expected warn error, got %v", err)
	}
}

func TestColumnsRoundTripShape(t *testing.T) {
	tb := scenario()
	back, err := tb.ToColumns().Table()
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	if !reflect.DeepEqual(back.Rows, tb.Rows) {
		t.Fatalf("rows differ after columnar conversion")
	}
	broken := &Columns{UserID: []string{"a"}, TestGroup: []string{}}
	if _, err := broken.Table(); err == nil {
		t.Fatalf("length mismatch accepted")
	}
}

func TestLabelsFirstSeenOrder(t *testing.T) {
	if got := scenario().Labels(); !reflect.DeepEqual(got, []string{"Control", "P"}) {
		t.Fatalf("got %v", got)
	}
}
