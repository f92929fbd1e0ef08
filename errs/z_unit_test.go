package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindMatchesSentinel(t *testing.T) {
	err := Kindf(EmptySample, "no positive revenue for %s", "total_wins_spend")
	if !errors.Is(err, ErrEmptySample) {
		t.Fatalf("expected errors.Is(err, ErrEmptySample)")
	}
	if errors.Is(err, ErrFitFailure) {
		t.Fatalf("empty sample must not match fit failure")
	}
	if err.ErrLv != Fatal {
		t.Fatalf("errlv got %s want fatal", ErrLv(err.ErrLv))
	}
	if !strings.Contains(err.Error(), "code=empty_sample") {
		t.Fatalf("message missing code: %q", err.Error())
	}
}

func TestWrapKeepsLevelAndCode(t *testing.T) {
	base := Kindf(NumericDegeneracy, "cohort control has zero converters")
	wrapped := Wrap(base, "revenue stage")
	if wrapped.ErrLv != Warn {
		t.Fatalf("errlv got %s want warn", ErrLv(wrapped.ErrLv))
	}
	if !errors.Is(wrapped, ErrNumericDegeneracy) {
		t.Fatalf("wrapped error lost its code")
	}

	std := Wrap(fmt.Errorf("disk full"), "snapshot")
	if std.ErrLv != Fatal || std.Code != Unclassified {
		t.Fatalf("foreign cause should be fatal/unclassified, got %s/%s", ErrLv(std.ErrLv), std.Code)
	}
	if errors.Is(std, ErrDataUnavailable) {
		t.Fatalf("unclassified error must not match a kind")
	}
}

func TestAsErr(t *testing.T) {
	err := fmt.Errorf("outer: %w", Kindf(AmbiguousCohort, "label %q", "x"))
	e, ok := AsErr(err)
	if !ok || e.Code != AmbiguousCohort {
		t.Fatalf("AsErr failed: %v %v", ok, e)
	}
}
