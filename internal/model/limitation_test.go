package model

import (
	"errors"
	"testing"
)

// TestLimitationCatalogComplete verifies every declared code has wording.
func TestLimitationCatalogComplete(t *testing.T) {
	t.Parallel()

	codes := []LimitationCode{
		LimitationNotAProbability,
		LimitationAlternativesNotExcluded,
		LimitationCeilingApplied,
		LimitationNeutralDefault,
		LimitationUptimeFromRatios,
		LimitationSharedAS,
		LimitationSharedCountry,
		LimitationWeightsUnconfirmed,
		LimitationLowConfidence,
	}

	for _, code := range codes {
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()
			if _, ok := limitationCatalog[code]; !ok {
				t.Fatalf("missing catalog entry for %s", code)
			}
			l := NewLimitation(code)
			if l.Statement == "" {
				t.Error("expected non-empty statement")
			}
			if l.Guidance() == "" {
				t.Error("expected non-empty guidance")
			}
		})
	}
}

// TestGetLimitationInfoUnknown verifies unknown codes still produce text.
func TestGetLimitationInfoUnknown(t *testing.T) {
	t.Parallel()

	info := GetLimitationInfo("no_such_code")
	if info.Statement == "" || info.Guidance == "" {
		t.Error("expected generic wording for unknown code")
	}
}

// TestSubstitutionErr verifies substitutions wrap ErrMissingAttribute.
func TestSubstitutionErr(t *testing.T) {
	t.Parallel()

	s := Substitution{Component: ComponentBandwidth, Position: PositionExit, Attribute: "bandwidth", DefaultValue: 0.5}
	if !errors.Is(s.Err(), ErrMissingAttribute) {
		t.Errorf("expected ErrMissingAttribute, got %v", s.Err())
	}
}

// TestAppliedPenaltyDisplay verifies display rounding leaves storage intact.
func TestAppliedPenaltyDisplay(t *testing.T) {
	t.Parallel()

	p := AppliedPenalty{Kind: PenaltySharedAS, Multiplier: 0.7, ReductionPercent: 30.000000000000004}
	if p.DisplayReductionPercent() != 30 {
		t.Errorf("got %d, expected 30", p.DisplayReductionPercent())
	}
	if p.ReductionPercent == 30 {
		t.Error("expected stored value to keep full precision")
	}
}
