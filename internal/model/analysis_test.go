package model

import (
	"errors"
	"testing"
	"time"
)

// TestNewAnalysis tests the Analysis constructor.
func TestNewAnalysis(t *testing.T) {
	t.Parallel()

	candidate := &PathCandidate{Entry: testRelay("A"), Middle: testRelay("B"), Exit: testRelay("C")}
	a := NewAnalysis(candidate, 3)

	t.Run("assigns an ID", func(t *testing.T) {
		t.Parallel()
		if a.ID == "" {
			t.Error("expected non-empty ID")
		}
	})

	t.Run("records index and path key", func(t *testing.T) {
		t.Parallel()
		if a.Index != 3 {
			t.Errorf("got index %d, expected 3", a.Index)
		}
		if a.PathKey != candidate.PathKey() {
			t.Errorf("got path key %q, expected %q", a.PathKey, candidate.PathKey())
		}
	})

	t.Run("sets analysis timestamp", func(t *testing.T) {
		t.Parallel()
		if time.Since(a.AnalyzedAt) > time.Second {
			t.Error("AnalyzedAt is too old")
		}
	})

	t.Run("nil candidate has empty path key", func(t *testing.T) {
		t.Parallel()
		if NewAnalysis(nil, 0).PathKey != "" {
			t.Error("expected empty path key")
		}
	})
}

// TestBatchReportCounts tests tier and failure counting.
func TestBatchReportCounts(t *testing.T) {
	t.Parallel()

	scored := func(tier Tier) *Analysis {
		return &Analysis{Result: &ScoreResult{Tier: tier}, Explanation: &Explanation{Tier: tier}}
	}

	report := NewBatchReport()
	report.Analyses = []*Analysis{
		scored(TierHigh),
		scored(TierLow),
		scored(TierLow),
		{Error: errors.New("boom"), ErrorMessage: "boom"},
	}

	counts := report.TierCounts()
	if counts[TierHigh] != 1 || counts[TierMedium] != 0 || counts[TierLow] != 2 {
		t.Errorf("unexpected counts: %v", counts)
	}
	if report.FailedCount() != 1 {
		t.Errorf("got %d failed, expected 1", report.FailedCount())
	}
	if report.RunID == "" {
		t.Error("expected run ID")
	}
}
