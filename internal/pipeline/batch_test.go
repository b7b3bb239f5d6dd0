package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/pathscore/internal/config"
	"github.com/nao1215/pathscore/internal/model"
	"github.com/nao1215/pathscore/internal/plausibility"
)

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() })

		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(0))

		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(3))

		if bp.concurrency != 3 {
			t.Errorf("expected concurrency 3, got %d", bp.concurrency)
		}
	})
}

// TestBatchProcessorProcessBatch tests batch processing.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("analyses every candidate in input order", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(t)
		bp := NewEngineBatchProcessor(engine, nil, quietLogger(), WithConcurrency(2))

		candidates := []*model.PathCandidate{
			testCandidate("ev-0", 1_000_000),
			testCandidate("ev-1", 9_000_000),
			nil,
			testCandidate("ev-3", 4_000_000),
		}

		analyses, err := bp.ProcessBatch(context.Background(), candidates)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(analyses) != len(candidates) {
			t.Fatalf("expected %d analyses, got %d", len(candidates), len(analyses))
		}
		for i, a := range analyses {
			if a.Index != i {
				t.Errorf("analysis %d has index %d", i, a.Index)
			}
		}
		if !analyses[2].Failed() || !errors.Is(analyses[2].Error, model.ErrMalformedCandidate) {
			t.Errorf("expected nil candidate to fail as malformed, got %v", analyses[2].Error)
		}
		for _, i := range []int{0, 1, 3} {
			if !analyses[i].Scored() {
				t.Errorf("expected analysis %d to be scored: %v", i, analyses[i].Error)
			}
		}
	})

	t.Run("limits concurrency", func(t *testing.T) {
		t.Parallel()

		var current, peak atomic.Int32
		factory := func() *Pipeline {
			p := New(WithLogger(quietLogger()))
			p.AddStep(&mockStep{name: "track", doFunc: func(context.Context, *model.Analysis) error {
				n := current.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				current.Add(-1)
				return nil
			}})
			return p
		}

		bp := NewBatchProcessor(factory, WithConcurrency(2), WithBatchLogger(quietLogger()))
		candidates := make([]*model.PathCandidate, 20)
		for i := range candidates {
			candidates[i] = testCandidate("ev", 1)
		}

		if _, err := bp.ProcessBatch(context.Background(), candidates); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("expected at most 2 concurrent analyses, got %d", peak.Load())
		}
	})

	t.Run("cancelled batch marks every analysis", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewEngineBatchProcessor(newTestEngine(t), nil, quietLogger())
		analyses, err := bp.ProcessBatch(ctx, []*model.PathCandidate{
			testCandidate("ev-0", 1),
			testCandidate("ev-1", 1),
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		for i, a := range analyses {
			if !a.Cancelled || a.Scored() {
				t.Errorf("expected analysis %d to be cancelled and unscored", i)
			}
		}
	})

	t.Run("record failure does not change the ranking", func(t *testing.T) {
		t.Parallel()

		recorder := &memoryRecorder{err: errors.New("disk full")}
		bp := NewEngineBatchProcessor(newTestEngine(t), recorder, quietLogger())
		analyses, err := bp.ProcessBatch(context.Background(), []*model.PathCandidate{
			testCandidate("ev-0", 10_000_000),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		report := BuildReport("", analyses, config.WeightProfileBandwidth, "digest", 10)
		if len(report.Ranked) != 1 {
			t.Fatalf("expected 1 ranked analysis, got %d", len(report.Ranked))
		}
		if report.FailedCount() != 0 {
			t.Errorf("expected no failed analyses, got %d", report.FailedCount())
		}
		if analyses[0].RecordError == "" {
			t.Error("expected the record error to be kept on the analysis")
		}
	})

	t.Run("records analyses under the run id", func(t *testing.T) {
		t.Parallel()

		recorder := &memoryRecorder{}
		bp := NewEngineBatchProcessor(newTestEngine(t), recorder, quietLogger(), WithRunID("run-1"))
		analyses, err := bp.ProcessBatch(context.Background(), []*model.PathCandidate{
			testCandidate("ev-0", 5_000_000),
			testCandidate("ev-1", 8_000_000),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recorder.saved) != 2 {
			t.Fatalf("expected 2 recorded analyses, got %d", len(recorder.saved))
		}
		for _, a := range append(analyses, recorder.saved...) {
			if a.RunID != "run-1" {
				t.Errorf("analysis %d has run id %q", a.Index, a.RunID)
			}
		}
	})

	t.Run("detects configuration change", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(t)
		other := config.NewScoring()
		other.WeightsConfirmed = true
		otherEngine, err := plausibility.NewEngine(other, plausibility.WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Pipelines score with otherEngine but the batch expects engine's digest.
		factory := func() *Pipeline {
			p := New(WithLogger(quietLogger()))
			p.AddSteps(AnalysisSteps(otherEngine, nil, quietLogger())...)
			return p
		}
		bp := NewBatchProcessor(factory, WithConfigDigest(engine.Digest()), WithBatchLogger(quietLogger()))

		_, err = bp.ProcessBatch(context.Background(), []*model.PathCandidate{testCandidate("ev", 1)})
		if !errors.Is(err, plausibility.ErrConfigurationChanged) {
			t.Errorf("expected ErrConfigurationChanged, got %v", err)
		}
	})
}

// TestBatchProcessorProcessBatchWithCallback tests streaming results.
func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	bp := NewEngineBatchProcessor(newTestEngine(t), nil, quietLogger(), WithConcurrency(3))
	candidates := []*model.PathCandidate{
		testCandidate("ev-0", 1),
		testCandidate("ev-1", 2),
		testCandidate("ev-2", 3),
	}

	var mu sync.Mutex
	seen := make(map[int]bool)
	err := bp.ProcessBatchWithCallback(context.Background(), candidates, func(a *model.Analysis, index int) {
		mu.Lock()
		defer mu.Unlock()
		if a.Index != index {
			t.Errorf("callback index %d does not match analysis index %d", index, a.Index)
		}
		seen[index] = true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != len(candidates) {
		t.Errorf("expected %d callbacks, got %d", len(candidates), len(seen))
	}
}

// TestRank tests ranking of analyses.
func TestRank(t *testing.T) {
	t.Parallel()

	scored := func(index int, final float64, tier model.Tier) *model.Analysis {
		return &model.Analysis{
			Index:       index,
			Result:      &model.ScoreResult{FinalScore: final, Tier: tier},
			Explanation: &model.Explanation{},
		}
	}
	failed := &model.Analysis{Index: 9, ErrorMessage: "malformed"}

	analyses := []*model.Analysis{
		scored(0, 0.40, model.TierLow),
		scored(1, 0.82, model.TierHigh),
		failed,
		scored(3, 0.60, model.TierMedium),
		scored(4, 0.82, model.TierHigh),
		nil,
	}

	t.Run("orders by score then input order", func(t *testing.T) {
		t.Parallel()
		got := Rank(analyses, 0)
		want := []int{1, 4, 3, 0}
		if len(got) != len(want) {
			t.Fatalf("expected %d ranked, got %d", len(want), len(got))
		}
		for i, a := range got {
			if a.Index != want[i] {
				t.Errorf("rank %d: got index %d, want %d", i, a.Index, want[i])
			}
		}
	})

	t.Run("limits to n", func(t *testing.T) {
		t.Parallel()
		got := Rank(analyses, 2)
		if len(got) != 2 || got[0].Index != 1 || got[1].Index != 4 {
			t.Errorf("unexpected top 2: %v", got)
		}
	})

	t.Run("report carries run id", func(t *testing.T) {
		t.Parallel()
		report := BuildReport("", []*model.Analysis{scored(0, 0.5, model.TierMedium)}, "custom", "digest", 5)
		if report.RunID == "" || report.Analyses[0].RunID != report.RunID {
			t.Error("expected analyses to carry the report run id")
		}
		if report.WeightProfile != "custom" || report.ConfigDigest != "digest" || len(report.Ranked) != 1 {
			t.Errorf("unexpected report: %+v", report)
		}
	})
	t.Run("report keeps a given run id", func(t *testing.T) {
		t.Parallel()
		report := BuildReport("run-7", []*model.Analysis{scored(0, 0.5, model.TierMedium)}, "custom", "digest", 5)
		if report.RunID != "run-7" || report.Analyses[0].RunID != "run-7" {
			t.Errorf("unexpected run id %q", report.RunID)
		}
	})
}
