package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/pathscore/internal/config"
	"github.com/nao1215/pathscore/internal/model"
	"github.com/nao1215/pathscore/internal/plausibility"
)

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int64) *int64       { return &v }

func testRelay(fp, country string, bandwidth int64, flags ...model.RoleFlag) *model.RelayAttributes {
	return &model.RelayAttributes{
		Fingerprint:      strings.Repeat(fp, 40)[:40],
		Nickname:         "relay" + fp,
		Country:          country,
		AutonomousSystem: "AS" + fp,
		UptimeRatio:      ptrFloat(0.9),
		BandwidthBps:     ptrInt(bandwidth),
		Flags:            model.NewRoleFlags(append(flags, model.FlagRunning, model.FlagValid, model.FlagStable)...),
		FlagsKnown:       true,
	}
}

// testCandidate returns a valid candidate whose bottleneck bandwidth is bw.
func testCandidate(id string, bw int64) *model.PathCandidate {
	return &model.PathCandidate{
		Entry:            testRelay("A", "DE", 20_000_000, model.FlagGuard),
		Middle:           testRelay("B", "FR", bw),
		Exit:             testRelay("C", "NL", 20_000_000, model.FlagExit),
		ObservedAt:       time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		SourceEvidenceID: id,
	}
}

func newTestEngine(t *testing.T) *plausibility.Engine {
	t.Helper()
	engine, err := plausibility.NewEngine(config.NewScoring(), plausibility.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return engine
}

// memoryRecorder is a Recorder that keeps analyses in memory.
type memoryRecorder struct {
	mu    sync.Mutex
	saved []*model.Analysis
	err   error
}

func (r *memoryRecorder) SaveAnalysis(_ context.Context, a *model.Analysis) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, a)
	return nil
}

func TestAnalysisSteps(t *testing.T) {
	t.Parallel()

	t.Run("scores and explains a valid candidate", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(t)
		p := New(WithLogger(quietLogger()))
		p.AddSteps(AnalysisSteps(engine, nil, quietLogger())...)

		analysis := model.NewAnalysis(testCandidate("ev-1", 10_000_000), 0)
		if err := p.Execute(context.Background(), analysis); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !analysis.Scored() {
			t.Fatal("expected analysis to be scored")
		}
		if analysis.Result.ConfigDigest != engine.Digest() {
			t.Error("expected engine digest on result")
		}
		if len(analysis.Explanation.Limitations) == 0 {
			t.Error("expected limitations")
		}
		want := []string{StepValidate, StepScore, StepExplain}
		if len(analysis.Steps) != len(want) {
			t.Fatalf("expected steps %v, got %v", want, analysis.Steps)
		}
		for i := range want {
			if analysis.Steps[i] != want[i] {
				t.Errorf("step %d = %q, want %q", i, analysis.Steps[i], want[i])
			}
		}
	})

	t.Run("malformed candidate stops at validation", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(t)
		p := New(WithLogger(quietLogger()))
		p.AddSteps(AnalysisSteps(engine, nil, quietLogger())...)

		c := testCandidate("ev-2", 10_000_000)
		c.Exit = nil
		analysis := model.NewAnalysis(c, 0)

		err := p.Execute(context.Background(), analysis)
		if !errors.Is(err, model.ErrMalformedCandidate) {
			t.Fatalf("expected ErrMalformedCandidate, got %v", err)
		}
		if analysis.Result != nil {
			t.Error("malformed candidate must not be scored")
		}
		if len(analysis.Steps) != 0 {
			t.Errorf("expected no completed steps, got %v", analysis.Steps)
		}
	})

	t.Run("record step saves scored analyses", func(t *testing.T) {
		t.Parallel()

		recorder := &memoryRecorder{}
		p := New(WithLogger(quietLogger()))
		p.AddSteps(AnalysisSteps(newTestEngine(t), recorder, quietLogger())...)

		analysis := model.NewAnalysis(testCandidate("ev-3", 10_000_000), 0)
		if err := p.Execute(context.Background(), analysis); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recorder.saved) != 1 || recorder.saved[0] != analysis {
			t.Errorf("expected analysis to be recorded, got %d", len(recorder.saved))
		}
	})

	t.Run("record step skips unscored analyses", func(t *testing.T) {
		t.Parallel()

		recorder := &memoryRecorder{}
		step := NewRecordStep(recorder)
		if err := step.Do(context.Background(), model.NewAnalysis(testCandidate("ev-4", 1), 0)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recorder.saved) != 0 {
			t.Error("expected nothing to be recorded")
		}
	})

	t.Run("record failure keeps the analysis scored", func(t *testing.T) {
		t.Parallel()

		recorder := &memoryRecorder{err: errors.New("disk full")}
		p := New(WithLogger(quietLogger()))
		p.AddSteps(AnalysisSteps(newTestEngine(t), recorder, quietLogger())...)

		analysis := model.NewAnalysis(testCandidate("ev-5", 10_000_000), 0)
		if err := p.Execute(context.Background(), analysis); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if analysis.Failed() || !analysis.Scored() {
			t.Error("expected the analysis to stay scored after a record failure")
		}
		if !strings.Contains(analysis.RecordError, "disk full") {
			t.Errorf("expected record error to be kept, got %q", analysis.RecordError)
		}
	})

	t.Run("explain without result fails", func(t *testing.T) {
		t.Parallel()

		step := NewExplainStep(newTestEngine(t))
		err := step.Do(context.Background(), model.NewAnalysis(testCandidate("ev-6", 1), 0))
		if !errors.Is(err, plausibility.ErrNoResult) {
			t.Errorf("expected ErrNoResult, got %v", err)
		}
	})
}
