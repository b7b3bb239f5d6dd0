package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/pathscore/internal/model"
	"github.com/nao1215/pathscore/internal/plausibility"
)

// Step names.
const (
	StepValidate = "validate"
	StepScore    = "score"
	StepExplain  = "explain"
	StepRecord   = "record"
)

// ValidateStep rejects candidates missing a relay reference.
type ValidateStep struct{}

// NewValidateStep creates a validation step.
func NewValidateStep() *ValidateStep {
	return &ValidateStep{}
}

// Name returns the step name.
func (s *ValidateStep) Name() string {
	return StepValidate
}

// Do validates the candidate.
func (s *ValidateStep) Do(_ context.Context, analysis *model.Analysis) error {
	return analysis.Candidate.Validate()
}

// ScoreStep scores the candidate with an engine.
type ScoreStep struct {
	engine *plausibility.Engine
	logger *slog.Logger
}

// ScoreStepOption configures a ScoreStep.
type ScoreStepOption func(*ScoreStep)

// WithScoreLogger sets a custom logger for the score step.
func WithScoreLogger(logger *slog.Logger) ScoreStepOption {
	return func(s *ScoreStep) {
		s.logger = logger
	}
}

// NewScoreStep creates a scoring step bound to engine.
func NewScoreStep(engine *plausibility.Engine, opts ...ScoreStepOption) *ScoreStep {
	s := &ScoreStep{
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ScoreStep) Name() string {
	return StepScore
}

// Do scores the candidate and stores the result on the analysis.
func (s *ScoreStep) Do(_ context.Context, analysis *model.Analysis) error {
	result, err := s.engine.Score(analysis.Candidate)
	if err != nil {
		return err
	}
	for _, sub := range result.Substitutions {
		s.logger.Debug("neutral default substituted",
			"path", analysis.PathKey,
			"error", sub.Err(),
		)
	}
	analysis.Result = result
	return nil
}

// ExplainStep explains a scored analysis.
type ExplainStep struct {
	engine *plausibility.Engine
}

// NewExplainStep creates an explanation step bound to engine.
func NewExplainStep(engine *plausibility.Engine) *ExplainStep {
	return &ExplainStep{engine: engine}
}

// Name returns the step name.
func (s *ExplainStep) Name() string {
	return StepExplain
}

// Do explains the score result.
func (s *ExplainStep) Do(_ context.Context, analysis *model.Analysis) error {
	if analysis.Result == nil {
		return fmt.Errorf("%w: analysis %s", plausibility.ErrNoResult, analysis.ID)
	}
	explanation, err := s.engine.Explain(analysis.Result)
	if err != nil {
		return err
	}
	analysis.Explanation = explanation
	return nil
}

// Recorder stores completed analyses.
// database.HistoryDB implements it.
type Recorder interface {
	SaveAnalysis(ctx context.Context, analysis *model.Analysis) error
}

// RecordStep saves scored analyses to a Recorder.
// A failed save is kept in Analysis.RecordError and never fails the
// analysis, so storage problems cannot change the ranking.
type RecordStep struct {
	recorder Recorder
	logger   *slog.Logger
}

// RecordStepOption configures a RecordStep.
type RecordStepOption func(*RecordStep)

// WithRecordLogger sets a custom logger for the record step.
func WithRecordLogger(logger *slog.Logger) RecordStepOption {
	return func(s *RecordStep) {
		s.logger = logger
	}
}

// NewRecordStep creates a step that saves analyses to recorder.
func NewRecordStep(recorder Recorder, opts ...RecordStepOption) *RecordStep {
	s := &RecordStep{
		recorder: recorder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *RecordStep) Name() string {
	return StepRecord
}

// Do saves the analysis if it was scored.
func (s *RecordStep) Do(ctx context.Context, analysis *model.Analysis) error {
	if !analysis.Scored() {
		return nil
	}
	if err := s.recorder.SaveAnalysis(ctx, analysis); err != nil {
		analysis.RecordError = fmt.Sprintf("failed to record analysis: %v", err)
		s.logger.Warn("failed to record analysis",
			"path", analysis.PathKey,
			"error", err,
		)
	}
	return nil
}

// AnalysisSteps returns the standard steps for engine: validate, score and
// explain, followed by a record step when recorder is not nil.
func AnalysisSteps(engine *plausibility.Engine, recorder Recorder, logger *slog.Logger) []Step {
	if logger == nil {
		logger = slog.Default()
	}
	steps := []Step{
		NewValidateStep(),
		NewScoreStep(engine, WithScoreLogger(logger)),
		NewExplainStep(engine),
	}
	if recorder != nil {
		steps = append(steps, NewRecordStep(recorder, WithRecordLogger(logger)))
	}
	return steps
}
