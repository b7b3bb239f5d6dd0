package plausibility

import (
	"fmt"
	"log/slog"

	"github.com/nao1215/pathscore/internal/config"
	"github.com/nao1215/pathscore/internal/model"
)

// Engine scores candidates against one configuration snapshot.
//
// NewEngine copies and validates the configuration; later changes to the
// caller's value are not observed. An Engine holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	cfg    config.Scoring
	digest string
	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for configuration warnings.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine validates cfg and returns an Engine bound to a copy of it.
// The returned error wraps config.ErrInvalidConfiguration.
func NewEngine(cfg config.Scoring, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		digest: cfg.Digest(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	if !cfg.HighTierReachable() {
		e.logger.Warn("score ceiling is below the high threshold; no candidate can be classified HIGH",
			"ceiling", cfg.ScoreCeiling,
			"high_threshold", cfg.Thresholds.High,
		)
	}
	if !cfg.WeightsConfirmed {
		e.logger.Debug("weight profile is unconfirmed; every explanation will carry a caveat",
			"profile", cfg.WeightProfile,
		)
	}

	return e, nil
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() config.Scoring {
	return e.cfg
}

// Digest returns the digest of the engine's configuration.
func (e *Engine) Digest() string {
	return e.digest
}

// Score scores a candidate. See the package-level Score.
func (e *Engine) Score(c *model.PathCandidate) (*model.ScoreResult, error) {
	return score(c, e.cfg, e.digest)
}

// Explain explains a result produced by this engine.
// A result carrying a different configuration digest is rejected, since its
// explanation would describe weights that did not produce it.
func (e *Engine) Explain(result *model.ScoreResult) (*model.Explanation, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: nil score result", ErrNoResult)
	}
	if result.ConfigDigest != "" && result.ConfigDigest != e.digest {
		return nil, fmt.Errorf("%w: result %s, engine %s",
			ErrConfigurationChanged, shortDigest(result.ConfigDigest), shortDigest(e.digest))
	}
	return Explain(result, e.cfg), nil
}

// Analyze scores and explains a candidate in one call.
func (e *Engine) Analyze(c *model.PathCandidate) (*model.ScoreResult, *model.Explanation, error) {
	result, err := e.Score(c)
	if err != nil {
		return nil, nil, err
	}
	return result, Explain(result, e.cfg), nil
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
