package plausibility

import (
	"github.com/nao1215/pathscore/internal/config"
	"github.com/nao1215/pathscore/internal/model"
)

// Score computes the plausibility score of a candidate.
//
// cfg must already have passed Validate; weights are not re-checked here.
// The only error is model.ErrMalformedCandidate for a candidate missing a
// relay reference. Missing attributes are recorded as substitutions instead.
// Relays are expected to be normalized by the tor package; location values
// are still compared ignoring case.
func Score(c *model.PathCandidate, cfg config.Scoring) (*model.ScoreResult, error) {
	return score(c, cfg, cfg.Digest())
}

func score(c *model.PathCandidate, cfg config.Scoring, digest string) (*model.ScoreResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	comp := ScoreComponents(c, cfg)
	penalties := EvaluatePenalties(c.Entry, c.Exit, cfg)

	result := Combine(comp.Scores, penalties, cfg)
	result.UptimeMethod = comp.UptimeMethod
	result.Substitutions = comp.Substitutions
	result.ConfigDigest = digest
	return result, nil
}

// Combine applies weights, penalties and the ceiling to component scores.
//
//	raw       = Σ weight × component
//	penalized = raw × sharedAS × sharedCountry
//	final     = min(penalized, ceiling), never below zero
func Combine(components model.ComponentScores, penalties model.Penalties, cfg config.Scoring) *model.ScoreResult {
	w := cfg.Weights
	raw := w.Uptime*components.Uptime + w.Bandwidth*components.Bandwidth + w.Role*components.Role
	penalized := raw * penalties.SharedAS * penalties.SharedCountry

	final := penalized
	ceilingApplied := false
	if final > cfg.ScoreCeiling {
		final = cfg.ScoreCeiling
		ceilingApplied = true
	}
	if final < 0 {
		final = 0
	}

	return &model.ScoreResult{
		RawScore:       raw,
		PenalizedScore: penalized,
		FinalScore:     final,
		Tier:           Classify(final, cfg.Thresholds),
		Components:     components,
		Penalties:      penalties,
		CeilingApplied: ceilingApplied,
		WeightProfile:  cfg.WeightProfile,
	}
}

// Classify maps a final score to a confidence tier.
// Bounds are inclusive below: a score equal to a threshold takes the higher tier.
func Classify(score float64, t config.Thresholds) model.Tier {
	switch {
	case score >= t.High:
		return model.TierHigh
	case score >= t.Medium:
		return model.TierMedium
	default:
		return model.TierLow
	}
}
