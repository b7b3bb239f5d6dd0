package plausibility

import (
	"sort"

	"github.com/nao1215/pathscore/internal/config"
	"github.com/nao1215/pathscore/internal/model"
)

// Explain builds the explanation of a score result.
//
// Factors are ranked by score × weight, highest first; equal contributions
// keep the order uptime, bandwidth, role. Only penalties below 1.0 are
// listed, strongest reduction first. Limitations always start with the
// baseline caveats and are never empty.
//
// The same (result, cfg) pair always yields an identical explanation.
// A nil result yields nil.
func Explain(result *model.ScoreResult, cfg config.Scoring) *model.Explanation {
	if result == nil {
		return nil
	}
	factors := rankFactors(result.Components, cfg.Weights)

	return &model.Explanation{
		Tier:             result.Tier,
		FinalScore:       result.FinalScore,
		PrimaryFactor:    factors[0],
		SecondaryFactor:  factors[1],
		AppliedPenalties: appliedPenalties(result.Penalties),
		Limitations:      limitations(result, cfg),
	}
}

// RankFactors returns all three factors in explanation order.
func RankFactors(components model.ComponentScores, weights config.Weights) []model.Factor {
	return rankFactors(components, weights)
}

func rankFactors(components model.ComponentScores, weights config.Weights) []model.Factor {
	weightOf := map[model.Component]float64{
		model.ComponentUptime:    weights.Uptime,
		model.ComponentBandwidth: weights.Bandwidth,
		model.ComponentRole:      weights.Role,
	}

	factors := make([]model.Factor, 0, len(model.Components))
	for _, c := range model.Components {
		score := components.Get(c)
		factors = append(factors, model.Factor{
			Name:         c,
			Score:        score,
			Weight:       weightOf[c],
			Contribution: score * weightOf[c],
		})
	}

	// Stable sort keeps model.Components order for ties.
	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Contribution > factors[j].Contribution
	})
	return factors
}

func appliedPenalties(p model.Penalties) []model.AppliedPenalty {
	applied := make([]model.AppliedPenalty, 0, 2)
	if p.SharedAS < 1 {
		applied = append(applied, newAppliedPenalty(model.PenaltySharedAS, p.SharedAS))
	}
	if p.SharedCountry < 1 {
		applied = append(applied, newAppliedPenalty(model.PenaltySharedCountry, p.SharedCountry))
	}
	sort.SliceStable(applied, func(i, j int) bool {
		return applied[i].ReductionPercent > applied[j].ReductionPercent
	})
	return applied
}

func newAppliedPenalty(kind model.PenaltyKind, multiplier float64) model.AppliedPenalty {
	return model.AppliedPenalty{
		Kind:             kind,
		Multiplier:       multiplier,
		ReductionPercent: (1 - multiplier) * 100,
	}
}

func limitations(result *model.ScoreResult, cfg config.Scoring) []model.Limitation {
	out := make([]model.Limitation, 0, len(model.BaselineLimitations)+len(result.Substitutions)+4)
	for _, code := range model.BaselineLimitations {
		out = append(out, model.NewLimitation(code))
	}

	if result.CeilingApplied {
		out = append(out, model.NewLimitation(model.LimitationCeilingApplied))
	}
	for _, s := range result.Substitutions {
		l := model.NewLimitation(model.LimitationNeutralDefault)
		l.Component = s.Component
		l.Position = s.Position
		l.Attribute = s.Attribute
		out = append(out, l)
	}
	if result.UptimeMethod == model.UptimeMethodRatios {
		out = append(out, model.NewLimitation(model.LimitationUptimeFromRatios))
	}
	if result.Penalties.SharedAS < 1 {
		out = append(out, model.NewLimitation(model.LimitationSharedAS))
	}
	if result.Penalties.SharedCountry < 1 {
		out = append(out, model.NewLimitation(model.LimitationSharedCountry))
	}
	if !cfg.WeightsConfirmed {
		out = append(out, model.NewLimitation(model.LimitationWeightsUnconfirmed))
	}
	if result.Tier == model.TierLow {
		out = append(out, model.NewLimitation(model.LimitationLowConfidence))
	}
	return out
}
