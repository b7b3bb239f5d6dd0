package model

import "math"

// Factor is one component's contribution to the raw score.
type Factor struct {
	Name         Component `json:"name"`
	Score        float64   `json:"score"`
	Weight       float64   `json:"weight"`
	Contribution float64   `json:"contribution"`
}

// PenaltyKind names a shared-infrastructure penalty.
type PenaltyKind string

// Penalty kinds.
const (
	PenaltySharedAS      PenaltyKind = "shared_as"
	PenaltySharedCountry PenaltyKind = "shared_country"
)

// AppliedPenalty is a penalty whose multiplier is below 1.0.
type AppliedPenalty struct {
	Kind       PenaltyKind `json:"kind"`
	Multiplier float64     `json:"multiplier"`

	// ReductionPercent is (1 - Multiplier) * 100 at full precision.
	ReductionPercent float64 `json:"reduction_percent"`
}

// DisplayReductionPercent returns ReductionPercent rounded for display.
func (p AppliedPenalty) DisplayReductionPercent() int {
	return int(math.Round(p.ReductionPercent))
}

// Explanation is the structured, audit-grade account of a ScoreResult.
// It contains no free text beyond catalog statements, and Limitations is
// never empty.
type Explanation struct {
	Tier       Tier    `json:"tier"`
	FinalScore float64 `json:"final_score"`

	PrimaryFactor   Factor `json:"primary_factor"`
	SecondaryFactor Factor `json:"secondary_factor"`

	// AppliedPenalties is ordered by reduction, strongest first.
	AppliedPenalties []AppliedPenalty `json:"applied_penalties"`

	Limitations []Limitation `json:"limitations"`
}

// HasLimitation reports whether the explanation carries the given code.
func (e *Explanation) HasLimitation(code LimitationCode) bool {
	for _, l := range e.Limitations {
		if l.Code == code {
			return true
		}
	}
	return false
}
