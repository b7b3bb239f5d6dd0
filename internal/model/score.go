package model

import "fmt"

// Component names one of the three independent sub-scores.
type Component string

// Scored components in their fixed tie-break order.
const (
	ComponentUptime    Component = "uptime"
	ComponentBandwidth Component = "bandwidth"
	ComponentRole      Component = "role"
)

// Components lists the components in tie-break order.
var Components = []Component{ComponentUptime, ComponentBandwidth, ComponentRole}

// ComponentScores holds the three sub-scores, each in [0,1].
type ComponentScores struct {
	Uptime    float64 `json:"uptime"`
	Bandwidth float64 `json:"bandwidth"`
	Role      float64 `json:"role"`
}

// Get returns the score for a component.
func (c ComponentScores) Get(component Component) float64 {
	switch component {
	case ComponentUptime:
		return c.Uptime
	case ComponentBandwidth:
		return c.Bandwidth
	case ComponentRole:
		return c.Role
	default:
		return 0
	}
}

// Penalties holds the multiplicative discounts, each in (0,1].
// A value of 1.0 means no penalty.
type Penalties struct {
	SharedAS      float64 `json:"shared_as"`
	SharedCountry float64 `json:"shared_country"`
}

// NoPenalties returns Penalties with both multipliers at 1.0.
func NoPenalties() Penalties {
	return Penalties{SharedAS: 1.0, SharedCountry: 1.0}
}

// Product returns the combined multiplier.
func (p Penalties) Product() float64 {
	return p.SharedAS * p.SharedCountry
}

// UptimeMethod records how the uptime component was derived.
type UptimeMethod string

const (
	// UptimeMethodIntervals means reachability intervals were intersected.
	UptimeMethodIntervals UptimeMethod = "intervals"

	// UptimeMethodRatios means aggregate uptime ratios were used as an
	// upper bound of simultaneous reachability.
	UptimeMethodRatios UptimeMethod = "ratios"

	// UptimeMethodDefault means the neutral default was substituted.
	UptimeMethodDefault UptimeMethod = "default"
)

// Substitution records that a neutral default replaced a missing attribute.
type Substitution struct {
	Component    Component `json:"component"`
	Position     Position  `json:"position"`
	Fingerprint  string    `json:"fingerprint,omitempty"`
	Attribute    string    `json:"attribute"`
	DefaultValue float64   `json:"default_value"`
}

// Err returns the substitution as an error wrapping ErrMissingAttribute.
func (s Substitution) Err() error {
	return fmt.Errorf("%w: %s relay %s (used %.2f for %s)",
		ErrMissingAttribute, s.Position, s.Attribute, s.DefaultValue, s.Component)
}

// ScoreResult is the outcome of scoring one path candidate.
//
// FinalScore = min(ceiling, RawScore × Penalties.SharedAS × Penalties.SharedCountry)
// always holds.
type ScoreResult struct {
	// RawScore is the weighted sum of the component scores.
	RawScore float64 `json:"raw_score"`

	// PenalizedScore is RawScore after the penalty multipliers, before the ceiling.
	PenalizedScore float64 `json:"penalized_score"`

	// FinalScore is the bounded plausibility score.
	FinalScore float64 `json:"final_score"`

	// Tier is the confidence tier derived from FinalScore.
	Tier Tier `json:"tier"`

	Components ComponentScores `json:"components"`
	Penalties  Penalties       `json:"penalties"`

	// CeilingApplied is true when PenalizedScore exceeded the ceiling.
	CeilingApplied bool `json:"ceiling_applied"`

	// UptimeMethod records how the uptime component was computed.
	UptimeMethod UptimeMethod `json:"uptime_method"`

	// Substitutions lists every neutral default used while scoring.
	Substitutions []Substitution `json:"substitutions,omitempty"`

	// WeightProfile names the weight set that produced the score.
	WeightProfile string `json:"weight_profile"`

	// ConfigDigest identifies the scoring configuration snapshot.
	ConfigDigest string `json:"config_digest"`
}

// HasSubstitutions reports whether any neutral default was used.
func (r *ScoreResult) HasSubstitutions() bool {
	return len(r.Substitutions) > 0
}
