package model

// LimitationCode identifies a caveat attached to an explanation.
// Explanations carry codes, not free text, so that the same caveat renders
// identically in every report.
type LimitationCode string

// Limitation codes. The first two are attached to every explanation.
const (
	LimitationNotAProbability         LimitationCode = "not_a_probability"
	LimitationAlternativesNotExcluded LimitationCode = "alternatives_not_excluded"
	LimitationCeilingApplied          LimitationCode = "score_ceiling_applied"
	LimitationNeutralDefault          LimitationCode = "neutral_default_substituted"
	LimitationUptimeFromRatios        LimitationCode = "uptime_from_ratios"
	LimitationSharedAS                LimitationCode = "shared_as_discount"
	LimitationSharedCountry           LimitationCode = "shared_country_discount"
	LimitationWeightsUnconfirmed      LimitationCode = "weights_unconfirmed"
	LimitationLowConfidence           LimitationCode = "low_confidence"
)

// BaselineLimitations are attached to every explanation regardless of score.
var BaselineLimitations = []LimitationCode{
	LimitationNotAProbability,
	LimitationAlternativesNotExcluded,
}

// LimitationInfo contains the fixed wording for a limitation code.
type LimitationInfo struct {
	Statement string
	Guidance  string
}

// limitationCatalog maps limitation codes to their fixed wording.
// This is the single source of truth for caveat text in every output format.
var limitationCatalog = map[LimitationCode]LimitationInfo{
	LimitationNotAProbability: {
		Statement: "The plausibility score measures metadata consistency with the candidate path. It is not a probability that the path was used.",
		Guidance:  "Do not present the score as a likelihood of actual use.",
	},
	LimitationAlternativesNotExcluded: {
		Statement: "Relay metadata cannot rule out other paths that are equally consistent with the evidence.",
		Guidance:  "Corroborate with independent evidence before drawing conclusions.",
	},
	LimitationCeilingApplied: {
		Statement: "The score reached the policy ceiling and was capped.",
		Guidance:  "A capped score means the model cannot express more confidence, not that the path is confirmed.",
	},
	LimitationNeutralDefault: {
		Statement: "A relay attribute was missing and a neutral default was used in its place.",
		Guidance:  "Obtain the missing directory data and re-run the analysis.",
	},
	LimitationUptimeFromRatios: {
		Statement: "Uptime overlap was estimated from aggregate uptime ratios rather than reachability intervals.",
		Guidance:  "The uptime component is an upper bound; interval data would tighten it.",
	},
	LimitationSharedAS: {
		Statement: "Entry and exit relays share an autonomous system, which weakens the independence assumption.",
		Guidance:  "Treat the path as less distinguishable from alternatives on the same network.",
	},
	LimitationSharedCountry: {
		Statement: "Entry and exit relays are located in the same country, which weakens the independence assumption.",
		Guidance:  "Treat the path as less distinguishable from alternatives in the same jurisdiction.",
	},
	LimitationWeightsUnconfirmed: {
		Statement: "The component weights are a built-in profile that the deployment has not confirmed.",
		Guidance:  "Confirm the weight profile with the system owner before citing scores in a formal report.",
	},
	LimitationLowConfidence: {
		Statement: "The score falls in the lowest confidence tier.",
		Guidance:  "The candidate should not be relied on without substantial corroboration.",
	},
}

// GetLimitationInfo returns the fixed wording for a limitation code.
// Unknown codes return a generic caveat so an explanation is never silent.
func GetLimitationInfo(code LimitationCode) LimitationInfo {
	if info, ok := limitationCatalog[code]; ok {
		return info
	}
	return LimitationInfo{
		Statement: "An unclassified limitation applies to this result.",
		Guidance:  "Review the analysis manually.",
	}
}

// Limitation is one caveat attached to an explanation.
// Component, Position and Attribute are set only for substitution caveats.
type Limitation struct {
	Code      LimitationCode `json:"code"`
	Statement string         `json:"statement"`
	Component Component      `json:"component,omitempty"`
	Position  Position       `json:"position,omitempty"`
	Attribute string         `json:"attribute,omitempty"`
}

// NewLimitation builds a limitation with the catalog wording for code.
func NewLimitation(code LimitationCode) Limitation {
	return Limitation{
		Code:      code,
		Statement: GetLimitationInfo(code).Statement,
	}
}

// Guidance returns the catalog guidance for the limitation.
func (l Limitation) Guidance() string {
	return GetLimitationInfo(l.Code).Guidance
}
