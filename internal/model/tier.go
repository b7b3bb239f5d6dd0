package model

import "fmt"

// Tier is the ordinal confidence classification of a plausibility score.
// Tiers are ordered so they can be compared and sorted directly.
type Tier int

const (
	// TierLow indicates the metadata is weakly consistent with the path.
	// Such a candidate should not be relied on without independent evidence.
	TierLow Tier = iota

	// TierMedium indicates partial consistency. The path is plausible but at
	// least one factor or penalty materially weakens it.
	TierMedium

	// TierHigh indicates strong metadata consistency. It is still bounded by
	// the score ceiling and never implies certainty.
	TierHigh
)

// Tiers lists all tiers from highest to lowest.
var Tiers = []Tier{TierHigh, TierMedium, TierLow}

// String returns a human-readable representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierLow:
		return "LOW"
	case TierMedium:
		return "MEDIUM"
	case TierHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// ParseTier parses the String form of a tier (case-sensitive).
func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers {
		if t.String() == s {
			return t, nil
		}
	}
	return TierLow, fmt.Errorf("unknown confidence tier %q", s)
}

// MarshalText encodes the tier as its String form.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes the String form of a tier.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
