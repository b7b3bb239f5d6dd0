package config

import (
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// Default scoring values.
const (
	// DefaultWeightProfile is the built-in weight profile used when the
	// configuration file does not choose one.
	DefaultWeightProfile = WeightProfileBandwidth

	// DefaultSharedASMultiplier discounts entry/exit pairs on the same AS.
	DefaultSharedASMultiplier = 0.70

	// DefaultSharedCountryMultiplier discounts entry/exit pairs in the same country.
	DefaultSharedCountryMultiplier = 0.60

	// DefaultScoreCeiling caps every final score. The model cannot rule out
	// alternative paths, so it never reports more than this.
	DefaultScoreCeiling = 0.85

	// DefaultHighThreshold is the minimum final score for the High tier.
	DefaultHighThreshold = 0.80

	// DefaultMediumThreshold is the minimum final score for the Medium tier.
	DefaultMediumThreshold = 0.50

	// DefaultObservationWindow is the period ending at ObservedAt over which
	// simultaneous reachability is measured.
	DefaultObservationWindow = 24 * time.Hour

	// DefaultBandwidthReferenceBps normalizes the bottleneck bandwidth.
	// 10 MB/s is well inside the upper range of advertised relay capacity.
	DefaultBandwidthReferenceBps = 10 * 1000 * 1000

	// weightSumTolerance absorbs floating point error when checking the sum.
	weightSumTolerance = 1e-6
)

// Built-in weight profile names.
const (
	// WeightProfileBandwidth favours bottleneck capacity (30/45/25).
	WeightProfileBandwidth = "bandwidth-weighted"

	// WeightProfileUptime favours simultaneous reachability (50/25/25).
	WeightProfileUptime = "uptime-weighted"

	// WeightProfileCustom marks weights given explicitly in a config file.
	WeightProfileCustom = "custom"
)

// Weights holds the relative importance of each component score.
type Weights struct {
	Uptime    float64 `yaml:"uptime"`
	Bandwidth float64 `yaml:"bandwidth"`
	Role      float64 `yaml:"role"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Uptime + w.Bandwidth + w.Role
}

// Validate checks that weights are non-negative and sum to 1.0.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Uptime, w.Bandwidth, w.Role} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: negative weight %v", ErrInvalidWeights, v)
		}
	}
	if math.Abs(w.Sum()-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %.4f", ErrInvalidWeights, w.Sum())
	}
	return nil
}

// weightProfiles holds the built-in weight sets. Both sets are in use
// upstream and neither has been confirmed canonical, so a profile must be
// marked confirmed by the deployment before results omit the caveat.
var weightProfiles = map[string]Weights{
	WeightProfileBandwidth: {Uptime: 0.30, Bandwidth: 0.45, Role: 0.25},
	WeightProfileUptime:    {Uptime: 0.50, Bandwidth: 0.25, Role: 0.25},
}

// WeightProfile returns the built-in weights for a profile name.
func WeightProfile(name string) (Weights, error) {
	w, ok := weightProfiles[name]
	if !ok {
		return Weights{}, fmt.Errorf("%w: %q (available: %s)",
			ErrUnknownWeightProfile, name, strings.Join(WeightProfileNames(), ", "))
	}
	return w, nil
}

// WeightProfileNames returns the built-in profile names in sorted order.
func WeightProfileNames() []string {
	names := make([]string, 0, len(weightProfiles))
	for name := range weightProfiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Thresholds holds the lower bounds of the confidence tiers.
type Thresholds struct {
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
}

// Scoring is the scoring configuration.
//
// It is a plain value with no reference fields, so copying it takes a full
// snapshot. Components that score a batch copy it once and never observe
// later changes made by the caller.
type Scoring struct {
	// WeightProfile names the weight set. WeightProfileCustom means Weights
	// came from the configuration file directly.
	WeightProfile string

	// WeightsConfirmed is set when the deployment has confirmed the weights
	// with the system owner. Unconfirmed weights add a limitation to every
	// explanation.
	WeightsConfirmed bool

	Weights Weights

	SharedASMultiplier      float64
	SharedCountryMultiplier float64

	// ScoreCeiling is the hard upper bound of every final score.
	ScoreCeiling float64

	Thresholds Thresholds

	// ObservationWindow is the period ending at a candidate's ObservedAt over
	// which simultaneous reachability is measured.
	ObservationWindow time.Duration

	// BandwidthReferenceBps is the bandwidth that maps to a score of 1.0.
	BandwidthReferenceBps float64
}

// NewScoring returns a Scoring with default values.
func NewScoring() Scoring {
	return Scoring{
		WeightProfile:           DefaultWeightProfile,
		Weights:                 weightProfiles[DefaultWeightProfile],
		SharedASMultiplier:      DefaultSharedASMultiplier,
		SharedCountryMultiplier: DefaultSharedCountryMultiplier,
		ScoreCeiling:            DefaultScoreCeiling,
		Thresholds: Thresholds{
			High:   DefaultHighThreshold,
			Medium: DefaultMediumThreshold,
		},
		ObservationWindow:     DefaultObservationWindow,
		BandwidthReferenceBps: DefaultBandwidthReferenceBps,
	}
}

// Validate checks the scoring configuration.
// Every returned error wraps ErrInvalidConfiguration.
func (s Scoring) Validate() error {
	if err := s.Weights.Validate(); err != nil {
		return err
	}

	if !inUnitInterval(s.Thresholds.High) || !inUnitInterval(s.Thresholds.Medium) {
		return fmt.Errorf("%w: high=%v medium=%v", ErrInvalidThreshold, s.Thresholds.High, s.Thresholds.Medium)
	}
	if s.Thresholds.Medium > s.Thresholds.High {
		return fmt.Errorf("%w: medium %v exceeds high %v", ErrInvalidThreshold, s.Thresholds.Medium, s.Thresholds.High)
	}

	if !inHalfOpenUnit(s.ScoreCeiling) {
		return fmt.Errorf("%w: got %v", ErrInvalidCeiling, s.ScoreCeiling)
	}

	if !inHalfOpenUnit(s.SharedASMultiplier) {
		return fmt.Errorf("%w: shared AS multiplier %v", ErrInvalidMultiplier, s.SharedASMultiplier)
	}
	if !inHalfOpenUnit(s.SharedCountryMultiplier) {
		return fmt.Errorf("%w: shared country multiplier %v", ErrInvalidMultiplier, s.SharedCountryMultiplier)
	}

	if s.ObservationWindow <= 0 {
		return ErrInvalidWindow
	}

	if !(s.BandwidthReferenceBps > 0) || math.IsInf(s.BandwidthReferenceBps, 0) {
		return ErrInvalidBandwidthReference
	}

	return nil
}

// HighTierReachable reports whether the ceiling allows the High tier at all.
// A configuration where it does not is valid but almost certainly a mistake.
func (s Scoring) HighTierReachable() bool {
	return s.ScoreCeiling >= s.Thresholds.High
}

// Digest returns a SHA3-256 hex digest of every scoring value.
// Results carry the digest so an audit can prove which configuration
// produced them.
func (s Scoring) Digest() string {
	canonical := fmt.Sprintf(
		"profile=%s;confirmed=%t;w.uptime=%g;w.bandwidth=%g;w.role=%g;"+
			"p.as=%g;p.country=%g;ceiling=%g;t.high=%g;t.medium=%g;window=%d;bwref=%g",
		s.WeightProfile, s.WeightsConfirmed,
		s.Weights.Uptime, s.Weights.Bandwidth, s.Weights.Role,
		s.SharedASMultiplier, s.SharedCountryMultiplier,
		s.ScoreCeiling, s.Thresholds.High, s.Thresholds.Medium,
		int64(s.ObservationWindow), s.BandwidthReferenceBps,
	)
	sum := sha3.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func inUnitInterval(v float64) bool {
	return v >= 0 && v <= 1
}

func inHalfOpenUnit(v float64) bool {
	return v > 0 && v <= 1
}
