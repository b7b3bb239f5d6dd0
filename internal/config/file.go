package config

import (
	"fmt"
	"time"
)

// PenaltySection holds penalty multipliers from the configuration file.
type PenaltySection struct {
	SharedAS      *float64 `yaml:"sharedAS,omitempty"`
	SharedCountry *float64 `yaml:"sharedCountry,omitempty"`
}

// ScoringSection is the "scoring" section of the configuration file.
// Pointer fields distinguish "not set" from an explicit zero, which matters
// because a zero ceiling or multiplier must be rejected rather than ignored.
type ScoringSection struct {
	// WeightProfile selects a built-in weight set.
	WeightProfile string `yaml:"weightProfile,omitempty"`

	// WeightsConfirmed records that the system owner confirmed the weights.
	WeightsConfirmed bool `yaml:"weightsConfirmed,omitempty"`

	// Weights gives explicit weights. It implies the "custom" profile.
	Weights *Weights `yaml:"weights,omitempty"`

	Penalties PenaltySection `yaml:"penalties,omitempty"`

	ScoreCeiling *float64 `yaml:"scoreCeiling,omitempty"`

	Thresholds *Thresholds `yaml:"thresholds,omitempty"`

	ObservationWindow *time.Duration `yaml:"observationWindow,omitempty"`

	BandwidthReferenceBps *float64 `yaml:"bandwidthReferenceBps,omitempty"`
}

// RunDefaults is the "defaults" section of the configuration file.
// Command-line flags override these values.
type RunDefaults struct {
	BatchSize int    `yaml:"batchSize,omitempty"`
	TopN      int    `yaml:"topN,omitempty"`
	DBDir     string `yaml:"dbDir,omitempty"`
}

// File represents the structure of the .pathscore configuration file.
type File struct {
	Scoring  ScoringSection `yaml:"scoring,omitempty"`
	Defaults RunDefaults    `yaml:"defaults,omitempty"`
}

// ApplyTo returns base with every value set in the file applied on top.
// The result is not validated; call Scoring.Validate on it.
func (f *File) ApplyTo(base Scoring) (Scoring, error) {
	result := base
	sec := f.Scoring

	switch {
	case sec.Weights != nil:
		if sec.WeightProfile != "" && sec.WeightProfile != WeightProfileCustom {
			return base, fmt.Errorf("%w: weightProfile %q conflicts with explicit weights",
				ErrInvalidConfiguration, sec.WeightProfile)
		}
		result.WeightProfile = WeightProfileCustom
		result.Weights = *sec.Weights
	case sec.WeightProfile == WeightProfileCustom:
		return base, fmt.Errorf("%w: weightProfile %q requires explicit weights",
			ErrInvalidConfiguration, WeightProfileCustom)
	case sec.WeightProfile != "":
		w, err := WeightProfile(sec.WeightProfile)
		if err != nil {
			return base, err
		}
		result.WeightProfile = sec.WeightProfile
		result.Weights = w
	}
	result.WeightsConfirmed = sec.WeightsConfirmed

	if sec.Penalties.SharedAS != nil {
		result.SharedASMultiplier = *sec.Penalties.SharedAS
	}
	if sec.Penalties.SharedCountry != nil {
		result.SharedCountryMultiplier = *sec.Penalties.SharedCountry
	}
	if sec.ScoreCeiling != nil {
		result.ScoreCeiling = *sec.ScoreCeiling
	}
	if sec.Thresholds != nil {
		result.Thresholds = *sec.Thresholds
	}
	if sec.ObservationWindow != nil {
		result.ObservationWindow = *sec.ObservationWindow
	}
	if sec.BandwidthReferenceBps != nil {
		result.BandwidthReferenceBps = *sec.BandwidthReferenceBps
	}

	return result, nil
}

// ApplyDefaults copies run defaults from the file into cfg for every value
// the file sets. Callers apply explicit flags afterwards.
func (f *File) ApplyDefaults(cfg *Config) {
	if f.Defaults.BatchSize > 0 {
		cfg.BatchSize = f.Defaults.BatchSize
	}
	if f.Defaults.TopN > 0 {
		cfg.TopN = f.Defaults.TopN
	}
	if f.Defaults.DBDir != "" {
		cfg.DBDir = f.Defaults.DBDir
	}
}
