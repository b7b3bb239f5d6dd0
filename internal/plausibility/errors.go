package plausibility

import (
	"errors"

	"github.com/nao1215/pathscore/internal/config"
	"github.com/nao1215/pathscore/internal/model"
)

// Engine errors.
var (
	// ErrConfigurationChanged is returned when a result was produced under a
	// different configuration than the one in use. Configuration must not
	// change within a batch.
	ErrConfigurationChanged = errors.New("scoring configuration changed during batch")

	// ErrNoResult is returned when Explain is called without a result.
	ErrNoResult = errors.New("no score result to explain")
)

// ErrorKind classifies errors for presentation. The kinds call for
// different guidance: incomplete evidence versus a misconfigured system.
type ErrorKind int

const (
	// KindOther is any error not covered below.
	KindOther ErrorKind = iota

	// KindMissingAttribute means a relay attribute was absent. Scoring
	// recovers from it, so it only appears through Substitution.Err.
	KindMissingAttribute

	// KindInvalidConfiguration means the scoring configuration was rejected.
	KindInvalidConfiguration

	// KindMalformedCandidate means a candidate lacked a relay reference.
	KindMalformedCandidate
)

// KindOf returns the kind of err.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindOther
	case errors.Is(err, model.ErrMalformedCandidate):
		return KindMalformedCandidate
	case errors.Is(err, config.ErrInvalidConfiguration), errors.Is(err, ErrConfigurationChanged):
		return KindInvalidConfiguration
	case errors.Is(err, model.ErrMissingAttribute):
		return KindMissingAttribute
	default:
		return KindOther
	}
}

// String returns a short name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindMissingAttribute:
		return "evidence incomplete"
	case KindInvalidConfiguration:
		return "system misconfigured"
	case KindMalformedCandidate:
		return "malformed candidate"
	default:
		return "error"
	}
}

// Guidance returns what a reviewer should do about an error of this kind.
func (k ErrorKind) Guidance() string {
	switch k {
	case KindMissingAttribute:
		return "A relay attribute was missing and a neutral default was used. Obtain the directory data and re-run."
	case KindInvalidConfiguration:
		return "The scoring configuration is invalid. No result was produced; fix the configuration file and re-run the whole batch."
	case KindMalformedCandidate:
		return "The candidate does not name all three relays. Check the candidate source; it was not scored."
	default:
		return "Unexpected failure. Re-run with --verbose and review the log."
	}
}
