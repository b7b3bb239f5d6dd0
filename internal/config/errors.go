package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is the common parent of every scoring configuration
// error. Scoring configuration errors are fatal at load time only; callers can
// match the whole class with errors.Is(err, ErrInvalidConfiguration).
var ErrInvalidConfiguration = errors.New("invalid scoring configuration")

// Scoring configuration errors.
// Each wraps ErrInvalidConfiguration so the presentation layer can tell a
// misconfigured system apart from incomplete evidence.
var (
	// ErrInvalidWeights is returned when component weights are negative or do
	// not sum to 1.0.
	ErrInvalidWeights = fmt.Errorf("%w: weights must be non-negative and sum to 1.0", ErrInvalidConfiguration)

	// ErrInvalidThreshold is returned when a tier threshold is outside [0,1]
	// or the medium threshold exceeds the high threshold.
	ErrInvalidThreshold = fmt.Errorf("%w: tier thresholds must be within [0,1] with medium <= high", ErrInvalidConfiguration)

	// ErrInvalidCeiling is returned when the score ceiling is outside (0,1].
	ErrInvalidCeiling = fmt.Errorf("%w: score ceiling must be within (0,1]", ErrInvalidConfiguration)

	// ErrInvalidMultiplier is returned when a penalty multiplier is outside (0,1].
	ErrInvalidMultiplier = fmt.Errorf("%w: penalty multipliers must be within (0,1]", ErrInvalidConfiguration)

	// ErrInvalidWindow is returned when the observation window is not positive.
	ErrInvalidWindow = fmt.Errorf("%w: observation window must be positive", ErrInvalidConfiguration)

	// ErrInvalidBandwidthReference is returned when the bandwidth reference
	// ceiling is not positive.
	ErrInvalidBandwidthReference = fmt.Errorf("%w: bandwidth reference must be positive", ErrInvalidConfiguration)

	// ErrUnknownWeightProfile is returned when a named weight profile does not exist.
	ErrUnknownWeightProfile = fmt.Errorf("%w: unknown weight profile", ErrInvalidConfiguration)
)

// CLI configuration errors.
// These are returned by Config.Validate() and describe invalid command-line input.
var (
	// ErrNoInput is returned when no candidate file is specified.
	ErrNoInput = errors.New("no input specified: provide one or more candidate files")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidTopN is returned when the ranking size is negative.
	ErrInvalidTopN = errors.New("invalid top-n: must be non-negative (0 ranks every candidate)")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
