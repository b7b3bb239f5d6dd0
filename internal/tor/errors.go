package tor

import "errors"

// Normalization errors.
// These describe relay values that cannot be turned into a canonical form.
// Unresolvable location data is not an error; it normalizes to the unknown
// sentinels of package model instead.
var (
	// ErrInvalidFingerprint is returned when a fingerprint is not 40 hex digits
	// after separators and the "$" prefix are removed.
	ErrInvalidFingerprint = errors.New("invalid relay fingerprint: expected 40 hexadecimal characters")

	// ErrInvalidAS is returned when an autonomous system value is neither
	// empty nor "AS" followed by a number.
	ErrInvalidAS = errors.New("invalid autonomous system: expected AS<number>")

	// ErrInvalidCountry is returned when a country value is not a two-letter code.
	ErrInvalidCountry = errors.New("invalid country code: expected ISO-3166 alpha-2")
)
