package ingest

import "errors"

// Input errors.
var (
	// ErrInvalidDocument is returned when a candidate file cannot be decoded
	// or holds a relay record that cannot be normalized.
	ErrInvalidDocument = errors.New("invalid candidate document")

	// ErrDuplicateRelay is returned when two relay records share a fingerprint.
	ErrDuplicateRelay = errors.New("duplicate relay fingerprint")

	// ErrNoCandidates is returned when a document contains no candidates.
	ErrNoCandidates = errors.New("document contains no path candidates")
)
