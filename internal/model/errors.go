package model

import "errors"

// Evidence errors.
// These are kept apart from configuration errors (see package config) so that
// a presentation layer can tell "evidence incomplete" from "system
// misconfigured".
var (
	// ErrMalformedCandidate is returned when a path candidate is missing an
	// entire entry, middle or exit relay reference. Such a candidate is
	// rejected before scoring and is never scored as zero.
	ErrMalformedCandidate = errors.New("malformed path candidate")

	// ErrMissingAttribute marks a relay attribute that was absent and replaced
	// by a neutral default. It is never returned from scoring; it is carried
	// by Substitution so callers can still match it with errors.Is.
	ErrMissingAttribute = errors.New("missing relay attribute")
)
