package model

import (
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/sha3"
)

// Position identifies a hop within a path.
type Position string

// Path positions in circuit order.
const (
	PositionEntry  Position = "entry"
	PositionMiddle Position = "middle"
	PositionExit   Position = "exit"
)

// Positions lists the three positions in circuit order.
var Positions = []Position{PositionEntry, PositionMiddle, PositionExit}

// PathCandidate is an ordered entry → middle → exit relay triple hypothesized
// to have carried one session.
//
// The relay pointers reference records owned by the caller's relay directory
// and are never mutated by this module.
type PathCandidate struct {
	Entry  *RelayAttributes `json:"entry"`
	Middle *RelayAttributes `json:"middle"`
	Exit   *RelayAttributes `json:"exit"`

	// ObservedAt is the end of the observation window for this candidate.
	ObservedAt time.Time `json:"observed_at"`

	// SourceEvidenceID is an opaque reference to the evidence that produced
	// the candidate. It is carried through unchanged.
	SourceEvidenceID string `json:"source_evidence_id,omitempty"`
}

// Validate rejects candidates whose relay references are missing entirely.
// The returned error wraps ErrMalformedCandidate.
func (p *PathCandidate) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: candidate is nil", ErrMalformedCandidate)
	}
	for _, pos := range Positions {
		if p.Relay(pos) == nil {
			return fmt.Errorf("%w: %s relay is missing", ErrMalformedCandidate, pos)
		}
	}
	return nil
}

// Relay returns the relay at the given position.
func (p *PathCandidate) Relay(pos Position) *RelayAttributes {
	switch pos {
	case PositionEntry:
		return p.Entry
	case PositionMiddle:
		return p.Middle
	case PositionExit:
		return p.Exit
	default:
		return nil
	}
}

// Relays returns the triple in circuit order.
func (p *PathCandidate) Relays() [3]*RelayAttributes {
	return [3]*RelayAttributes{p.Entry, p.Middle, p.Exit}
}

// PathKey returns a short stable identifier for the relay triple.
// It depends only on the three fingerprints in order, so repeated analyses
// of the same path share a key regardless of evidence or observation time.
func (p *PathCandidate) PathKey() string {
	h := sha3.New256()
	for _, r := range p.Relays() {
		if r != nil {
			h.Write([]byte(r.Fingerprint))
		}
		h.Write([]byte{'>'})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Label returns a human-readable "entry > middle > exit" description.
func (p *PathCandidate) Label() string {
	names := make([]string, 0, 3)
	for _, r := range p.Relays() {
		if r == nil {
			names = append(names, "?")
			continue
		}
		names = append(names, r.DisplayName())
	}
	return names[0] + " > " + names[1] + " > " + names[2]
}
