package ingest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/nao1215/pathscore/internal/model"
	"github.com/nao1215/pathscore/internal/tor"
)

// Problem is a non-fatal defect found while normalizing a document.
// The affected value is recorded as unknown or left unresolved.
type Problem struct {
	// Candidate is the candidate index, or -1 for relay-level problems.
	Candidate int

	Err error
}

// Set is the normalized content of one or more candidate files.
type Set struct {
	// Relays maps canonical fingerprints to their shared attribute records.
	Relays map[string]*model.RelayAttributes

	// Candidates holds every candidate in input order.
	Candidates []*model.PathCandidate

	// Problems lists every non-fatal defect.
	Problems []Problem
}

// Loader normalizes candidate documents.
type Loader struct {
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used to report non-fatal defects.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// LoadFiles reads and normalizes every file in order. Candidates from later
// files follow those of earlier files. Relay records are resolved per file.
func (l *Loader) LoadFiles(paths ...string) (*Set, error) {
	merged := &Set{Relays: make(map[string]*model.RelayAttributes)}
	for _, path := range paths {
		set, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		offset := len(merged.Candidates)
		for fp, r := range set.Relays {
			merged.Relays[fp] = r
		}
		merged.Candidates = append(merged.Candidates, set.Candidates...)
		for _, p := range set.Problems {
			if p.Candidate >= 0 {
				p.Candidate += offset
			}
			merged.Problems = append(merged.Problems, p)
		}
	}
	return merged, nil
}

// LoadFile reads and normalizes a single candidate file.
func (l *Loader) LoadFile(path string) (*Set, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set, err := l.Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Load reads and normalizes a candidate document from r.
func (l *Loader) Load(r io.Reader) (*Set, error) {
	doc, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return l.Normalize(doc)
}

// Normalize converts a decoded document into canonical model values.
// Relay records that cannot be identified make the whole document invalid;
// everything else degrades to missing data and is reported in Set.Problems.
func (l *Loader) Normalize(doc *Document) (*Set, error) {
	if len(doc.Candidates) == 0 {
		return nil, ErrNoCandidates
	}

	set := &Set{
		Relays:     make(map[string]*model.RelayAttributes, len(doc.Relays)),
		Candidates: make([]*model.PathCandidate, 0, len(doc.Candidates)),
	}

	for i := range doc.Relays {
		relay, problems, err := normalizeRelay(&doc.Relays[i])
		if err != nil {
			return nil, fmt.Errorf("%w: relay %d: %w", ErrInvalidDocument, i, err)
		}
		if _, dup := set.Relays[relay.Fingerprint]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRelay, relay.Fingerprint)
		}
		set.Relays[relay.Fingerprint] = relay
		for _, p := range problems {
			l.logger.Warn("relay attribute discarded",
				"fingerprint", relay.Fingerprint,
				"error", p,
			)
			set.Problems = append(set.Problems, Problem{Candidate: -1, Err: p})
		}
	}

	for i := range doc.Candidates {
		candidate, problems := set.resolveCandidate(&doc.Candidates[i])
		set.Candidates = append(set.Candidates, candidate)
		for _, p := range problems {
			l.logger.Warn("candidate incomplete",
				"candidate", i,
				"error", p,
			)
			set.Problems = append(set.Problems, Problem{Candidate: i, Err: p})
		}
	}

	l.logger.Debug("document normalized",
		"relays", len(set.Relays),
		"candidates", len(set.Candidates),
		"problems", len(set.Problems),
	)

	return set, nil
}

// normalizeRelay converts one relay record. It returns an error only when
// the relay cannot be identified. Unresolvable location data becomes unknown
// and impossible values are dropped; both are returned as problems.
func normalizeRelay(rec *RelayRecord) (*model.RelayAttributes, []error, error) {
	fp, err := tor.NormalizeFingerprint(rec.Fingerprint)
	if err != nil {
		return nil, nil, err
	}

	var problems []error
	relay := &model.RelayAttributes{
		Fingerprint: fp,
		Nickname:    rec.Nickname,
		FlagChanges: rec.FlagChanges,
	}

	if relay.Country, err = tor.NormalizeCountry(rec.Country); err != nil {
		relay.Country = model.UnknownCountry
		problems = append(problems, err)
	}
	if relay.AutonomousSystem, err = tor.NormalizeAS(rec.AutonomousSystem); err != nil {
		relay.AutonomousSystem = model.UnknownAS
		problems = append(problems, err)
	}

	if rec.UptimeRatio != nil {
		if v := *rec.UptimeRatio; math.IsNaN(v) || v < 0 || v > 1 {
			problems = append(problems, fmt.Errorf("%s: uptime ratio %v outside [0,1]", fp, v))
		} else {
			relay.UptimeRatio = &v
		}
	}
	if rec.BandwidthBps != nil {
		if v := *rec.BandwidthBps; v < 0 {
			problems = append(problems, fmt.Errorf("%s: negative bandwidth %d", fp, v))
		} else {
			relay.BandwidthBps = &v
		}
	}
	if rec.FlagChanges < 0 {
		relay.FlagChanges = 0
		problems = append(problems, fmt.Errorf("%s: negative flag change count %d", fp, rec.FlagChanges))
	}

	if rec.Flags != nil {
		flags, unknown := tor.ParseFlags(*rec.Flags)
		relay.Flags = flags
		relay.FlagsKnown = true
		for _, name := range unknown {
			problems = append(problems, fmt.Errorf("%s: ignored unrecognized flag %q", fp, name))
		}
	}

	reachability, err := normalizeReachability(rec.Reachability)
	if err != nil {
		problems = append(problems, fmt.Errorf("%s: %w", fp, err))
	} else {
		relay.Reachability = reachability
	}

	return relay, problems, nil
}

// normalizeReachability parses reachability intervals. One bad interval
// discards them all, so uptime falls back to ratios instead of a partial overlap.
func normalizeReachability(records []IntervalRecord) ([]model.Interval, error) {
	var intervals []model.Interval
	for _, iv := range records {
		start, err := parseTimestamp(iv.Start)
		if err != nil {
			return nil, fmt.Errorf("reachability start: %w", err)
		}
		end, err := parseTimestamp(iv.End)
		if err != nil {
			return nil, fmt.Errorf("reachability end: %w", err)
		}
		if end.Before(start) {
			return nil, errors.New("reachability interval ends before it starts")
		}
		intervals = append(intervals, model.Interval{Start: start, End: end})
	}
	return intervals, nil
}

// resolveCandidate links a candidate record to the set's relays.
// Unresolvable references leave the position nil.
func (s *Set) resolveCandidate(rec *CandidateRecord) (*model.PathCandidate, []error) {
	var problems []error
	candidate := &model.PathCandidate{SourceEvidenceID: rec.SourceEvidenceID}

	refs := map[model.Position]string{
		model.PositionEntry:  rec.Entry,
		model.PositionMiddle: rec.Middle,
		model.PositionExit:   rec.Exit,
	}
	for _, pos := range model.Positions {
		relay, err := s.lookup(refs[pos])
		if err != nil {
			problems = append(problems, fmt.Errorf("%w: %s relay: %w", model.ErrMalformedCandidate, pos, err))
			continue
		}
		switch pos {
		case model.PositionEntry:
			candidate.Entry = relay
		case model.PositionMiddle:
			candidate.Middle = relay
		case model.PositionExit:
			candidate.Exit = relay
		}
	}

	// Without an observation time the window cannot be placed, so interval
	// uptime falls back to ratios. The candidate is still scored.
	if rec.ObservedAt == "" {
		problems = append(problems, errors.New("observedAt is missing"))
	} else if t, err := parseTimestamp(rec.ObservedAt); err != nil {
		problems = append(problems, fmt.Errorf("observedAt: %w", err))
	} else {
		candidate.ObservedAt = t
	}

	return candidate, problems
}

func (s *Set) lookup(ref string) (*model.RelayAttributes, error) {
	if ref == "" {
		return nil, errors.New("no reference given")
	}
	fp, err := tor.NormalizeFingerprint(ref)
	if err != nil {
		return nil, err
	}
	relay, ok := s.Relays[fp]
	if !ok {
		return nil, fmt.Errorf("fingerprint %s not in relay list", fp)
	}
	return relay, nil
}
