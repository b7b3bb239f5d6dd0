package ingest

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// IntervalRecord is one reachability period as written in a candidate file.
type IntervalRecord struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// RelayRecord is a relay as written in a candidate file.
// Pointer and nil-able fields are optional; absence is recorded as missing
// data rather than as zero.
type RelayRecord struct {
	Fingerprint      string           `yaml:"fingerprint"`
	Nickname         string           `yaml:"nickname,omitempty"`
	Country          string           `yaml:"country,omitempty"`
	AutonomousSystem string           `yaml:"as,omitempty"`
	UptimeRatio      *float64         `yaml:"uptimeRatio,omitempty"`
	BandwidthBps     *int64           `yaml:"bandwidthBps,omitempty"`
	Flags            *[]string        `yaml:"flags,omitempty"`
	FlagChanges      int              `yaml:"flagChanges,omitempty"`
	Reachability     []IntervalRecord `yaml:"reachability,omitempty"`
}

// CandidateRecord is a path candidate as written in a candidate file.
type CandidateRecord struct {
	Entry            string `yaml:"entry"`
	Middle           string `yaml:"middle"`
	Exit             string `yaml:"exit"`
	ObservedAt       string `yaml:"observedAt"`
	SourceEvidenceID string `yaml:"sourceEvidenceId,omitempty"`
}

// Document is the top-level structure of a candidate file.
type Document struct {
	Relays     []RelayRecord     `yaml:"relays"`
	Candidates []CandidateRecord `yaml:"candidates"`
}

// Decode reads a Document from r. JSON is accepted as well, being a subset
// of YAML. Unknown keys are rejected.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoCandidates
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return &doc, nil
}

// timestampFormats are the layouts accepted for timestamps, most specific first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp parses a timestamp in any accepted layout.
// Values without a zone are taken as UTC, as directory archives are.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
