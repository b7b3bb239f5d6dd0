package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Sentinel values for location attributes that could not be resolved.
// Unknown values never match each other when evaluating shared-infrastructure
// penalties.
const (
	// UnknownCountry is used when the relay's country could not be resolved.
	UnknownCountry = "unknown"

	// UnknownAS is used when the relay's autonomous system could not be resolved.
	UnknownAS = "unknown"
)

// RoleFlag is a single relay role tag as published in the network directory.
type RoleFlag uint16

// Relay flags. Only the flags relevant to path-position plausibility are
// interpreted by the scorer; the rest are kept for display.
const (
	FlagAuthority RoleFlag = 1 << iota
	FlagBadExit
	FlagExit
	FlagFast
	FlagGuard
	FlagHSDir
	FlagRunning
	FlagStable
	FlagV2Dir
	FlagValid
)

// roleFlagNames lists flags in the order the directory publishes them.
var roleFlagNames = []struct {
	flag RoleFlag
	name string
}{
	{FlagAuthority, "Authority"},
	{FlagBadExit, "BadExit"},
	{FlagExit, "Exit"},
	{FlagFast, "Fast"},
	{FlagGuard, "Guard"},
	{FlagHSDir, "HSDir"},
	{FlagRunning, "Running"},
	{FlagStable, "Stable"},
	{FlagV2Dir, "V2Dir"},
	{FlagValid, "Valid"},
}

// ParseRoleFlag returns the flag for a directory flag name (case-insensitive).
func ParseRoleFlag(name string) (RoleFlag, bool) {
	for _, f := range roleFlagNames {
		if strings.EqualFold(f.name, name) {
			return f.flag, true
		}
	}
	return 0, false
}

// RoleFlags is a set of RoleFlag values.
type RoleFlags uint16

// NewRoleFlags builds a set from individual flags.
func NewRoleFlags(flags ...RoleFlag) RoleFlags {
	var set RoleFlags
	for _, f := range flags {
		set |= RoleFlags(f)
	}
	return set
}

// Has reports whether every given flag is present in the set.
func (s RoleFlags) Has(flags ...RoleFlag) bool {
	for _, f := range flags {
		if s&RoleFlags(f) == 0 {
			return false
		}
	}
	return true
}

// Names returns the flag names in directory order.
func (s RoleFlags) Names() []string {
	names := make([]string, 0, len(roleFlagNames))
	for _, f := range roleFlagNames {
		if s.Has(f.flag) {
			names = append(names, f.name)
		}
	}
	return names
}

// String returns the flags as a space-separated list, like a consensus "s" line.
func (s RoleFlags) String() string {
	return strings.Join(s.Names(), " ")
}

// MarshalJSON encodes the set as a list of flag names.
func (s RoleFlags) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON decodes a list of flag names.
func (s *RoleFlags) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	var set RoleFlags
	for _, name := range names {
		f, ok := ParseRoleFlag(name)
		if !ok {
			return fmt.Errorf("unknown relay flag %q", name)
		}
		set |= RoleFlags(f)
	}
	*s = set
	return nil
}

// Interval is a closed-open period [Start, End) during which a relay was
// observed reachable.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the interval length, or zero for an inverted interval.
func (i Interval) Duration() time.Duration {
	if !i.End.After(i.Start) {
		return 0
	}
	return i.End.Sub(i.Start)
}

// RelayAttributes is the normalized representation of one relay.
// Values are produced by the ingest package and are read-only afterwards;
// nothing in the scoring path mutates them.
//
// Optional numeric attributes are pointers: nil means the directory did not
// provide the value, which is different from a real zero.
type RelayAttributes struct {
	// Fingerprint is the 40-character uppercase hex identity digest.
	Fingerprint string `json:"fingerprint"`

	// Nickname is the operator-chosen display name. It is not unique.
	Nickname string `json:"nickname"`

	// Country is an ISO-3166 alpha-2 code in upper case, or UnknownCountry.
	Country string `json:"country"`

	// AutonomousSystem is "AS<number>", or UnknownAS.
	AutonomousSystem string `json:"autonomous_system"`

	// UptimeRatio is the fraction of the observation window the relay was up.
	UptimeRatio *float64 `json:"uptime_ratio,omitempty"`

	// BandwidthBps is the advertised bandwidth in bytes per second.
	BandwidthBps *int64 `json:"bandwidth_bps,omitempty"`

	// Flags holds the relay's role flags. Only meaningful when FlagsKnown is true.
	Flags RoleFlags `json:"flags"`

	// FlagsKnown is false when the directory record carried no flag line.
	FlagsKnown bool `json:"flags_known"`

	// FlagChanges counts flag transitions observed during the window.
	FlagChanges int `json:"flag_changes,omitempty"`

	// Reachability lists the periods the relay was observed reachable.
	// When present for all three relays, uptime overlap is computed exactly.
	Reachability []Interval `json:"reachability,omitempty"`
}

// HasKnownCountry reports whether Country holds a resolved country code.
// The directory placeholder "??" and any casing of UnknownCountry count as unknown.
func (r *RelayAttributes) HasKnownCountry() bool {
	c := strings.TrimSpace(r.Country)
	return c != "" && c != "??" && !strings.EqualFold(c, UnknownCountry)
}

// HasKnownAS reports whether AutonomousSystem holds a resolved AS number.
func (r *RelayAttributes) HasKnownAS() bool {
	as := strings.TrimSpace(r.AutonomousSystem)
	return as != "" && !strings.EqualFold(as, UnknownAS)
}

// DisplayName returns "nickname (FINGERPR)" for report output.
func (r *RelayAttributes) DisplayName() string {
	short := r.Fingerprint
	if len(short) > 8 {
		short = short[:8]
	}
	if r.Nickname == "" {
		return short
	}
	return r.Nickname + " (" + short + ")"
}
