package plausibility

import (
	"math"
	"slices"
	"time"

	"github.com/nao1215/pathscore/internal/config"
	"github.com/nao1215/pathscore/internal/model"
)

// NeutralDefault is substituted for a component whose inputs are missing.
// It sits at the midpoint so that missing data neither helps nor sinks a
// candidate.
const NeutralDefault = 0.5

// Role score blend. Positional fit matters more than stability.
const (
	positionalWeight = 0.6
	stabilityWeight  = 0.4
)

// Attribute names recorded in substitutions.
const (
	AttributeUptime    = "uptime_ratio"
	AttributeBandwidth = "bandwidth"
	AttributeFlags     = "flags"
)

// ComponentResult is the output of ScoreComponents.
type ComponentResult struct {
	Scores        model.ComponentScores
	UptimeMethod  model.UptimeMethod
	Substitutions []model.Substitution
}

// ScoreComponents derives the three component scores for a candidate.
// The candidate must have passed Validate. Missing attributes never cause an
// error; they are replaced by NeutralDefault and listed in Substitutions.
func ScoreComponents(c *model.PathCandidate, cfg config.Scoring) ComponentResult {
	var res ComponentResult
	res.Scores.Uptime, res.UptimeMethod, res.Substitutions =
		uptimeScore(c, cfg.ObservationWindow, res.Substitutions)
	res.Scores.Bandwidth, res.Substitutions = bandwidthScore(c, cfg.BandwidthReferenceBps, res.Substitutions)
	res.Scores.Role, res.Substitutions = roleScore(c, res.Substitutions)
	return res
}

// uptimeScore returns the fraction of the window in which all three relays
// were reachable at once.
//
// Reachability intervals give the exact overlap. When any relay lacks them,
// the smallest uptime ratio is used; it bounds the overlap from above. When
// ratios are missing too, the neutral default is used.
func uptimeScore(c *model.PathCandidate, window time.Duration, subs []model.Substitution) (float64, model.UptimeMethod, []model.Substitution) {
	relays := c.Relays()

	if !c.ObservedAt.IsZero() && window > 0 && allHaveIntervals(relays) {
		start := c.ObservedAt.Add(-window)
		common := clipAndMerge(relays[0].Reachability, start, c.ObservedAt)
		for _, r := range relays[1:] {
			common = intersect(common, clipAndMerge(r.Reachability, start, c.ObservedAt))
		}
		var total time.Duration
		for _, iv := range common {
			total += iv.Duration()
		}
		return clamp01(float64(total) / float64(window)), model.UptimeMethodIntervals, subs
	}

	lowest := math.Inf(1)
	complete := true
	for i, r := range relays {
		if r.UptimeRatio == nil {
			complete = false
			subs = append(subs, model.Substitution{
				Component:    model.ComponentUptime,
				Position:     model.Positions[i],
				Fingerprint:  r.Fingerprint,
				Attribute:    AttributeUptime,
				DefaultValue: NeutralDefault,
			})
			continue
		}
		lowest = math.Min(lowest, *r.UptimeRatio)
	}
	if !complete {
		return NeutralDefault, model.UptimeMethodDefault, subs
	}
	return clamp01(lowest), model.UptimeMethodRatios, subs
}

func allHaveIntervals(relays [3]*model.RelayAttributes) bool {
	for _, r := range relays {
		if len(r.Reachability) == 0 {
			return false
		}
	}
	return true
}

// clipAndMerge restricts intervals to [from, to) and merges overlaps.
// The result is sorted and disjoint.
func clipAndMerge(in []model.Interval, from, to time.Time) []model.Interval {
	clipped := make([]model.Interval, 0, len(in))
	for _, iv := range in {
		s, e := iv.Start, iv.End
		if s.Before(from) {
			s = from
		}
		if e.After(to) {
			e = to
		}
		if e.After(s) {
			clipped = append(clipped, model.Interval{Start: s, End: e})
		}
	}
	slices.SortFunc(clipped, func(a, b model.Interval) int {
		return a.Start.Compare(b.Start)
	})

	merged := make([]model.Interval, 0, len(clipped))
	for _, iv := range clipped {
		if n := len(merged); n > 0 && !iv.Start.After(merged[n-1].End) {
			if iv.End.After(merged[n-1].End) {
				merged[n-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// intersect returns the overlap of two sorted, disjoint interval lists.
func intersect(a, b []model.Interval) []model.Interval {
	var out []model.Interval
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		s := a[i].Start
		if b[j].Start.After(s) {
			s = b[j].Start
		}
		e := a[i].End
		if b[j].End.Before(e) {
			e = b[j].End
		}
		if e.After(s) {
			out = append(out, model.Interval{Start: s, End: e})
		}
		if a[i].End.Before(b[j].End) {
			i++
		} else {
			j++
		}
	}
	return out
}

// bandwidthScore normalizes the bottleneck bandwidth of the triple.
func bandwidthScore(c *model.PathCandidate, reference float64, subs []model.Substitution) (float64, []model.Substitution) {
	var lowest int64 = math.MaxInt64
	complete := true
	for i, r := range c.Relays() {
		if r.BandwidthBps == nil {
			complete = false
			subs = append(subs, model.Substitution{
				Component:    model.ComponentBandwidth,
				Position:     model.Positions[i],
				Fingerprint:  r.Fingerprint,
				Attribute:    AttributeBandwidth,
				DefaultValue: NeutralDefault,
			})
			continue
		}
		lowest = min(lowest, *r.BandwidthBps)
	}
	if !complete {
		return NeutralDefault, subs
	}
	if reference <= 0 {
		return 0, subs
	}
	return clamp01(float64(lowest) / reference), subs
}

// roleScore rewards position-appropriate flags and penalizes instability.
//
// Positional fit is the mean of "entry is a Guard" and "exit is an Exit not
// marked BadExit". Stability is the mean over the triple of 1 for a Running,
// Valid, Stable relay, 0.5 for Running and Valid only, and 0 otherwise,
// each divided by one plus the relay's flag change count.
func roleScore(c *model.PathCandidate, subs []model.Substitution) (float64, []model.Substitution) {
	relays := c.Relays()
	complete := true
	for i, r := range relays {
		if !r.FlagsKnown {
			complete = false
			subs = append(subs, model.Substitution{
				Component:    model.ComponentRole,
				Position:     model.Positions[i],
				Fingerprint:  r.Fingerprint,
				Attribute:    AttributeFlags,
				DefaultValue: NeutralDefault,
			})
		}
	}
	if !complete {
		return NeutralDefault, subs
	}

	var positional float64
	if c.Entry.Flags.Has(model.FlagGuard) {
		positional += 0.5
	}
	if c.Exit.Flags.Has(model.FlagExit) && !c.Exit.Flags.Has(model.FlagBadExit) {
		positional += 0.5
	}

	var stability float64
	for _, r := range relays {
		var s float64
		switch {
		case r.Flags.Has(model.FlagRunning, model.FlagValid, model.FlagStable):
			s = 1
		case r.Flags.Has(model.FlagRunning, model.FlagValid):
			s = 0.5
		}
		stability += s / float64(1+max(r.FlagChanges, 0))
	}
	stability /= float64(len(relays))

	return clamp01(positionalWeight*positional + stabilityWeight*stability), subs
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
