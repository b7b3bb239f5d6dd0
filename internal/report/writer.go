package report

import (
	"fmt"
	"io"

	"github.com/nao1215/pathscore/internal/model"
	"github.com/nao1215/pathscore/internal/plausibility"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer defines the interface for report output.
// Implementations write batch results in various formats.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.BatchReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.BatchReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// TierLabel returns the display form of a tier, e.g. "High".
func TierLabel(t model.Tier) string {
	return cases.Title(language.English).String(t.String())
}

// FormatPenalty returns a penalty as "shared_as -30%".
func FormatPenalty(p model.AppliedPenalty) string {
	return fmt.Sprintf("%s -%d%%", p.Kind, p.DisplayReductionPercent())
}

// FormatFactor returns a factor as "bandwidth 0.450 (score 1.000 × weight 0.45)".
func FormatFactor(f model.Factor) string {
	return fmt.Sprintf("%s %.3f (score %.3f × weight %.2f)", f.Name, f.Contribution, f.Score, f.Weight)
}

// shortDigest shortens a configuration digest for display.
func shortDigest(digest string) string {
	if len(digest) > 16 {
		return digest[:16]
	}
	return digest
}

// failureKind classifies a failed analysis.
func failureKind(a *model.Analysis) plausibility.ErrorKind {
	return plausibility.KindOf(a.Error)
}

// failures returns the failed analyses in input order.
func failures(report *model.BatchReport) []*model.Analysis {
	var failed []*model.Analysis
	for _, a := range report.Analyses {
		if a.Failed() {
			failed = append(failed, a)
		}
	}
	return failed
}

// scored returns the scored analyses in input order.
func scored(report *model.BatchReport) []*model.Analysis {
	var out []*model.Analysis
	for _, a := range report.Analyses {
		if a.Scored() {
			out = append(out, a)
		}
	}
	return out
}

// evidenceOf returns the source evidence ID or "-".
func evidenceOf(a *model.Analysis) string {
	if a.Candidate == nil || a.Candidate.SourceEvidenceID == "" {
		return "-"
	}
	return a.Candidate.SourceEvidenceID
}

// labelOf returns the path label, tolerating a nil candidate.
func labelOf(a *model.Analysis) string {
	if a.Candidate == nil {
		return "? > ? > ?"
	}
	return a.Candidate.Label()
}
