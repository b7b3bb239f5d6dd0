package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pathscore/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// explainAll writes the full explanation of every scored candidate,
	// not only the ranked ones.
	explainAll bool

	// verbose adds component scores and substituted defaults.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithExplainAll explains every scored candidate instead of only the ranked ones.
func WithExplainAll(explainAll bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.explainAll = explainAll
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.BatchReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeRanked(&sb, report)
	if w.explainAll {
		w.writeAll(&sb, report)
	}
	w.writeFailures(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func writeRule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n")
}

func writeSection(sb *strings.Builder, title string) {
	writeRule(sb, "-")
	sb.WriteString(title + "\n")
	writeRule(sb, "-")
	sb.WriteString("\n")
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.BatchReport) {
	sb.WriteString("\n")
	writeRule(sb, "=")
	sb.WriteString("                    PATH PLAUSIBILITY REPORT\n")
	writeRule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Run ID:          %s\n", report.RunID)
	fmt.Fprintf(sb, "Generated:       %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Weight Profile:  %s\n", report.WeightProfile)
	fmt.Fprintf(sb, "Config Digest:   %s\n", shortDigest(report.ConfigDigest))
	fmt.Fprintf(sb, "Candidates:      %d\n", len(report.Analyses))
	sb.WriteString("\n")
}

// writeSummary writes the tier summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.BatchReport) {
	writeSection(sb, "CONFIDENCE SUMMARY")

	counts := report.TierCounts()
	for _, tier := range model.Tiers {
		fmt.Fprintf(sb, "  %-8s %d\n", tier.String()+":", counts[tier])
	}
	fmt.Fprintf(sb, "  %-8s %d\n", "FAILED:", report.FailedCount())
	sb.WriteString("\n")
	sb.WriteString("  Scores measure metadata consistency. They are not probabilities.\n")
	sb.WriteString("\n")
}

// writeRanked writes the ranked candidates with their explanations.
func (w *SimpleWriter) writeRanked(sb *strings.Builder, report *model.BatchReport) {
	writeSection(sb, "RANKED CANDIDATES")

	if len(report.Ranked) == 0 {
		sb.WriteString("  No candidate could be scored\n\n")
		return
	}

	for i, a := range report.Ranked {
		w.writeCandidate(sb, fmt.Sprintf("%2d.", i+1), a)
	}
}

// writeAll writes every scored candidate in input order.
func (w *SimpleWriter) writeAll(sb *strings.Builder, report *model.BatchReport) {
	all := scored(report)
	if len(all) == 0 {
		return
	}

	writeSection(sb, "ALL CANDIDATES")
	for _, a := range all {
		w.writeCandidate(sb, fmt.Sprintf("#%d", a.Index), a)
	}
}

// writeCandidate writes one scored analysis.
func (w *SimpleWriter) writeCandidate(sb *strings.Builder, prefix string, a *model.Analysis) {
	e := a.Explanation
	fmt.Fprintf(sb, "%s [%s] %.3f  %s\n", prefix, a.Result.Tier, a.Result.FinalScore, labelOf(a))

	indent := strings.Repeat(" ", len(prefix)+1)
	fmt.Fprintf(sb, "%sEvidence:   %s\n", indent, evidenceOf(a))
	fmt.Fprintf(sb, "%sPath key:   %s\n", indent, a.PathKey)
	fmt.Fprintf(sb, "%sPrimary:    %s\n", indent, FormatFactor(e.PrimaryFactor))
	fmt.Fprintf(sb, "%sSecondary:  %s\n", indent, FormatFactor(e.SecondaryFactor))

	fmt.Fprintf(sb, "%sPenalties:  %s\n", indent, penaltySummary(e))

	if w.verbose {
		c := a.Result.Components
		fmt.Fprintf(sb, "%sComponents: uptime=%.3f bandwidth=%.3f role=%.3f (uptime from %s)\n",
			indent, c.Uptime, c.Bandwidth, c.Role, a.Result.UptimeMethod)
		fmt.Fprintf(sb, "%sRaw score:  %.4f  penalized: %.4f\n", indent, a.Result.RawScore, a.Result.PenalizedScore)
		for _, s := range a.Result.Substitutions {
			fmt.Fprintf(sb, "%sDefault:    %s relay %s = %.2f\n", indent, s.Position, s.Attribute, s.DefaultValue)
		}
	}

	fmt.Fprintf(sb, "%sLimitations:\n", indent)
	for _, l := range e.Limitations {
		fmt.Fprintf(sb, "%s  - %s\n", indent, l.Statement)
	}
	sb.WriteString("\n")
}

// writeFailures writes candidates that could not be scored.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.BatchReport) {
	failed := failures(report)
	if len(failed) == 0 {
		return
	}

	writeSection(sb, "NOT SCORED")
	for _, a := range failed {
		kind := failureKind(a)
		fmt.Fprintf(sb, "  #%d %s\n", a.Index, labelOf(a))
		fmt.Fprintf(sb, "     %s: %s\n", kind, a.ErrorMessage)
		fmt.Fprintf(sb, "     %s\n", kind.Guidance())
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	writeRule(sb, "=")
	sb.WriteString("Report generated by pathscore\n")
	writeRule(sb, "=")
}
