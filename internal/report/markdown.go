package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/pathscore/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing. It uses GitHub-flavored alerts and a mermaid tier chart.
type MarkdownWriter struct {
	baseWriter

	// explainAll adds a details block for every scored candidate, not only
	// the ranked ones.
	explainAll bool
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithAllDetails adds explanation details for every scored candidate.
func WithAllDetails(all bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.explainAll = all
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.BatchReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeRanked(md, report)
	w.writeDetails(md, report)
	w.writeFailures(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.BatchReport) {
	md.H1("Path Plausibility Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + report.RunID + "`"},
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Weight Profile", report.WeightProfile},
			{"Config Digest", "`" + shortDigest(report.ConfigDigest) + "`"},
			{"Candidates", strconv.Itoa(len(report.Analyses))},
		},
	})
	md.PlainText("")
}

// writeSummary writes the tier distribution section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.BatchReport) {
	md.H2("Confidence Summary")
	md.PlainText("")

	counts := report.TierCounts()
	rows := make([][]string, 0, len(model.Tiers)+1)
	for _, tier := range model.Tiers {
		rows = append(rows, []string{TierLabel(tier), strconv.Itoa(counts[tier])})
	}
	rows = append(rows, []string{"Not scored", strconv.Itoa(report.FailedCount())})

	md.Table(markdown.TableSet{
		Header: []string{"Tier", "Candidates"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(scored(report)) > 0 {
		w.writePieChart(md, counts)
	}

	md.Note("Scores measure how consistent relay metadata is with each path. They are not probabilities and do not exclude alternative paths.")
	md.PlainText("")

	w.writeAlert(md, report, counts)
}

// writePieChart writes a mermaid pie chart of the tier distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.Tier]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Confidence Tier Distribution"),
		piechart.WithShowData(true),
	)

	for _, tier := range model.Tiers {
		if counts[tier] > 0 {
			chart.LabelAndIntValue(TierLabel(tier), uint64(counts[tier]))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert describing the batch outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.BatchReport, counts map[model.Tier]int) {
	failed := report.FailedCount()
	switch {
	case failed > 0 && failed == len(report.Analyses):
		md.Cautionf("No candidate could be scored. %d candidate(s) failed.", failed)
	case failed > 0:
		md.Warningf("%d candidate(s) could not be scored. See the Not Scored section.", failed)
	case counts[model.TierHigh] > 0:
		md.Importantf(
			"%d candidate(s) reached the High tier. High confidence is bounded by the score ceiling and never implies certainty.",
			counts[model.TierHigh],
		)
	default:
		md.Tip("Every candidate was scored.")
	}
	md.PlainText("")
}

// writeRanked writes the ranking table.
func (w *MarkdownWriter) writeRanked(md *markdown.Markdown, report *model.BatchReport) {
	md.H2("Ranked Candidates")
	md.PlainText("")

	if len(report.Ranked) == 0 {
		md.PlainText("No candidate could be scored.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Ranked))
	for i, a := range report.Ranked {
		e := a.Explanation
		rows[i] = []string{
			strconv.Itoa(i + 1),
			labelOf(a),
			fmt.Sprintf("%.3f", a.Result.FinalScore),
			TierLabel(a.Result.Tier),
			string(e.PrimaryFactor.Name),
			string(e.SecondaryFactor.Name),
			penaltySummary(e),
			evidenceOf(a),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Path", "Score", "Tier", "Primary", "Secondary", "Penalties", "Evidence"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeDetails writes a collapsible explanation per candidate.
func (w *MarkdownWriter) writeDetails(md *markdown.Markdown, report *model.BatchReport) {
	candidates := report.Ranked
	if w.explainAll {
		candidates = scored(report)
	}
	if len(candidates) == 0 {
		return
	}

	md.H2("Explanations")
	md.PlainText("")

	for _, a := range candidates {
		summary := fmt.Sprintf("%s: %.3f (%s)", labelOf(a), a.Result.FinalScore, TierLabel(a.Result.Tier))
		md.Details(summary, explanationText(a))
	}
	md.PlainText("")
}

// explanationText renders an explanation as a Markdown bullet list.
func explanationText(a *model.Analysis) string {
	e := a.Explanation
	var sb strings.Builder

	fmt.Fprintf(&sb, "- Path key: `%s`\n", a.PathKey)
	fmt.Fprintf(&sb, "- Primary factor: %s\n", FormatFactor(e.PrimaryFactor))
	fmt.Fprintf(&sb, "- Secondary factor: %s\n", FormatFactor(e.SecondaryFactor))
	fmt.Fprintf(&sb, "- Uptime derived from: %s\n", a.Result.UptimeMethod)
	for _, p := range e.AppliedPenalties {
		fmt.Fprintf(&sb, "- Penalty: %s\n", FormatPenalty(p))
	}
	sb.WriteString("- Limitations:\n")
	for _, l := range e.Limitations {
		fmt.Fprintf(&sb, "  - %s\n", l.Statement)
	}
	return sb.String()
}

func penaltySummary(e *model.Explanation) string {
	if len(e.AppliedPenalties) == 0 {
		return "-"
	}
	parts := make([]string, len(e.AppliedPenalties))
	for i, p := range e.AppliedPenalties {
		parts[i] = FormatPenalty(p)
	}
	return strings.Join(parts, ", ")
}

// writeFailures writes candidates that could not be scored.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.BatchReport) {
	failed := failures(report)
	if len(failed) == 0 {
		return
	}

	md.H2("Not Scored")
	md.PlainText("")

	rows := make([][]string, len(failed))
	for i, a := range failed {
		kind := failureKind(a)
		rows[i] = []string{
			strconv.Itoa(a.Index),
			labelOf(a),
			kind.String(),
			a.ErrorMessage,
			kind.Guidance(),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Input", "Path", "Kind", "Error", "Guidance"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pathscore](https://github.com/nao1215/pathscore)*")
}
