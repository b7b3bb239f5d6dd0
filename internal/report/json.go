package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/pathscore/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
// Scores and penalty reductions keep full precision.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is stamped on the output when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion stamps the pathscore version on the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport wraps a batch report with output metadata.
type JSONReport struct {
	// Version is the pathscore version that generated this report.
	Version string `json:"version,omitempty"`

	// Summary counts analyses per outcome.
	Summary JSONSummary `json:"summary"`

	Report *model.BatchReport `json:"report"`
}

// JSONSummary counts analyses by tier.
type JSONSummary struct {
	Total  int            `json:"total"`
	Failed int            `json:"failed"`
	Tiers  map[string]int `json:"tiers"`
}

// NewJSONReport creates a JSONReport for a batch report.
func NewJSONReport(report *model.BatchReport, version string) *JSONReport {
	tiers := make(map[string]int, len(model.Tiers))
	counts := report.TierCounts()
	for _, t := range model.Tiers {
		tiers[t.String()] = counts[t]
	}
	return &JSONReport{
		Version: version,
		Summary: JSONSummary{
			Total:  len(report.Analyses),
			Failed: report.FailedCount(),
			Tiers:  tiers,
		},
		Report: report,
	}
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(report *model.BatchReport) (int, error) {
	return w.writeJSON(NewJSONReport(report, w.version))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
