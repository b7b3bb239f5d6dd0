// Package report renders batch analysis results.
//
// Writers implement the Writer interface and can be composed with
// MultiWriter:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: tables, a tier chart and per-path details for sharing
//
// Every writer renders limitation statements from the model catalog, so the
// same caveat reads identically in every format. Penalty reductions are
// rounded for display only; the JSON output keeps full precision.
package report
