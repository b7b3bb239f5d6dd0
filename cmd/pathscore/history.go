package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/pathscore/internal/config"
	"github.com/nao1215/pathscore/internal/database"
	"github.com/nao1215/pathscore/internal/model"
	"github.com/nao1215/pathscore/internal/report"
	"github.com/spf13/cobra"
)

// Tier change directions.
const (
	tierRaised    = "raised"
	tierLowered   = "lowered"
	tierUnchanged = "unchanged"
)

// pathKeyLength is the length of a model path key.
const pathKeyLength = 16

// NewHistoryCmd creates the history command.
// It compares stored analyses of the same relay path.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [path-key]",
		Short: "Compare stored analyses of a relay path",
		Long: `History shows how the plausibility of a relay path changed between analyses
stored with 'pathscore score --save'.

Comparing the two latest analyses of a path shows:
- The score delta and tier change
- Penalties gained or lost between the analyses
- Limitations gained or lost
- Whether the scoring configuration changed in between

Examples:
  # List every path in the database
  pathscore history --list-paths

  # List the analyses of one path
  pathscore history --list 3f2a9c0d41b7e815

  # Compare the latest two analyses of a path
  pathscore history 3f2a9c0d41b7e815

  # List stored runs
  pathscore history --runs

  # Output the comparison in JSON format
  pathscore history --json 3f2a9c0d41b7e815`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List the stored analyses of the specified path")
	cmd.Flags().BoolP("list-paths", "L", false,
		"List every path in the database")
	cmd.Flags().BoolP("runs", "r", false,
		"List stored runs")

	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	listPaths, err := flags.GetBool("list-paths")
	if err != nil {
		return err
	}
	listRuns, err := flags.GetBool("runs")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var pathKey string
	if !listPaths && !listRuns {
		if len(args) == 0 {
			return errors.New("path key is required (use --list-paths to see available paths)")
		}
		pathKey, err = normalizePathKey(args[0])
		if err != nil {
			return err
		}
	}

	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case listPaths:
		return listStoredPaths(ctx, out, db)
	case listRuns:
		return listStoredRuns(ctx, out, db)
	}

	list, err := flags.GetBool("list")
	if err != nil {
		return err
	}
	if list {
		return listPathHistory(ctx, out, db, pathKey)
	}

	return runComparison(ctx, out, db, pathKey, jsonOutput, markdownOutput)
}

// normalizePathKey validates a path key given on the command line.
func normalizePathKey(s string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if len(key) != pathKeyLength {
		return "", fmt.Errorf("invalid path key %q: expected %d hex characters", s, pathKeyLength)
	}
	if _, err := hex.DecodeString(key); err != nil {
		return "", fmt.Errorf("invalid path key %q: %w", s, err)
	}
	return key, nil
}

// listStoredPaths lists every path that has stored analyses.
func listStoredPaths(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	paths, err := db.ListPaths(ctx)
	if err != nil {
		return fmt.Errorf("failed to list paths: %w", err)
	}

	if len(paths) == 0 {
		fmt.Fprintln(out, "No analysed paths found in the database.")
		fmt.Fprintln(out, "\nUse 'pathscore score --save <file>' to store analyses.")
		return nil
	}

	fmt.Fprintf(out, "Analysed paths (%d):\n\n", len(paths))
	fmt.Fprintf(out, "  %-16s  %-8s  %-19s  %s\n", "Path Key", "Analyses", "Last Recorded", "Path")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 76))
	for _, p := range paths {
		fmt.Fprintf(out, "  %-16s  %-8d  %-19s  %s\n",
			p.PathKey, p.Analyses, p.LastRecorded.Format("2006-01-02 15:04:05"), p.PathLabel)
	}
	fmt.Fprintln(out, "\nUse 'pathscore history --list <path-key>' to see the analyses of a path.")

	return nil
}

// listStoredRuns lists stored run summaries.
func listStoredRuns(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	runs, err := db.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found in the database.")
		return nil
	}

	fmt.Fprintf(out, "Stored runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-36s  %-19s  %-20s  %s\n", "Run ID", "Generated", "Weight Profile", "Summary")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 100))
	for _, r := range runs {
		fmt.Fprintf(out, "  %-36s  %-19s  %-20s  %s\n",
			r.RunID, r.GeneratedAt.Format("2006-01-02 15:04:05"), r.WeightProfile, formatTierSummary(r))
	}

	return nil
}

// formatTierSummary formats a run's tier counts as "H:1 M:2 L:0 F:1".
func formatTierSummary(r database.RunRecord) string {
	parts := make([]string, 0, len(model.Tiers)+1)
	for _, t := range model.Tiers {
		parts = append(parts, fmt.Sprintf("%s:%d", t.String()[:1], r.TierSummary[t.String()]))
	}
	parts = append(parts, fmt.Sprintf("F:%d", r.Failed))
	return strings.Join(parts, " ")
}

// listPathHistory lists the stored analyses of one path.
func listPathHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, pathKey string) error {
	records, err := db.GetPathHistory(ctx, pathKey)
	if err != nil {
		return fmt.Errorf("failed to get path history: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintf(out, "No analyses found for path %s\n", pathKey)
		return nil
	}

	fmt.Fprintf(out, "History of %s (%d analyses):\n\n", records[0].PathLabel, len(records))
	fmt.Fprintf(out, "  %-19s  %-6s  %-6s  %-20s  %s\n", "Recorded", "Score", "Tier", "Weight Profile", "Evidence")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 76))
	for _, r := range records {
		evidence := r.SourceEvidenceID
		if evidence == "" {
			evidence = "-"
		}
		fmt.Fprintf(out, "  %-19s  %-6.3f  %-6s  %-20s  %s\n",
			r.RecordedAt.Format("2006-01-02 15:04:05"), r.FinalScore, r.Tier, r.WeightProfile, evidence)
	}
	fmt.Fprintf(out, "\nUse 'pathscore history %s' to compare the latest two analyses.\n", pathKey)

	return nil
}

// runComparison compares the latest two analyses of a path.
func runComparison(ctx context.Context, out io.Writer, db *database.HistoryDB, pathKey string, jsonOutput, markdownOutput bool) error {
	analyses, err := db.GetLatestAnalyses(ctx, pathKey, 2)
	if err != nil {
		return fmt.Errorf("failed to get analyses: %w", err)
	}

	if len(analyses) == 0 {
		return fmt.Errorf("no analyses found for path %s", pathKey)
	}
	if len(analyses) < 2 {
		return fmt.Errorf("at least 2 analyses are required for comparison (found %d)", len(analyses))
	}

	comparison := compareAnalyses(analyses[1], analyses[0])

	switch {
	case jsonOutput:
		return outputComparisonJSON(out, comparison)
	case markdownOutput:
		return outputComparisonMarkdown(out, comparison)
	default:
		return outputComparisonText(out, comparison)
	}
}

// Comparison holds the result of comparing two analyses of the same path.
type Comparison struct {
	PathKey   string `json:"path_key"`
	PathLabel string `json:"path_label"`

	Previous AnalysisSnapshot `json:"previous"`
	Current  AnalysisSnapshot `json:"current"`

	// ScoreDelta is the current final score minus the previous one.
	ScoreDelta float64 `json:"score_delta"`

	// TierChange is "raised", "lowered", or "unchanged".
	TierChange string `json:"tier_change"`

	PenaltiesGained []model.PenaltyKind `json:"penalties_gained,omitempty"`
	PenaltiesLost   []model.PenaltyKind `json:"penalties_lost,omitempty"`

	LimitationsGained []model.LimitationCode `json:"limitations_gained,omitempty"`
	LimitationsLost   []model.LimitationCode `json:"limitations_lost,omitempty"`

	// ConfigChanged is true when the analyses used different configurations.
	// Score changes may then reflect the configuration rather than the evidence.
	ConfigChanged bool `json:"config_changed"`
}

// AnalysisSnapshot summarizes one analysis for comparison display.
type AnalysisSnapshot struct {
	AnalysisID       string     `json:"analysis_id"`
	RunID            string     `json:"run_id,omitempty"`
	AnalyzedAt       time.Time  `json:"analyzed_at"`
	ObservedAt       time.Time  `json:"observed_at"`
	SourceEvidenceID string     `json:"source_evidence_id,omitempty"`
	FinalScore       float64    `json:"final_score"`
	Tier             model.Tier `json:"tier"`
	WeightProfile    string     `json:"weight_profile"`
	ConfigDigest     string     `json:"config_digest"`
}

func snapshotOf(a *model.Analysis) AnalysisSnapshot {
	s := AnalysisSnapshot{
		AnalysisID: a.ID,
		RunID:      a.RunID,
		AnalyzedAt: a.AnalyzedAt,
	}
	if a.Candidate != nil {
		s.ObservedAt = a.Candidate.ObservedAt
		s.SourceEvidenceID = a.Candidate.SourceEvidenceID
	}
	if a.Result != nil {
		s.FinalScore = a.Result.FinalScore
		s.Tier = a.Result.Tier
		s.WeightProfile = a.Result.WeightProfile
		s.ConfigDigest = a.Result.ConfigDigest
	}
	return s
}

// compareAnalyses compares two scored analyses of the same path.
func compareAnalyses(previous, current *model.Analysis) *Comparison {
	result := &Comparison{
		PathKey:  current.PathKey,
		Previous: snapshotOf(previous),
		Current:  snapshotOf(current),
	}
	if current.Candidate != nil {
		result.PathLabel = current.Candidate.Label()
	}

	result.ScoreDelta = result.Current.FinalScore - result.Previous.FinalScore
	switch {
	case result.Current.Tier > result.Previous.Tier:
		result.TierChange = tierRaised
	case result.Current.Tier < result.Previous.Tier:
		result.TierChange = tierLowered
	default:
		result.TierChange = tierUnchanged
	}
	result.ConfigChanged = result.Current.ConfigDigest != result.Previous.ConfigDigest

	result.PenaltiesGained, result.PenaltiesLost = diff(penaltyKinds(previous), penaltyKinds(current))
	result.LimitationsGained, result.LimitationsLost = diff(limitationCodes(previous), limitationCodes(current))

	return result
}

func penaltyKinds(a *model.Analysis) []model.PenaltyKind {
	if a.Explanation == nil {
		return nil
	}
	kinds := make([]model.PenaltyKind, 0, len(a.Explanation.AppliedPenalties))
	for _, p := range a.Explanation.AppliedPenalties {
		kinds = append(kinds, p.Kind)
	}
	return kinds
}

func limitationCodes(a *model.Analysis) []model.LimitationCode {
	if a.Explanation == nil {
		return nil
	}
	codes := make([]model.LimitationCode, 0, len(a.Explanation.Limitations))
	for _, l := range a.Explanation.Limitations {
		if !slices.Contains(codes, l.Code) {
			codes = append(codes, l.Code)
		}
	}
	return codes
}

// diff returns the values only in current (gained) and only in previous (lost),
// each in the order they appear.
func diff[T comparable](previous, current []T) (gained, lost []T) {
	for _, v := range current {
		if !slices.Contains(previous, v) {
			gained = append(gained, v)
		}
	}
	for _, v := range previous {
		if !slices.Contains(current, v) {
			lost = append(lost, v)
		}
	}
	return gained, lost
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(out io.Writer, result *Comparison) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(out io.Writer, result *Comparison) error {
	md := markdown.NewMarkdown(out)

	md.H1("Path Comparison: " + result.PathLabel)
	md.PlainText("")
	md.PlainTextf("**Tier:** %s", formatTierChange(result))
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Analyzed", result.Previous.AnalyzedAt.Format("2006-01-02 15:04"), result.Current.AnalyzedAt.Format("2006-01-02 15:04"), "-"},
			{"Score", fmt.Sprintf("%.3f", result.Previous.FinalScore), fmt.Sprintf("%.3f", result.Current.FinalScore), formatDelta(result.ScoreDelta)},
			{"Tier", report.TierLabel(result.Previous.Tier), report.TierLabel(result.Current.Tier), result.TierChange},
			{"Weight Profile", result.Previous.WeightProfile, result.Current.WeightProfile, "-"},
		},
	})
	md.PlainText("")

	if result.ConfigChanged {
		md.Warningf("The scoring configuration changed between the analyses. The score change may reflect the configuration rather than the evidence.")
		md.PlainText("")
	}

	writeMarkdownChanges(md, "Penalties Gained", result.PenaltiesGained)
	writeMarkdownChanges(md, "Penalties Lost", result.PenaltiesLost)
	writeMarkdownChanges(md, "Limitations Gained", result.LimitationsGained)
	writeMarkdownChanges(md, "Limitations Lost", result.LimitationsLost)

	return md.Build()
}

func writeMarkdownChanges[T ~string](md *markdown.Markdown, title string, values []T) {
	if len(values) == 0 {
		return
	}
	md.H2(fmt.Sprintf("%s (%d)", title, len(values)))
	md.PlainText("")
	items := make([]string, len(values))
	for i, v := range values {
		items[i] = string(v)
	}
	md.BulletList(items...)
	md.PlainText("")
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(out io.Writer, result *Comparison) error {
	fmt.Fprintf(out, "Path Comparison: %s\n", result.PathLabel)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nTier: %s\n", formatTierChange(result))

	fmt.Fprintf(out, "\nPrevious analysis: %s\n", result.Previous.AnalyzedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Current analysis:  %s\n", result.Current.AnalyzedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(out, "\n  %-10s  %-10s  %-10s  %-10s\n", "", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	fmt.Fprintf(out, "  %-10s  %-10.3f  %-10.3f  %-10s\n", "Score",
		result.Previous.FinalScore, result.Current.FinalScore, formatDelta(result.ScoreDelta))
	fmt.Fprintf(out, "  %-10s  %-10s  %-10s  %-10s\n", "Tier",
		result.Previous.Tier, result.Current.Tier, result.TierChange)

	if result.ConfigChanged {
		fmt.Fprintln(out, "\nWarning: the scoring configuration changed between the analyses.")
	}

	writeTextChanges(out, "Penalties gained", "+", result.PenaltiesGained)
	writeTextChanges(out, "Penalties lost", "-", result.PenaltiesLost)
	writeTextChanges(out, "Limitations gained", "+", result.LimitationsGained)
	writeTextChanges(out, "Limitations lost", "-", result.LimitationsLost)

	return nil
}

func writeTextChanges[T ~string](out io.Writer, title, marker string, values []T) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s (%d):\n", title, len(values))
	for _, v := range values {
		fmt.Fprintf(out, "  [%s] %s\n", marker, v)
	}
}

// formatTierChange formats the tier change for display.
func formatTierChange(result *Comparison) string {
	switch result.TierChange {
	case tierRaised:
		return fmt.Sprintf("RAISED (%s -> %s)", result.Previous.Tier, result.Current.Tier)
	case tierLowered:
		return fmt.Sprintf("LOWERED (%s -> %s)", result.Previous.Tier, result.Current.Tier)
	default:
		return fmt.Sprintf("UNCHANGED (%s)", result.Current.Tier)
	}
}

// formatDelta formats a score delta with sign for display.
func formatDelta(delta float64) string {
	switch {
	case delta > 0.0005:
		return fmt.Sprintf("+%.3f", delta)
	case delta < -0.0005:
		return fmt.Sprintf("%.3f", delta)
	default:
		return "0"
	}
}
