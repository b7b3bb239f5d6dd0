package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/pathscore/internal/model"
)

// AnalysisRecord is the summary row of a stored analysis.
// It is used for listing history without loading full analyses.
type AnalysisRecord struct {
	// ID is the row identifier in the database.
	ID int64

	AnalysisID       string
	RunID            string
	PathKey          string
	PathLabel        string
	SourceEvidenceID string
	ObservedAt       time.Time
	FinalScore       float64
	Tier             model.Tier
	WeightProfile    string
	ConfigDigest     string
	RecordedAt       time.Time
}

// PathSummary describes one relay path with stored analyses.
type PathSummary struct {
	PathKey      string
	PathLabel    string
	Analyses     int
	LastRecorded time.Time
}

// RunRecord is a stored run summary.
type RunRecord struct {
	RunID         string
	GeneratedAt   time.Time
	WeightProfile string
	ConfigDigest  string
	Total         int
	Failed        int
	TierSummary   map[string]int
}

// ListPaths returns every path with stored analyses, most recent first.
func (hdb *HistoryDB) ListPaths(ctx context.Context) ([]PathSummary, error) {
	query := `
	SELECT path_key, MAX(path_label), COUNT(*), MAX(recorded_at)
	FROM analyses
	GROUP BY path_key
	ORDER BY MAX(recorded_at) DESC, path_key
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list paths: %w", err)
	}
	defer rows.Close()

	var paths []PathSummary
	for rows.Next() {
		var p PathSummary
		var recorded string
		if err := rows.Scan(&p.PathKey, &p.PathLabel, &p.Analyses, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan path: %w", err)
		}
		p.LastRecorded = parseTimestamp(recorded)
		paths = append(paths, p)
	}

	return paths, rows.Err()
}

// GetPathHistory returns the analysis records of one path, most recent first.
func (hdb *HistoryDB) GetPathHistory(ctx context.Context, pathKey string) ([]AnalysisRecord, error) {
	query := `
	SELECT id, analysis_id, run_id, path_key, path_label, source_evidence_id, observed_at,
		final_score, tier, weight_profile, config_digest, recorded_at
	FROM analyses
	WHERE path_key = ?
	ORDER BY recorded_at DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, pathKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get path history: %w", err)
	}
	defer rows.Close()

	var records []AnalysisRecord
	for rows.Next() {
		var (
			r                         AnalysisRecord
			runID, evidence, observed sql.NullString
			tier, recorded            string
		)
		if err := rows.Scan(&r.ID, &r.AnalysisID, &runID, &r.PathKey, &r.PathLabel, &evidence,
			&observed, &r.FinalScore, &tier, &r.WeightProfile, &r.ConfigDigest, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan analysis record: %w", err)
		}
		r.RunID = runID.String
		r.SourceEvidenceID = evidence.String
		if observed.String != "" {
			r.ObservedAt = parseTimestamp(observed.String)
		}
		r.RecordedAt = parseTimestamp(recorded)
		if t, err := model.ParseTier(tier); err == nil {
			r.Tier = t
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// GetLatestAnalyses returns up to n full analyses of one path, most recent first.
func (hdb *HistoryDB) GetLatestAnalyses(ctx context.Context, pathKey string, n int) ([]*model.Analysis, error) {
	query := `
	SELECT analysis_json FROM analyses
	WHERE path_key = ?
	ORDER BY recorded_at DESC, id DESC
	LIMIT ?
	`
	return hdb.queryAnalyses(ctx, query, pathKey, n)
}

// GetRunAnalyses returns the analyses recorded for a run in input order.
func (hdb *HistoryDB) GetRunAnalyses(ctx context.Context, runID string) ([]*model.Analysis, error) {
	query := `
	SELECT analysis_json FROM analyses
	WHERE run_id = ?
	ORDER BY id
	`
	return hdb.queryAnalyses(ctx, query, runID)
}

func (hdb *HistoryDB) queryAnalyses(ctx context.Context, query string, args ...any) ([]*model.Analysis, error) {
	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*model.Analysis
	for rows.Next() {
		var analysisJSON string
		if err := rows.Scan(&analysisJSON); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		var a model.Analysis
		if err := json.Unmarshal([]byte(analysisJSON), &a); err != nil {
			continue // Skip malformed rows
		}
		analyses = append(analyses, &a)
	}

	return analyses, rows.Err()
}

// GetAnalysisByID retrieves an analysis by its analysis ID.
// It returns nil and no error when the analysis does not exist.
func (hdb *HistoryDB) GetAnalysisByID(ctx context.Context, analysisID string) (*model.Analysis, error) {
	query := `
	SELECT analysis_json FROM analyses
	WHERE analysis_id = ?
	`

	var analysisJSON string
	err := hdb.db.QueryRowContext(ctx, query, analysisID).Scan(&analysisJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var a model.Analysis
	if err := json.Unmarshal([]byte(analysisJSON), &a); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}
	return &a, nil
}

// ListRuns returns stored run summaries, most recent first.
func (hdb *HistoryDB) ListRuns(ctx context.Context) ([]RunRecord, error) {
	query := `
	SELECT run_id, generated_at, weight_profile, config_digest, total, failed, tier_summary
	FROM runs
	ORDER BY generated_at DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			r         RunRecord
			generated string
			summary   sql.NullString
		)
		if err := rows.Scan(&r.RunID, &generated, &r.WeightProfile, &r.ConfigDigest, &r.Total, &r.Failed, &summary); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.GeneratedAt = parseTimestamp(generated)
		r.TierSummary = make(map[string]int)
		if summary.Valid && summary.String != "" {
			if err := json.Unmarshal([]byte(summary.String), &r.TierSummary); err != nil {
				r.TierSummary = make(map[string]int)
			}
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses a stored timestamp, returning zero time when no
// format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
