package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pathscore/internal/model"
)

// DBFileName is the database file name inside the data directory.
const DBFileName = "pathscore.db"

// timestampLayout is a fixed-width UTC layout so stored timestamps sort
// lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// HistoryDB provides SQLite-based storage for analyses and runs.
// It is safe for concurrent use; writes are serialized by the single
// connection.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Database errors.
var (
	// ErrDatabaseNotFound is returned by Open when the database does not
	// exist and creation was not requested.
	ErrDatabaseNotFound = errors.New("history database not found")

	// ErrNotScored is returned when saving an analysis without a score.
	ErrNotScored = errors.New("analysis has no score to record")
)

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Runs summarize one batch invocation
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		generated_at TEXT NOT NULL,
		weight_profile TEXT NOT NULL,
		config_digest TEXT NOT NULL,
		total INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		tier_summary TEXT
	);

	-- Analyses store every scored candidate
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		analysis_id TEXT NOT NULL UNIQUE,
		run_id TEXT,
		path_key TEXT NOT NULL,
		path_label TEXT NOT NULL,
		source_evidence_id TEXT,
		observed_at TEXT,
		final_score REAL NOT NULL,
		tier TEXT NOT NULL,
		weight_profile TEXT NOT NULL,
		config_digest TEXT NOT NULL,
		recorded_at TEXT NOT NULL,
		analysis_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_path ON analyses(path_key);
	CREATE INDEX IF NOT EXISTS idx_analyses_run ON analyses(run_id);
	CREATE INDEX IF NOT EXISTS idx_analyses_recorded ON analyses(recorded_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveAnalysis stores a scored analysis. Saving the same analysis twice
// replaces the earlier row.
func (hdb *HistoryDB) SaveAnalysis(ctx context.Context, a *model.Analysis) error {
	return saveAnalysis(ctx, hdb.db, a)
}

// SaveRun stores the run summary of a batch report. Analyses are saved
// separately, usually as they complete.
func (hdb *HistoryDB) SaveRun(ctx context.Context, report *model.BatchReport) error {
	return saveRun(ctx, hdb.db, report)
}

// SaveReport stores a run and all of its scored analyses in one transaction.
func (hdb *HistoryDB) SaveReport(ctx context.Context, report *model.BatchReport) error {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := saveRun(ctx, tx, report); err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, a := range report.Analyses {
		if !a.Scored() {
			continue
		}
		if err := saveAnalysis(ctx, tx, a); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	return nil
}

func saveAnalysis(ctx context.Context, ex execer, a *model.Analysis) error {
	if !a.Scored() {
		return fmt.Errorf("%w: %s", ErrNotScored, a.ID)
	}

	analysisJSON, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to serialize analysis: %w", err)
	}

	var observedAt string
	if !a.Candidate.ObservedAt.IsZero() {
		observedAt = a.Candidate.ObservedAt.UTC().Format(timestampLayout)
	}

	query := `
	INSERT INTO analyses (
		analysis_id, run_id, path_key, path_label, source_evidence_id, observed_at,
		final_score, tier, weight_profile, config_digest, recorded_at, analysis_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(analysis_id) DO UPDATE SET
		run_id = excluded.run_id,
		final_score = excluded.final_score,
		tier = excluded.tier,
		weight_profile = excluded.weight_profile,
		config_digest = excluded.config_digest,
		analysis_json = excluded.analysis_json
	`

	_, err = ex.ExecContext(ctx, query,
		a.ID,
		a.RunID,
		a.PathKey,
		a.Candidate.Label(),
		a.Candidate.SourceEvidenceID,
		observedAt,
		a.Result.FinalScore,
		a.Result.Tier.String(),
		a.Result.WeightProfile,
		a.Result.ConfigDigest,
		time.Now().UTC().Format(timestampLayout),
		string(analysisJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

func saveRun(ctx context.Context, ex execer, report *model.BatchReport) error {
	summary := make(map[string]int, len(model.Tiers))
	for tier, n := range report.TierCounts() {
		summary[tier.String()] = n
	}
	summaryJSON, _ := json.Marshal(summary) //nolint:errcheck,errchkjson // map[string]int cannot fail

	query := `
	INSERT OR REPLACE INTO runs (run_id, generated_at, weight_profile, config_digest, total, failed, tier_summary)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := ex.ExecContext(ctx, query,
		report.RunID,
		report.GeneratedAt.UTC().Format(timestampLayout),
		report.WeightProfile,
		report.ConfigDigest,
		len(report.Analyses),
		report.FailedCount(),
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}
