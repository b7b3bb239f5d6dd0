package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultBatchSize is the number of candidates scored concurrently.
	// Scoring is CPU-only, so this mostly bounds memory for very large inputs.
	DefaultBatchSize = 8

	// DefaultTopN is the number of ranked candidates shown in reports.
	DefaultTopN = 10

	// AppName is the application name used for XDG directory paths.
	AppName = "pathscore"
)

// Config holds all command-line options for pathscore.
// It is populated from CLI flags and passed through the application
// explicitly rather than held in global state.
type Config struct {
	// Inputs lists candidate files (YAML or JSON) to analyse.
	Inputs []string

	// BatchSize is the maximum number of candidates scored concurrently.
	BatchSize int

	// TopN is the number of ranked candidates to report. Zero ranks all.
	TopN int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the usual locations.
	ConfigFilePath string

	// Scoring is the scoring configuration after the config file is applied.
	Scoring Scoring

	// JSONReport enables JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ExplainAll includes the full explanation of every candidate, not just
	// the ranked ones, in text and Markdown reports.
	ExplainAll bool

	// ReportFile is the output file path. Stdout is used when empty.
	ReportFile string

	// DBDir is the directory holding the SQLite history database.
	DBDir string

	// SaveToDB stores every analysis in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BatchSize: DefaultBatchSize,
		TopN:      DefaultTopN,
		Scoring:   NewScoring(),
		DBDir:     XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for pathscore.
// On Linux: ~/.local/share/pathscore
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pathscore.
// On Linux: ~/.config/pathscore
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for pathscore.
// On Linux: ~/.cache/pathscore
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// The scoring configuration is validated as well, so a bad deployment
// configuration stops the run before any candidate is scored.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.TopN < 0 {
		return ErrInvalidTopN
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return c.Scoring.Validate()
}
