package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/pathscore/internal/config"
	"github.com/nao1215/pathscore/internal/database"
	"github.com/nao1215/pathscore/internal/ingest"
	"github.com/nao1215/pathscore/internal/log"
	"github.com/nao1215/pathscore/internal/model"
	"github.com/nao1215/pathscore/internal/pipeline"
	"github.com/nao1215/pathscore/internal/plausibility"
	"github.com/nao1215/pathscore/internal/report"
	"github.com/spf13/cobra"
)

// NewScoreCmd creates the score command.
func NewScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [candidates-file]...",
		Short: "Score and rank candidate relay paths",
		Long: `Score evaluates candidate entry > middle > exit relay paths against relay
directory metadata and ranks them by plausibility.

Each candidate receives:
- Uptime, bandwidth and role component scores
- Shared AS and shared country penalties between entry and exit
- A final score bounded by the configured ceiling and a confidence tier
- An explanation naming the two strongest factors and every limitation

Candidate files are YAML or JSON documents with "relays" and "candidates"
sections. Relay attributes that are missing are replaced by neutral defaults
and reported; candidates that do not name all three relays are reported as
not scored.

Examples:
  # Score every candidate in a file
  pathscore score candidates.yaml

  # Score several files, showing the top 5
  pathscore score -n 5 day1.yaml day2.yaml

  # Explain every candidate, not only the ranked ones
  pathscore score --explain candidates.yaml

  # Write a Markdown report and store the analyses in the history database
  pathscore score --markdown -o report.md --save candidates.yaml

  # Use a custom configuration file
  pathscore score -c scoring.yaml candidates.yaml`,
		Args: cobra.ArbitraryArgs,
		RunE: runScoreCmd,
	}

	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of candidates scored concurrently")
	cmd.Flags().IntP("top", "n", config.DefaultTopN,
		"Number of ranked candidates to report (0 ranks all)")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pathscore in current or home directory)")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().BoolP("explain", "e", false,
		"Explain every scored candidate, not only the ranked ones")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	cmd.Flags().BoolP("save", "s", false,
		"Store analyses in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runScoreCmd executes the score command.
func runScoreCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScore(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the configuration file and cobra flags.
// Flags given explicitly override values from the configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Inputs = args
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly named file must exist; otherwise defaults are fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.Scoring, err = file.ApplyTo(cfg.Scoring)
		if err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
		file.ApplyDefaults(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	flags := cmd.Flags()
	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("top") {
		if cfg.TopN, err = flags.GetInt("top"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ExplainAll, err = flags.GetBool("explain"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// runScore loads candidates, scores them and writes the report.
func runScore(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	logger.Info("starting analysis",
		"inputs", len(cfg.Inputs),
		"batchSize", cfg.BatchSize,
		"weightProfile", cfg.Scoring.WeightProfile,
		"saveToDB", cfg.SaveToDB,
	)

	engine, err := plausibility.NewEngine(cfg.Scoring, plausibility.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	set, err := ingest.NewLoader(ingest.WithLogger(logger)).LoadFiles(cfg.Inputs...)
	if err != nil {
		return fmt.Errorf("failed to load candidates: %w", err)
	}
	if len(set.Problems) > 0 {
		fmt.Fprintf(stderr, "Warning: %d input problem(s) found; affected values were treated as unknown (use --verbose for details)\n",
			len(set.Problems))
	}

	var db *database.HistoryDB
	var recorder pipeline.Recorder
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		recorder = db
		logger.Info("database opened", "path", db.Path())
	}

	runID := uuid.NewString()
	bp := pipeline.NewEngineBatchProcessor(engine, recorder, logger,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithRunID(runID),
	)

	startTime := time.Now()
	analyses, batchErr := bp.ProcessBatch(ctx, set.Candidates)
	if errors.Is(batchErr, plausibility.ErrConfigurationChanged) {
		// Mixed configurations cannot be ranked together.
		return fmt.Errorf("batch discarded: %w", batchErr)
	}
	logger.Info("analysis complete",
		"candidates", len(analyses),
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)

	unsaved := 0
	for _, a := range analyses {
		if a.RecordError != "" {
			unsaved++
		}
	}
	if unsaved > 0 {
		fmt.Fprintf(stderr, "Warning: %d analysis(es) could not be saved to the history database\n", unsaved)
	}

	batchReport := pipeline.BuildReport(runID, analyses, engine.Config().WeightProfile, engine.Digest(), cfg.TopN)

	if db != nil {
		// The run summary is stored even when the batch was interrupted.
		if err := db.SaveRun(context.WithoutCancel(ctx), batchReport); err != nil {
			logger.Error("failed to save run", "error", err)
		}
	}

	if err := writeReport(cfg, batchReport, stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if batchErr != nil {
		return fmt.Errorf("analysis interrupted: %w", batchErr)
	}
	return nil
}

// newReportWriter returns the writer for the configured format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output, report.WithAllDetails(cfg.ExplainAll))
	default:
		return report.NewSimpleWriter(output,
			report.WithExplainAll(cfg.ExplainAll),
			report.WithVerbose(cfg.Verbose),
		)
	}
}

// writeReport writes the report to the configured file, or to stdout.
func writeReport(cfg *config.Config, batchReport *model.BatchReport, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports name evidence identifiers; keep them owner-readable only.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	_, err := newReportWriter(cfg, output).Write(batchReport)
	return err
}
