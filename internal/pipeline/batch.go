package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/pathscore/internal/model"
	"github.com/nao1215/pathscore/internal/plausibility"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of candidates analysed at once when
// WithConcurrency is not given.
const DefaultConcurrency = 10

// BatchProcessor analyses many path candidates concurrently.
// It uses errgroup to manage goroutines and respect the concurrency limit.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each candidate.
	pipelineFactory func() *Pipeline

	concurrency int

	logger *slog.Logger

	// digest is the configuration digest every result must carry.
	// Empty disables the check.
	digest string

	// runID is stamped on every analysis before it runs.
	runID string
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent analyses.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithConfigDigest makes the processor verify that every score in the batch
// was produced under the configuration with this digest.
func WithConfigDigest(digest string) BatchOption {
	return func(b *BatchProcessor) {
		b.digest = digest
	}
}

// WithRunID stamps every analysis with runID before its pipeline runs, so
// analyses recorded during the batch already belong to the run.
func WithRunID(runID string) BatchOption {
	return func(b *BatchProcessor) {
		b.runID = runID
	}
}

// NewBatchProcessor creates a new BatchProcessor.
// pipelineFactory is called once per candidate so pipeline state never
// leaks between candidates.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// NewEngineBatchProcessor builds a processor whose pipelines run the
// standard analysis steps against engine and verify its digest.
func NewEngineBatchProcessor(engine *plausibility.Engine, recorder Recorder, logger *slog.Logger, opts ...BatchOption) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	factory := func() *Pipeline {
		p := New(WithLogger(logger))
		p.AddSteps(AnalysisSteps(engine, recorder, logger)...)
		return p
	}
	opts = append([]BatchOption{WithBatchLogger(logger), WithConfigDigest(engine.Digest())}, opts...)
	return NewBatchProcessor(factory, opts...)
}

// ProcessBatch analyses candidates concurrently.
//
// The returned slice has one analysis per candidate in input order, including
// failed and cancelled ones. A per-candidate failure does not stop the batch.
// The error is the context error if the batch was cancelled, or
// plausibility.ErrConfigurationChanged if any result carries a foreign digest.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, candidates []*model.PathCandidate) ([]*model.Analysis, error) {
	bp.logger.Info("starting batch analysis",
		"total_candidates", len(candidates),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Each goroutine writes only its own index.
	results := bp.newAnalyses(candidates)

	err := bp.run(ctx, results, nil)

	bp.logger.Info("batch analysis complete",
		"total_candidates", len(candidates),
		"elapsed", time.Since(startTime),
	)

	if verr := bp.verifyDigest(results); verr != nil {
		return results, verr
	}
	return results, err
}

// ProcessBatchWithCallback analyses candidates and calls callback for each
// completed analysis with its index in candidates. The callback runs on the
// worker goroutine and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	candidates []*model.PathCandidate,
	callback func(analysis *model.Analysis, index int),
) error {
	bp.logger.Info("starting batch analysis with callback",
		"total_candidates", len(candidates),
		"concurrency", bp.concurrency,
	)

	results := bp.newAnalyses(candidates)

	err := bp.run(ctx, results, callback)
	if verr := bp.verifyDigest(results); verr != nil {
		return verr
	}
	return err
}

func (bp *BatchProcessor) newAnalyses(candidates []*model.PathCandidate) []*model.Analysis {
	analyses := make([]*model.Analysis, len(candidates))
	for i, c := range candidates {
		analyses[i] = model.NewAnalysis(c, i)
		analyses[i].RunID = bp.runID
	}
	return analyses
}

func (bp *BatchProcessor) run(ctx context.Context, analyses []*model.Analysis, callback func(*model.Analysis, int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, analysis := range analyses {
		// Stop submitting once cancelled; remaining analyses are marked.
		if gctx.Err() != nil {
			markCancelled(analyses[i:], gctx.Err())
			break
		}

		g.Go(func() error {
			pipeline := bp.pipelineFactory()
			// Failures are recorded on the analysis.
			_ = pipeline.Execute(gctx, analysis) //nolint:errcheck // Error is stored in analysis

			if analysis.Failed() && !analysis.Cancelled {
				bp.logger.Warn("candidate analysis failed",
					"path", analysis.PathKey,
					"index", i,
					"error", analysis.ErrorMessage,
				)
			}
			if callback != nil {
				callback(analysis, i)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func markCancelled(analyses []*model.Analysis, err error) {
	for _, a := range analyses {
		a.Cancelled = true
		if a.Error == nil {
			a.Error = err
			a.ErrorMessage = err.Error()
		}
	}
}

// verifyDigest checks that every result was produced under bp.digest.
func (bp *BatchProcessor) verifyDigest(analyses []*model.Analysis) error {
	if bp.digest == "" {
		return nil
	}
	var errs []error
	for _, a := range analyses {
		if a.Result == nil || a.Result.ConfigDigest == bp.digest {
			continue
		}
		errs = append(errs, fmt.Errorf("%w: analysis %d", plausibility.ErrConfigurationChanged, a.Index))
	}
	return errors.Join(errs...)
}
