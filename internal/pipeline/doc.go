// Package pipeline runs path candidates through analysis steps.
//
// Each candidate becomes a model.Analysis that passes through a Pipeline of
// Steps: validation, scoring, explanation and, optionally, recording to the
// history database. Steps record failures on the analysis itself, so a
// failed candidate is still reported.
//
// BatchProcessor evaluates many candidates concurrently with a bounded
// errgroup. Candidates are independent, so the only coordination is the
// concurrency limit and context cancellation. The scoring configuration is
// bound to the steps when the batch is built and is verified afterwards by
// comparing the digest carried by every result.
package pipeline
