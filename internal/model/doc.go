// Package model defines the core data structures used throughout pathscore.
//
// This package contains the following main types:
//   - RelayAttributes: Normalized metadata for a single relay
//   - PathCandidate: An ordered entry/middle/exit triple under analysis
//   - ScoreResult: Component scores, penalties and the bounded final score
//   - Explanation: Ranked factors, applied penalties and limitations
//   - Analysis / BatchReport: One scored candidate and a whole run
//
// Multiple packages (ingest, plausibility, pipeline, report, database) share
// these types, so they live in their own package to avoid import cycles.
//
// The models are serializable to JSON for report output and database storage.
package model
