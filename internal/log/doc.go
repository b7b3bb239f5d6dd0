// Package log provides structured logging that keeps investigative
// identifiers and credentials out of log output.
//
// Logs from pathscore are often attached to tickets or shared with other
// teams, while the analyses themselves belong to a case file. SecureHandler
// wraps any slog.Handler and masks:
//   - evidence and case identifiers and operator notes
//   - IP addresses of observed parties, by key or by value
//   - credentials, tokens and private keys
//
// Relay fingerprints, path keys and configuration digests are public and
// are left intact so that log lines can be matched against reports.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("candidate incomplete",
//	    "path", analysis.PathKey,
//	    "source_evidence_id", c.SourceEvidenceID, // masked
//	)
//	slog.SetDefault(logger)
package log
