// Package main provides the entry point for the pathscore CLI.
//
// pathscore ranks candidate Tor relay paths (entry, middle, exit) by how
// consistent published relay metadata is with each path being used in one
// session, and explains every score with its factors, penalties and
// limitations. Scores are bounded plausibility values, never probabilities.
//
// Usage:
//
//	pathscore score <candidates.yaml>...
//	pathscore history --list-paths
//
// See --help for all available options.
package main

// main is the entry point for pathscore.
func main() {
	Execute()
}
