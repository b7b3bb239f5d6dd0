// Package config provides configuration structures and utilities for pathscore.
// It defines the scoring configuration (weights, penalty multipliers, score
// ceiling, tier thresholds), the command-line run configuration, and the YAML
// configuration file that deployments use to set both.
package config
