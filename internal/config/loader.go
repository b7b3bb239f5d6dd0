package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".pathscore"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads the configuration file from a YAML document.
// If the file does not exist, it returns ErrConfigNotFound.
// Unknown keys are rejected so that a misspelt setting cannot silently fall
// back to a default.
func LoadConfigFile(path string) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	defer f.Close()

	var cf File
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		// An empty file decodes to io.EOF; treat it as an empty configuration.
		if errors.Is(err, io.EOF) {
			return &cf, nil
		}
		return nil, err
	}

	return &cf, nil
}

// LoadScoring loads the file at path and applies it to the default scoring
// configuration. The returned configuration has been validated.
func LoadScoring(path string) (Scoring, error) {
	cf, err := LoadConfigFile(path)
	if err != nil {
		return Scoring{}, err
	}
	s, err := cf.ApplyTo(NewScoring())
	if err != nil {
		return Scoring{}, err
	}
	if err := s.Validate(); err != nil {
		return Scoring{}, err
	}
	return s, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .pathscore in the current directory
// 3. Look for .pathscore in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}
