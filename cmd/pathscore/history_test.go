package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/pathscore/internal/config"
	"github.com/nao1215/pathscore/internal/database"
	"github.com/nao1215/pathscore/internal/model"
)

func TestNormalizePathKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"lowercase key", "3f2a9c0d41b7e815", "3f2a9c0d41b7e815", false},
		{"uppercase key", "3F2A9C0D41B7E815", "3f2a9c0d41b7e815", false},
		{"surrounding spaces", "  3f2a9c0d41b7e815 ", "3f2a9c0d41b7e815", false},
		{"too short", "3f2a9c", "", true},
		{"too long", "3f2a9c0d41b7e8150", "", true},
		{"not hex", "zz2a9c0d41b7e815", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := normalizePathKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalizePathKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("normalizePathKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	gained, lost := diff([]string{"a", "b", "c"}, []string{"b", "c", "d", "e"})
	if !slices.Equal(gained, []string{"d", "e"}) {
		t.Errorf("unexpected gained %v", gained)
	}
	if !slices.Equal(lost, []string{"a"}) {
		t.Errorf("unexpected lost %v", lost)
	}

	gained, lost = diff([]string{"a"}, []string{"a"})
	if len(gained) != 0 || len(lost) != 0 {
		t.Errorf("expected no changes, got %v %v", gained, lost)
	}
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		delta float64
		want  string
	}{
		{0.123, "+0.123"},
		{-0.2, "-0.200"},
		{0, "0"},
		{0.0004, "0"},
		{-0.0004, "0"},
	}

	for _, tt := range tests {
		if got := formatDelta(tt.delta); got != tt.want {
			t.Errorf("formatDelta(%v) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

// comparedAnalysis builds a scored analysis for comparison tests.
func comparedAnalysis(score float64, tier model.Tier, digest string, penalties []model.PenaltyKind, limitations ...model.LimitationCode) *model.Analysis {
	a := model.NewAnalysis(&model.PathCandidate{
		Entry:  &model.RelayAttributes{Fingerprint: fpA, Nickname: "guardian"},
		Middle: &model.RelayAttributes{Fingerprint: fpB, Nickname: "relayer"},
		Exit:   &model.RelayAttributes{Fingerprint: fpC, Nickname: "exiter"},
	}, 0)
	a.Result = &model.ScoreResult{
		FinalScore:    score,
		Tier:          tier,
		WeightProfile: config.WeightProfileBandwidth,
		ConfigDigest:  digest,
	}
	a.Explanation = &model.Explanation{Tier: tier, FinalScore: score}
	for _, kind := range penalties {
		a.Explanation.AppliedPenalties = append(a.Explanation.AppliedPenalties, model.AppliedPenalty{Kind: kind})
	}
	for _, code := range limitations {
		a.Explanation.Limitations = append(a.Explanation.Limitations, model.NewLimitation(code))
	}
	return a
}

func TestCompareAnalyses(t *testing.T) {
	t.Parallel()

	t.Run("lowered tier with gained penalty", func(t *testing.T) {
		t.Parallel()

		previous := comparedAnalysis(0.805, model.TierHigh, "digest-1", nil,
			model.LimitationNotAProbability, model.LimitationCeilingApplied)
		current := comparedAnalysis(0.483, model.TierMedium, "digest-1",
			[]model.PenaltyKind{model.PenaltySharedCountry},
			model.LimitationNotAProbability, model.LimitationSharedCountry)

		result := compareAnalyses(previous, current)

		if result.TierChange != tierLowered {
			t.Errorf("expected %q, got %q", tierLowered, result.TierChange)
		}
		if formatDelta(result.ScoreDelta) != "-0.322" {
			t.Errorf("unexpected delta %s", formatDelta(result.ScoreDelta))
		}
		if !slices.Equal(result.PenaltiesGained, []model.PenaltyKind{model.PenaltySharedCountry}) {
			t.Errorf("unexpected penalties gained %v", result.PenaltiesGained)
		}
		if len(result.PenaltiesLost) != 0 {
			t.Errorf("unexpected penalties lost %v", result.PenaltiesLost)
		}
		if !slices.Equal(result.LimitationsGained, []model.LimitationCode{model.LimitationSharedCountry}) {
			t.Errorf("unexpected limitations gained %v", result.LimitationsGained)
		}
		if !slices.Equal(result.LimitationsLost, []model.LimitationCode{model.LimitationCeilingApplied}) {
			t.Errorf("unexpected limitations lost %v", result.LimitationsLost)
		}
		if result.ConfigChanged {
			t.Error("expected unchanged configuration")
		}
		if result.PathLabel != "guardian (AAAAAAAA) > relayer (BBBBBBBB) > exiter (CCCCCCCC)" {
			t.Errorf("unexpected label %q", result.PathLabel)
		}
	})

	t.Run("raised tier under a new configuration", func(t *testing.T) {
		t.Parallel()

		previous := comparedAnalysis(0.3, model.TierLow, "digest-1", nil)
		current := comparedAnalysis(0.6, model.TierMedium, "digest-2", nil)

		result := compareAnalyses(previous, current)

		if result.TierChange != tierRaised {
			t.Errorf("expected %q, got %q", tierRaised, result.TierChange)
		}
		if !result.ConfigChanged {
			t.Error("expected changed configuration")
		}
		if got := formatTierChange(result); got != "RAISED (LOW -> MEDIUM)" {
			t.Errorf("unexpected tier change %q", got)
		}
	})

	t.Run("repeated limitation codes count once", func(t *testing.T) {
		t.Parallel()

		previous := comparedAnalysis(0.5, model.TierMedium, "d", nil,
			model.LimitationNeutralDefault)
		current := comparedAnalysis(0.5, model.TierMedium, "d", nil,
			model.LimitationNeutralDefault, model.LimitationNeutralDefault)

		result := compareAnalyses(previous, current)
		if len(result.LimitationsGained) != 0 || len(result.LimitationsLost) != 0 {
			t.Errorf("expected no limitation changes, got %v %v", result.LimitationsGained, result.LimitationsLost)
		}
		if got := formatTierChange(result); got != "UNCHANGED (MEDIUM)" {
			t.Errorf("unexpected tier change %q", got)
		}
	})
}

func TestRunHistoryCmd(t *testing.T) {
	fixture := newScoreFixture(t, "")
	for range 2 {
		if _, err := run(t, "score", "-c", fixture.config, "--save", "--db-dir", fixture.dbDir, fixture.candidates); err != nil {
			t.Fatalf("failed to score: %v", err)
		}
	}
	key := testPathKey()

	t.Run("lists paths", func(t *testing.T) {
		output, err := run(t, "history", "--db-dir", fixture.dbDir, "--list-paths")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "Analysed paths (1)") {
			t.Errorf("expected a single path, got %q", output)
		}
	})

	t.Run("lists analyses of a path", func(t *testing.T) {
		output, err := run(t, "history", "--db-dir", fixture.dbDir, "--list", key)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "(2 analyses)") {
			t.Errorf("expected two analyses, got %q", output)
		}
		if !strings.Contains(output, "ev-1") {
			t.Errorf("expected evidence id, got %q", output)
		}
	})

	t.Run("lists runs", func(t *testing.T) {
		output, err := run(t, "history", "--db-dir", fixture.dbDir, "--runs")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "F:1") {
			t.Errorf("expected failed count in run summary, got %q", output)
		}
	})

	t.Run("compares the latest analyses", func(t *testing.T) {
		output, err := run(t, "history", "--db-dir", fixture.dbDir, strings.ToUpper(key))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "UNCHANGED") {
			t.Errorf("expected unchanged tier, got %q", output)
		}
		if strings.Contains(output, "configuration changed") {
			t.Error("expected no configuration change warning")
		}
	})

	t.Run("compares in JSON", func(t *testing.T) {
		output, err := run(t, "history", "--db-dir", fixture.dbDir, "--json", key)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got Comparison
		if err := json.Unmarshal([]byte(output), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.PathKey != key {
			t.Errorf("expected path key %s, got %s", key, got.PathKey)
		}
		if got.ConfigChanged {
			t.Error("expected unchanged configuration")
		}
		if got.Previous.RunID == got.Current.RunID {
			t.Error("expected analyses from different runs")
		}
	})

	t.Run("compares in Markdown", func(t *testing.T) {
		output, err := run(t, "history", "--db-dir", fixture.dbDir, "--markdown", key)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output, "# Path Comparison") {
			t.Errorf("expected markdown heading, got %q", output)
		}
	})

	t.Run("unknown path", func(t *testing.T) {
		_, err := run(t, "history", "--db-dir", fixture.dbDir, "0000000000000000")
		if err == nil {
			t.Error("expected error for unknown path")
		}
	})
}

func TestRunHistoryCmd_Errors(t *testing.T) {
	t.Run("missing database", func(t *testing.T) {
		_, err := run(t, "history", "--db-dir", filepath.Join(t.TempDir(), "none"), "--list-paths")
		if !errors.Is(err, database.ErrDatabaseNotFound) {
			t.Errorf("expected ErrDatabaseNotFound, got %v", err)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		_, err := run(t, "history", "--db-dir", t.TempDir(), "--json", "--markdown", "3f2a9c0d41b7e815")
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("missing path key", func(t *testing.T) {
		if _, err := run(t, "history", "--db-dir", t.TempDir()); err == nil {
			t.Error("expected error without a path key")
		}
	})

	t.Run("invalid path key", func(t *testing.T) {
		if _, err := run(t, "history", "--db-dir", t.TempDir(), "not-a-key"); err == nil {
			t.Error("expected error for an invalid path key")
		}
	})
}
