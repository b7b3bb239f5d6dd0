package tor

import (
	"errors"
	"testing"

	"github.com/nao1215/pathscore/internal/model"
)

const validFingerprint = "9695DFC35FFEB861329B9F1AB04C46397020CE31"

func TestNormalizeFingerprint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"canonical", validFingerprint, validFingerprint, false},
		{"lowercase", "9695dfc35ffeb861329b9f1ab04c46397020ce31", validFingerprint, false},
		{"dollar prefix", "$" + validFingerprint, validFingerprint, false},
		{"grouped", "9695 DFC3 5FFE B861 329B 9F1A B04C 4639 7020 CE31", validFingerprint, false},
		{"with nickname", "$" + validFingerprint + "~moria1", validFingerprint, false},
		{"surrounding spaces", "  " + validFingerprint + "\n", validFingerprint, false},
		{"too short", "9695DFC3", "", true},
		{"non hex", "Z695DFC35FFEB861329B9F1AB04C46397020CE31", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeFingerprint(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFingerprint) {
					t.Errorf("NormalizeFingerprint(%q) error = %v, want ErrInvalidFingerprint", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeFingerprint(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeFingerprint(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsValidFingerprint(t *testing.T) {
	t.Parallel()

	if !IsValidFingerprint(validFingerprint) {
		t.Error("expected canonical fingerprint to be valid")
	}
	if IsValidFingerprint("not-a-fingerprint") {
		t.Error("expected garbage to be invalid")
	}
}

func TestNormalizeCountry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"uppercase", "DE", "DE", false},
		{"lowercase", "de", "DE", false},
		{"padded", " nl ", "NL", false},
		{"empty", "", model.UnknownCountry, false},
		{"question marks", "??", model.UnknownCountry, false},
		{"placeholder ZZ", "zz", model.UnknownCountry, false},
		{"unknown word", "Unknown", model.UnknownCountry, false},
		{"three letters", "DEU", "", true},
		{"digits", "12", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeCountry(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCountry) {
					t.Errorf("NormalizeCountry(%q) error = %v, want ErrInvalidCountry", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeCountry(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeCountry(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeAS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"canonical", "AS24940", "AS24940", false},
		{"lowercase", "as24940", "AS24940", false},
		{"spaced", "AS 24940", "AS24940", false},
		{"bare number", "24940", "AS24940", false},
		{"leading zeros", "AS024940", "AS24940", false},
		{"empty", "", model.UnknownAS, false},
		{"unknown word", "unknown", model.UnknownAS, false},
		{"reserved zero", "AS0", model.UnknownAS, false},
		{"name instead of number", "Hetzner", "", true},
		{"negative", "AS-1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeAS(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAS) {
					t.Errorf("NormalizeAS(%q) error = %v, want ErrInvalidAS", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeAS(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeAS(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	t.Run("known flags in any case", func(t *testing.T) {
		t.Parallel()
		flags, unknown := ParseFlags([]string{"guard", "Running", "VALID", ""})
		if !flags.Has(model.FlagGuard, model.FlagRunning, model.FlagValid) {
			t.Errorf("expected Guard Running Valid, got %s", flags)
		}
		if len(unknown) != 0 {
			t.Errorf("expected no unknown flags, got %v", unknown)
		}
	})

	t.Run("unknown flags are reported", func(t *testing.T) {
		t.Parallel()
		flags, unknown := ParseFlags([]string{"Exit", "MiddleOnly", "StaleDesc"})
		if !flags.Has(model.FlagExit) {
			t.Errorf("expected Exit, got %s", flags)
		}
		if len(unknown) != 2 || unknown[0] != "MiddleOnly" || unknown[1] != "StaleDesc" {
			t.Errorf("unexpected unknown flags: %v", unknown)
		}
	})
}

func TestParseFlagLine(t *testing.T) {
	t.Parallel()

	flags, unknown := ParseFlagLine("s Exit Fast Running Stable Valid")
	if got := flags.String(); got != "Exit Fast Running Stable Valid" {
		t.Errorf("ParseFlagLine() = %q", got)
	}
	if len(unknown) != 0 {
		t.Errorf("expected no unknown flags, got %v", unknown)
	}

	flags, _ = ParseFlagLine("Guard HSDir")
	if !flags.Has(model.FlagGuard, model.FlagHSDir) {
		t.Errorf("expected Guard HSDir without prefix, got %s", flags)
	}
}
