package tor

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/pathscore/internal/model"
)

// FingerprintLength is the length of a hex-encoded relay identity digest.
const FingerprintLength = 40

// caser returns a new upper-casing Caser. A Caser holds transform state and
// must not be shared between goroutines.
func caser() cases.Caser {
	return cases.Upper(language.Und)
}

// unknownCountryCodes are placeholder codes that geolocation databases emit
// when a relay's location could not be resolved.
var unknownCountryCodes = map[string]bool{
	"":        true,
	"??":      true,
	"--":      true,
	"XX":      true,
	"ZZ":      true,
	"UNKNOWN": true,
}

// NormalizeFingerprint returns the canonical uppercase form of a relay
// fingerprint. A leading "$", spaces and colons are removed.
func NormalizeFingerprint(fp string) (string, error) {
	fp = strings.TrimPrefix(strings.TrimSpace(fp), "$")
	// Drop an appended "=nickname" or "~nickname" as written in some logs.
	if i := strings.IndexAny(fp, "=~"); i >= 0 {
		fp = fp[:i]
	}
	fp = strings.NewReplacer(" ", "", ":", "").Replace(fp)
	fp = caser().String(fp)

	if len(fp) != FingerprintLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidFingerprint, fp)
	}
	for _, c := range fp {
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return "", fmt.Errorf("%w: %q", ErrInvalidFingerprint, fp)
		}
	}
	return fp, nil
}

// IsValidFingerprint reports whether fp normalizes successfully.
func IsValidFingerprint(fp string) bool {
	_, err := NormalizeFingerprint(fp)
	return err == nil
}

// NormalizeCountry returns an uppercase ISO-3166 alpha-2 code, or
// model.UnknownCountry for empty and placeholder values.
func NormalizeCountry(country string) (string, error) {
	c := caser().String(strings.TrimSpace(country))
	if unknownCountryCodes[c] {
		return model.UnknownCountry, nil
	}
	if len(c) != 2 || c[0] < 'A' || c[0] > 'Z' || c[1] < 'A' || c[1] > 'Z' {
		return "", fmt.Errorf("%w: %q", ErrInvalidCountry, country)
	}
	return c, nil
}

// NormalizeAS returns "AS<number>" for an autonomous system given as
// "AS1234", "as 1234" or a bare "1234". Empty, "unknown" and the reserved
// AS0 normalize to model.UnknownAS.
func NormalizeAS(as string) (string, error) {
	s := caser().String(strings.TrimSpace(as))
	if s == "" || s == "UNKNOWN" {
		return model.UnknownAS, nil
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "AS"))

	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAS, as)
	}
	if n == 0 {
		return model.UnknownAS, nil
	}
	return "AS" + strconv.FormatUint(n, 10), nil
}

// ParseFlags converts directory flag names into a flag set.
// Flags the scorer does not know about are returned separately rather than
// rejected; the directory adds new flags from time to time.
func ParseFlags(names []string) (model.RoleFlags, []string) {
	var (
		flags   model.RoleFlags
		unknown []string
	)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		f, ok := model.ParseRoleFlag(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		flags |= model.NewRoleFlags(f)
	}
	return flags, unknown
}

// ParseFlagLine parses a space-separated consensus "s" line such as
// "s Fast Guard Running Stable Valid". The leading "s" is optional.
func ParseFlagLine(line string) (model.RoleFlags, []string) {
	fields := strings.Fields(line)
	if len(fields) > 0 && fields[0] == "s" {
		fields = fields[1:]
	}
	return ParseFlags(fields)
}
