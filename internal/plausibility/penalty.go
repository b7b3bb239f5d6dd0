package plausibility

import (
	"strings"

	"github.com/nao1215/pathscore/internal/config"
	"github.com/nao1215/pathscore/internal/model"
)

// EvaluatePenalties derives the shared-infrastructure penalties for an
// entry/exit pair. A penalty applies only when both values are known and
// equal ignoring case; two unknown values never match.
func EvaluatePenalties(entry, exit *model.RelayAttributes, cfg config.Scoring) model.Penalties {
	p := model.NoPenalties()
	if entry == nil || exit == nil {
		return p
	}
	if SharesAS(entry, exit) {
		p.SharedAS = cfg.SharedASMultiplier
	}
	if SharesCountry(entry, exit) {
		p.SharedCountry = cfg.SharedCountryMultiplier
	}
	return p
}

// SharesAS reports whether both relays sit in the same known autonomous system.
func SharesAS(a, b *model.RelayAttributes) bool {
	return a.HasKnownAS() && b.HasKnownAS() && strings.EqualFold(strings.TrimSpace(a.AutonomousSystem), strings.TrimSpace(b.AutonomousSystem))
}

// SharesCountry reports whether both relays are in the same known country.
func SharesCountry(a, b *model.RelayAttributes) bool {
	return a.HasKnownCountry() && b.HasKnownCountry() && strings.EqualFold(strings.TrimSpace(a.Country), strings.TrimSpace(b.Country))
}
