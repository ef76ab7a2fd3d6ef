// Package policy classifies normalized text as admissible for a given age
// tier using lexical ban lists.
//
// This is advisory lexical filtering, not semantic moderation: a passing
// result means no banned token was found, nothing more. Callers must not
// treat it as a legal or compliance guarantee.
package policy

import "strings"

// AgeTier is the ordinal content-maturity classification. Lower tiers get
// stricter filtering.
type AgeTier int

const (
	TierTeen  AgeTier = 0
	TierYouth AgeTier = 1
	TierAdult AgeTier = 2
)

// TierFromValue maps a stored ordinal to a known tier, defaulting to adult.
func TierFromValue(value int) AgeTier {
	switch value {
	case 0:
		return TierTeen
	case 1:
		return TierYouth
	default:
		return TierAdult
	}
}

func (t AgeTier) String() string {
	switch t {
	case TierTeen:
		return "teen"
	case TierYouth:
		return "youth"
	default:
		return "adult"
	}
}

// universalBanWords reject containment at every tier.
var universalBanWords = []string{"hate", "terror", "kill", "毒品", "仇恨", "极端"}

// youthBanWords additionally reject containment at tiers at or below youth.
var youthBanWords = []string{"sex", "nsfw", "暴力", "色情"}

// minYouthLength is the minimum normalized length accepted at youth tiers;
// shorter text is treated as too terse to be worth keeping.
const minYouthLength = 8

// Allow reports whether normalized text is admissible at the given age tier.
func Allow(normalized string, tier AgeTier) bool {
	for _, word := range universalBanWords {
		if strings.Contains(normalized, word) {
			return false
		}
	}
	if tier <= TierYouth {
		for _, word := range youthBanWords {
			if strings.Contains(normalized, word) {
				return false
			}
		}
		if len([]rune(normalized)) < minYouthLength {
			return false
		}
	}
	return true
}
