package extract

import (
	"strings"
)

// rarityOrder is checked in order so "very rare" is not read as "rare" and
// "uncommon" is not read as "common".
var rarityOrder = []string{"very rare", "legendary", "artifact", "uncommon", "rare", "common"}

// Rarity returns the rarity code named in an item's detail text, such as
// "very rare (requires attunement)".
func Rarity(detail string) *string {
	lower := strings.ToLower(detail)
	for _, rarity := range rarityOrder {
		if strings.Contains(lower, rarity) {
			code := strings.ReplaceAll(rarity, " ", "_")
			return &code
		}
	}
	return nil
}

// RequiresAttunement reports whether detail text asks for attunement
func RequiresAttunement(detail string) bool {
	return strings.Contains(strings.ToLower(detail), "requires attunement")
}
