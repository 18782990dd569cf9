package extract

import (
	"regexp"
	"strings"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
)

var abilityModifierPattern = regexp.MustCompile(`^([A-Za-z]+)\s*([+-]\d+)$`)

var abilityNames = map[string]string{
	"str":          "strength",
	"dex":          "dexterity",
	"con":          "constitution",
	"int":          "intelligence",
	"wis":          "wisdom",
	"cha":          "charisma",
	"strength":     "strength",
	"dexterity":    "dexterity",
	"constitution": "constitution",
	"intelligence": "intelligence",
	"wisdom":       "wisdom",
	"charisma":     "charisma",
}

// AbilityName returns the full lower-case ability name for a code or name
func AbilityName(token string) (string, bool) {
	name, ok := abilityNames[strings.ToLower(strings.TrimSpace(token))]
	return name, ok
}

// AbilityModifiers parses "Str +2, Cha +1" into modifiers in source order.
// Entries that are not "<ability> <signed number>" are skipped.
func AbilityModifiers(text string) []compendium.AbilityModifier {
	var modifiers []compendium.AbilityModifier
	for _, part := range strings.Split(text, ",") {
		m := abilityModifierPattern.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			continue
		}
		ability, ok := AbilityName(m[1])
		if !ok {
			continue
		}
		modifiers = append(modifiers, compendium.AbilityModifier{
			Ability: ability,
			Value:   m[2],
		})
	}
	return modifiers
}
