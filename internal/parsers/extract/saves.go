package extract

import (
	"regexp"
	"strings"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
)

var (
	savingThrowPattern  = regexp.MustCompile(`\b(strength|dexterity|constitution|intelligence|wisdom|charisma)\s+saving\s+throws?\b`)
	disadvantagePattern = regexp.MustCompile(`\bdisadvantage\b`)
	advantagePattern    = regexp.MustCompile(`\badvantage\b`)
)

// recurringPhrases mark a save repeated over the effect's duration
var recurringPhrases = []string{
	"at the end of each of its turns",
	"on each of your turns",
	"end of each turn",
	"repeat the save",
	"can repeat",
	"make another",
	"each time",
}

// SavingThrows finds the saving throws a description calls for, in order of
// first mention. A save is recurring when a repeat phrase appears shortly
// before it; advantage or disadvantage is read from the text around it.
// Repeats of the same ability, recurrence and modifier are dropped.
func SavingThrows(description string) []compendium.SavingThrow {
	text := strings.ToLower(description)

	var (
		out  []compendium.SavingThrow
		seen = make(map[compendium.SavingThrow]bool)
	)
	for _, loc := range savingThrowPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		save := compendium.SavingThrow{
			Ability:   text[loc[2]:loc[3]],
			Recurring: containsAny(window(text, start-100, end+50), recurringPhrases),
			Modifier:  saveModifier(window(text, start-80, end+80)),
		}
		if seen[save] {
			continue
		}
		seen[save] = true
		out = append(out, save)
	}
	return out
}

func saveModifier(around string) string {
	switch {
	case disadvantagePattern.MatchString(around):
		return "disadvantage"
	case advantagePattern.MatchString(around):
		return "advantage"
	}
	return ""
}

// window returns text[from:to] clamped to the string
func window(text string, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(text) {
		to = len(text)
	}
	return text[from:to]
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
