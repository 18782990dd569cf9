package extract

import (
	"regexp"
	"strings"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
)

// knownLanguages are matched by name, standard then exotic
var knownLanguages = []string{
	"Common", "Dwarvish", "Elvish", "Giant", "Gnomish", "Goblin", "Halfling", "Orc",
	"Abyssal", "Celestial", "Draconic", "Deep Speech", "Infernal", "Primordial", "Sylvan",
	"Undercommon", "Aquan", "Auran", "Ignan", "Terran", "Gith", "Druidic", "Thieves' Cant",
}

var (
	languageNamePattern  = regexp.MustCompile(`\b(` + alternation(knownLanguages) + `)\b`)
	firstSentencePattern = regexp.MustCompile(`\.(?:\s|$)`)
	ofYourChoicePattern  = regexp.MustCompile(`(?i)\b(one|two|three|four|any|a|an)\s+of\s+your\s+choice\b`)
	extraLanguagePattern = regexp.MustCompile(`(?i)\b(one|two|three|four|any|a|an)\s+(?:(?:extra|other|additional)\s+)?languages?\b`)
)

var quantityWords = map[string]int{
	"a": 1, "an": 1, "any": 1, "one": 1, "two": 2, "three": 3, "four": 4,
}

// Languages reads the first sentence of a "Languages" trait: named languages
// in the order written, then one choice slot per language of the reader's
// choice ("one extra language", "two of your choice").
func Languages(text string) []compendium.Language {
	sentence := text
	if loc := firstSentencePattern.FindStringIndex(text); loc != nil {
		sentence = text[:loc[0]]
	}

	var (
		out  []compendium.Language
		seen = make(map[string]bool)
	)
	for _, name := range languageNamePattern.FindAllString(sentence, -1) {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, compendium.Language{Name: name})
	}

	slots := 0
	rest := sentence
	for _, pattern := range []*regexp.Regexp{ofYourChoicePattern, extraLanguagePattern} {
		for _, m := range pattern.FindAllStringSubmatch(rest, -1) {
			slots += quantityWords[strings.ToLower(m[1])]
		}
		rest = pattern.ReplaceAllString(rest, "")
	}
	for i := 0; i < slots; i++ {
		out = append(out, compendium.Language{IsChoice: true})
	}
	return out
}

var (
	immunityPattern     = regexp.MustCompile(`(?i)immune to (disease|magical aging)`)
	saveAgainstPattern  = regexp.MustCompile(`(?i)advantage on saving throws against being (\w+)`)
	saveVsPoisonPattern = regexp.MustCompile(`(?i)advantage on saving throws against poison`)
)

// Conditions collects the condition immunities and save advantages a trait
// description grants, without repeats.
func Conditions(descriptions ...string) []compendium.ConditionEffect {
	var (
		out  []compendium.ConditionEffect
		seen = make(map[compendium.ConditionEffect]bool)
	)
	add := func(condition, effect string) {
		c := compendium.ConditionEffect{Condition: strings.ToLower(condition), EffectType: effect}
		if seen[c] {
			return
		}
		seen[c] = true
		out = append(out, c)
	}

	for _, text := range descriptions {
		for _, m := range immunityPattern.FindAllStringSubmatch(text, -1) {
			add(m[1], compendium.ConditionImmunity)
		}
		for _, m := range saveAgainstPattern.FindAllStringSubmatch(text, -1) {
			add(m[1], compendium.ConditionAdvantage)
		}
		if saveVsPoisonPattern.MatchString(text) {
			add("poisoned", compendium.ConditionAdvantage)
		}
	}
	return out
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}
