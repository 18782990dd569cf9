package extract

import (
	"regexp"
	"strings"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
)

var (
	classEntryPattern   = regexp.MustCompile(`^([^(]+?)\s*\(([^)]*)\)\s*$`)
	schoolPrefixPattern = regexp.MustCompile(`(?i)^\s*school:`)
)

// baseClasses are the bare class names a classes entry is matched against
var baseClasses = map[string]bool{
	"artificer": true,
	"barbarian": true,
	"bard":      true,
	"cleric":    true,
	"druid":     true,
	"fighter":   true,
	"monk":      true,
	"paladin":   true,
	"ranger":    true,
	"rogue":     true,
	"sorcerer":  true,
	"warlock":   true,
	"wizard":    true,
}

// ClassList parses "Fighter (Eldritch Knight), Sorcerer, Wizard" into class
// associations in source order. Only entries with a parenthetical carry a
// subclass. A leading "School: X" entry is dropped, and so are tags (see
// ClassesAndTags).
func ClassList(text string) []compendium.ClassAssociation {
	classes, _ := ClassesAndTags(text)
	return classes
}

// ClassesAndTags splits a classes line into classes and tags. An entry is a
// class when it has a parenthetical or names a base class; anything else
// ("Ritual Caster", "Touch Spells") is a tag. Both keep source order.
func ClassesAndTags(text string) ([]compendium.ClassAssociation, []string) {
	var (
		classes []compendium.ClassAssociation
		tags    []string
	)
	for i, entry := range SplitTopLevel(text, ',') {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if i == 0 && schoolPrefixPattern.MatchString(entry) {
			continue
		}

		if m := classEntryPattern.FindStringSubmatch(entry); m != nil {
			class := compendium.ClassAssociation{ClassName: strings.TrimSpace(m[1])}
			if sub := strings.TrimSpace(m[2]); sub != "" {
				class.SubclassName = &sub
			}
			classes = append(classes, class)
			continue
		}
		if baseClasses[strings.ToLower(entry)] {
			classes = append(classes, compendium.ClassAssociation{ClassName: entry})
			continue
		}
		tags = append(tags, entry)
	}
	return classes, tags
}

// SplitTopLevel splits text on sep, ignoring separators inside parentheses
func SplitTopLevel(text string, sep rune) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range text {
		switch {
		case r == '(':
			depth++
		case r == ')' && depth > 0:
			depth--
		case r == sep && depth == 0:
			parts = append(parts, text[start:i])
			start = i + len(string(sep))
		}
	}
	return append(parts, text[start:])
}
