package extract

import (
	"regexp"
	"strings"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
)

var (
	consumedPattern    = regexp.MustCompile(`(?i)\bconsume[sd]?\b`)
	notConsumedPattern = regexp.MustCompile(`(?i)(?:\bnot|n['’]t|\bnever)\s+(?:be\s+|been\s+)?consume[sd]?\b`)
)

// Components decodes a components line such as
// "V, S, M (a pearl worth at least 100 gp and an owl feather)".
func Components(text string) compendium.Components {
	var c compendium.Components

	material, outside, hasParen := splitMaterialClause(text)
	for _, token := range strings.Split(outside, ",") {
		switch strings.TrimSpace(token) {
		case "V":
			c.HasVerbal = true
		case "S":
			c.HasSomatic = true
		case "M":
			c.HasMaterial = true
		}
	}

	if !c.HasMaterial || !hasParen {
		return c
	}

	c.MaterialDescription = material
	c.MaterialCostGP = CurrencyGP(material)
	c.MaterialConsumed = consumedPattern.MatchString(notConsumedPattern.ReplaceAllString(material, ""))
	return c
}

// splitMaterialClause returns the interior of the parenthetical following
// "M", and the components text with that parenthetical removed. Nested
// parentheses are kept inside the interior.
func splitMaterialClause(text string) (interior, outside string, ok bool) {
	open := -1
	for i := 0; i < len(text); i++ {
		if text[i] != '(' {
			continue
		}
		if strings.TrimSpace(text[:i]) != "" && strings.HasSuffix(strings.TrimSpace(text[:i]), "M") {
			open = i
			break
		}
	}
	if open < 0 {
		return "", text, false
	}

	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return strings.TrimSpace(text[open+1 : i]), text[:open] + text[i+1:], true
			}
		}
	}
	// unterminated: take the rest of the line
	return strings.TrimSpace(text[open+1:]), text[:open], true
}
