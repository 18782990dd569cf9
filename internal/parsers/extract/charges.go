package extract

import (
	"regexp"
	"strings"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
)

const diceOrNumber = `\d+d\d+(?:\s*[+-]\s*\d+)?|\d+`

var (
	chargesMaxPattern = regexp.MustCompile(`(?i)\bhas\s+(` + diceOrNumber + `)\s+charges?\b`)
	rechargePattern   = regexp.MustCompile(`(?i)\bregains?\s+(all|` + diceOrNumber + `)\s+(?:of\s+its\s+)?(?:expended\s+)?charges?\b([^.]*)`)
	rechargeTimings   = []string{"dawn", "dusk", "midnight", "long rest", "short rest"}
)

// ItemCharges reads "has 7 charges" and "regains 1d6 + 1 expended charges
// daily at dawn" from an item description. Dice formulas lose their spaces.
func ItemCharges(description string) compendium.Charges {
	var c compendium.Charges

	if m := chargesMaxPattern.FindStringSubmatch(description); m != nil {
		c.ChargesMax = optionalString(compactFormula(m[1]))
	}
	if m := rechargePattern.FindStringSubmatch(description); m != nil {
		c.RechargeFormula = optionalString(strings.ToLower(compactFormula(m[1])))
		tail := strings.ToLower(m[2])
		for _, timing := range rechargeTimings {
			if strings.Contains(tail, timing) {
				c.RechargeTiming = optionalString(timing)
				break
			}
		}
	}
	return c
}

func compactFormula(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
