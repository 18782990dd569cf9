package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var currencyPattern = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\+?\s*(cp|sp|ep|gp|pp)\b`)

// gpPerUnit converts a coin denomination to gold pieces
var gpPerUnit = map[string]float64{
	"cp": 0.01,
	"sp": 0.1,
	"ep": 0.5,
	"gp": 1,
	"pp": 10,
}

// CurrencyGP returns the first currency amount in text, in gold pieces.
// "1,000 gp" reads as 1000 and "300+ gp" as 300.
func CurrencyGP(text string) *float64 {
	m := currencyPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	gp := amount * gpPerUnit[strings.ToLower(m[2])]
	return &gp
}

// Decimal parses a lenient decimal such as "1,500" or " 0.25 ". Empty or
// unparseable text gives nil.
func Decimal(text string) *float64 {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if text == "" {
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Integer parses a leading integer such as "30" or "30 ft.". ok is false when
// text does not start with digits.
func Integer(text string) (int, bool) {
	text = strings.TrimSpace(text)
	end := 0
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(text[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}
