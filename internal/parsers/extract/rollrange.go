package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var rollRangePattern = regexp.MustCompile(`^(\d+)\s*(?:[-–—]\s*(\d+))?$`)

// RollRange reads the leading cell of a table row. "01-02" gives 1..2, "5"
// gives 5..5, anything else gives nil, nil. A reversed range is swapped.
//
// "00" is the d100 face for 100: as the upper bound after a non-zero lower
// bound ("91-00") and as a bare two-digit cell ("00" gives 100..100). A bare
// "0" stays 0..0.
func RollRange(token string) (minRoll, maxRoll *int) {
	m := rollRangePattern.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return nil, nil
	}

	lo, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, nil
	}
	if m[2] == "" {
		if lo == 0 && len(m[1]) == 2 {
			lo = 100
		}
		return &lo, &lo
	}

	hi, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, nil
	}
	if hi == 0 && lo > 0 {
		hi = 100
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return &lo, &hi
}
