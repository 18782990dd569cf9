package tables

import (
	"strconv"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
)

// RollResult is the outcome of rolling a table
type RollResult struct {
	DiceType string
	Rolls    []int
	Total    int
	RowIndex int
	Row      compendium.TableRow
}

// Roller rolls against parsed tables
type Roller struct {
	roller dice.Roller
}

// NewRoller creates a Roller. A nil roller uses the rpg-toolkit default.
func NewRoller(roller dice.Roller) *Roller {
	if roller == nil {
		roller = dice.DefaultRoller
	}
	return &Roller{roller: roller}
}

// Roll rolls the table's dice and returns the row whose range holds the
// total. Tables without a dice type roll 1dN where N is the highest roll_max.
func (r *Roller) Roll(table *compendium.ParsedTable) (*RollResult, error) {
	if table == nil {
		return nil, errors.InvalidArgument("table is required")
	}

	highest := 0
	for _, row := range table.Rows {
		if row.RollMax != nil && *row.RollMax > highest {
			highest = *row.RollMax
		}
	}
	if highest == 0 {
		return nil, errors.InvalidArgumentf("table %q has no numeric rows", table.TableName)
	}

	count, size := 1, highest
	diceType := "d" + strconv.Itoa(highest)
	if table.DiceType != "" {
		var err error
		count, size, err = parseDiceType(table.DiceType)
		if err != nil {
			return nil, err
		}
		diceType = table.DiceType
	}

	rolls, err := r.roller.RollN(count, size)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to roll %s for table %q", diceType, table.TableName)
	}

	total := 0
	for _, v := range rolls {
		total += v
	}

	for i, row := range table.Rows {
		if row.RollMin == nil || row.RollMax == nil {
			continue
		}
		if total >= *row.RollMin && total <= *row.RollMax {
			return &RollResult{
				DiceType: diceType,
				Rolls:    rolls,
				Total:    total,
				RowIndex: i,
				Row:      row,
			}, nil
		}
	}

	return nil, errors.NotFoundf("no row of table %q covers a roll of %d", table.TableName, total).
		WithMeta("total", total)
}

// parseDiceType reads "d100" or "2d6"
func parseDiceType(notation string) (count, size int, err error) {
	m := diceTypePattern.FindStringSubmatch(notation)
	if m == nil {
		return 0, 0, errors.InvalidArgumentf("invalid dice type: %s", notation)
	}

	count = 1
	if m[1] != "" {
		if count, err = strconv.Atoi(m[1]); err != nil {
			return 0, 0, errors.InvalidArgumentf("invalid dice count in %s", notation)
		}
	}
	if size, err = strconv.Atoi(m[2]); err != nil {
		return 0, 0, errors.InvalidArgumentf("invalid die size in %s", notation)
	}
	if count <= 0 || size <= 0 {
		return 0, 0, errors.InvalidArgumentf("dice count and size must be positive: %s", notation)
	}
	return count, size, nil
}
