package tables_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/tables"
)

type ParserTestSuite struct {
	suite.Suite
}

func TestParserSuite(t *testing.T) {
	suite.Run(t, new(ParserTestSuite))
}

func intPtr(v int) *int { return &v }

func (s *ParserTestSuite) TestWildMagicRows() {
	parsed := tables.Extract("Wild Magic:\nd100 | Effect\n01-02 | Fireball\n03-04 | Teleport\n05 | Unicorn")
	s.Require().Len(parsed, 1)

	table := parsed[0]
	s.Equal("Wild Magic", table.TableName)
	s.Equal("d100", table.DiceType)
	s.Equal([]string{"d100", "Effect"}, table.Columns)
	s.Require().Len(table.Rows, 3)

	s.Equal(intPtr(1), table.Rows[0].RollMin)
	s.Equal(intPtr(2), table.Rows[0].RollMax)
	s.Equal("Fireball", table.Rows[0].ResultText)

	s.Equal(intPtr(3), table.Rows[1].RollMin)
	s.Equal(intPtr(4), table.Rows[1].RollMax)
	s.Equal("Teleport", table.Rows[1].ResultText)

	s.Equal(intPtr(5), table.Rows[2].RollMin)
	s.Equal(intPtr(5), table.Rows[2].RollMax)
	s.Equal("Unicorn", table.Rows[2].ResultText)
}

func (s *ParserTestSuite) TestMultiColumnResultsKeepColumns() {
	table := tables.Parse(compendium.DetectedTable{
		Name: "Lever Effects",
		Text: "d6 | Lever Up | Lever Down\n1-3 | Door opens | Door closes\n4-6 | Light",
	})

	s.Equal([]string{"d6", "Lever Up", "Lever Down"}, table.Columns)
	s.Require().Len(table.Rows, 2)
	s.Equal("Door opens | Door closes", table.Rows[0].ResultText)
	s.Equal([]string{"1-3", "Door opens", "Door closes"}, table.Rows[0].Cells)

	// short row: missing trailing cell is empty
	s.Equal("Light", table.Rows[1].ResultText)
	s.Equal([]string{"4-6", "Light", ""}, table.Rows[1].Cells)
}

func (s *ParserTestSuite) TestNonNumericFirstColumn() {
	table := tables.Parse(compendium.DetectedTable{
		Name: "Draconic Ancestry",
		Text: "Dragon | Damage Type | Breath Weapon\nBlack | Acid | 5 by 30 ft. line (Dex. save)\nBlue | Lightning | 5 by 30 ft. line",
	})

	s.Empty(table.DiceType)
	s.Require().Len(table.Rows, 2)
	for _, row := range table.Rows {
		s.Nil(row.RollMin)
		s.Nil(row.RollMax)
	}
	s.Equal("Acid | 5 by 30 ft. line (Dex. save)", table.Rows[0].ResultText)
	s.Equal("Black", table.Rows[0].Cells[0])
}

func (s *ParserTestSuite) TestMarkdownStyleTable() {
	table := tables.Parse(compendium.DetectedTable{
		Name: "Trinkets",
		Text: "| d4 | Trinket |\n|----|:-------:|\n| 1-2 | A bone |\n| 3-4 | A coin |",
	})

	s.Equal("d4", table.DiceType)
	s.Equal([]string{"d4", "Trinket"}, table.Columns)
	s.Require().Len(table.Rows, 2)
	s.Equal("A bone", table.Rows[0].ResultText)
	s.Equal(intPtr(3), table.Rows[1].RollMin)
}

func (s *ParserTestSuite) TestEmptyText() {
	table := tables.Parse(compendium.DetectedTable{Name: "Empty"})
	s.Equal("Empty", table.TableName)
	s.Empty(table.Rows)
	s.Nil(tables.Extract("no tables here"))
}

func (s *ParserTestSuite) TestRowRangesNeverInverted() {
	table := tables.Parse(compendium.DetectedTable{
		Name: "Odd",
		Text: "d20 | Result\n20-11 | High\n10-1 | Low\n? | Unknown",
	})
	for _, row := range table.Rows {
		if row.RollMin == nil {
			s.Nil(row.RollMax)
			continue
		}
		s.Require().NotNil(row.RollMax)
		s.LessOrEqual(*row.RollMin, *row.RollMax)
	}
}
