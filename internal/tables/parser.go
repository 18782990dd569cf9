package tables

import (
	"strings"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/parsers/extract"
)

// Parse splits a detected table into columns and rows. The first line holds
// the column headers. For every other line the first cell is the roll range
// and the remaining cells, joined with " | ", are the result text. Rows with
// fewer cells than the header have their missing cells padded as empty.
func Parse(detected compendium.DetectedTable) compendium.ParsedTable {
	table := compendium.ParsedTable{
		TableName: detected.Name,
		DiceType:  detected.DiceType,
	}

	var lines []string
	for _, l := range strings.Split(detected.Text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return table
	}

	table.Columns = splitCells(lines[0])
	if table.DiceType == "" && len(table.Columns) > 0 {
		table.DiceType = diceTypeOf(table.Columns[0])
	}

	for _, l := range lines[1:] {
		cells := splitCells(l)
		if len(cells) == 0 || isSeparatorRow(cells) {
			continue
		}

		row := compendium.TableRow{
			ResultText: strings.Join(cells[1:], " | "),
			Cells:      padCells(cells, len(table.Columns)),
		}
		row.RollMin, row.RollMax = extract.RollRange(cells[0])
		table.Rows = append(table.Rows, row)
	}

	return table
}

// Extract detects and parses every table in text
func Extract(text string) []compendium.ParsedTable {
	detected := Detect(text)
	if len(detected) == 0 {
		return nil
	}
	parsed := make([]compendium.ParsedTable, 0, len(detected))
	for _, d := range detected {
		parsed = append(parsed, Parse(d))
	}
	return parsed
}

// splitCells splits a row on the delimiter and trims each cell. Leading and
// trailing delimiters, as in "| d6 | Effect |", do not produce empty cells.
func splitCells(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, delimiter)
	row = strings.TrimSuffix(row, delimiter)
	if strings.TrimSpace(row) == "" {
		return nil
	}

	cells := strings.Split(row, delimiter)
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// isSeparatorRow matches markdown rules such as "|---|:---:|"
func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, "-: ") != "" || c == "" {
			return false
		}
	}
	return true
}

func padCells(cells []string, width int) []string {
	if len(cells) >= width {
		return cells
	}
	padded := make([]string, width)
	copy(padded, cells)
	return padded
}
