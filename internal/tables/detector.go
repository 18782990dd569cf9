// Package tables finds roll tables embedded in free text, splits them into
// rows, and rolls against them.
package tables

import (
	"regexp"
	"strings"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
)

const delimiter = "|"

type detectorState int

const (
	seekingHeader detectorState = iota
	inTable
)

var (
	// "d8 | Power" opens a table with no name line
	diceHeaderPattern = regexp.MustCompile(`^\|?\s*(\d*d\d+)\s*\|\s*([^|]+?)\s*(?:\||$)`)
	diceTypePattern   = regexp.MustCompile(`^(\d*)d(\d+)$`)
)

type line struct {
	text   string
	offset int
}

// Detect scans text for embedded tables. A line ending in ":" followed by a
// line containing "|" names a table; the consecutive "|" lines after it
// are the table body. A body shorter than a header row plus one data row is
// not a table.
func Detect(text string) []compendium.DetectedTable {
	lines := splitLines(text)

	var (
		tables      []compendium.DetectedTable
		state       = seekingHeader
		current     compendium.DetectedTable
		bodyStart   int
		headerIndex int
	)

	for i := 0; i < len(lines); {
		switch state {
		case seekingHeader:
			trimmed := lines[i].text
			switch {
			case len(trimmed) > 1 && strings.HasSuffix(trimmed, ":") && i+1 < len(lines) && isBodyLine(lines[i+1].text):
				current = compendium.DetectedTable{
					Name:     strings.TrimSpace(strings.TrimSuffix(trimmed, ":")),
					Position: lines[i].offset,
				}
				headerIndex, bodyStart = i, i+1
				state = inTable
			case diceHeaderPattern.MatchString(trimmed):
				m := diceHeaderPattern.FindStringSubmatch(trimmed)
				current = compendium.DetectedTable{
					Name:     m[2],
					Position: lines[i].offset,
					DiceType: strings.ToLower(m[1]),
				}
				headerIndex, bodyStart = i, i
				state = inTable
			default:
				i++
			}

		case inTable:
			end := bodyStart
			for end < len(lines) && isBodyLine(lines[end].text) {
				end++
			}

			if end-bodyStart >= 2 {
				body := make([]string, 0, end-bodyStart)
				for _, l := range lines[bodyStart:end] {
					body = append(body, l.text)
				}
				current.Text = strings.Join(body, "\n")
				if current.DiceType == "" {
					current.DiceType = diceTypeOf(firstCell(body[0]))
				}
				tables = append(tables, current)
				i = end
			} else {
				// ambiguous span: no table, resume right after the header line
				i = headerIndex + 1
			}
			state = seekingHeader
		}
	}

	return tables
}

func splitLines(text string) []line {
	var lines []line
	offset := 0
	for _, raw := range strings.Split(text, "\n") {
		lines = append(lines, line{text: strings.TrimSpace(strings.TrimRight(raw, "\r")), offset: offset})
		offset += len(raw) + 1
	}
	return lines
}

func isBodyLine(text string) bool {
	return text != "" && strings.Contains(text, delimiter)
}

func firstCell(row string) string {
	cells := splitCells(row)
	if len(cells) == 0 {
		return ""
	}
	return cells[0]
}

func diceTypeOf(cell string) string {
	cell = strings.ToLower(strings.TrimSpace(cell))
	if diceTypePattern.MatchString(cell) {
		return cell
	}
	return ""
}
