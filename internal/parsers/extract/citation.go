// Package extract holds the field extractors used by the element parsers.
// Every function here is pure and total: malformed input degrades to a
// nil/zero result instead of an error.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
)

// citationPattern matches "Source: <title> (<year>) p. <page>". Year and page
// are optional; the title stops at a comma, parenthesis or line break.
var citationPattern = regexp.MustCompile(
	`(?i)source:\s*([^\n(,]+?)\s*(?:\((\d{4})\))?\s*(?:,\s*)?(?:p(?:age|g)?\.?\s*(\d+))?\s*(?:[,.;\n]|$)`)

// sourceLinePattern matches a whole line carrying a citation, for stripping
var sourceLinePattern = regexp.MustCompile(`(?im)^[ \t]*source:[^\n]*(?:\n[ \t]+[^\n]+)*\n?`)

var defaultSourceTitles = map[string]string{
	"player's handbook":                                 "PHB",
	"dungeon master's guide":                            "DMG",
	"monster manual":                                    "MM",
	"xanathar's guide to everything":                    "XGE",
	"tasha's cauldron of everything":                    "TCE",
	"volo's guide to monsters":                          "VGM",
	"mordenkainen's tome of foes":                       "MTF",
	"sword coast adventurer's guide":                    "SCAG",
	"elemental evil player's companion":                 "EEPC",
	"eberron: rising from the last war":                 "ERLW",
	"wayfinder's guide to eberron":                      "WGE",
	"explorer's guide to wildemount":                    "EGW",
	"guildmasters' guide to ravnica":                    "GGR",
	"mythic odysseys of theros":                         "MOT",
	"van richten's guide to ravenloft":                  "VRGR",
	"fizban's treasury of dragons":                      "FTD",
	"strixhaven: a curriculum of chaos":                 "SCC",
	"mordenkainen presents: monsters of the multiverse": "MPMM",
	"astral adventurer's guide":                         "AAG",
	"bigby presents: glory of the giants":               "BGG",
	"the book of many things":                           "BMT",
	"acquisitions incorporated":                         "AI",
	"basic rules":                                       "BR",
	"system reference document":                         "SRD",
}

// SourceCatalog maps book titles to short source codes
type SourceCatalog struct {
	titles map[string]string
}

// NewSourceCatalog returns the built-in catalog extended with extra titles.
// Extra entries win over built-in ones.
func NewSourceCatalog(extra map[string]string) *SourceCatalog {
	titles := make(map[string]string, len(defaultSourceTitles)+len(extra))
	for title, code := range defaultSourceTitles {
		titles[title] = code
	}
	for title, code := range extra {
		titles[normalizeTitle(title)] = code
	}
	return &SourceCatalog{titles: titles}
}

// DefaultSources is the built-in catalog
var DefaultSources = NewSourceCatalog(nil)

// Code returns the code for a title
func (c *SourceCatalog) Code(title string) (string, bool) {
	code, ok := c.titles[normalizeTitle(title)]
	return code, ok
}

// Titles returns the catalog titles, sorted
func (c *SourceCatalog) Titles() []string {
	titles := make([]string, 0, len(c.titles))
	for title := range c.titles {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// Citation finds the first source citation in text
func (c *SourceCatalog) Citation(text string) compendium.SourceCitation {
	m := citationPattern.FindStringSubmatch(text)
	if m == nil {
		return compendium.SourceCitation{Status: compendium.CitationMissing}
	}

	title := strings.TrimSpace(m[1])
	citation := compendium.SourceCitation{
		Title:  title,
		Status: compendium.CitationUnmapped,
	}
	if m[3] != "" {
		if page, err := strconv.Atoi(m[3]); err == nil {
			citation.Page = &page
		}
	}
	if code, ok := c.Code(title); ok {
		citation.Code = &code
		citation.Status = compendium.CitationMapped
	}
	return citation
}

// SourceCitation resolves a citation against the built-in catalog
func SourceCitation(text string) compendium.SourceCitation {
	return DefaultSources.Citation(text)
}

// StripSourceCitation removes citation lines (and their indented
// continuation lines) from text.
func StripSourceCitation(text string) string {
	return strings.TrimSpace(sourceLinePattern.ReplaceAllString(text, ""))
}

func normalizeTitle(title string) string {
	title = strings.NewReplacer("’", "'", "‘", "'").Replace(title)
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}
