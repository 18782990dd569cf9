package parsers

import (
	"strings"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/parsers/extract"
)

// Config tunes the element parsers. The zero value reads the standard
// compendium layout with the built-in reference catalogs.
type Config struct {
	// Schema overrides the default field-to-tag mapping
	Schema Schema
	// Sources resolves citation book titles; nil uses extract.DefaultSources
	Sources *extract.SourceCatalog
	// Proficiencies classifies race proficiencies; nil uses extract.DefaultProficiencies
	Proficiencies *extract.ProficiencyCatalog
}

func (c *Config) schema(defaults Schema) Schema {
	if c == nil || c.Schema == nil {
		return defaults
	}
	return defaults.With(c.Schema)
}

func (c *Config) sources() *extract.SourceCatalog {
	if c == nil || c.Sources == nil {
		return extract.DefaultSources
	}
	return c.Sources
}

func (c *Config) proficiencies() *extract.ProficiencyCatalog {
	if c == nil || c.Proficiencies == nil {
		return extract.DefaultProficiencies
	}
	return c.Proficiencies
}

// requireName reads the name field, the only field whose absence fails a parse
func requireName(el *Element, schema Schema) (string, error) {
	if el == nil {
		return "", errors.InvalidArgument("element is required")
	}
	name, _ := el.Field(schema.Tag(FieldName))
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", errors.RequiredFieldMissing(string(FieldName)).WithMeta("element", el.Tag())
	}
	return name, nil
}

// citation resolves a record's source: an explicit source tag wins over a
// "Source:" line found in the prose.
func citation(el *Element, schema Schema, catalog *extract.SourceCatalog, prose string) compendium.SourceCitation {
	if src, ok := el.Field(schema.Tag(FieldSource)); ok && src != "" {
		if !strings.Contains(strings.ToLower(src), "source:") {
			src = "Source: " + src
		}
		if c := catalog.Citation(src); c.Status != compendium.CitationMissing {
			return c
		}
	}
	return catalog.Citation(prose)
}

// joinText joins repeated text tags into one block, one tag per line
func joinText(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// splitList splits a comma list into trimmed, non-empty entries
func splitList(text string) []string {
	var out []string
	for _, part := range extract.SplitTopLevel(text, ',') {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isYes(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "1", "y":
		return true
	}
	return false
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
