package parsers

import (
	"regexp"
	"strings"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/parsers/extract"
	"github.com/KirkDiggler/rpg-compendium/internal/tables"
)

var higherLevelsPattern = regexp.MustCompile(`(?i)(?:^|\n)\s*(?:at higher levels|using a higher-level spell slot)[.:]\s*`)

// SpellParser parses <spell> elements
type SpellParser struct {
	schema  Schema
	sources *extract.SourceCatalog
}

// NewSpellParser creates a SpellParser; cfg may be nil
func NewSpellParser(cfg *Config) *SpellParser {
	return &SpellParser{
		schema:  cfg.schema(SpellSchema),
		sources: cfg.sources(),
	}
}

// Parse builds a ParsedSpell from one element
func (p *SpellParser) Parse(el *Element) (*compendium.ParsedSpell, error) {
	name, err := requireName(el, p.schema)
	if err != nil {
		return nil, err
	}

	spell := &compendium.ParsedSpell{
		Name: name,
		Slug: extract.Slug(name),
	}

	if v, ok := el.Field(p.schema.Tag(FieldLevel)); ok {
		if level, ok := extract.Integer(v); ok && level >= 0 && level <= 9 {
			spell.Level = level
		}
	}
	spell.School, _ = el.Field(p.schema.Tag(FieldSchool))
	if v, ok := el.Field(p.schema.Tag(FieldRitual)); ok {
		spell.IsRitual = isYes(v)
	}
	spell.CastingTime, _ = el.Field(p.schema.Tag(FieldCastingTime))
	spell.Range, _ = el.Field(p.schema.Tag(FieldRange))
	spell.Duration, _ = el.Field(p.schema.Tag(FieldDuration))
	spell.NeedsConcentration = strings.HasPrefix(strings.ToLower(spell.Duration), "concentration")

	if v, ok := el.Field(p.schema.Tag(FieldComponents)); ok {
		spell.Components = extract.Components(v)
	}
	if v, ok := el.Field(p.schema.Tag(FieldClasses)); ok {
		spell.Classes, spell.Tags = extract.ClassesAndTags(v)
	}

	text := joinText(el.Fields(p.schema.Tag(FieldText)))
	spell.Source = citation(el, p.schema, p.sources, text)
	text = extract.StripSourceCitation(text)

	if loc := higherLevelsPattern.FindStringIndex(text); loc != nil {
		spell.HigherLevels = strings.TrimSpace(text[loc[1]:])
		text = strings.TrimSpace(text[:loc[0]])
	}
	spell.Description = text
	spell.SavingThrows = extract.SavingThrows(text)
	spell.RandomTables = tables.Extract(text)

	return spell, nil
}
