package parsers

import (
	"regexp"
	"strings"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/parsers/extract"
	"github.com/KirkDiggler/rpg-compendium/internal/tables"
)

var subraceParenPattern = regexp.MustCompile(`^(.+?)\s*\(([^)]+)\)$`)

// languagesTrait names the trait whose text lists a race's languages
const languagesTrait = "languages"

// RaceParser parses <race> elements
type RaceParser struct {
	schema        Schema
	sources       *extract.SourceCatalog
	proficiencies *extract.ProficiencyCatalog
}

// NewRaceParser creates a RaceParser; cfg may be nil
func NewRaceParser(cfg *Config) *RaceParser {
	return &RaceParser{
		schema:        cfg.schema(RaceSchema),
		sources:       cfg.sources(),
		proficiencies: cfg.proficiencies(),
	}
}

// Parse builds a ParsedRace from one element
func (p *RaceParser) Parse(el *Element) (*compendium.ParsedRace, error) {
	name, err := requireName(el, p.schema)
	if err != nil {
		return nil, err
	}

	race := &compendium.ParsedRace{
		Name:         name,
		Slug:         extract.Slug(name),
		BaseRaceName: baseRaceName(name),
	}

	race.SizeCode, _ = el.Field(p.schema.Tag(FieldSize))
	if v, ok := el.Field(p.schema.Tag(FieldSpeed)); ok {
		race.Speed, _ = extract.Integer(v)
	}
	if v, ok := el.Field(p.schema.Tag(FieldAbility)); ok {
		race.AbilityModifiers = extract.AbilityModifiers(v)
	}

	var (
		citationText string
		descriptions []string
	)
	for _, t := range el.ChildrenNamed(p.schema.Tag(FieldTrait)) {
		trait := compendium.Trait{}
		trait.Name, _ = t.Field(p.schema.Tag(FieldTraitName))
		trait.Category, _ = t.Attr(p.schema.Tag(FieldTraitCategory))

		text := joinText(t.Fields(p.schema.Tag(FieldTraitText)))
		if citationText == "" && strings.Contains(strings.ToLower(text), "source:") {
			citationText = text
		}
		trait.Description = extract.StripSourceCitation(text)
		trait.RandomTables = tables.Extract(trait.Description)

		if trait.Name == "" && trait.Description == "" {
			continue
		}
		if race.Languages == nil && strings.EqualFold(strings.TrimSpace(trait.Name), languagesTrait) {
			race.Languages = extract.Languages(trait.Description)
		}
		descriptions = append(descriptions, trait.Description)
		race.Traits = append(race.Traits, trait)
	}
	race.Source = citation(el, p.schema, p.sources, citationText)

	race.Proficiencies = p.parseProficiencies(el)
	race.Conditions = extract.Conditions(descriptions...)
	for _, list := range el.Fields(p.schema.Tag(FieldResist)) {
		race.Resistances = append(race.Resistances, splitList(list)...)
	}
	return race, nil
}

// parseProficiencies reads the proficiency, weapons and armor tags. Names
// from the weapons and armor tags take that type; the rest are classified.
// Duplicates keep their first position.
func (p *RaceParser) parseProficiencies(el *Element) []compendium.Proficiency {
	var (
		out  []compendium.Proficiency
		seen = make(map[string]bool)
	)
	add := func(name string, kind compendium.ProficiencyType) {
		key := strings.ToLower(name)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, compendium.Proficiency{Name: name, Type: kind})
	}

	for _, list := range el.Fields(p.schema.Tag(FieldProficiency)) {
		for _, name := range splitList(list) {
			add(name, p.proficiencies.Classify(name))
		}
	}
	for _, list := range el.Fields(p.schema.Tag(FieldWeapons)) {
		for _, name := range splitList(list) {
			add(name, compendium.ProficiencyWeapon)
		}
	}
	for _, list := range el.Fields(p.schema.Tag(FieldArmor)) {
		for _, name := range splitList(list) {
			add(name, compendium.ProficiencyArmor)
		}
	}
	return out
}

// baseRaceName reads "Dwarf, Hill" and "Dwarf (Hill)" as subraces of Dwarf
func baseRaceName(name string) *string {
	if i := strings.Index(name, ","); i > 0 {
		return optional(name[:i])
	}
	if m := subraceParenPattern.FindStringSubmatch(name); m != nil {
		return optional(m[1])
	}
	return nil
}
