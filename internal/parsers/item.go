package parsers

import (
	"strings"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/parsers/extract"
	"github.com/KirkDiggler/rpg-compendium/internal/tables"
)

// weaponTypes are the item type codes that carry damage fields
var weaponTypes = map[string]bool{
	"M": true, // melee weapon
	"R": true, // ranged weapon
}

// ItemParser parses <item> elements
type ItemParser struct {
	schema  Schema
	sources *extract.SourceCatalog
}

// NewItemParser creates an ItemParser; cfg may be nil
func NewItemParser(cfg *Config) *ItemParser {
	return &ItemParser{
		schema:  cfg.schema(ItemSchema),
		sources: cfg.sources(),
	}
}

// Parse builds a ParsedItem from one element
func (p *ItemParser) Parse(el *Element) (*compendium.ParsedItem, error) {
	name, err := requireName(el, p.schema)
	if err != nil {
		return nil, err
	}

	item := &compendium.ParsedItem{
		Name: name,
		Slug: extract.Slug(name),
	}

	typeCode, _ := el.Field(p.schema.Tag(FieldType))
	item.TypeCode = strings.ToUpper(typeCode)

	if detail, ok := el.Field(p.schema.Tag(FieldDetail)); ok {
		item.Rarity = extract.Rarity(detail)
		item.RequiresAttunement = extract.RequiresAttunement(detail)
	}
	if v, ok := el.Field(p.schema.Tag(FieldMagic)); ok {
		item.IsMagic = isYes(v)
	}
	if v, ok := el.Field(p.schema.Tag(FieldWeight)); ok {
		item.Weight = extract.Decimal(v)
	}
	if v, ok := el.Field(p.schema.Tag(FieldValue)); ok {
		item.ValueGP = extract.Decimal(v)
	}
	for _, list := range el.Fields(p.schema.Tag(FieldProperty)) {
		for _, code := range splitList(list) {
			item.Properties = append(item.Properties, strings.ToUpper(code))
		}
	}

	if weaponTypes[item.TypeCode] {
		if v, ok := el.Field(p.schema.Tag(FieldDamage)); ok {
			item.DamageDice = optional(v)
		}
		if v, ok := el.Field(p.schema.Tag(FieldDamage2)); ok {
			item.DamageDiceVersatile = optional(v)
		}
		if v, ok := el.Field(p.schema.Tag(FieldDamageType)); ok {
			item.DamageTypeCode = optional(strings.ToUpper(v))
		}
	}
	if v, ok := el.Field(p.schema.Tag(FieldRange)); ok {
		item.Range = optional(v)
	}
	if v, ok := el.Field(p.schema.Tag(FieldArmorClass)); ok {
		if ac, ok := extract.Integer(v); ok {
			item.ArmorClass = &ac
		}
	}
	if v, ok := el.Field(p.schema.Tag(FieldStrength)); ok {
		if str, ok := extract.Integer(v); ok {
			item.StrengthRequirement = &str
		}
	}
	if v, ok := el.Field(p.schema.Tag(FieldStealth)); ok {
		item.StealthDisadvantage = isYes(v)
	}

	text := joinText(el.Fields(p.schema.Tag(FieldText)))
	item.Source = citation(el, p.schema, p.sources, text)
	item.Description = extract.StripSourceCitation(text)
	item.Charges = extract.ItemCharges(item.Description)
	item.RandomTables = tables.Extract(item.Description)

	return item, nil
}
