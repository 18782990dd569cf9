package testutils

import (
	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
)

// StrPtr returns a pointer to s
func StrPtr(s string) *string { return &s }

// IntPtr returns a pointer to i
func IntPtr(i int) *int { return &i }

// FloatPtr returns a pointer to f
func FloatPtr(f float64) *float64 { return &f }

// Revivify is a fully populated spell with a consumed material cost
func Revivify() *compendium.ParsedSpell {
	return &compendium.ParsedSpell{
		Name:        "Revivify",
		Slug:        "revivify",
		Level:       3,
		School:      "N",
		CastingTime: "1 action",
		Range:       "Touch",
		Duration:    "Instantaneous",
		Components: compendium.Components{
			HasVerbal:           true,
			HasSomatic:          true,
			HasMaterial:         true,
			MaterialDescription: "diamonds worth 300 gp, which the spell consumes",
			MaterialCostGP:      FloatPtr(300),
			MaterialConsumed:    true,
		},
		Description: "You touch a creature that has died within the last minute.",
		Source: compendium.SourceCitation{
			Title:  "Player's Handbook",
			Code:   StrPtr("PHB"),
			Page:   IntPtr(272),
			Status: compendium.CitationMapped,
		},
		Classes: []compendium.ClassAssociation{
			{ClassName: "Cleric"},
			{ClassName: "Paladin"},
			{ClassName: "Fighter", SubclassName: StrPtr("Eldritch Knight")},
		},
		RandomTables: []compendium.ParsedTable{
			{
				TableName: "Omens",
				DiceType:  "d4",
				Columns:   []string{"d4", "Omen"},
				Rows: []compendium.TableRow{
					{RollMin: IntPtr(1), RollMax: IntPtr(2), ResultText: "A cold wind", Cells: []string{"1-2", "A cold wind"}},
					{RollMin: IntPtr(3), RollMax: IntPtr(4), ResultText: "Silence", Cells: []string{"3-4", "Silence"}},
				},
			},
		},
	}
}

// HillDwarf is a subrace with ordered modifiers, a trait table and proficiencies
func HillDwarf() *compendium.ParsedRace {
	return &compendium.ParsedRace{
		Name:         "Dwarf, Hill",
		Slug:         "dwarf-hill",
		BaseRaceName: StrPtr("Dwarf"),
		SizeCode:     "M",
		Speed:        25,
		Source: compendium.SourceCitation{
			Title:  "Player's Handbook",
			Code:   StrPtr("PHB"),
			Page:   IntPtr(20),
			Status: compendium.CitationMapped,
		},
		AbilityModifiers: []compendium.AbilityModifier{
			{Ability: "Constitution", Value: "+2"},
			{Ability: "Wisdom", Value: "+1"},
		},
		Traits: []compendium.Trait{
			{Name: "Darkvision", Category: "", Description: "You can see in dim light within 60 feet."},
			{
				Name:        "Ancestry",
				Category:    "background",
				Description: "Roll for your clan.",
				RandomTables: []compendium.ParsedTable{{
					TableName: "Clan",
					DiceType:  "d4",
					Columns:   []string{"d4", "Clan"},
					Rows: []compendium.TableRow{
						{RollMin: IntPtr(1), RollMax: IntPtr(4), ResultText: "Ironfist", Cells: []string{"1-4", "Ironfist"}},
					},
				}},
			},
		},
		Proficiencies: []compendium.Proficiency{
			{Name: "Battleaxe", Type: compendium.ProficiencyWeapon},
			{Name: "Smith's Tools", Type: compendium.ProficiencyTool},
		},
	}
}

// Longbow is a ranged weapon with properties and no random tables
func Longbow() *compendium.ParsedItem {
	return &compendium.ParsedItem{
		Name:           "Longbow",
		Slug:           "longbow",
		TypeCode:       "R",
		Weight:         FloatPtr(2),
		ValueGP:        FloatPtr(50),
		Properties:     []string{"A", "H", "2H"},
		DamageDice:     StrPtr("1d8"),
		DamageTypeCode: StrPtr("P"),
		Range:          StrPtr("150/600"),
		Source:         compendium.SourceCitation{Status: compendium.CitationMissing},
	}
}
