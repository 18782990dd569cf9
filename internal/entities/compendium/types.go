// Package compendium holds the records produced by the element parsers and
// the entities persisted by the importers.
package compendium

import "time"

// CitationStatus describes how a source citation was resolved
type CitationStatus string

const (
	// CitationMissing means no "Source:" pattern was found
	CitationMissing CitationStatus = "missing"
	// CitationUnmapped means a book title was found but has no known code
	CitationUnmapped CitationStatus = "unmapped"
	// CitationMapped means the title resolved to a source code
	CitationMapped CitationStatus = "mapped"
)

// SourceCitation is a resolved "Source: <Book> (<year>) p. <page>" reference.
// Code is nil unless Status is CitationMapped.
type SourceCitation struct {
	Title  string         `json:"title,omitempty"`
	Code   *string        `json:"code,omitempty"`
	Page   *int           `json:"page,omitempty"`
	Status CitationStatus `json:"status"`
}

// ClassAssociation links a spell to a class and, optionally, a subclass
type ClassAssociation struct {
	ClassName    string  `json:"class_name"`
	SubclassName *string `json:"subclass_name,omitempty"`
}

// SavingThrow is a saving throw a spell calls for. Ability is the full
// lower-case ability name; Modifier is "advantage", "disadvantage" or empty.
type SavingThrow struct {
	Ability   string `json:"ability"`
	Recurring bool   `json:"recurring"`
	Modifier  string `json:"modifier,omitempty"`
}

// AbilityModifier is one racial ability score adjustment
type AbilityModifier struct {
	Ability string `json:"ability"`
	Value   string `json:"value"`
}

// ProficiencyType classifies a proficiency name
type ProficiencyType string

const (
	ProficiencyWeapon ProficiencyType = "weapon"
	ProficiencyArmor  ProficiencyType = "armor"
	ProficiencyTool   ProficiencyType = "tool"
	ProficiencySkill  ProficiencyType = "skill"
	ProficiencyOther  ProficiencyType = "other"
)

// Proficiency is a named proficiency with its inferred type
type Proficiency struct {
	Name string          `json:"name"`
	Type ProficiencyType `json:"type"`
}

// Language is a language a race speaks. A choice slot has no name.
type Language struct {
	Name     string `json:"name,omitempty"`
	IsChoice bool   `json:"is_choice"`
}

// Condition effect types
const (
	ConditionImmunity  = "immunity"
	ConditionAdvantage = "advantage"
)

// ConditionEffect is a condition a race is immune to or saves against with
// advantage
type ConditionEffect struct {
	Condition  string `json:"condition"`
	EffectType string `json:"effect_type"`
}

// Trait is a named racial feature
type Trait struct {
	Name         string        `json:"name"`
	Category     string        `json:"category,omitempty"`
	Description  string        `json:"description"`
	RandomTables []ParsedTable `json:"random_tables,omitempty"`
}

// Components is the decoded spell components line
type Components struct {
	HasVerbal           bool     `json:"has_verbal"`
	HasSomatic          bool     `json:"has_somatic"`
	HasMaterial         bool     `json:"has_material"`
	MaterialDescription string   `json:"material_description,omitempty"`
	MaterialCostGP      *float64 `json:"material_cost_gp,omitempty"`
	MaterialConsumed    bool     `json:"material_consumed"`
}

// Charges is an item's charge pool. Max is a number or a dice formula
// ("7", "1d4-1"); RechargeFormula may also be "all".
type Charges struct {
	ChargesMax      *string `json:"charges_max,omitempty"`
	RechargeFormula *string `json:"recharge_formula,omitempty"`
	RechargeTiming  *string `json:"recharge_timing,omitempty"`
}

// DetectedTable is a table span found in free text
type DetectedTable struct {
	Name     string `json:"name"`
	Text     string `json:"text"`
	Position int    `json:"position"`
	DiceType string `json:"dice_type,omitempty"`
}

// TableRow is one row of a parsed table. RollMin and RollMax are both nil
// when the first column is not numeric.
type TableRow struct {
	RollMin    *int     `json:"roll_min,omitempty"`
	RollMax    *int     `json:"roll_max,omitempty"`
	ResultText string   `json:"result_text"`
	Cells      []string `json:"cells,omitempty"`
}

// ParsedTable is a detected table split into columns and rows
type ParsedTable struct {
	TableName string     `json:"table_name"`
	DiceType  string     `json:"dice_type,omitempty"`
	Columns   []string   `json:"columns,omitempty"`
	Rows      []TableRow `json:"rows"`
}

// ParsedSpell is the record produced from one <spell> element
type ParsedSpell struct {
	Name               string `json:"name"`
	Slug               string `json:"slug"`
	Level              int    `json:"level"`
	School             string `json:"school"`
	IsRitual           bool   `json:"is_ritual"`
	NeedsConcentration bool   `json:"needs_concentration"`
	CastingTime        string `json:"casting_time"`
	Range              string `json:"range"`
	Duration           string `json:"duration"`
	Components
	Description  string             `json:"description"`
	HigherLevels string             `json:"higher_levels,omitempty"`
	Source       SourceCitation     `json:"source"`
	Classes      []ClassAssociation `json:"classes,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
	SavingThrows []SavingThrow      `json:"saving_throws,omitempty"`
	RandomTables []ParsedTable      `json:"random_tables,omitempty"`
}

// ParsedRace is the record produced from one <race> element
type ParsedRace struct {
	Name             string            `json:"name"`
	Slug             string            `json:"slug"`
	BaseRaceName     *string           `json:"base_race_name,omitempty"`
	SizeCode         string            `json:"size_code"`
	Speed            int               `json:"speed"`
	Source           SourceCitation    `json:"source"`
	AbilityModifiers []AbilityModifier `json:"ability_modifiers,omitempty"`
	Traits           []Trait           `json:"traits,omitempty"`
	Proficiencies    []Proficiency     `json:"proficiencies,omitempty"`
	Languages        []Language        `json:"languages,omitempty"`
	Resistances      []string          `json:"resistances,omitempty"`
	Conditions       []ConditionEffect `json:"conditions,omitempty"`
}

// ParsedItem is the record produced from one <item> element
type ParsedItem struct {
	Name                string         `json:"name"`
	Slug                string         `json:"slug"`
	TypeCode            string         `json:"type_code"`
	Weight              *float64       `json:"weight,omitempty"`
	ValueGP             *float64       `json:"value_gp,omitempty"`
	Source              SourceCitation `json:"source"`
	Properties          []string       `json:"properties,omitempty"`
	DamageDice          *string        `json:"damage_dice,omitempty"`
	DamageDiceVersatile *string        `json:"damage_dice_versatile,omitempty"`
	DamageTypeCode      *string        `json:"damage_type_code,omitempty"`
	Rarity              *string        `json:"rarity,omitempty"`
	Range               *string        `json:"range,omitempty"`
	RequiresAttunement  bool           `json:"requires_attunement"`
	IsMagic             bool           `json:"is_magic"`
	ArmorClass          *int           `json:"armor_class,omitempty"`
	StrengthRequirement *int           `json:"strength_requirement,omitempty"`
	StealthDisadvantage bool           `json:"stealth_disadvantage"`
	Charges
	Description  string        `json:"description,omitempty"`
	RandomTables []ParsedTable `json:"random_tables,omitempty"`
}

// Spell is a persisted spell
type Spell struct {
	ID string `json:"id"`
	ParsedSpell
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Race is a persisted race
type Race struct {
	ID string `json:"id"`
	ParsedRace
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is a persisted item
type Item struct {
	ID string `json:"id"`
	ParsedItem
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Entity types, used as event sources and key prefixes
const (
	EntityTypeSpell = "spell"
	EntityTypeRace  = "race"
	EntityTypeItem  = "item"
)

// GetID implements core.Entity
func (s *Spell) GetID() string { return s.ID }

// GetType implements core.Entity
func (s *Spell) GetType() string { return EntityTypeSpell }

// GetID implements core.Entity
func (r *Race) GetID() string { return r.ID }

// GetType implements core.Entity
func (r *Race) GetType() string { return EntityTypeRace }

// GetID implements core.Entity
func (i *Item) GetID() string { return i.ID }

// GetType implements core.Entity
func (i *Item) GetType() string { return EntityTypeItem }
