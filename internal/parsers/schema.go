package parsers

// Field names a target field of a parsed record
type Field string

// Record fields read from source tags
const (
	FieldName        Field = "name"
	FieldLevel       Field = "level"
	FieldSchool      Field = "school"
	FieldRitual      Field = "ritual"
	FieldCastingTime Field = "casting_time"
	FieldRange       Field = "range"
	FieldDuration    Field = "duration"
	FieldComponents  Field = "components"
	FieldClasses     Field = "classes"
	FieldText        Field = "text"
	FieldSource      Field = "source"

	FieldSize          Field = "size"
	FieldSpeed         Field = "speed"
	FieldAbility       Field = "ability"
	FieldTrait         Field = "trait"
	FieldProficiency   Field = "proficiency"
	FieldWeapons       Field = "weapons"
	FieldArmor         Field = "armor"
	FieldTraitName     Field = "trait_name"
	FieldTraitText     Field = "trait_text"
	FieldTraitCategory Field = "trait_category"
	FieldResist        Field = "resist"

	FieldType       Field = "type"
	FieldDetail     Field = "detail"
	FieldMagic      Field = "magic"
	FieldWeight     Field = "weight"
	FieldValue      Field = "value"
	FieldProperty   Field = "property"
	FieldDamage     Field = "damage"
	FieldDamage2    Field = "damage_versatile"
	FieldDamageType Field = "damage_type"
	FieldArmorClass Field = "armor_class"
	FieldStrength   Field = "strength"
	FieldStealth    Field = "stealth"
)

// Schema maps each record field to the source tag it is read from. A field
// with no entry is never read and stays at its zero value.
type Schema map[Field]string

// Tag returns the source tag for a field
func (s Schema) Tag(f Field) string {
	return s[f]
}

// With returns a copy of the schema with the given overrides applied
func (s Schema) With(overrides Schema) Schema {
	out := make(Schema, len(s)+len(overrides))
	for f, tag := range s {
		out[f] = tag
	}
	for f, tag := range overrides {
		out[f] = tag
	}
	return out
}

// SpellSchema is the compendium <spell> layout
var SpellSchema = Schema{
	FieldName:        "name",
	FieldLevel:       "level",
	FieldSchool:      "school",
	FieldRitual:      "ritual",
	FieldCastingTime: "time",
	FieldRange:       "range",
	FieldDuration:    "duration",
	FieldComponents:  "components",
	FieldClasses:     "classes",
	FieldText:        "text",
	FieldSource:      "source",
}

// RaceSchema is the compendium <race> layout
var RaceSchema = Schema{
	FieldName:          "name",
	FieldSize:          "size",
	FieldSpeed:         "speed",
	FieldAbility:       "ability",
	FieldTrait:         "trait",
	FieldTraitName:     "name",
	FieldTraitText:     "text",
	FieldTraitCategory: "category",
	FieldProficiency:   "proficiency",
	FieldWeapons:       "weapons",
	FieldArmor:         "armor",
	FieldResist:        "resist",
	FieldSource:        "source",
}

// ItemSchema is the compendium <item> layout
var ItemSchema = Schema{
	FieldName:       "name",
	FieldType:       "type",
	FieldDetail:     "detail",
	FieldMagic:      "magic",
	FieldWeight:     "weight",
	FieldValue:      "value",
	FieldProperty:   "property",
	FieldDamage:     "dmg1",
	FieldDamage2:    "dmg2",
	FieldDamageType: "dmgType",
	FieldRange:      "range",
	FieldArmorClass: "ac",
	FieldStrength:   "strength",
	FieldStealth:    "stealth",
	FieldText:       "text",
	FieldSource:     "source",
}
