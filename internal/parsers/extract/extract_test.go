package extract_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/parsers/extract"
)

type ExtractTestSuite struct {
	suite.Suite
}

func TestExtractSuite(t *testing.T) {
	suite.Run(t, new(ExtractTestSuite))
}

func intPtr(v int) *int { return &v }

func (s *ExtractTestSuite) TestSourceCitation() {
	testCases := []struct {
		name       string
		text       string
		wantCode   *string
		wantPage   *int
		wantStatus compendium.CitationStatus
		wantTitle  string
	}{
		{
			name:       "title year and page",
			text:       "A bright streak flashes.\n\nSource: Player's Handbook (2014) p. 241",
			wantCode:   strPtr("PHB"),
			wantPage:   intPtr(241),
			wantStatus: compendium.CitationMapped,
			wantTitle:  "Player's Handbook",
		},
		{
			name:       "tab after colon",
			text:       "Source:\tPlayer's Handbook (2014) p. 32",
			wantCode:   strPtr("PHB"),
			wantPage:   intPtr(32),
			wantStatus: compendium.CitationMapped,
			wantTitle:  "Player's Handbook",
		},
		{
			name:       "no year",
			text:       "Source: Xanathar's Guide to Everything p. 150",
			wantCode:   strPtr("XGE"),
			wantPage:   intPtr(150),
			wantStatus: compendium.CitationMapped,
			wantTitle:  "Xanathar's Guide to Everything",
		},
		{
			name:       "first of several citations",
			text:       "Source: Tasha's Cauldron of Everything p. 108,\n\tPlayer's Handbook (2014) p. 20",
			wantCode:   strPtr("TCE"),
			wantPage:   intPtr(108),
			wantStatus: compendium.CitationMapped,
			wantTitle:  "Tasha's Cauldron of Everything",
		},
		{
			name:       "curly apostrophe",
			text:       "Source: Player’s Handbook p. 7",
			wantCode:   strPtr("PHB"),
			wantPage:   intPtr(7),
			wantStatus: compendium.CitationMapped,
			wantTitle:  "Player’s Handbook",
		},
		{
			name:       "unmapped title",
			text:       "Source: Homebrew Almanac (2020) p. 12",
			wantPage:   intPtr(12),
			wantStatus: compendium.CitationUnmapped,
			wantTitle:  "Homebrew Almanac",
		},
		{
			name:       "no page",
			text:       "Source: Monster Manual",
			wantCode:   strPtr("MM"),
			wantStatus: compendium.CitationMapped,
			wantTitle:  "Monster Manual",
		},
		{
			name:       "no citation",
			text:       "You hurl a bubble of acid.",
			wantStatus: compendium.CitationMissing,
		},
		{
			name:       "empty",
			text:       "",
			wantStatus: compendium.CitationMissing,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			got := extract.SourceCitation(tc.text)
			s.Equal(tc.wantStatus, got.Status)
			s.Equal(tc.wantCode, got.Code)
			s.Equal(tc.wantPage, got.Page)
			s.Equal(tc.wantTitle, got.Title)
		})
	}
}

func (s *ExtractTestSuite) TestSourceCatalogExtraTitles() {
	catalog := extract.NewSourceCatalog(map[string]string{"Homebrew Almanac": "HBA"})

	got := catalog.Citation("Source: Homebrew Almanac (2020) p. 12")
	s.Require().NotNil(got.Code)
	s.Equal("HBA", *got.Code)
	s.Equal(compendium.CitationMapped, got.Status)

	// built-in titles stay available
	code, ok := catalog.Code("player's handbook")
	s.True(ok)
	s.Equal("PHB", code)
	s.Contains(catalog.Titles(), "homebrew almanac")
}

func (s *ExtractTestSuite) TestStripSourceCitation() {
	text := "You create a wall.\n\nAt Higher Levels: more wall.\n\nSource: Player's Handbook (2014) p. 285,\n\tBasic Rules p. 3"
	s.Equal("You create a wall.\n\nAt Higher Levels: more wall.", extract.StripSourceCitation(text))
	s.Equal("No citation here.", extract.StripSourceCitation("No citation here."))
}

func (s *ExtractTestSuite) TestAbilityModifiers() {
	testCases := []struct {
		name string
		text string
		want []compendium.AbilityModifier
	}{
		{
			name: "two modifiers keep source order",
			text: "Str +2, Cha +1",
			want: []compendium.AbilityModifier{
				{Ability: "strength", Value: "+2"},
				{Ability: "charisma", Value: "+1"},
			},
		},
		{
			name: "reverse order stays reversed",
			text: "Cha +1, Str +2",
			want: []compendium.AbilityModifier{
				{Ability: "charisma", Value: "+1"},
				{Ability: "strength", Value: "+2"},
			},
		},
		{
			name: "full names and negative values",
			text: "Dexterity +2,Intelligence -1, wis+1",
			want: []compendium.AbilityModifier{
				{Ability: "dexterity", Value: "+2"},
				{Ability: "intelligence", Value: "-1"},
				{Ability: "wisdom", Value: "+1"},
			},
		},
		{
			name: "malformed entries are skipped",
			text: "Str +2, choose any, Foo +1, Con 2",
			want: []compendium.AbilityModifier{
				{Ability: "strength", Value: "+2"},
			},
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, extract.AbilityModifiers(tc.text))
		})
	}
}

func (s *ExtractTestSuite) TestComponents() {
	testCases := []struct {
		name string
		text string
		want compendium.Components
	}{
		{
			name: "revivify",
			text: "V, S, M (diamonds worth 1,000 gp, which the spell consumes)",
			want: compendium.Components{
				HasVerbal: true, HasSomatic: true, HasMaterial: true,
				MaterialDescription: "diamonds worth 1,000 gp, which the spell consumes",
				MaterialCostGP:      floatPtr(1000),
				MaterialConsumed:    true,
			},
		},
		{
			name: "identify",
			text: "V, S, M (a pearl worth at least 100 gp and an owl feather)",
			want: compendium.Components{
				HasVerbal: true, HasSomatic: true, HasMaterial: true,
				MaterialDescription: "a pearl worth at least 100 gp and an owl feather",
				MaterialCostGP:      floatPtr(100),
			},
		},
		{
			name: "material without cost",
			text: "V, S, M (a bit of fleece)",
			want: compendium.Components{
				HasVerbal: true, HasSomatic: true, HasMaterial: true,
				MaterialDescription: "a bit of fleece",
			},
		},
		{
			name: "nested parentheses stay in the description",
			text: "S, M (a sprig of mistletoe (fresh) worth 5 sp)",
			want: compendium.Components{
				HasSomatic: true, HasMaterial: true,
				MaterialDescription: "a sprig of mistletoe (fresh) worth 5 sp",
				MaterialCostGP:      floatPtr(0.5),
			},
		},
		{
			name: "negated consumption",
			text: "V, S, M (incense worth 25 gp, which isn't consumed)",
			want: compendium.Components{
				HasVerbal: true, HasSomatic: true, HasMaterial: true,
				MaterialDescription: "incense worth 25 gp, which isn't consumed",
				MaterialCostGP:      floatPtr(25),
			},
		},
		{
			name: "spell does not consume",
			text: "V, S, M (a jeweled horn worth 100 gp, which the spell does not consume)",
			want: compendium.Components{
				HasVerbal: true, HasSomatic: true, HasMaterial: true,
				MaterialDescription: "a jeweled horn worth 100 gp, which the spell does not consume",
				MaterialCostGP:      floatPtr(100),
			},
		},
		{
			name: "open-ended cost",
			text: "V, S, M (diamonds worth 300+ gp, which the spell consumes)",
			want: compendium.Components{
				HasVerbal: true, HasSomatic: true, HasMaterial: true,
				MaterialDescription: "diamonds worth 300+ gp, which the spell consumes",
				MaterialCostGP:      floatPtr(300),
				MaterialConsumed:    true,
			},
		},
		{
			name: "verbal only",
			text: "V",
			want: compendium.Components{HasVerbal: true},
		},
		{
			name: "material without parenthetical",
			text: "V, M",
			want: compendium.Components{HasVerbal: true, HasMaterial: true},
		},
		{
			name: "empty",
			text: "",
			want: compendium.Components{},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			got := extract.Components(tc.text)
			s.Equal(tc.want.HasVerbal, got.HasVerbal)
			s.Equal(tc.want.HasSomatic, got.HasSomatic)
			s.Equal(tc.want.HasMaterial, got.HasMaterial)
			s.Equal(tc.want.MaterialDescription, got.MaterialDescription)
			s.Equal(tc.want.MaterialConsumed, got.MaterialConsumed)
			if tc.want.MaterialCostGP == nil {
				s.Nil(got.MaterialCostGP)
			} else {
				s.Require().NotNil(got.MaterialCostGP)
				s.InDelta(*tc.want.MaterialCostGP, *got.MaterialCostGP, 0.0001)
			}
		})
	}
}

func (s *ExtractTestSuite) TestRollRange() {
	testCases := []struct {
		token   string
		wantMin *int
		wantMax *int
	}{
		{"01-02", intPtr(1), intPtr(2)},
		{"3-4", intPtr(3), intPtr(4)},
		{"10–12", intPtr(10), intPtr(12)},
		{" 5 ", intPtr(5), intPtr(5)},
		{"96-00", intPtr(96), intPtr(100)},
		{"00", intPtr(100), intPtr(100)},
		{"91-00", intPtr(91), intPtr(100)},
		{"0", intPtr(0), intPtr(0)},
		{"7-3", intPtr(3), intPtr(7)},
		{"Red", nil, nil},
		{"d100", nil, nil},
		{"", nil, nil},
		{"1-", nil, nil},
	}

	for _, tc := range testCases {
		s.Run(tc.token, func() {
			gotMin, gotMax := extract.RollRange(tc.token)
			s.Equal(tc.wantMin, gotMin)
			s.Equal(tc.wantMax, gotMax)
		})
	}
}

func (s *ExtractTestSuite) TestRollRangeProperty() {
	for lo := 1; lo <= 20; lo++ {
		for hi := lo; hi <= 20; hi++ {
			gotMin, gotMax := extract.RollRange(itoa(lo) + "-" + itoa(hi))
			s.Require().NotNil(gotMin)
			s.Require().NotNil(gotMax)
			s.Equal(lo, *gotMin)
			s.Equal(hi, *gotMax)
		}
	}
}

func (s *ExtractTestSuite) TestClassList() {
	got := extract.ClassList("Fighter (Eldritch Knight), Sorcerer, Wizard")
	s.Require().Len(got, 3)
	s.Equal("Fighter", got[0].ClassName)
	s.Require().NotNil(got[0].SubclassName)
	s.Equal("Eldritch Knight", *got[0].SubclassName)
	s.Equal("Sorcerer", got[1].ClassName)
	s.Nil(got[1].SubclassName)
	s.Equal("Wizard", got[2].ClassName)
	s.Nil(got[2].SubclassName)
}

func (s *ExtractTestSuite) TestClassListEdgeCases() {
	testCases := []struct {
		name string
		text string
		want []string
	}{
		{"school prefix dropped", "School: Evocation, Sorcerer, Wizard", []string{"Sorcerer", "Wizard"}},
		{"comma inside parenthetical", "Cleric (Life, Light), Paladin", []string{"Cleric", "Paladin"}},
		{"empty entries skipped", "Bard, , Druid,", []string{"Bard", "Druid"}},
		{"empty", "", nil},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			var names []string
			for _, c := range extract.ClassList(tc.text) {
				names = append(names, c.ClassName)
			}
			s.Equal(tc.want, names)
		})
	}
}

func (s *ExtractTestSuite) TestClassesAndTags() {
	classes, tags := extract.ClassesAndTags("School: Evocation, Wizard, Ritual Caster, Cleric (Light), Touch Spells")
	s.Require().Len(classes, 2)
	s.Equal("Wizard", classes[0].ClassName)
	s.Equal("Cleric", classes[1].ClassName)
	s.Equal([]string{"Ritual Caster", "Touch Spells"}, tags)

	// a parenthetical marks a class even outside the base list
	classes, tags = extract.ClassesAndTags("Blood Hunter (Order of the Ghostslayer)")
	s.Require().Len(classes, 1)
	s.Equal("Blood Hunter", classes[0].ClassName)
	s.Nil(tags)
}

func (s *ExtractTestSuite) TestSavingThrows() {
	testCases := []struct {
		name string
		text string
		want []compendium.SavingThrow
	}{
		{
			name: "single save",
			text: "Each creature in a 20-foot radius must make a Dexterity saving throw.",
			want: []compendium.SavingThrow{{Ability: "dexterity"}},
		},
		{
			name: "repeat at end of turn",
			text: "The target must succeed on a Wisdom saving throw or be frightened of you for the duration of the spell. " +
				"At the end of each of its turns, the target can make a Wisdom saving throw.",
			want: []compendium.SavingThrow{{Ability: "wisdom"}, {Ability: "wisdom", Recurring: true}},
		},
		{
			name: "disadvantage",
			text: "The creature makes Constitution saving throws with disadvantage.",
			want: []compendium.SavingThrow{{Ability: "constitution", Modifier: "disadvantage"}},
		},
		{
			name: "advantage",
			text: "If you or a companion is fighting it, it has advantage on the Charisma saving throw.",
			want: []compendium.SavingThrow{{Ability: "charisma", Modifier: "advantage"}},
		},
		{
			name: "repeats dropped",
			text: "A creature must make a Strength saving throw. " +
				"On a failed save it is knocked prone and pushed away from you by a great gust of roaring wind. " +
				"A creature that is already prone also makes a Strength saving throw.",
			want: []compendium.SavingThrow{{Ability: "strength"}},
		},
		{name: "none", text: "You touch a creature.", want: nil},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, extract.SavingThrows(tc.text))
		})
	}
}

func (s *ExtractTestSuite) TestLanguages() {
	testCases := []struct {
		name string
		text string
		want []compendium.Language
	}{
		{
			name: "named",
			text: "You can speak, read, and write Common and Dwarvish. Dwarvish is full of hard consonants.",
			want: []compendium.Language{{Name: "Common"}, {Name: "Dwarvish"}},
		},
		{
			name: "extra language",
			text: "You can speak, read, and write Common and one extra language of your choice.",
			want: []compendium.Language{{Name: "Common"}, {IsChoice: true}},
		},
		{
			name: "two of your choice",
			text: "You can speak, read, and write Common, Elvish, and two other languages of your choice.",
			want: []compendium.Language{{Name: "Common"}, {Name: "Elvish"}, {IsChoice: true}, {IsChoice: true}},
		},
		{
			name: "multi-word name",
			text: "You can speak, read, and write Common and Deep Speech.",
			want: []compendium.Language{{Name: "Common"}, {Name: "Deep Speech"}},
		},
		{name: "empty", text: "", want: nil},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, extract.Languages(tc.text))
		})
	}
}

func (s *ExtractTestSuite) TestConditions() {
	got := extract.Conditions(
		"You have advantage on saving throws against being charmed, and magic can't put you to sleep.",
		"You have advantage on saving throws against poison.",
		"You are immune to disease.",
		"You have advantage on saving throws against being Charmed.",
	)
	s.Equal([]compendium.ConditionEffect{
		{Condition: "charmed", EffectType: compendium.ConditionAdvantage},
		{Condition: "poisoned", EffectType: compendium.ConditionAdvantage},
		{Condition: "disease", EffectType: compendium.ConditionImmunity},
	}, got)

	s.Nil(extract.Conditions("You have darkvision."))
}

func (s *ExtractTestSuite) TestItemCharges() {
	c := extract.ItemCharges("This wand has 7 charges. The wand regains 1d6 + 1 expended charges daily at dawn.")
	s.Equal(strPtr("7"), c.ChargesMax)
	s.Equal(strPtr("1d6+1"), c.RechargeFormula)
	s.Equal(strPtr("dawn"), c.RechargeTiming)

	c = extract.ItemCharges("The staff has 1d4 + 2 charges and regains all of its charges after a long rest.")
	s.Equal(strPtr("1d4+2"), c.ChargesMax)
	s.Equal(strPtr("all"), c.RechargeFormula)
	s.Equal(strPtr("long rest"), c.RechargeTiming)

	s.Equal(compendium.Charges{}, extract.ItemCharges("A simple wooden shield."))
}

func (s *ExtractTestSuite) TestProficiencyType() {
	testCases := []struct {
		name string
		want compendium.ProficiencyType
	}{
		{"battleaxe", compendium.ProficiencyWeapon},
		{"Longswords", compendium.ProficiencyWeapon},
		{"Martial Weapons", compendium.ProficiencyWeapon},
		{"Light Armor", compendium.ProficiencyArmor},
		{"Shields", compendium.ProficiencyArmor},
		{"Smith's Tools", compendium.ProficiencyTool},
		{"Thieves’ Tools", compendium.ProficiencyTool},
		{"One type of gaming set", compendium.ProficiencyTool},
		{"Perception", compendium.ProficiencySkill},
		{"Sleight of Hand", compendium.ProficiencySkill},
		{"Basket weaving", compendium.ProficiencyOther},
		{"", compendium.ProficiencyOther},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, extract.ProficiencyType(tc.name))
		})
	}
}

func (s *ExtractTestSuite) TestProficiencyCatalogAdd() {
	catalog := extract.NewProficiencyCatalog()
	before := catalog.Len()
	s.Equal(compendium.ProficiencyOther, catalog.Classify("Double-bladed Scimitar"))

	catalog.Add(compendium.ProficiencyWeapon, "Double-Bladed Scimitar")
	s.Equal(before+1, catalog.Len())
	s.Equal(compendium.ProficiencyWeapon, catalog.Classify("double-bladed  scimitar"))
	s.Contains(catalog.Names(compendium.ProficiencyWeapon), "double-bladed scimitar")

	// the shared default catalog is untouched
	s.Equal(compendium.ProficiencyOther, extract.ProficiencyType("Double-bladed Scimitar"))
}

func (s *ExtractTestSuite) TestSlug() {
	testCases := map[string]string{
		"Fireball":                   "fireball",
		"Melf's Acid Arrow":          "melfs-acid-arrow",
		"Bigby’s Hand":               "bigbys-hand",
		"Dwarf, Hill":                "dwarf-hill",
		"  +1 Longsword (Silvered) ": "1-longsword-silvered",
		"!!!":                        "",
	}
	for in, want := range testCases {
		s.Run(in, func() {
			s.Equal(want, extract.Slug(in))
		})
	}
}

func (s *ExtractTestSuite) TestRarity() {
	testCases := []struct {
		detail     string
		want       *string
		attunement bool
	}{
		{"very rare (requires attunement)", strPtr("very_rare"), true},
		{"uncommon", strPtr("uncommon"), false},
		{"Rare", strPtr("rare"), false},
		{"legendary (requires attunement by a wizard)", strPtr("legendary"), true},
		{"common", strPtr("common"), false},
		{"", nil, false},
		{"cursed", nil, false},
	}
	for _, tc := range testCases {
		s.Run(tc.detail, func() {
			s.Equal(tc.want, extract.Rarity(tc.detail))
			s.Equal(tc.attunement, extract.RequiresAttunement(tc.detail))
		})
	}
}

func (s *ExtractTestSuite) TestCurrencyAndNumbers() {
	s.InDelta(1500.0, *extract.CurrencyGP("worth 1,500 gp"), 0.0001)
	s.InDelta(25.0, *extract.CurrencyGP("25gp of ruby dust"), 0.0001)
	s.InDelta(50.0, *extract.CurrencyGP("5 pp"), 0.0001)
	s.InDelta(300.0, *extract.CurrencyGP("worth 300+ gp"), 0.0001)
	s.Nil(extract.CurrencyGP("a feather"))

	s.InDelta(0.25, *extract.Decimal(" 0.25 "), 0.0001)
	s.InDelta(1500.0, *extract.Decimal("1,500"), 0.0001)
	s.Nil(extract.Decimal(""))
	s.Nil(extract.Decimal("heavy"))

	v, ok := extract.Integer("30 ft.")
	s.True(ok)
	s.Equal(30, v)
	_, ok = extract.Integer("walk 30")
	s.False(ok)
}

func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }

func itoa(v int) string {
	if v < 10 {
		return string(rune('0' + v))
	}
	return string(rune('0'+v/10)) + string(rune('0'+v%10))
}
