package extract

import (
	"sort"
	"strings"
	"sync"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
)

var defaultWeapons = []string{
	"club", "dagger", "greatclub", "handaxe", "javelin", "light hammer", "mace", "quarterstaff",
	"sickle", "spear", "light crossbow", "dart", "shortbow", "sling", "battleaxe", "flail",
	"glaive", "greataxe", "greatsword", "halberd", "lance", "longsword", "maul", "morningstar",
	"pike", "rapier", "scimitar", "shortsword", "trident", "war pick", "warhammer", "whip",
	"blowgun", "hand crossbow", "heavy crossbow", "longbow", "net", "crossbow", "bow",
}

var defaultArmor = []string{
	"padded", "leather", "studded leather", "hide", "chain shirt", "scale mail", "breastplate",
	"half plate", "ring mail", "chain mail", "splint", "plate", "shield", "shields",
	"light armor", "medium armor", "heavy armor",
}

var defaultTools = []string{
	"alchemist's supplies", "brewer's supplies", "calligrapher's supplies", "carpenter's tools",
	"cartographer's tools", "cobbler's tools", "cook's utensils", "glassblower's tools",
	"jeweler's tools", "leatherworker's tools", "mason's tools", "painter's supplies",
	"potter's tools", "smith's tools", "tinker's tools", "weaver's tools", "woodcarver's tools",
	"disguise kit", "forgery kit", "herbalism kit", "navigator's tools", "poisoner's kit",
	"thieves' tools", "dice set", "playing card set", "dragonchess set", "three-dragon ante set",
	"bagpipes", "drum", "dulcimer", "flute", "lute", "lyre", "horn", "pan flute", "shawm", "viol",
	"vehicles (land)", "vehicles (water)",
}

var defaultSkills = []string{
	"acrobatics", "animal handling", "arcana", "athletics", "deception", "history", "insight",
	"intimidation", "investigation", "medicine", "nature", "perception", "performance",
	"persuasion", "religion", "sleight of hand", "stealth", "survival",
}

// ProficiencyCatalog classifies proficiency names against reference lists.
// It is safe for concurrent use; the lists can be extended at runtime.
type ProficiencyCatalog struct {
	mu    sync.RWMutex
	names map[string]compendium.ProficiencyType
}

// NewProficiencyCatalog returns a catalog seeded with the built-in lists
func NewProficiencyCatalog() *ProficiencyCatalog {
	c := &ProficiencyCatalog{names: make(map[string]compendium.ProficiencyType)}
	c.Add(compendium.ProficiencyWeapon, defaultWeapons...)
	c.Add(compendium.ProficiencyArmor, defaultArmor...)
	c.Add(compendium.ProficiencyTool, defaultTools...)
	c.Add(compendium.ProficiencySkill, defaultSkills...)
	return c
}

// DefaultProficiencies is the catalog used when a parser is given none
var DefaultProficiencies = NewProficiencyCatalog()

// Add registers names under a proficiency type
func (c *ProficiencyCatalog) Add(kind compendium.ProficiencyType, names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range names {
		if key := normalizeProficiency(name); key != "" {
			c.names[key] = kind
		}
	}
}

// Len returns the number of known names
func (c *ProficiencyCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// Names returns the known names of one type, sorted
func (c *ProficiencyCatalog) Names(kind compendium.ProficiencyType) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var names []string
	for name, k := range c.names {
		if k == kind {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Classify returns the proficiency type for a bare name. Exact list matches
// come first, then keyword rules; anything else is "other".
func (c *ProficiencyCatalog) Classify(name string) compendium.ProficiencyType {
	key := normalizeProficiency(name)
	if key == "" {
		return compendium.ProficiencyOther
	}

	c.mu.RLock()
	kind, ok := c.names[key]
	if !ok {
		// "longswords", "shortbows"
		kind, ok = c.names[strings.TrimSuffix(key, "s")]
	}
	c.mu.RUnlock()
	if ok {
		return kind
	}

	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "armor") || strings.Contains(lower, "shield"):
		return compendium.ProficiencyArmor
	case strings.Contains(lower, "weapon"):
		return compendium.ProficiencyWeapon
	case strings.Contains(lower, "tools") || strings.Contains(lower, "kit") ||
		strings.Contains(lower, "gaming set") || strings.Contains(lower, "instrument") ||
		strings.Contains(lower, "supplies"):
		return compendium.ProficiencyTool
	}
	return compendium.ProficiencyOther
}

// ProficiencyType classifies a name against the default catalog
func ProficiencyType(name string) compendium.ProficiencyType {
	return DefaultProficiencies.Classify(name)
}

// normalizeProficiency lower-cases and collapses whitespace, and folds curly
// apostrophes so "Thieves’ Tools" matches "thieves' tools".
func normalizeProficiency(name string) string {
	name = strings.NewReplacer("’", "'", "‘", "'").Replace(name)
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
