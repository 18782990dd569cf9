package sqldb

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-compendium/internal/errors"
)

// The DDL sticks to types both PostgreSQL and SQLite accept. Timestamps are
// unix nanoseconds; children carry their source position.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS spells (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL,
		level INTEGER NOT NULL,
		school TEXT NOT NULL,
		is_ritual BOOLEAN NOT NULL,
		needs_concentration BOOLEAN NOT NULL,
		casting_time TEXT NOT NULL,
		spell_range TEXT NOT NULL,
		duration TEXT NOT NULL,
		has_verbal BOOLEAN NOT NULL,
		has_somatic BOOLEAN NOT NULL,
		has_material BOOLEAN NOT NULL,
		material_description TEXT NOT NULL,
		material_cost_gp DOUBLE PRECISION,
		material_consumed BOOLEAN NOT NULL,
		description TEXT NOT NULL,
		higher_levels TEXT NOT NULL,
		saving_throws_json TEXT NOT NULL,
		source_title TEXT NOT NULL,
		source_code TEXT,
		source_page INTEGER,
		source_status TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS spells_slug_idx ON spells (slug)`,
	`CREATE TABLE IF NOT EXISTS spell_classes (
		spell_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		class_name TEXT NOT NULL,
		subclass_name TEXT,
		PRIMARY KEY (spell_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS spell_tags (
		spell_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		tag TEXT NOT NULL,
		PRIMARY KEY (spell_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS races (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL,
		base_race_name TEXT,
		size_code TEXT NOT NULL,
		speed INTEGER NOT NULL,
		resistances_json TEXT NOT NULL,
		conditions_json TEXT NOT NULL,
		source_title TEXT NOT NULL,
		source_code TEXT,
		source_page INTEGER,
		source_status TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS races_slug_idx ON races (slug)`,
	`CREATE TABLE IF NOT EXISTS race_ability_modifiers (
		race_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		ability TEXT NOT NULL,
		modifier_value TEXT NOT NULL,
		PRIMARY KEY (race_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS race_traits (
		race_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		tables_json TEXT NOT NULL,
		PRIMARY KEY (race_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS race_proficiencies (
		race_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		proficiency_type TEXT NOT NULL,
		PRIMARY KEY (race_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS race_languages (
		race_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		is_choice BOOLEAN NOT NULL,
		PRIMARY KEY (race_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		type_code TEXT NOT NULL,
		weight DOUBLE PRECISION,
		value_gp DOUBLE PRECISION,
		damage_dice TEXT,
		damage_dice_versatile TEXT,
		damage_type_code TEXT,
		rarity TEXT,
		item_range TEXT,
		requires_attunement BOOLEAN NOT NULL,
		is_magic BOOLEAN NOT NULL,
		armor_class INTEGER,
		strength_requirement INTEGER,
		stealth_disadvantage BOOLEAN NOT NULL,
		charges_max TEXT,
		recharge_formula TEXT,
		recharge_timing TEXT,
		description TEXT NOT NULL,
		source_title TEXT NOT NULL,
		source_code TEXT,
		source_page INTEGER,
		source_status TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS item_properties (
		item_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		code TEXT NOT NULL,
		PRIMARY KEY (item_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS random_tables (
		owner_type TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		table_name TEXT NOT NULL,
		dice_type TEXT NOT NULL,
		columns_json TEXT NOT NULL,
		rows_json TEXT NOT NULL,
		PRIMARY KEY (owner_type, owner_id, position)
	)`,
}

// Migrate creates the compendium schema if it does not exist yet
func Migrate(ctx context.Context, db *DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return errors.WrapWithCodef(err, errors.CodeInternal, "failed to apply schema statement %d", i)
		}
	}
	slog.DebugContext(ctx, "sql schema ready", "dialect", db.Dialect(), "statements", len(schema))
	return nil
}
