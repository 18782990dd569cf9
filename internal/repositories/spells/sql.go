package spells

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-compendium/internal/repositories/storage"
	"github.com/KirkDiggler/rpg-compendium/internal/sqldb"
)

const spellColumns = `id, name, slug, level, school, is_ritual, needs_concentration,
	casting_time, spell_range, duration, has_verbal, has_somatic, has_material,
	material_description, material_cost_gp, material_consumed, description, higher_levels,
	saving_throws_json, source_title, source_code, source_page, source_status, created_at, updated_at`

const (
	upsertSpellSQL = `INSERT INTO spells (` + spellColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			slug = excluded.slug,
			level = excluded.level,
			school = excluded.school,
			is_ritual = excluded.is_ritual,
			needs_concentration = excluded.needs_concentration,
			casting_time = excluded.casting_time,
			spell_range = excluded.spell_range,
			duration = excluded.duration,
			has_verbal = excluded.has_verbal,
			has_somatic = excluded.has_somatic,
			has_material = excluded.has_material,
			material_description = excluded.material_description,
			material_cost_gp = excluded.material_cost_gp,
			material_consumed = excluded.material_consumed,
			description = excluded.description,
			higher_levels = excluded.higher_levels,
			saving_throws_json = excluded.saving_throws_json,
			source_title = excluded.source_title,
			source_code = excluded.source_code,
			source_page = excluded.source_page,
			source_status = excluded.source_status,
			updated_at = excluded.updated_at
		RETURNING id, created_at`

	deleteSpellClassesSQL = `DELETE FROM spell_classes WHERE spell_id = ?`
	insertSpellClassSQL   = `INSERT INTO spell_classes (spell_id, position, class_name, subclass_name)
		VALUES (?, ?, ?, ?)`
	deleteSpellTagsSQL = `DELETE FROM spell_tags WHERE spell_id = ?`
	insertSpellTagSQL  = `INSERT INTO spell_tags (spell_id, position, tag) VALUES (?, ?, ?)`

	selectSpellByNameSQL = `SELECT ` + spellColumns + ` FROM spells WHERE name = ?`
	selectSpellsSQL      = `SELECT ` + spellColumns + ` FROM spells ORDER BY name`
	selectClassesSQL     = `SELECT class_name, subclass_name FROM spell_classes
		WHERE spell_id = ? ORDER BY position`
	selectTagsSQL = `SELECT tag FROM spell_tags WHERE spell_id = ? ORDER BY position`
)

type sqlRepository struct {
	db    *sqldb.DB
	clock clock.Clock
	idGen idgen.Generator
}

// SQLConfig contains configuration for the SQL spell repository.
type SQLConfig struct {
	DB          *sqldb.DB
	Clock       clock.Clock
	IDGenerator idgen.Generator
}

// Validate validates the SQLConfig.
func (cfg *SQLConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.DB == nil {
		return errors.InvalidArgument("db cannot be nil")
	}
	return nil
}

// NewSQL creates a new SQL-backed spell repository. The schema must exist;
// see sqldb.Migrate.
func NewSQL(cfg *SQLConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	gen := cfg.IDGenerator
	if gen == nil {
		gen = idgen.ForEntity(compendium.EntityTypeSpell)
	}

	return &sqlRepository{db: cfg.DB, clock: c, idGen: gen}, nil
}

func (r *sqlRepository) Upsert(ctx context.Context, input UpsertInput) (*UpsertOutput, error) {
	if input.Spell == nil {
		return nil, errors.InvalidArgument(errSpellNil)
	}
	if input.Spell.Name == "" {
		return nil, errors.RequiredFieldMissing("name")
	}

	now := r.clock.Now()
	spell := &compendium.Spell{
		ID:          r.idGen.Generate(),
		ParsedSpell: *input.Spell,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	newID := spell.ID

	saves, err := storage.JSONColumn(spell.SavingThrows)
	if err != nil {
		return nil, err
	}

	err = r.db.WithTx(ctx, func(tx *sqldb.Tx) error {
		var createdAt int64
		args := append([]any{
			spell.ID, spell.Name, spell.Slug, spell.Level, spell.School, spell.IsRitual, spell.NeedsConcentration,
			spell.CastingTime, spell.Range, spell.Duration, spell.HasVerbal, spell.HasSomatic, spell.HasMaterial,
			spell.MaterialDescription, spell.MaterialCostGP, spell.MaterialConsumed, spell.Description,
			spell.HigherLevels, saves,
		}, storage.CitationArgs(spell.Source)...)
		args = append(args, storage.Nanos(spell.CreatedAt), storage.Nanos(spell.UpdatedAt))

		if err := tx.QueryRow(ctx, upsertSpellSQL, args...).Scan(&spell.ID, &createdAt); err != nil {
			return errors.Wrap(err, "failed to upsert spell row")
		}
		spell.CreatedAt = storage.FromNanos(createdAt)

		if _, err := tx.Exec(ctx, deleteSpellClassesSQL, spell.ID); err != nil {
			return errors.Wrap(err, "failed to delete spell classes")
		}
		for i, class := range spell.Classes {
			if _, err := tx.Exec(ctx, insertSpellClassSQL, spell.ID, i, class.ClassName, class.SubclassName); err != nil {
				return errors.Wrapf(err, "failed to insert spell class %s", class.ClassName)
			}
		}
		if _, err := tx.Exec(ctx, deleteSpellTagsSQL, spell.ID); err != nil {
			return errors.Wrap(err, "failed to delete spell tags")
		}
		for i, tag := range spell.Tags {
			if _, err := tx.Exec(ctx, insertSpellTagSQL, spell.ID, i, tag); err != nil {
				return errors.Wrapf(err, "failed to insert spell tag %s", tag)
			}
		}
		return storage.ReplaceTables(ctx, tx, storage.OwnerSpell, spell.ID, spell.RandomTables)
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to upsert spell",
			"name", input.Spell.Name,
			"error", err)
		return nil, errors.Wrapf(err, "failed to upsert spell %s", input.Spell.Name)
	}

	created := spell.ID == newID
	slog.DebugContext(ctx, "upserted spell",
		"id", spell.ID,
		"name", spell.Name,
		"created", created)

	return &UpsertOutput{Spell: spell, Created: created}, nil
}

func (r *sqlRepository) GetByName(ctx context.Context, input GetByNameInput) (*GetByNameOutput, error) {
	if input.Name == "" {
		return nil, errors.RequiredFieldMissing("name")
	}

	var spell *compendium.Spell
	err := r.db.WithTx(ctx, func(tx *sqldb.Tx) error {
		var err error
		spell, err = scanSpell(tx.QueryRow(ctx, selectSpellByNameSQL, input.Name))
		if err != nil {
			if err == sql.ErrNoRows {
				return errors.NotFoundf("spell %q not found", input.Name)
			}
			return errors.Wrapf(err, "failed to get spell %q", input.Name)
		}
		return loadChildren(ctx, tx, spell)
	})
	if err != nil {
		return nil, err
	}
	return &GetByNameOutput{Spell: spell}, nil
}

func (r *sqlRepository) List(ctx context.Context, _ ListInput) (*ListOutput, error) {
	var spells []*compendium.Spell
	err := r.db.WithTx(ctx, func(tx *sqldb.Tx) error {
		rows, err := tx.Query(ctx, selectSpellsSQL)
		if err != nil {
			return errors.Wrap(err, "failed to list spells")
		}
		for rows.Next() {
			spell, err := scanSpell(rows)
			if err != nil {
				_ = rows.Close()
				return errors.Wrap(err, "failed to scan spell")
			}
			spells = append(spells, spell)
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return errors.Wrap(err, "failed to iterate spells")
		}
		_ = rows.Close()

		for _, spell := range spells {
			if err := loadChildren(ctx, tx, spell); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ListOutput{Spells: spells}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSpell(row scanner) (*compendium.Spell, error) {
	var (
		spell                compendium.Spell
		cost                 sql.NullFloat64
		saves                string
		citation             storage.CitationDest
		createdAt, updatedAt int64
	)
	dest := []any{
		&spell.ID, &spell.Name, &spell.Slug, &spell.Level, &spell.School, &spell.IsRitual,
		&spell.NeedsConcentration, &spell.CastingTime, &spell.Range, &spell.Duration,
		&spell.HasVerbal, &spell.HasSomatic, &spell.HasMaterial, &spell.MaterialDescription,
		&cost, &spell.MaterialConsumed, &spell.Description, &spell.HigherLevels, &saves,
	}
	dest = append(dest, citation.Targets()...)
	dest = append(dest, &createdAt, &updatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if cost.Valid {
		v := cost.Float64
		spell.MaterialCostGP = &v
	}
	if err := storage.ScanJSON(saves, &spell.SavingThrows); err != nil {
		return nil, err
	}
	spell.Source = citation.Citation()
	spell.CreatedAt = storage.FromNanos(createdAt)
	spell.UpdatedAt = storage.FromNanos(updatedAt)
	return &spell, nil
}

func loadChildren(ctx context.Context, q sqldb.Querier, spell *compendium.Spell) error {
	rows, err := q.Query(ctx, selectClassesSQL, spell.ID)
	if err != nil {
		return errors.Wrap(err, "failed to query spell classes")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			class    compendium.ClassAssociation
			subclass sql.NullString
		)
		if err := rows.Scan(&class.ClassName, &subclass); err != nil {
			return errors.Wrap(err, "failed to scan spell class")
		}
		if subclass.Valid {
			name := subclass.String
			class.SubclassName = &name
		}
		spell.Classes = append(spell.Classes, class)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "failed to iterate spell classes")
	}
	_ = rows.Close()

	if spell.Tags, err = loadTags(ctx, q, spell.ID); err != nil {
		return err
	}

	spell.RandomTables, err = storage.LoadTables(ctx, q, storage.OwnerSpell, spell.ID)
	return err
}

func loadTags(ctx context.Context, q sqldb.Querier, spellID string) ([]string, error) {
	rows, err := q.Query(ctx, selectTagsSQL, spellID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query spell tags")
	}
	defer func() { _ = rows.Close() }()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, errors.Wrap(err, "failed to scan spell tag")
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate spell tags")
	}
	return tags, nil
}
