package races

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-compendium/internal/repositories/storage"
	"github.com/KirkDiggler/rpg-compendium/internal/sqldb"
)

const raceColumns = `id, name, slug, base_race_name, size_code, speed,
	resistances_json, conditions_json, source_title, source_code, source_page, source_status, created_at, updated_at`

const (
	upsertRaceSQL = `INSERT INTO races (` + raceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			slug = excluded.slug,
			base_race_name = excluded.base_race_name,
			size_code = excluded.size_code,
			speed = excluded.speed,
			resistances_json = excluded.resistances_json,
			conditions_json = excluded.conditions_json,
			source_title = excluded.source_title,
			source_code = excluded.source_code,
			source_page = excluded.source_page,
			source_status = excluded.source_status,
			updated_at = excluded.updated_at
		RETURNING id, created_at`

	deleteModifiersSQL     = `DELETE FROM race_ability_modifiers WHERE race_id = ?`
	deleteTraitsSQL        = `DELETE FROM race_traits WHERE race_id = ?`
	deleteProficienciesSQL = `DELETE FROM race_proficiencies WHERE race_id = ?`
	deleteLanguagesSQL     = `DELETE FROM race_languages WHERE race_id = ?`

	insertModifierSQL = `INSERT INTO race_ability_modifiers (race_id, position, ability, modifier_value)
		VALUES (?, ?, ?, ?)`
	insertTraitSQL = `INSERT INTO race_traits (race_id, position, name, category, description, tables_json)
		VALUES (?, ?, ?, ?, ?, ?)`
	insertProficiencySQL = `INSERT INTO race_proficiencies (race_id, position, name, proficiency_type)
		VALUES (?, ?, ?, ?)`
	insertLanguageSQL = `INSERT INTO race_languages (race_id, position, name, is_choice)
		VALUES (?, ?, ?, ?)`

	selectRaceByNameSQL    = `SELECT ` + raceColumns + ` FROM races WHERE name = ?`
	selectRacesSQL         = `SELECT ` + raceColumns + ` FROM races ORDER BY name`
	selectModifiersSQL     = `SELECT ability, modifier_value FROM race_ability_modifiers WHERE race_id = ? ORDER BY position`
	selectTraitsSQL        = `SELECT name, category, description, tables_json FROM race_traits WHERE race_id = ? ORDER BY position`
	selectProficienciesSQL = `SELECT name, proficiency_type FROM race_proficiencies WHERE race_id = ? ORDER BY position`
	selectLanguagesSQL     = `SELECT name, is_choice FROM race_languages WHERE race_id = ? ORDER BY position`
)

type sqlRepository struct {
	db    *sqldb.DB
	clock clock.Clock
	idGen idgen.Generator
}

// SQLConfig contains configuration for the SQL race repository.
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

// NewSQL creates a new SQL-backed race repository
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
		gen = idgen.ForEntity(compendium.EntityTypeRace)
	}

	return &sqlRepository{db: cfg.DB, clock: c, idGen: gen}, nil
}

func (r *sqlRepository) Upsert(ctx context.Context, input UpsertInput) (*UpsertOutput, error) {
	if input.Race == nil {
		return nil, errors.InvalidArgument(errRaceNil)
	}
	if input.Race.Name == "" {
		return nil, errors.RequiredFieldMissing("name")
	}

	now := r.clock.Now()
	race := &compendium.Race{
		ID:         r.idGen.Generate(),
		ParsedRace: *input.Race,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	newID := race.ID

	resistances, err := storage.JSONColumn(race.Resistances)
	if err != nil {
		return nil, err
	}
	conditions, err := storage.JSONColumn(race.Conditions)
	if err != nil {
		return nil, err
	}

	err = r.db.WithTx(ctx, func(tx *sqldb.Tx) error {
		var createdAt int64
		args := append([]any{
			race.ID, race.Name, race.Slug, race.BaseRaceName, race.SizeCode, race.Speed, resistances, conditions,
		}, storage.CitationArgs(race.Source)...)
		args = append(args, storage.Nanos(race.CreatedAt), storage.Nanos(race.UpdatedAt))

		if err := tx.QueryRow(ctx, upsertRaceSQL, args...).Scan(&race.ID, &createdAt); err != nil {
			return errors.Wrap(err, "failed to upsert race row")
		}
		race.CreatedAt = storage.FromNanos(createdAt)

		return replaceChildren(ctx, tx, race)
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to upsert race",
			"name", input.Race.Name,
			"error", err)
		return nil, errors.Wrapf(err, "failed to upsert race %s", input.Race.Name)
	}

	created := race.ID == newID
	slog.DebugContext(ctx, "upserted race",
		"id", race.ID,
		"name", race.Name,
		"created", created)

	return &UpsertOutput{Race: race, Created: created}, nil
}

func replaceChildren(ctx context.Context, tx *sqldb.Tx, race *compendium.Race) error {
	for _, stmt := range []string{deleteModifiersSQL, deleteTraitsSQL, deleteProficienciesSQL, deleteLanguagesSQL} {
		if _, err := tx.Exec(ctx, stmt, race.ID); err != nil {
			return errors.Wrap(err, "failed to delete race children")
		}
	}

	for i, m := range race.AbilityModifiers {
		if _, err := tx.Exec(ctx, insertModifierSQL, race.ID, i, m.Ability, m.Value); err != nil {
			return errors.Wrapf(err, "failed to insert ability modifier %s", m.Ability)
		}
	}
	for i, t := range race.Traits {
		tablesJSON, err := json.Marshal(t.RandomTables)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal tables of trait %s", t.Name)
		}
		if _, err := tx.Exec(ctx, insertTraitSQL, race.ID, i, t.Name, t.Category, t.Description, string(tablesJSON)); err != nil {
			return errors.Wrapf(err, "failed to insert trait %s", t.Name)
		}
	}
	for i, p := range race.Proficiencies {
		if _, err := tx.Exec(ctx, insertProficiencySQL, race.ID, i, p.Name, string(p.Type)); err != nil {
			return errors.Wrapf(err, "failed to insert proficiency %s", p.Name)
		}
	}
	for i, l := range race.Languages {
		if _, err := tx.Exec(ctx, insertLanguageSQL, race.ID, i, l.Name, l.IsChoice); err != nil {
			return errors.Wrapf(err, "failed to insert language %d", i)
		}
	}
	return nil
}

func (r *sqlRepository) GetByName(ctx context.Context, input GetByNameInput) (*GetByNameOutput, error) {
	if input.Name == "" {
		return nil, errors.RequiredFieldMissing("name")
	}

	var race *compendium.Race
	err := r.db.WithTx(ctx, func(tx *sqldb.Tx) error {
		var err error
		race, err = scanRace(tx.QueryRow(ctx, selectRaceByNameSQL, input.Name))
		if err != nil {
			if err == sql.ErrNoRows {
				return errors.NotFoundf("race %q not found", input.Name)
			}
			return errors.Wrapf(err, "failed to get race %q", input.Name)
		}
		return loadChildren(ctx, tx, race)
	})
	if err != nil {
		return nil, err
	}
	return &GetByNameOutput{Race: race}, nil
}

func (r *sqlRepository) List(ctx context.Context, _ ListInput) (*ListOutput, error) {
	var races []*compendium.Race
	err := r.db.WithTx(ctx, func(tx *sqldb.Tx) error {
		rows, err := tx.Query(ctx, selectRacesSQL)
		if err != nil {
			return errors.Wrap(err, "failed to list races")
		}
		for rows.Next() {
			race, err := scanRace(rows)
			if err != nil {
				_ = rows.Close()
				return errors.Wrap(err, "failed to scan race")
			}
			races = append(races, race)
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return errors.Wrap(err, "failed to iterate races")
		}

		for _, race := range races {
			if err := loadChildren(ctx, tx, race); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ListOutput{Races: races}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRace(row scanner) (*compendium.Race, error) {
	var (
		race                 compendium.Race
		base                 sql.NullString
		resistances          string
		conditions           string
		citation             storage.CitationDest
		createdAt, updatedAt int64
	)
	dest := []any{&race.ID, &race.Name, &race.Slug, &base, &race.SizeCode, &race.Speed, &resistances, &conditions}
	dest = append(dest, citation.Targets()...)
	dest = append(dest, &createdAt, &updatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if base.Valid {
		name := base.String
		race.BaseRaceName = &name
	}
	if err := storage.ScanJSON(resistances, &race.Resistances); err != nil {
		return nil, err
	}
	if err := storage.ScanJSON(conditions, &race.Conditions); err != nil {
		return nil, err
	}
	race.Source = citation.Citation()
	race.CreatedAt = storage.FromNanos(createdAt)
	race.UpdatedAt = storage.FromNanos(updatedAt)
	return &race, nil
}

func loadChildren(ctx context.Context, q sqldb.Querier, race *compendium.Race) error {
	err := eachRow(ctx, q, selectModifiersSQL, race.ID, func(rows *sql.Rows) error {
		var m compendium.AbilityModifier
		if err := rows.Scan(&m.Ability, &m.Value); err != nil {
			return err
		}
		race.AbilityModifiers = append(race.AbilityModifiers, m)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to load ability modifiers")
	}

	err = eachRow(ctx, q, selectTraitsSQL, race.ID, func(rows *sql.Rows) error {
		var (
			t          compendium.Trait
			tablesJSON string
		)
		if err := rows.Scan(&t.Name, &t.Category, &t.Description, &tablesJSON); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(tablesJSON), &t.RandomTables); err != nil {
			return err
		}
		race.Traits = append(race.Traits, t)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to load traits")
	}

	err = eachRow(ctx, q, selectProficienciesSQL, race.ID, func(rows *sql.Rows) error {
		var (
			p    compendium.Proficiency
			kind string
		)
		if err := rows.Scan(&p.Name, &kind); err != nil {
			return err
		}
		p.Type = compendium.ProficiencyType(kind)
		race.Proficiencies = append(race.Proficiencies, p)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to load proficiencies")
	}

	err = eachRow(ctx, q, selectLanguagesSQL, race.ID, func(rows *sql.Rows) error {
		var l compendium.Language
		if err := rows.Scan(&l.Name, &l.IsChoice); err != nil {
			return err
		}
		race.Languages = append(race.Languages, l)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to load languages")
	}
	return nil
}

func eachRow(ctx context.Context, q sqldb.Querier, query, id string, fn func(*sql.Rows) error) error {
	rows, err := q.Query(ctx, query, id)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
