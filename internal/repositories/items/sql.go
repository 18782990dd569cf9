package items

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

const itemColumns = `id, slug, name, type_code, weight, value_gp, damage_dice,
	damage_dice_versatile, damage_type_code, rarity, item_range, requires_attunement,
	is_magic, armor_class, strength_requirement, stealth_disadvantage, charges_max,
	recharge_formula, recharge_timing, description, source_title, source_code, source_page, source_status,
	created_at, updated_at`

const (
	upsertItemSQL = `INSERT INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			name = excluded.name,
			type_code = excluded.type_code,
			weight = excluded.weight,
			value_gp = excluded.value_gp,
			damage_dice = excluded.damage_dice,
			damage_dice_versatile = excluded.damage_dice_versatile,
			damage_type_code = excluded.damage_type_code,
			rarity = excluded.rarity,
			item_range = excluded.item_range,
			requires_attunement = excluded.requires_attunement,
			is_magic = excluded.is_magic,
			armor_class = excluded.armor_class,
			strength_requirement = excluded.strength_requirement,
			stealth_disadvantage = excluded.stealth_disadvantage,
			charges_max = excluded.charges_max,
			recharge_formula = excluded.recharge_formula,
			recharge_timing = excluded.recharge_timing,
			description = excluded.description,
			source_title = excluded.source_title,
			source_code = excluded.source_code,
			source_page = excluded.source_page,
			source_status = excluded.source_status,
			updated_at = excluded.updated_at
		RETURNING id, created_at`

	deletePropertiesSQL = `DELETE FROM item_properties WHERE item_id = ?`
	insertPropertySQL   = `INSERT INTO item_properties (item_id, position, code) VALUES (?, ?, ?)`

	selectItemBySlugSQL = `SELECT ` + itemColumns + ` FROM items WHERE slug = ?`
	selectItemsSQL      = `SELECT ` + itemColumns + ` FROM items ORDER BY slug`
	selectPropertiesSQL = `SELECT code FROM item_properties WHERE item_id = ? ORDER BY position`
)

type sqlRepository struct {
	db    *sqldb.DB
	clock clock.Clock
	idGen idgen.Generator
}

// SQLConfig contains configuration for the SQL item repository.
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

// NewSQL creates a new SQL-backed item repository
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
		gen = idgen.ForEntity(compendium.EntityTypeItem)
	}

	return &sqlRepository{db: cfg.DB, clock: c, idGen: gen}, nil
}

func (r *sqlRepository) Upsert(ctx context.Context, input UpsertInput) (*UpsertOutput, error) {
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	now := r.clock.Now()
	item := &compendium.Item{
		ID:         r.idGen.Generate(),
		ParsedItem: *input.Item,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	newID := item.ID

	err := r.db.WithTx(ctx, func(tx *sqldb.Tx) error {
		var createdAt int64
		args := []any{
			item.ID, item.Slug, item.Name, item.TypeCode, item.Weight, item.ValueGP, item.DamageDice,
			item.DamageDiceVersatile, item.DamageTypeCode, item.Rarity, item.Range, item.RequiresAttunement,
			item.IsMagic, item.ArmorClass, item.StrengthRequirement, item.StealthDisadvantage,
			item.ChargesMax, item.RechargeFormula, item.RechargeTiming, item.Description,
		}
		args = append(args, storage.CitationArgs(item.Source)...)
		args = append(args, storage.Nanos(item.CreatedAt), storage.Nanos(item.UpdatedAt))

		if err := tx.QueryRow(ctx, upsertItemSQL, args...).Scan(&item.ID, &createdAt); err != nil {
			return errors.Wrap(err, "failed to upsert item row")
		}
		item.CreatedAt = storage.FromNanos(createdAt)

		if _, err := tx.Exec(ctx, deletePropertiesSQL, item.ID); err != nil {
			return errors.Wrap(err, "failed to delete item properties")
		}
		for i, code := range item.Properties {
			if _, err := tx.Exec(ctx, insertPropertySQL, item.ID, i, code); err != nil {
				return errors.Wrapf(err, "failed to insert item property %s", code)
			}
		}
		return storage.ReplaceTables(ctx, tx, storage.OwnerItem, item.ID, item.RandomTables)
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to upsert item",
			"slug", input.Item.Slug,
			"error", err)
		return nil, errors.Wrapf(err, "failed to upsert item %s", input.Item.Slug)
	}

	created := item.ID == newID
	slog.DebugContext(ctx, "upserted item",
		"id", item.ID,
		"slug", item.Slug,
		"created", created)

	return &UpsertOutput{Item: item, Created: created}, nil
}

func (r *sqlRepository) GetBySlug(ctx context.Context, input GetBySlugInput) (*GetBySlugOutput, error) {
	if input.Slug == "" {
		return nil, errors.RequiredFieldMissing("slug")
	}

	var item *compendium.Item
	err := r.db.WithTx(ctx, func(tx *sqldb.Tx) error {
		var err error
		item, err = scanItem(tx.QueryRow(ctx, selectItemBySlugSQL, input.Slug))
		if err != nil {
			if err == sql.ErrNoRows {
				return errors.NotFoundf("item %q not found", input.Slug)
			}
			return errors.Wrapf(err, "failed to get item %q", input.Slug)
		}
		return loadChildren(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}
	return &GetBySlugOutput{Item: item}, nil
}

func (r *sqlRepository) List(ctx context.Context, _ ListInput) (*ListOutput, error) {
	var items []*compendium.Item
	err := r.db.WithTx(ctx, func(tx *sqldb.Tx) error {
		rows, err := tx.Query(ctx, selectItemsSQL)
		if err != nil {
			return errors.Wrap(err, "failed to list items")
		}
		for rows.Next() {
			item, err := scanItem(rows)
			if err != nil {
				_ = rows.Close()
				return errors.Wrap(err, "failed to scan item")
			}
			items = append(items, item)
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return errors.Wrap(err, "failed to iterate items")
		}

		for _, item := range items {
			if err := loadChildren(ctx, tx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ListOutput{Items: items}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*compendium.Item, error) {
	var (
		item                                     compendium.Item
		weight, value                            sql.NullFloat64
		dice, versatile, damageType, rarity, rng sql.NullString
		ac, strength                             sql.NullInt64
		maxCharges, recharge, timing             sql.NullString
		citation                                 storage.CitationDest
		createdAt, updatedAt                     int64
	)
	dest := []any{
		&item.ID, &item.Slug, &item.Name, &item.TypeCode, &weight, &value, &dice,
		&versatile, &damageType, &rarity, &rng, &item.RequiresAttunement,
		&item.IsMagic, &ac, &strength, &item.StealthDisadvantage,
		&maxCharges, &recharge, &timing, &item.Description,
	}
	dest = append(dest, citation.Targets()...)
	dest = append(dest, &createdAt, &updatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	item.Weight = nullFloat(weight)
	item.ValueGP = nullFloat(value)
	item.DamageDice = nullString(dice)
	item.DamageDiceVersatile = nullString(versatile)
	item.DamageTypeCode = nullString(damageType)
	item.Rarity = nullString(rarity)
	item.Range = nullString(rng)
	item.ArmorClass = nullInt(ac)
	item.StrengthRequirement = nullInt(strength)
	item.ChargesMax = nullString(maxCharges)
	item.RechargeFormula = nullString(recharge)
	item.RechargeTiming = nullString(timing)
	item.Source = citation.Citation()
	item.CreatedAt = storage.FromNanos(createdAt)
	item.UpdatedAt = storage.FromNanos(updatedAt)
	return &item, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func loadChildren(ctx context.Context, q sqldb.Querier, item *compendium.Item) error {
	rows, err := q.Query(ctx, selectPropertiesSQL, item.ID)
	if err != nil {
		return errors.Wrap(err, "failed to query item properties")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return errors.Wrap(err, "failed to scan item property")
		}
		item.Properties = append(item.Properties, code)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "failed to iterate item properties")
	}
	_ = rows.Close()

	item.RandomTables, err = storage.LoadTables(ctx, q, storage.OwnerItem, item.ID)
	return err
}
