package spells

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/idgen"
	redisclient "github.com/KirkDiggler/rpg-compendium/internal/redis"
	"github.com/KirkDiggler/rpg-compendium/internal/repositories/storage"
)

const (
	spellKeyPrefix     = "spell:"
	spellNameKeyPrefix = "spell:name:"
	spellSlugKeyPrefix = "spell:slug:"
	spellIndexKey      = "spell:index"
	classesSuffix      = ":classes"
	tagsSuffix         = ":tags"
	tablesSuffix       = ":tables"

	// Error messages
	errSpellNil = "spell cannot be nil"
)

type redisRepository struct {
	client      redisclient.Client
	clock       clock.Clock
	idGen       idgen.Generator
	maxAttempts int
}

// RedisConfig contains configuration for the Redis spell repository.
type RedisConfig struct {
	Client      redisclient.Client
	Clock       clock.Clock
	IDGenerator idgen.Generator
	// MaxAttempts bounds optimistic retries; zero means storage.DefaultMaxAttempts
	MaxAttempts int
}

// Validate validates the RedisConfig.
func (cfg *RedisConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.Client == nil {
		return errors.InvalidArgument("client cannot be nil")
	}
	return nil
}

// NewRedis creates a new Redis-backed spell repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
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

	return &redisRepository{
		client:      cfg.Client,
		clock:       c,
		idGen:       gen,
		maxAttempts: cfg.MaxAttempts,
	}, nil
}

func (r *redisRepository) Upsert(ctx context.Context, input UpsertInput) (*UpsertOutput, error) {
	if input.Spell == nil {
		return nil, errors.InvalidArgument(errSpellNil)
	}
	if input.Spell.Name == "" {
		return nil, errors.RequiredFieldMissing("name")
	}

	nameKey := spellNameKeyPrefix + input.Spell.Name
	var output *UpsertOutput

	err := storage.WatchRetry(ctx, r.client, r.maxAttempts, func(tx *redis.Tx) error {
		spell := &compendium.Spell{ParsedSpell: *input.Spell}
		created := false

		existing, err := r.current(ctx, tx, nameKey)
		if err != nil {
			return err
		}
		var createdAt time.Time
		if existing == nil {
			created = true
			spell.ID = r.idGen.Generate()
		} else {
			spell.ID = existing.ID
			createdAt = existing.CreatedAt
		}
		spell.CreatedAt, spell.UpdatedAt = storage.Stamps(createdAt, r.clock.Now())

		doc, err := scalarDoc(spell)
		if err != nil {
			return err
		}

		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, spellKeyPrefix+spell.ID, doc, 0)
			pipe.Set(ctx, nameKey, spell.ID, 0)
			pipe.Set(ctx, spellSlugKeyPrefix+spell.Slug, spell.ID, 0)
			pipe.SAdd(ctx, spellIndexKey, spell.ID)
			if err := storage.ReplaceList(ctx, pipe, classesKey(spell.ID), spell.Classes); err != nil {
				return err
			}
			if err := storage.ReplaceList(ctx, pipe, tagsKey(spell.ID), spell.Tags); err != nil {
				return err
			}
			return storage.ReplaceList(ctx, pipe, tablesKey(spell.ID), spell.RandomTables)
		}); err != nil {
			return err
		}

		output = &UpsertOutput{Spell: spell, Created: created}
		return nil
	}, nameKey)
	if err != nil {
		if errors.IsAborted(err) || errors.IsInvalidArgument(err) {
			return nil, err
		}
		slog.ErrorContext(ctx, "failed to upsert spell",
			"name", input.Spell.Name,
			"error", err)
		return nil, errors.Wrapf(err, "failed to upsert spell %s", input.Spell.Name)
	}

	slog.DebugContext(ctx, "upserted spell",
		"id", output.Spell.ID,
		"name", output.Spell.Name,
		"created", output.Created,
		"classes", len(output.Spell.Classes),
		"tables", len(output.Spell.RandomTables))

	return output, nil
}

// current reads the stored scalar document for nameKey inside the watch,
// or nil when the name is new.
func (r *redisRepository) current(ctx context.Context, tx *redis.Tx, nameKey string) (*compendium.Spell, error) {
	id, err := tx.Get(ctx, nameKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read spell name index")
	}

	raw, err := tx.Get(ctx, spellKeyPrefix+id).Result()
	if err == redis.Nil {
		// Index without a document; keep the id and start fresh timestamps.
		return &compendium.Spell{ID: id}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read spell document")
	}

	var spell compendium.Spell
	if err := json.Unmarshal([]byte(raw), &spell); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal spell document")
	}
	return &spell, nil
}

func (r *redisRepository) GetByName(ctx context.Context, input GetByNameInput) (*GetByNameOutput, error) {
	if input.Name == "" {
		return nil, errors.RequiredFieldMissing("name")
	}

	id, err := r.client.Get(ctx, spellNameKeyPrefix+input.Name).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("spell %q not found", input.Name)
		}
		return nil, errors.Wrapf(err, "failed to get spell %q", input.Name)
	}

	spell, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &GetByNameOutput{Spell: spell}, nil
}

func (r *redisRepository) List(ctx context.Context, _ ListInput) (*ListOutput, error) {
	ids, err := r.client.SMembers(ctx, spellIndexKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list spell ids")
	}

	spells := make([]*compendium.Spell, 0, len(ids))
	for _, id := range ids {
		spell, err := r.load(ctx, id)
		if err != nil {
			if errors.IsNotFound(err) {
				slog.WarnContext(ctx, "spell in index has no document", "id", id)
				continue
			}
			return nil, err
		}
		spells = append(spells, spell)
	}
	sort.Slice(spells, func(i, j int) bool { return spells[i].Name < spells[j].Name })

	return &ListOutput{Spells: spells}, nil
}

// load reads the document and its child lists in one MULTI so a concurrent
// upsert is seen entirely or not at all.
func (r *redisRepository) load(ctx context.Context, id string) (*compendium.Spell, error) {
	var (
		docCmd     *redis.StringCmd
		classesCmd *redis.StringSliceCmd
		tagsCmd    *redis.StringSliceCmd
		tablesCmd  *redis.StringSliceCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		docCmd = pipe.Get(ctx, spellKeyPrefix+id)
		classesCmd = pipe.LRange(ctx, classesKey(id), 0, -1)
		tagsCmd = pipe.LRange(ctx, tagsKey(id), 0, -1)
		tablesCmd = pipe.LRange(ctx, tablesKey(id), 0, -1)
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, errors.Wrapf(err, "failed to load spell %s", id)
	}

	raw, err := docCmd.Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("spell %s not found", id)
		}
		return nil, errors.Wrapf(err, "failed to load spell %s", id)
	}

	var spell compendium.Spell
	if err := json.Unmarshal([]byte(raw), &spell); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal spell document")
	}
	if spell.Classes, err = storage.DecodeList[compendium.ClassAssociation](classesCmd.Val()); err != nil {
		return nil, err
	}
	if spell.Tags, err = storage.DecodeList[string](tagsCmd.Val()); err != nil {
		return nil, err
	}
	if spell.RandomTables, err = storage.DecodeList[compendium.ParsedTable](tablesCmd.Val()); err != nil {
		return nil, err
	}
	return &spell, nil
}

// scalarDoc serializes the spell without its child collections
func scalarDoc(spell *compendium.Spell) ([]byte, error) {
	doc := *spell
	doc.Classes = nil
	doc.Tags = nil
	doc.RandomTables = nil
	data, err := json.Marshal(&doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal spell document")
	}
	return data, nil
}

func classesKey(id string) string { return spellKeyPrefix + id + classesSuffix }

func tablesKey(id string) string { return spellKeyPrefix + id + tablesSuffix }

func tagsKey(id string) string { return spellKeyPrefix + id + tagsSuffix }
