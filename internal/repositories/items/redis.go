package items

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
	itemKeyPrefix     = "item:"
	itemSlugKeyPrefix = "item:slug:"
	itemIndexKey      = "item:index"

	propertiesSuffix = ":properties"
	tablesSuffix     = ":tables"

	// Error messages
	errItemNil = "item cannot be nil"
)

type redisRepository struct {
	client      redisclient.Client
	clock       clock.Clock
	idGen       idgen.Generator
	maxAttempts int
}

// RedisConfig contains configuration for the Redis item repository.
type RedisConfig struct {
	Client      redisclient.Client
	Clock       clock.Clock
	IDGenerator idgen.Generator
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

// NewRedis creates a new Redis-backed item repository
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
		gen = idgen.ForEntity(compendium.EntityTypeItem)
	}

	return &redisRepository{
		client:      cfg.Client,
		clock:       c,
		idGen:       gen,
		maxAttempts: cfg.MaxAttempts,
	}, nil
}

func validateUpsert(input UpsertInput) error {
	if input.Item == nil {
		return errors.InvalidArgument(errItemNil)
	}
	if input.Item.Name == "" {
		return errors.RequiredFieldMissing("name")
	}
	if input.Item.Slug == "" {
		return errors.RequiredFieldMissing("slug")
	}
	return nil
}

func (r *redisRepository) Upsert(ctx context.Context, input UpsertInput) (*UpsertOutput, error) {
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	slugKey := itemSlugKeyPrefix + input.Item.Slug
	var output *UpsertOutput

	err := storage.WatchRetry(ctx, r.client, r.maxAttempts, func(tx *redis.Tx) error {
		item := &compendium.Item{ParsedItem: *input.Item}

		id, createdAt, err := r.current(ctx, tx, slugKey)
		if err != nil {
			return err
		}
		created := id == ""
		if created {
			id = r.idGen.Generate()
		}
		item.ID = id
		item.CreatedAt, item.UpdatedAt = storage.Stamps(createdAt, r.clock.Now())

		doc := *item
		doc.Properties, doc.RandomTables = nil, nil
		data, err := json.Marshal(&doc)
		if err != nil {
			return errors.Wrap(err, "failed to marshal item document")
		}

		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, itemKeyPrefix+item.ID, data, 0)
			pipe.Set(ctx, slugKey, item.ID, 0)
			pipe.SAdd(ctx, itemIndexKey, item.ID)
			if err := storage.ReplaceList(ctx, pipe, childKey(item.ID, propertiesSuffix), item.Properties); err != nil {
				return err
			}
			return storage.ReplaceList(ctx, pipe, childKey(item.ID, tablesSuffix), item.RandomTables)
		}); err != nil {
			return err
		}

		output = &UpsertOutput{Item: item, Created: created}
		return nil
	}, slugKey)
	if err != nil {
		if errors.IsAborted(err) {
			return nil, err
		}
		slog.ErrorContext(ctx, "failed to upsert item",
			"slug", input.Item.Slug,
			"error", err)
		return nil, errors.Wrapf(err, "failed to upsert item %s", input.Item.Slug)
	}

	slog.DebugContext(ctx, "upserted item",
		"id", output.Item.ID,
		"slug", output.Item.Slug,
		"created", output.Created)

	return output, nil
}

func (r *redisRepository) current(ctx context.Context, tx *redis.Tx, slugKey string) (string, time.Time, error) {
	id, err := tx.Get(ctx, slugKey).Result()
	if err == redis.Nil {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to read item slug index")
	}

	raw, err := tx.Get(ctx, itemKeyPrefix+id).Result()
	if err == redis.Nil {
		return id, time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to read item document")
	}

	var stored compendium.Item
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to unmarshal item document")
	}
	return id, stored.CreatedAt, nil
}

func (r *redisRepository) GetBySlug(ctx context.Context, input GetBySlugInput) (*GetBySlugOutput, error) {
	if input.Slug == "" {
		return nil, errors.RequiredFieldMissing("slug")
	}

	id, err := r.client.Get(ctx, itemSlugKeyPrefix+input.Slug).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("item %q not found", input.Slug)
		}
		return nil, errors.Wrapf(err, "failed to get item %q", input.Slug)
	}

	item, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &GetBySlugOutput{Item: item}, nil
}

func (r *redisRepository) List(ctx context.Context, _ ListInput) (*ListOutput, error) {
	ids, err := r.client.SMembers(ctx, itemIndexKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list item ids")
	}

	items := make([]*compendium.Item, 0, len(ids))
	for _, id := range ids {
		item, err := r.load(ctx, id)
		if err != nil {
			if errors.IsNotFound(err) {
				slog.WarnContext(ctx, "item in index has no document", "id", id)
				continue
			}
			return nil, err
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Slug < items[j].Slug })

	return &ListOutput{Items: items}, nil
}

func (r *redisRepository) load(ctx context.Context, id string) (*compendium.Item, error) {
	var (
		docCmd              *redis.StringCmd
		propsCmd, tablesCmd *redis.StringSliceCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		docCmd = pipe.Get(ctx, itemKeyPrefix+id)
		propsCmd = pipe.LRange(ctx, childKey(id, propertiesSuffix), 0, -1)
		tablesCmd = pipe.LRange(ctx, childKey(id, tablesSuffix), 0, -1)
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, errors.Wrapf(err, "failed to load item %s", id)
	}

	raw, err := docCmd.Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("item %s not found", id)
		}
		return nil, errors.Wrapf(err, "failed to load item %s", id)
	}

	var item compendium.Item
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal item document")
	}
	if item.Properties, err = storage.DecodeList[string](propsCmd.Val()); err != nil {
		return nil, err
	}
	if item.RandomTables, err = storage.DecodeList[compendium.ParsedTable](tablesCmd.Val()); err != nil {
		return nil, err
	}
	return &item, nil
}

func childKey(id, suffix string) string { return itemKeyPrefix + id + suffix }
