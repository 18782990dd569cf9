package races

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
	raceKeyPrefix     = "race:"
	raceNameKeyPrefix = "race:name:"
	raceSlugKeyPrefix = "race:slug:"
	raceIndexKey      = "race:index"

	modifiersSuffix     = ":modifiers"
	traitsSuffix        = ":traits"
	proficienciesSuffix = ":proficiencies"
	languagesSuffix     = ":languages"

	// Error messages
	errRaceNil = "race cannot be nil"
)

type redisRepository struct {
	client      redisclient.Client
	clock       clock.Clock
	idGen       idgen.Generator
	maxAttempts int
}

// RedisConfig contains configuration for the Redis race repository.
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

// NewRedis creates a new Redis-backed race repository
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
		gen = idgen.ForEntity(compendium.EntityTypeRace)
	}

	return &redisRepository{
		client:      cfg.Client,
		clock:       c,
		idGen:       gen,
		maxAttempts: cfg.MaxAttempts,
	}, nil
}

func (r *redisRepository) Upsert(ctx context.Context, input UpsertInput) (*UpsertOutput, error) {
	if input.Race == nil {
		return nil, errors.InvalidArgument(errRaceNil)
	}
	if input.Race.Name == "" {
		return nil, errors.RequiredFieldMissing("name")
	}

	nameKey := raceNameKeyPrefix + input.Race.Name
	var output *UpsertOutput

	err := storage.WatchRetry(ctx, r.client, r.maxAttempts, func(tx *redis.Tx) error {
		race := &compendium.Race{ParsedRace: *input.Race}

		id, createdAt, err := r.current(ctx, tx, nameKey)
		if err != nil {
			return err
		}
		created := id == ""
		if created {
			id = r.idGen.Generate()
		}
		race.ID = id
		race.CreatedAt, race.UpdatedAt = storage.Stamps(createdAt, r.clock.Now())

		doc := *race
		doc.AbilityModifiers, doc.Traits, doc.Proficiencies, doc.Languages = nil, nil, nil, nil
		data, err := json.Marshal(&doc)
		if err != nil {
			return errors.Wrap(err, "failed to marshal race document")
		}

		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, raceKeyPrefix+race.ID, data, 0)
			pipe.Set(ctx, nameKey, race.ID, 0)
			pipe.Set(ctx, raceSlugKeyPrefix+race.Slug, race.ID, 0)
			pipe.SAdd(ctx, raceIndexKey, race.ID)
			if err := storage.ReplaceList(ctx, pipe, childKey(race.ID, modifiersSuffix), race.AbilityModifiers); err != nil {
				return err
			}
			if err := storage.ReplaceList(ctx, pipe, childKey(race.ID, traitsSuffix), race.Traits); err != nil {
				return err
			}
			if err := storage.ReplaceList(ctx, pipe, childKey(race.ID, proficienciesSuffix), race.Proficiencies); err != nil {
				return err
			}
			return storage.ReplaceList(ctx, pipe, childKey(race.ID, languagesSuffix), race.Languages)
		}); err != nil {
			return err
		}

		output = &UpsertOutput{Race: race, Created: created}
		return nil
	}, nameKey)
	if err != nil {
		if errors.IsAborted(err) {
			return nil, err
		}
		slog.ErrorContext(ctx, "failed to upsert race",
			"name", input.Race.Name,
			"error", err)
		return nil, errors.Wrapf(err, "failed to upsert race %s", input.Race.Name)
	}

	slog.DebugContext(ctx, "upserted race",
		"id", output.Race.ID,
		"name", output.Race.Name,
		"created", output.Created,
		"traits", len(output.Race.Traits))

	return output, nil
}

// current returns the stored id and created_at for nameKey, or an empty id
// when the name is new.
func (r *redisRepository) current(ctx context.Context, tx *redis.Tx, nameKey string) (string, time.Time, error) {
	id, err := tx.Get(ctx, nameKey).Result()
	if err == redis.Nil {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to read race name index")
	}

	raw, err := tx.Get(ctx, raceKeyPrefix+id).Result()
	if err == redis.Nil {
		return id, time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to read race document")
	}

	var stored compendium.Race
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to unmarshal race document")
	}
	return id, stored.CreatedAt, nil
}

func (r *redisRepository) GetByName(ctx context.Context, input GetByNameInput) (*GetByNameOutput, error) {
	if input.Name == "" {
		return nil, errors.RequiredFieldMissing("name")
	}

	id, err := r.client.Get(ctx, raceNameKeyPrefix+input.Name).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("race %q not found", input.Name)
		}
		return nil, errors.Wrapf(err, "failed to get race %q", input.Name)
	}

	race, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &GetByNameOutput{Race: race}, nil
}

func (r *redisRepository) List(ctx context.Context, _ ListInput) (*ListOutput, error) {
	ids, err := r.client.SMembers(ctx, raceIndexKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list race ids")
	}

	races := make([]*compendium.Race, 0, len(ids))
	for _, id := range ids {
		race, err := r.load(ctx, id)
		if err != nil {
			if errors.IsNotFound(err) {
				slog.WarnContext(ctx, "race in index has no document", "id", id)
				continue
			}
			return nil, err
		}
		races = append(races, race)
	}
	sort.Slice(races, func(i, j int) bool { return races[i].Name < races[j].Name })

	return &ListOutput{Races: races}, nil
}

func (r *redisRepository) load(ctx context.Context, id string) (*compendium.Race, error) {
	var (
		docCmd                            *redis.StringCmd
		modifiersCmd, traitsCmd, profsCmd *redis.StringSliceCmd
		languagesCmd                      *redis.StringSliceCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		docCmd = pipe.Get(ctx, raceKeyPrefix+id)
		modifiersCmd = pipe.LRange(ctx, childKey(id, modifiersSuffix), 0, -1)
		traitsCmd = pipe.LRange(ctx, childKey(id, traitsSuffix), 0, -1)
		profsCmd = pipe.LRange(ctx, childKey(id, proficienciesSuffix), 0, -1)
		languagesCmd = pipe.LRange(ctx, childKey(id, languagesSuffix), 0, -1)
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, errors.Wrapf(err, "failed to load race %s", id)
	}

	raw, err := docCmd.Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("race %s not found", id)
		}
		return nil, errors.Wrapf(err, "failed to load race %s", id)
	}

	var race compendium.Race
	if err := json.Unmarshal([]byte(raw), &race); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal race document")
	}
	if race.AbilityModifiers, err = storage.DecodeList[compendium.AbilityModifier](modifiersCmd.Val()); err != nil {
		return nil, err
	}
	if race.Traits, err = storage.DecodeList[compendium.Trait](traitsCmd.Val()); err != nil {
		return nil, err
	}
	if race.Proficiencies, err = storage.DecodeList[compendium.Proficiency](profsCmd.Val()); err != nil {
		return nil, err
	}
	if race.Languages, err = storage.DecodeList[compendium.Language](languagesCmd.Val()); err != nil {
		return nil, err
	}
	return &race, nil
}

func childKey(id, suffix string) string { return raceKeyPrefix + id + suffix }
