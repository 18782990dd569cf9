// Package storage holds the pieces the spell, race and item repositories
// share: the optimistic Redis transaction loop, JSON child lists and the
// SQL random table rows.
package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	redisclient "github.com/KirkDiggler/rpg-compendium/internal/redis"
)

// DefaultMaxAttempts bounds optimistic retries when a caller passes zero
const DefaultMaxAttempts = 5

// WatchRetry runs fn under WATCH on keys. When EXEC reports that a watched
// key changed, fn is run again from scratch, up to maxAttempts times; after
// that the conflict surfaces as Aborted.
func WatchRetry(
	ctx context.Context,
	client redisclient.Client,
	maxAttempts int,
	fn func(tx *redis.Tx) error,
	keys ...string,
) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := client.Watch(ctx, fn, keys...)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redisclient.TxFailedErr) {
			return err
		}
		slog.DebugContext(ctx, "watched key changed, retrying",
			"keys", keys,
			"attempt", attempt)
	}

	return errors.Abortedf("transaction on %v conflicted %d times", keys, maxAttempts)
}

// ReplaceList queues a DEL of key followed by an RPUSH of every value as
// JSON, preserving order. Inside a MULTI both land together.
func ReplaceList[T any](ctx context.Context, pipe redis.Pipeliner, key string, values []T) error {
	pipe.Del(ctx, key)
	if len(values) == 0 {
		return nil
	}

	encoded := make([]interface{}, len(values))
	for i, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal %s entry %d", key, i)
		}
		encoded[i] = string(data)
	}
	pipe.RPush(ctx, key, encoded...)
	return nil
}

// DecodeList unmarshals the JSON entries of an LRANGE result
func DecodeList[T any](raw []string) ([]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]T, len(raw))
	for i, entry := range raw {
		if err := json.Unmarshal([]byte(entry), &out[i]); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal list entry %d", i)
		}
	}
	return out, nil
}

// Stamps returns created/updated times for an upsert. existing is the
// stored created_at, zero when the entity is new.
func Stamps(existing, now time.Time) (createdAt, updatedAt time.Time) {
	if existing.IsZero() {
		return now, now
	}
	return existing, now
}
