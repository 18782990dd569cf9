// Package redis wraps the go-redis client so repositories depend on a small
// interface that miniredis-backed tests can satisfy.
package redis

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/rpg-compendium/internal/errors"
)

// Options configures the Redis connection used by the compendium store.
type Options struct {
	Addr            string
	Password        string
	DB              int
	PoolSize        int
	MinIdleConns    int
	ConnMaxIdleTime time.Duration
	MaxRetries      int
	UseTLS          bool
}

// Validate checks that the options describe a usable endpoint.
func (o *Options) Validate() error {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("addr", o.Addr, vb)
	if o.DB < 0 {
		vb.InvalidField("db", "must not be negative")
	}
	if o.PoolSize < 0 {
		vb.InvalidField("pool_size", "must not be negative")
	}
	return vb.Build()
}

// NewClient creates a Redis client for a single instance. go-redis connects
// lazily so no round trip happens here; call Ping to check reachability.
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		return nil, errors.InvalidArgument("redis: options are required")
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "redis: invalid options")
	}

	redisOpts := &redis.Options{
		Addr:            opts.Addr,
		Password:        opts.Password,
		DB:              opts.DB,
		MinIdleConns:    opts.MinIdleConns,
		PoolSize:        opts.PoolSize,
		ConnMaxIdleTime: opts.ConnMaxIdleTime,
		MaxRetries:      opts.MaxRetries,
	}

	if opts.UseTLS {
		redisOpts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return redis.NewClient(redisOpts), nil
}

// Ping verifies the server answers within the context deadline.
func Ping(ctx context.Context, client Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return errors.WrapWithCode(err, errors.CodeUnavailable, "redis: ping failed")
	}
	return nil
}
