// Package config loads compendium settings: defaults, then an optional YAML
// file, then COMPENDIUM_* environment variables. Command flags are applied
// last by the CLI.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/rpg-compendium/internal/errors"
)

// Store backends
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Reference catalog modes
const (
	ReferenceStatic = "static"
	ReferenceAPI    = "api"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "COMPENDIUM_"

// Config represents the complete compendium configuration
type Config struct {
	Store     StoreConfig                  `yaml:"store"`
	Import    ImportConfig                 `yaml:"import"`
	Logging   LoggingConfig                `yaml:"logging"`
	Sources   map[string]string            `yaml:"sources"`
	Schema    map[string]map[string]string `yaml:"schema"`
	Reference ReferenceConfig              `yaml:"reference"`
	Metrics   MetricsConfig                `yaml:"metrics"`
	Watch     WatchConfig                  `yaml:"watch"`
}

// StoreConfig selects and configures the persistence backend
type StoreConfig struct {
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
	SQL     SQLConfig   `yaml:"sql"`
}

// RedisConfig configures the Redis backend
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	UseTLS   bool   `yaml:"tls"`
}

// SQLConfig configures the postgres and sqlite backends
type SQLConfig struct {
	// DSN is a postgres URL or a sqlite file path
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// ImportConfig tunes batch imports
type ImportConfig struct {
	Workers int `yaml:"workers"`
	// MaxTxRetries bounds optimistic Redis retries per entity
	MaxTxRetries int `yaml:"max_tx_retries"`
	// PublishEvents toggles rpg-toolkit import events
	PublishEvents bool `yaml:"publish_events"`
}

// LoggingConfig configures the slog handler
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ReferenceConfig selects where proficiency reference lists come from
type ReferenceConfig struct {
	Mode     string        `yaml:"mode"`
	BaseURL  string        `yaml:"base_url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Timeout  time.Duration `yaml:"timeout"`
}

// MetricsConfig configures the Prometheus endpoint; empty Addr disables it
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// WatchConfig configures import --watch
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendSQLite,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
			},
			SQL: SQLConfig{
				DSN: "compendium.db",
			},
		},
		Import: ImportConfig{
			Workers:       4,
			MaxTxRetries:  5,
			PublishEvents: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Reference: ReferenceConfig{
			Mode:     ReferenceStatic,
			BaseURL:  "https://www.dnd5eapi.co/api/2014/",
			CacheTTL: 24 * time.Hour,
			Timeout:  10 * time.Second,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	errors.ValidateEnum("store.backend", c.Store.Backend,
		[]string{BackendRedis, BackendPostgres, BackendSQLite}, vb)
	switch c.Store.Backend {
	case BackendRedis:
		errors.ValidateRequired("store.redis.addr", c.Store.Redis.Addr, vb)
	case BackendPostgres, BackendSQLite:
		errors.ValidateRequired("store.sql.dsn", c.Store.SQL.DSN, vb)
	}

	errors.ValidateRange("import.workers", c.Import.Workers, 1, 256, vb)
	errors.ValidateRange("import.max_tx_retries", c.Import.MaxTxRetries, 1, 100, vb)
	errors.ValidateEnum("logging.level", c.Logging.Level, []string{"debug", "info", "warn", "error"}, vb)
	errors.ValidateEnum("logging.format", c.Logging.Format, []string{"text", "json"}, vb)
	errors.ValidateEnum("reference.mode", c.Reference.Mode, []string{ReferenceStatic, ReferenceAPI}, vb)
	if c.Reference.Mode == ReferenceAPI {
		errors.ValidateRequired("reference.base_url", c.Reference.BaseURL, vb)
	}
	for kind := range c.Schema {
		errors.ValidateEnum("schema", kind, []string{"spell", "race", "item"}, vb)
	}
	if c.Watch.Debounce <= 0 {
		vb.InvalidField("watch.debounce", "must be positive")
	}

	return vb.Build()
}

// Load reads defaults, then the YAML file at path when path is not empty,
// then environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapWithCodef(err, errors.CodeInvalidArgument, "failed to read config file %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapWithCodef(err, errors.CodeInvalidArgument, "failed to parse config file %s", path)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv applies COMPENDIUM_* overrides read through lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"STORE_BACKEND":      &c.Store.Backend,
		"REDIS_ADDR":         &c.Store.Redis.Addr,
		"REDIS_PASSWORD":     &c.Store.Redis.Password,
		"SQL_DSN":            &c.Store.SQL.DSN,
		"LOG_LEVEL":          &c.Logging.Level,
		"LOG_FORMAT":         &c.Logging.Format,
		"REFERENCE_MODE":     &c.Reference.Mode,
		"REFERENCE_BASE_URL": &c.Reference.BaseURL,
		"METRICS_ADDR":       &c.Metrics.Addr,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"REDIS_DB":       &c.Store.Redis.DB,
		"WORKERS":        &c.Import.Workers,
		"MAX_TX_RETRIES": &c.Import.MaxTxRetries,
	}
	for name, dst := range ints {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.InvalidArgumentf("%s%s must be an integer, got %q", EnvPrefix, name, v)
		}
		*dst = n
	}

	if v, ok := lookup(EnvPrefix + "WATCH_DEBOUNCE"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.InvalidArgumentf("%sWATCH_DEBOUNCE must be a duration, got %q", EnvPrefix, v)
		}
		c.Watch.Debounce = d
	}
	return nil
}
