package main

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-toolkit/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/KirkDiggler/rpg-compendium/internal/clients/external"
	"github.com/KirkDiggler/rpg-compendium/internal/config"
	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/importers"
	"github.com/KirkDiggler/rpg-compendium/internal/metrics"
	"github.com/KirkDiggler/rpg-compendium/internal/orchestrators/ingest"
	"github.com/KirkDiggler/rpg-compendium/internal/parsers"
	"github.com/KirkDiggler/rpg-compendium/internal/parsers/extract"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/keylock"
	"github.com/KirkDiggler/rpg-compendium/internal/redis"
	"github.com/KirkDiggler/rpg-compendium/internal/repositories/items"
	"github.com/KirkDiggler/rpg-compendium/internal/repositories/races"
	"github.com/KirkDiggler/rpg-compendium/internal/repositories/spells"
	"github.com/KirkDiggler/rpg-compendium/internal/sqldb"
)

// repositories bundles one backend's repositories and how to release it
type repositories struct {
	spells spells.Repository
	races  races.Repository
	items  items.Repository
	close  func() error
}

// app is everything an import run needs
type app struct {
	ingest   ingest.Service
	registry *prometheus.Registry
	close    func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m, err := metrics.New(registry)
	if err != nil {
		_ = repos.close()
		return nil, err
	}

	shared := &importers.Shared{Metrics: m, Locks: keylock.New()}
	if cfg.Import.PublishEvents {
		bus := events.NewBus()
		importers.LogImports(bus, slog.Default())
		shared.EventBus = bus
	}

	spellImporter, err := importers.NewSpellImporter(&importers.SpellImporterConfig{Repository: repos.spells, Shared: shared})
	if err != nil {
		_ = repos.close()
		return nil, err
	}
	raceImporter, err := importers.NewRaceImporter(&importers.RaceImporterConfig{Repository: repos.races, Shared: shared})
	if err != nil {
		_ = repos.close()
		return nil, err
	}
	itemImporter, err := importers.NewItemImporter(&importers.ItemImporterConfig{Repository: repos.items, Shared: shared})
	if err != nil {
		_ = repos.close()
		return nil, err
	}

	orch, err := ingest.NewOrchestrator(&ingest.Config{
		SpellImporter: spellImporter,
		RaceImporter:  raceImporter,
		ItemImporter:  itemImporter,
		Schemas:       schemaOverrides(cfg.Schema),
		Sources:       extract.NewSourceCatalog(cfg.Sources),
		Proficiencies: loadProficiencies(ctx, cfg.Reference),
		Workers:       cfg.Import.Workers,
	})
	if err != nil {
		_ = repos.close()
		return nil, err
	}

	return &app{ingest: orch, registry: registry, close: repos.close}, nil
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	clk := clock.New()

	switch cfg.Store.Backend {
	case config.BackendRedis:
		client, err := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			PoolSize: cfg.Store.Redis.PoolSize,
			UseTLS:   cfg.Store.Redis.UseTLS,
		})
		if err != nil {
			return nil, err
		}
		if err := redis.Ping(ctx, client); err != nil {
			_ = client.Close()
			return nil, err
		}

		spellRepo, err := spells.NewRedis(&spells.RedisConfig{
			Client:      client,
			Clock:       clk,
			IDGenerator: idgen.ForEntity(compendium.EntityTypeSpell),
			MaxAttempts: cfg.Import.MaxTxRetries,
		})
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		raceRepo, err := races.NewRedis(&races.RedisConfig{
			Client:      client,
			Clock:       clk,
			IDGenerator: idgen.ForEntity(compendium.EntityTypeRace),
			MaxAttempts: cfg.Import.MaxTxRetries,
		})
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		itemRepo, err := items.NewRedis(&items.RedisConfig{
			Client:      client,
			Clock:       clk,
			IDGenerator: idgen.ForEntity(compendium.EntityTypeItem),
			MaxAttempts: cfg.Import.MaxTxRetries,
		})
		if err != nil {
			_ = client.Close()
			return nil, err
		}

		return &repositories{spells: spellRepo, races: raceRepo, items: itemRepo, close: client.Close}, nil

	case config.BackendPostgres, config.BackendSQLite:
		dialect := sqldb.DialectSQLite
		if cfg.Store.Backend == config.BackendPostgres {
			dialect = sqldb.DialectPostgres
		}

		db, err := sqldb.Open(ctx, &sqldb.Config{
			Dialect:      dialect,
			DSN:          cfg.Store.SQL.DSN,
			MaxOpenConns: cfg.Store.SQL.MaxOpenConns,
		})
		if err != nil {
			return nil, err
		}
		if err := sqldb.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}

		spellRepo, err := spells.NewSQL(&spells.SQLConfig{DB: db, Clock: clk, IDGenerator: idgen.ForEntity(compendium.EntityTypeSpell)})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		raceRepo, err := races.NewSQL(&races.SQLConfig{DB: db, Clock: clk, IDGenerator: idgen.ForEntity(compendium.EntityTypeRace)})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		itemRepo, err := items.NewSQL(&items.SQLConfig{DB: db, Clock: clk, IDGenerator: idgen.ForEntity(compendium.EntityTypeItem)})
		if err != nil {
			_ = db.Close()
			return nil, err
		}

		return &repositories{spells: spellRepo, races: raceRepo, items: itemRepo, close: db.Close}, nil
	}

	return nil, errors.InvalidArgumentf("unknown store backend %q", cfg.Store.Backend)
}

// loadProficiencies returns the API-extended catalog in api mode. An
// unreachable API falls back to the built-in lists.
func loadProficiencies(ctx context.Context, ref config.ReferenceConfig) *extract.ProficiencyCatalog {
	if ref.Mode != config.ReferenceAPI {
		return nil
	}

	client, err := external.New(&external.Config{
		BaseURL:     ref.BaseURL,
		HTTPTimeout: ref.Timeout,
		CacheTTL:    ref.CacheTTL,
	})
	if err == nil {
		var catalog *extract.ProficiencyCatalog
		if catalog, err = client.LoadProficiencies(ctx); err == nil {
			return catalog
		}
	}

	slog.WarnContext(ctx, "using built-in proficiency lists",
		"base_url", ref.BaseURL,
		"error", err)
	return nil
}

// schemaOverrides converts config tag overrides into parser schemas
func schemaOverrides(in map[string]map[string]string) map[string]parsers.Schema {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]parsers.Schema, len(in))
	for kind, fields := range in {
		schema := make(parsers.Schema, len(fields))
		for field, tag := range fields {
			schema[parsers.Field(field)] = tag
		}
		out[kind] = schema
	}
	return out
}
