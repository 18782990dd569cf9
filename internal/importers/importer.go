// Package importers persist parsed records. Each importer resolves the
// record's natural key, creates or fully replaces the stored entity in one
// atomic unit and reports whether it was created.
package importers

import (
	"context"
	"log/slog"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/core"
	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/metrics"
	"github.com/KirkDiggler/rpg-compendium/internal/pkg/keylock"
)

// Event types published after a successful import
const (
	EventSpellImported = "compendium.spell.imported"
	EventRaceImported  = "compendium.race.imported"
	EventItemImported  = "compendium.item.imported"
)

// Shared holds the optional collaborators every importer uses. One Shared
// should back all importers of a process so same-key imports serialize.
type Shared struct {
	// EventBus receives an import event per stored entity; nil disables events
	EventBus events.EventBus
	// Metrics records outcomes; nil disables metrics
	Metrics *metrics.Metrics
	// Locks serializes same-key imports in process; nil uses a private set
	Locks *keylock.Locks
}

func (s *Shared) locks() *keylock.Locks {
	if s == nil || s.Locks == nil {
		return keylock.New()
	}
	return s.Locks
}

func (s *Shared) bus() events.EventBus {
	if s == nil {
		return nil
	}
	return s.EventBus
}

func (s *Shared) metrics() *metrics.Metrics {
	if s == nil {
		return nil
	}
	return s.Metrics
}

// stored is what an upsert hands back to run
type stored struct {
	entity   core.Entity
	created  bool
	name     string
	tables   int
	citation compendium.SourceCitation
}

type runner struct {
	kind      string
	eventType string
	locks     *keylock.Locks
	bus       events.EventBus
	metrics   *metrics.Metrics
}

func newRunner(kind, eventType string, shared *Shared) runner {
	return runner{
		kind:      kind,
		eventType: eventType,
		locks:     shared.locks(),
		bus:       shared.bus(),
		metrics:   shared.metrics(),
	}
}

// run holds the key lock around upsert, then records metrics and publishes
// the import event. Event delivery failures are logged, never returned: the
// entity is already stored.
func (r runner) run(ctx context.Context, key string, upsert func(context.Context) (*stored, error)) (*stored, error) {
	unlock, err := r.locks.Lock(ctx, r.kind+":"+key)
	if err != nil {
		return nil, errors.WrapWithCodef(err, errors.CodeCanceled, "waiting to import %s %q", r.kind, key)
	}
	defer unlock()

	start := time.Now()
	out, err := upsert(ctx)
	r.metrics.ObserveImport(r.kind, out != nil && out.created, err, time.Since(start))
	if err != nil {
		slog.ErrorContext(ctx, "import failed",
			"kind", r.kind,
			"key", key,
			"error", err)
		return nil, err
	}
	r.metrics.ObserveEntity(r.kind, out.tables, string(out.citation.Status))

	if out.citation.Status == compendium.CitationUnmapped {
		slog.WarnContext(ctx, "source title has no known code",
			"kind", r.kind,
			"name", out.name,
			"title", out.citation.Title)
	}

	slog.DebugContext(ctx, "imported entity",
		"kind", r.kind,
		"id", out.entity.GetID(),
		"name", out.name,
		"created", out.created)

	if r.bus != nil {
		if err := r.bus.Publish(ctx, events.NewGameEvent(r.eventType, out.entity, nil)); err != nil {
			slog.WarnContext(ctx, "failed to publish import event",
				"event", r.eventType,
				"id", out.entity.GetID(),
				"error", err)
		}
	}

	return out, nil
}

func countTraitTables(traits []compendium.Trait) int {
	n := 0
	for _, t := range traits {
		n += len(t.RandomTables)
	}
	return n
}
