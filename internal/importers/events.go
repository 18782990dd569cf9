package importers

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-toolkit/events"
)

// ImportEventTypes lists every event type the importers publish
var ImportEventTypes = []string{EventSpellImported, EventRaceImported, EventItemImported}

// LogImports subscribes a handler that logs each import event at info level.
// It returns the subscription ids so callers can unsubscribe.
func LogImports(bus events.EventBus, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}

	handler := func(ctx context.Context, e events.Event) error {
		attrs := []any{"event", e.Type(), "at", e.Timestamp()}
		if src := e.Source(); src != nil {
			attrs = append(attrs, "id", src.GetID(), "entity", src.GetType())
		}
		logger.InfoContext(ctx, "compendium entity imported", attrs...)
		return nil
	}

	ids := make([]string, 0, len(ImportEventTypes))
	for _, eventType := range ImportEventTypes {
		ids = append(ids, bus.SubscribeFunc(eventType, 100, handler))
	}
	return ids
}
