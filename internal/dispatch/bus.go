package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"callmanager/internal/registry"
)

// Event is the typed post-write notification from the persistence layer.
// Delivery is synchronous and at-least-once; every handler must be
// duplicate-safe.
type Event struct {
	EntityType registry.EventType

	// IsNew is true only for the first durable write of the entity.
	IsNew bool

	// SubjectRef identifies the affected subject.
	SubjectRef string

	// EntityDate is the source entity's own date (report date, visit date).
	// Scheduling offsets key off it; zero means "use today".
	EntityDate time.Time

	// Payload carries entity-specific detail for handlers that need it.
	Payload any
}

// Handler processes one event. Returned errors are logged, never
// propagated to the writer that triggered the event.
type Handler func(ctx context.Context, ev Event) error

// Bus is a synchronous in-process event bus. Handlers run in subscription
// order on the publisher's goroutine, after the triggering write committed.
// A failing handler never stops the remaining handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	log      *slog.Logger
}

func NewBus(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{log: log}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			b.log.Error("event handler failed",
				"entity_type", string(ev.EntityType),
				"subject_ref", ev.SubjectRef,
				"is_new", ev.IsNew,
				"err", err,
			)
		}
	}
}
