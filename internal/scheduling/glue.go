package scheduling

import (
	"context"

	"callmanager/internal/dispatch"
)

// RegisterHandlers subscribes the engine to post-write events. Whether an
// entity type participates in scheduling is decided by registry lookup, not
// by inspecting the entity.
//
// Creation events both schedule and unschedule (a stop entity can be the
// first write for its subject); updates only unschedule.
func (e *Engine) RegisterHandlers(bus *dispatch.Bus) {
	bus.Subscribe(func(ctx context.Context, ev dispatch.Event) error {
		if !e.registry.Participates(ev.EntityType) {
			return nil
		}
		if ev.IsNew {
			if err := e.ScheduleCalls(ctx, ev); err != nil {
				return err
			}
		}
		return e.UnscheduleCalls(ctx, ev)
	})
}
