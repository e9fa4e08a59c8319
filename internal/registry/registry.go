package registry

import (
	"errors"
	"fmt"
	"sync"
)

// EventType identifies a source entity type whose writes can trigger
// scheduling. Values are owned by the application that registers specs.
type EventType string

// SchedulePolicy holds the per-spec date arithmetic the engine applies.
// Both values are configuration, not code: the study protocol decides them.
type SchedulePolicy struct {
	// DateOffsetDays shifts the first scheduled date from the trigger
	// event's date. Zero means "call today".
	DateOffsetDays int

	// RepeatIntervalDays is the re-contact interval for repeating specs.
	// Zero falls back to the engine-wide default.
	RepeatIntervalDays int
}

// CallSpec binds trigger event types to a call scheduling rule.
// Immutable after registration.
type CallSpec struct {
	// Label combines with subject identity and scheduled date to form the
	// call natural key.
	Label    string
	AppLabel string

	VerboseName string

	// ScheduleOn creates calls when one of these entity types is first
	// written. UnscheduleOn removes pending calls when a stop entity
	// (withdrawal, death report) is written or updated.
	ScheduleOn   []EventType
	UnscheduleOn []EventType

	Repeats bool
	Policy  SchedulePolicy
}

var ErrDuplicateRegistration = errors.New("registry: duplicate call spec registration")

// Registry is the process-wide table of call specs, populated once at
// startup and read-only afterwards. Lookup order is registration order so
// multi-spec event handling stays auditable.
type Registry struct {
	mu    sync.RWMutex
	specs []CallSpec
	seen  map[string]struct{} // label|app_label
}

func New() *Registry {
	return &Registry{seen: map[string]struct{}{}}
}

func (r *Registry) Register(spec CallSpec) error {
	if spec.Label == "" || spec.AppLabel == "" {
		return fmt.Errorf("registry: label and app label are required")
	}
	if len(spec.ScheduleOn) == 0 {
		return fmt.Errorf("registry: spec %q has no trigger event types", spec.Label)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := spec.Label + "|" + spec.AppLabel
	if _, dup := r.seen[key]; dup {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateRegistration, spec.AppLabel, spec.Label)
	}
	r.seen[key] = struct{}{}
	r.specs = append(r.specs, spec)
	return nil
}

// ScheduledBy returns every spec that schedules calls on eventType, in
// registration order.
func (r *Registry) ScheduledBy(eventType EventType) []CallSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []CallSpec
	for _, s := range r.specs {
		if containsType(s.ScheduleOn, eventType) {
			out = append(out, s)
		}
	}
	return out
}

// UnscheduledBy returns every spec that unschedules calls on eventType, in
// registration order.
func (r *Registry) UnscheduledBy(eventType EventType) []CallSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []CallSpec
	for _, s := range r.specs {
		if containsType(s.UnscheduleOn, eventType) {
			out = append(out, s)
		}
	}
	return out
}

// Participates reports whether any spec reacts to eventType at all. This is
// the capability check the dispatch glue uses instead of probing entities
// for scheduling fields.
func (r *Registry) Participates(eventType EventType) bool {
	return len(r.ScheduledBy(eventType)) > 0 || len(r.UnscheduledBy(eventType)) > 0
}

// SpecByLabel finds the registered spec carrying label. Used when a closed
// repeating call must be rolled forward.
func (r *Registry) SpecByLabel(label string) (CallSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.specs {
		if s.Label == label {
			return s, true
		}
	}
	return CallSpec{}, false
}

func containsType(types []EventType, t EventType) bool {
	for _, et := range types {
		if et == t {
			return true
		}
	}
	return false
}
