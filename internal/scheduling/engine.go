package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"callmanager/internal/audit"
	"callmanager/internal/calls"
	"callmanager/internal/dispatch"
	"callmanager/internal/registry"
	"callmanager/internal/subjects"

	"github.com/google/uuid"
)

// DefaultRepeatIntervalDays applies to repeating specs that do not set
// their own re-contact interval.
const DefaultRepeatIntervalDays = 28

// Engine decides which calls must exist in response to trigger events.
//
// Rules:
//  1. ScheduleCalls acts only on first-time creation of a source entity.
//  2. A duplicate natural key is an idempotent no-op, never an error.
//  3. An unresolved subject skips that spec only; sibling specs proceed.
//  4. UnscheduleCalls removes NEW/OPEN calls; CLOSED is a permanent record.
//  5. ScheduleNextCall rolls a repeating, closed call forward by the spec's
//     re-contact interval.
//
// All read-then-write decisions are serialized per (subject, label) through
// the Locker; the store's natural-key constraint is the backstop.
type Engine struct {
	registry *registry.Registry
	repo     calls.Repository
	subjects subjects.Resolver
	locators subjects.LocatorResolver
	audit    *audit.Service
	locks    Locker

	log   *slog.Logger
	clock func() time.Time

	// RepeatIntervalDays is the engine-wide fallback for repeating specs.
	RepeatIntervalDays int
}

func NewEngine(
	reg *registry.Registry,
	repo calls.Repository,
	subjectResolver subjects.Resolver,
	locatorResolver subjects.LocatorResolver,
	auditSvc *audit.Service,
	locks Locker,
	log *slog.Logger,
) *Engine {
	if locks == nil {
		locks = NewMutexLocker()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		registry:           reg,
		repo:               repo,
		subjects:           subjectResolver,
		locators:           locatorResolver,
		audit:              auditSvc,
		locks:              locks,
		log:                log,
		clock:              time.Now,
		RepeatIntervalDays: DefaultRepeatIntervalDays,
	}
}

func lockKey(subjectIdentifier, label string) string {
	return subjectIdentifier + "|" + label
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ScheduleCalls creates one call per registered spec subscribed to the
// event's entity type. Only first-time creations schedule; updates do not.
func (e *Engine) ScheduleCalls(ctx context.Context, ev dispatch.Event) error {
	if !ev.IsNew {
		return nil
	}

	for _, spec := range e.registry.ScheduledBy(ev.EntityType) {
		if err := e.scheduleForSpec(ctx, spec, ev); err != nil {
			// One spec's failure never aborts its siblings.
			e.log.Error("schedule call failed",
				"label", spec.Label,
				"subject_ref", ev.SubjectRef,
				"entity_type", string(ev.EntityType),
				"err", err,
			)
		}
	}
	return nil
}

func (e *Engine) scheduleForSpec(ctx context.Context, spec registry.CallSpec, ev dispatch.Event) error {
	subj, err := e.subjects.ResolveSubject(ctx, ev.SubjectRef)
	if err != nil {
		if errors.Is(err, subjects.ErrNotFound) {
			return fmt.Errorf("subject %q unresolved for spec %s: %w", ev.SubjectRef, spec.Label, err)
		}
		return err
	}

	// Without an offset rule the call is due today. An offset keys off the
	// source entity's own date instead.
	base := e.clock()
	if spec.Policy.DateOffsetDays != 0 && !ev.EntityDate.IsZero() {
		base = ev.EntityDate
	}
	scheduled := dateOnly(base).AddDate(0, 0, spec.Policy.DateOffsetDays)

	release, err := e.locks.Acquire(ctx, lockKey(subj.Identifier, spec.Label))
	if err != nil {
		return err
	}
	defer release()

	if _, err := e.repo.FindCallByKey(ctx, subj.Identifier, spec.Label, scheduled); err == nil {
		// Re-fired event; the call already exists.
		return nil
	} else if !errors.Is(err, calls.ErrNotFound) {
		return err
	}

	return e.createCall(ctx, spec, subj, scheduled, audit.EventTypeCallScheduled)
}

// createCall inserts the call and its companion log. The caller must hold
// the (subject, label) lock.
func (e *Engine) createCall(ctx context.Context, spec registry.CallSpec, subj subjects.Subject, scheduled time.Time, action audit.EventType) error {
	now := e.clock().UTC()
	c := calls.Call{
		ID:                uuid.NewString(),
		SubjectIdentifier: subj.Identifier,
		Label:             spec.Label,
		Scheduled:         scheduled,
		Repeats:           spec.Repeats,
		FirstName:         subj.FirstName,
		Initials:          subj.Initials,
		ConsentDatetime:   subj.ConsentDatetime,
		Status:            calls.CallStatusNew,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := e.repo.CreateCall(ctx, c); err != nil {
		if errors.Is(err, calls.ErrDuplicateCall) {
			// Lost a race to an identical event; the winner's call stands.
			return nil
		}
		return err
	}

	l := calls.Log{
		ID:        uuid.NewString(),
		CallID:    c.ID,
		CreatedAt: now,
	}
	if e.locators != nil {
		if loc, err := e.locators.ResolveLocator(ctx, subj.Identifier); err == nil {
			l.LocatorInformation = loc.LocatorInformation
		} else if !errors.Is(err, subjects.ErrNotFound) {
			return err
		}
	}
	if err := e.repo.CreateLog(ctx, l); err != nil {
		return err
	}

	e.recordAudit(ctx, action, c, "scheduled for "+scheduled.Format("2006-01-02"))
	return nil
}

// UnscheduleCalls removes pending calls for every spec whose stop condition
// matches the event. Fires on both creation and update of stop entities.
func (e *Engine) UnscheduleCalls(ctx context.Context, ev dispatch.Event) error {
	for _, spec := range e.registry.UnscheduledBy(ev.EntityType) {
		if err := e.unscheduleActive(ctx, ev.SubjectRef, spec.Label); err != nil {
			e.log.Error("unschedule calls failed",
				"label", spec.Label,
				"subject_ref", ev.SubjectRef,
				"entity_type", string(ev.EntityType),
				"err", err,
			)
		}
	}
	return nil
}

// unscheduleActive deletes NEW and OPEN calls for (subject, label). CLOSED
// calls are never deleted.
func (e *Engine) unscheduleActive(ctx context.Context, subjectIdentifier, label string) error {
	release, err := e.locks.Acquire(ctx, lockKey(subjectIdentifier, label))
	if err != nil {
		return err
	}
	defer release()

	active, err := e.repo.ListActiveCalls(ctx, subjectIdentifier, label)
	if err != nil {
		return err
	}
	for _, c := range active {
		if err := e.repo.DeleteCall(ctx, c.ID); err != nil && !errors.Is(err, calls.ErrNotFound) {
			return err
		}
		e.recordAudit(ctx, audit.EventTypeCallUnscheduled, c, "stop condition received")
	}
	return nil
}

// ScheduleNextCall spawns the successor of a closed repeating call. The
// successor carries forward subject identity and the repeat flag, with a
// fresh scheduled date one re-contact interval from the closing date.
func (e *Engine) ScheduleNextCall(ctx context.Context, closed calls.Call) error {
	if !closed.Repeats {
		return nil
	}

	interval := e.RepeatIntervalDays
	spec, ok := e.registry.SpecByLabel(closed.Label)
	if ok && spec.Policy.RepeatIntervalDays > 0 {
		interval = spec.Policy.RepeatIntervalDays
	}
	if interval <= 0 {
		interval = DefaultRepeatIntervalDays
	}
	next := dateOnly(e.clock()).AddDate(0, 0, interval)

	release, err := e.locks.Acquire(ctx, lockKey(closed.SubjectIdentifier, closed.Label))
	if err != nil {
		return err
	}
	defer release()

	if _, err := e.repo.FindCallByKey(ctx, closed.SubjectIdentifier, closed.Label, next); err == nil {
		return nil
	} else if !errors.Is(err, calls.ErrNotFound) {
		return err
	}

	subj := subjects.Subject{
		Identifier:      closed.SubjectIdentifier,
		FirstName:       closed.FirstName,
		Initials:        closed.Initials,
		ConsentDatetime: closed.ConsentDatetime,
	}
	if ok {
		spec.Repeats = true
		return e.createCall(ctx, spec, subj, next, audit.EventTypeCallRolledOver)
	}
	// Spec no longer registered; roll forward from the call itself.
	orphan := registry.CallSpec{Label: closed.Label, Repeats: true}
	return e.createCall(ctx, orphan, subj, next, audit.EventTypeCallRolledOver)
}

func (e *Engine) recordAudit(ctx context.Context, t audit.EventType, c calls.Call, msg string) {
	if e.audit == nil {
		return
	}
	if err := e.audit.RecordCallAction(ctx, t, c.SubjectIdentifier, c.Label, c.ID, msg); err != nil {
		e.log.Warn("audit append failed", "type", string(t), "call_id", c.ID, "err", err)
	}
}
