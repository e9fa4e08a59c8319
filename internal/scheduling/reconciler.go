package scheduling

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"callmanager/internal/audit"
	"callmanager/internal/calls"
)

// Reconciler translates one logged call attempt into the owning call's new
// state. It implements calls.EntrySink so the operator write path drives it
// synchronously after each entry is persisted.
type Reconciler struct {
	repo   calls.Repository
	engine *Engine

	log   *slog.Logger
	clock func() time.Time
}

func NewReconciler(repo calls.Repository, engine *Engine, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{repo: repo, engine: engine, log: log, clock: time.Now}
}

// LogEntryRecorded resolves the owning call for a freshly written entry and
// reconciles it.
func (r *Reconciler) LogEntryRecorded(ctx context.Context, entry calls.LogEntry) error {
	l, err := r.repo.GetLog(ctx, entry.LogID)
	if err != nil {
		return err
	}
	call, err := r.repo.GetCall(ctx, l.CallID)
	if err != nil {
		return err
	}
	return r.UpdateCallFromLog(ctx, call, entry)
}

// UpdateCallFromLog applies one attempt to the call: attempt count, a
// forward-only last-called timestamp, the latest outcome summary, and the
// status transition. Closing hands off to the engine to clear siblings and
// spawn the successor of a repeating schedule.
func (r *Reconciler) UpdateCallFromLog(ctx context.Context, call calls.Call, entry calls.LogEntry) error {
	// A call with no log cannot have produced an entry; lifecycle bug.
	if _, err := r.repo.GetLogByCall(ctx, call.ID); err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			return calls.ErrNoLogForCall
		}
		return err
	}

	call.CallAttempts++

	// Entries may arrive out of order; last_called never moves backward.
	at := entry.CallDatetime.UTC()
	if call.LastCalled == nil || at.After(*call.LastCalled) {
		call.LastCalled = &at
		call.CallOutcome = entry.OutcomeSummary()
	}

	closedNow := false
	switch {
	case call.Status == calls.CallStatusClosed:
		// Closed stays closed; only a human reopens, outside engine scope.
	case entry.CallAgain == calls.No:
		call.Status = calls.CallStatusClosed
		call.AutoClosed = true
		closedNow = true
	case call.Status == calls.CallStatusNew:
		call.Status = calls.CallStatusOpen
	}

	call.UpdatedAt = r.clock().UTC()
	if err := r.repo.UpdateCall(ctx, call); err != nil {
		return err
	}

	if !closedNow {
		return nil
	}

	if r.engine != nil {
		r.engine.recordAudit(ctx, audit.EventTypeCallAutoClosed, call, "closed by call log entry")
		if err := r.engine.unscheduleActive(ctx, call.SubjectIdentifier, call.Label); err != nil {
			r.log.Error("unschedule after close failed", "call_id", call.ID, "err", err)
		}
		if err := r.engine.ScheduleNextCall(ctx, call); err != nil {
			r.log.Error("schedule next call failed", "call_id", call.ID, "err", err)
		}
	}
	return nil
}
