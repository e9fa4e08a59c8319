package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"callmanager/internal/calls"
)

func seedOpenCall(t *testing.T, repo *calls.MemoryRepo, id string, status calls.CallStatus, repeats bool) (calls.Call, calls.Log) {
	t.Helper()
	ctx := context.Background()
	c := calls.Call{
		ID:                id,
		SubjectIdentifier: testSubject,
		Label:             "followup",
		Scheduled:         time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Repeats:           repeats,
		Status:            status,
	}
	if err := repo.CreateCall(ctx, c); err != nil {
		t.Fatalf("seed call: %v", err)
	}
	l := calls.Log{ID: "log-" + id, CallID: id}
	if err := repo.CreateLog(ctx, l); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	return c, l
}

func newTestReconciler(t *testing.T) (*Reconciler, *Engine, *calls.MemoryRepo) {
	t.Helper()
	e, repo, _ := newTestEngine(t, followupSpec())
	r := NewReconciler(repo, e, nil)
	r.clock = e.clock
	return r, e, repo
}

func TestUpdateCallFromLog_FirstAttemptOpensCall(t *testing.T) {
	r, _, repo := newTestReconciler(t)
	ctx := context.Background()
	c, l := seedOpenCall(t, repo, "c1", calls.CallStatusNew, false)

	at := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)
	entry := calls.LogEntry{
		ID: "e1", LogID: l.ID, CallDatetime: at,
		SurvivalStatus: calls.SurvivalStatusAlive, CallAgain: calls.Yes,
	}
	if err := r.UpdateCallFromLog(ctx, c, entry); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	got, _ := repo.GetCall(ctx, c.ID)
	if got.Status != calls.CallStatusOpen {
		t.Fatalf("expected OPEN, got %s", got.Status)
	}
	if got.CallAttempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", got.CallAttempts)
	}
	if got.LastCalled == nil || !got.LastCalled.Equal(at) {
		t.Fatalf("last_called not set: %v", got.LastCalled)
	}
	if got.CallOutcome != "Alive. Call again" {
		t.Fatalf("unexpected outcome %q", got.CallOutcome)
	}
	if got.AutoClosed {
		t.Fatal("open call marked auto closed")
	}
}

func TestUpdateCallFromLog_CallAgainNoClosesCall(t *testing.T) {
	r, _, repo := newTestReconciler(t)
	ctx := context.Background()
	c, l := seedOpenCall(t, repo, "c1", calls.CallStatusOpen, false)

	entry := calls.LogEntry{
		ID: "e1", LogID: l.ID,
		CallDatetime:   time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC),
		SurvivalStatus: calls.SurvivalStatusAlive, CallAgain: calls.No,
	}
	if err := r.UpdateCallFromLog(ctx, c, entry); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	got, _ := repo.GetCall(ctx, c.ID)
	if got.Status != calls.CallStatusClosed || !got.AutoClosed {
		t.Fatalf("expected auto-closed CLOSED, got %+v", got)
	}
}

func TestUpdateCallFromLog_ClosedStaysClosed(t *testing.T) {
	r, _, repo := newTestReconciler(t)
	ctx := context.Background()
	c, l := seedOpenCall(t, repo, "c1", calls.CallStatusClosed, false)

	entry := calls.LogEntry{
		ID: "e1", LogID: l.ID,
		CallDatetime:   time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC),
		SurvivalStatus: calls.SurvivalStatusAlive, CallAgain: calls.Yes,
	}
	if err := r.UpdateCallFromLog(ctx, c, entry); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	got, _ := repo.GetCall(ctx, c.ID)
	if got.Status != calls.CallStatusClosed {
		t.Fatalf("closed call reopened: %s", got.Status)
	}
	if got.CallAttempts != 1 {
		t.Fatalf("attempt on closed call must still count, got %d", got.CallAttempts)
	}
}

func TestUpdateCallFromLog_LastCalledNeverMovesBackward(t *testing.T) {
	r, _, repo := newTestReconciler(t)
	ctx := context.Background()
	c, l := seedOpenCall(t, repo, "c1", calls.CallStatusNew, false)

	later := time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC)
	earlier := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)

	e1 := calls.LogEntry{
		ID: "e1", LogID: l.ID, CallDatetime: later,
		SurvivalStatus: calls.SurvivalStatusAlive, CallAgain: calls.Yes,
	}
	if err := r.UpdateCallFromLog(ctx, c, e1); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}

	// Backfilled entry arrives out of order.
	c, _ = repo.GetCall(ctx, c.ID)
	e2 := calls.LogEntry{
		ID: "e2", LogID: l.ID, CallDatetime: earlier,
		SurvivalStatus: calls.SurvivalStatusUnknown, CallAgain: calls.Yes,
	}
	if err := r.UpdateCallFromLog(ctx, c, e2); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}

	got, _ := repo.GetCall(ctx, c.ID)
	if got.CallAttempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", got.CallAttempts)
	}
	if got.LastCalled == nil || !got.LastCalled.Equal(later) {
		t.Fatalf("last_called moved backward: %v", got.LastCalled)
	}
	// Outcome stays from the newest attempt.
	if got.CallOutcome != "Alive. Call again" {
		t.Fatalf("outcome overwritten by stale entry: %q", got.CallOutcome)
	}
}

func TestUpdateCallFromLog_MissingLogIsInvariantViolation(t *testing.T) {
	r, _, repo := newTestReconciler(t)
	ctx := context.Background()

	c := calls.Call{
		ID: "c1", SubjectIdentifier: testSubject, Label: "followup",
		Scheduled: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Status:    calls.CallStatusNew,
	}
	_ = repo.CreateCall(ctx, c)

	err := r.UpdateCallFromLog(ctx, c, calls.LogEntry{ID: "e1", LogID: "log-c1"})
	if !errors.Is(err, calls.ErrNoLogForCall) {
		t.Fatalf("expected ErrNoLogForCall, got %v", err)
	}
}

func TestUpdateCallFromLog_CloseRollsRepeatingCallForward(t *testing.T) {
	r, _, repo := newTestReconciler(t)
	ctx := context.Background()
	c, l := seedOpenCall(t, repo, "c1", calls.CallStatusOpen, true)

	entry := calls.LogEntry{
		ID: "e1", LogID: l.ID,
		CallDatetime:   time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC),
		SurvivalStatus: calls.SurvivalStatusAlive, CallAgain: calls.No,
	}
	if err := r.UpdateCallFromLog(ctx, c, entry); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	// The closed call remains; a NEW successor exists 28 days out.
	got, _ := repo.GetCall(ctx, c.ID)
	if got.Status != calls.CallStatusClosed {
		t.Fatalf("expected CLOSED, got %s", got.Status)
	}
	next, err := repo.FindCallByKey(ctx, testSubject, "followup", time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("successor missing: %v", err)
	}
	if next.Status != calls.CallStatusNew || next.ID == c.ID {
		t.Fatalf("unexpected successor: %+v", next)
	}
}

// Full path: an operator records a deceased-subject attempt through the
// service; the sink closes the call and, being non-repeating here, nothing
// is rolled forward.
func TestServiceToReconciler_DeceasedClosesWithoutSuccessor(t *testing.T) {
	r, _, repo := newTestReconciler(t)
	ctx := context.Background()
	_, l := seedOpenCall(t, repo, "c1", calls.CallStatusNew, false)

	svc := calls.NewService(repo, r, nil)
	entry, err := svc.CreateLogEntry(ctx, calls.CreateLogEntryRequest{
		LogID:          l.ID,
		CallDatetime:   time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC),
		ContactType:    calls.ContactTypeIndirect,
		SurvivalStatus: calls.SurvivalStatusDead,
		CallAgain:      calls.Yes,
	})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if entry.CallAgain != calls.No {
		t.Fatalf("DEAD must force call_again NO, got %s", entry.CallAgain)
	}

	got, _ := repo.GetCall(ctx, "c1")
	if got.Status != calls.CallStatusClosed || !got.AutoClosed {
		t.Fatalf("expected auto-closed call, got %+v", got)
	}
	if got.CallOutcome != "Deceased. Do not call" {
		t.Fatalf("unexpected outcome %q", got.CallOutcome)
	}
	out, _ := repo.ListCallsBySubject(ctx, testSubject)
	if len(out) != 1 {
		t.Fatalf("non-repeating close spawned a successor: %+v", out)
	}
}
