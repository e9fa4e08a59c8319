package audit

import (
	"context"
	"testing"
	"time"
)

func TestAudit_AppendFillsDefaults(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time { return time.Unix(1700000000, 0).UTC() }

	err := svc.RecordCallAction(context.Background(), EventTypeCallScheduled, "S-001", "followup", "call-1", "scheduled")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	events := repo.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !e.CreatedAt.Equal(time.Unix(1700000000, 0).UTC()) {
		t.Fatalf("expected clock-driven created_at, got %v", e.CreatedAt)
	}
}

func TestAudit_RejectsInvalidEvents(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Append(context.Background(), Event{Type: EventTypeCallScheduled}); err != ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if err := svc.Append(context.Background(), Event{SubjectIdentifier: "S-001", Label: "followup"}); err != ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}
