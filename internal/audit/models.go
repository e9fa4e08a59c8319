package audit

import "time"

// Event is an immutable, append-only audit record of a scheduling action.
//
// Invariants:
// - Events are never updated or deleted.
// - Audit is best-effort; scheduling must not fail because audit did.
//
// Storage recommendation (Postgres):
// - Table call_audit_events with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.

type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the engine action being recorded.
	Type EventType `json:"type" db:"type"`

	SubjectIdentifier string `json:"subject_identifier" db:"subject_identifier"`
	Label             string `json:"label" db:"label"`
	CallID            string `json:"call_id,omitempty" db:"call_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeCallScheduled   EventType = "call_scheduled"
	EventTypeCallUnscheduled EventType = "call_unscheduled"
	EventTypeCallAutoClosed  EventType = "call_auto_closed"
	EventTypeCallRolledOver  EventType = "call_rolled_over"
)
