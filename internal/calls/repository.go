package calls

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateCall is returned when an insert would violate the
	// (subject_identifier, label, scheduled) natural key. The scheduling
	// engine treats it as a successful no-op.
	ErrDuplicateCall = errors.New("calls: duplicate call for subject/label/scheduled")

	ErrNotFound = errors.New("calls: not found")

	// ErrNoLogForCall indicates a reconciler update against a call with no
	// owning log. Lifecycle rules make this unreachable; it is a programmer
	// error, not an operator one.
	ErrNoLogForCall = errors.New("calls: call has no log")
)

// Repository is the persistence contract for calls, logs and log entries.
//
// Requirements for implementations:
// - CreateCall must enforce natural-key uniqueness and return ErrDuplicateCall.
// - DeleteCall must cascade to the owning log and its entries.
// - Log entries are append-only; no update or delete methods exist.
type Repository interface {
	CreateCall(ctx context.Context, c Call) error
	GetCall(ctx context.Context, id string) (Call, error)
	FindCallByKey(ctx context.Context, subjectIdentifier, label string, scheduled time.Time) (Call, error)

	// ListActiveCalls returns NEW and OPEN calls for (subject, label).
	ListActiveCalls(ctx context.Context, subjectIdentifier, label string) ([]Call, error)
	ListCallsBySubject(ctx context.Context, subjectIdentifier string) ([]Call, error)

	UpdateCall(ctx context.Context, c Call) error
	DeleteCall(ctx context.Context, id string) error

	CreateLog(ctx context.Context, l Log) error
	GetLog(ctx context.Context, id string) (Log, error)
	GetLogByCall(ctx context.Context, callID string) (Log, error)

	CreateLogEntry(ctx context.Context, e LogEntry) error
	ListLogEntries(ctx context.Context, logID string) ([]LogEntry, error)
}
