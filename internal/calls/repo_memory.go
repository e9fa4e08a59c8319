package calls

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory repository for tests and early development.
// It enforces the same natural-key constraint the Postgres schema carries,
// so engine idempotency behaves identically against both stores.

type MemoryRepo struct {
	mu sync.Mutex

	calls   map[string]Call
	logs    map[string]Log
	entries map[string][]LogEntry // keyed by log id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		calls:   map[string]Call{},
		logs:    map[string]Log{},
		entries: map[string][]LogEntry{},
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func (r *MemoryRepo) CreateCall(ctx context.Context, c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.calls {
		if existing.SubjectIdentifier == c.SubjectIdentifier &&
			existing.Label == c.Label &&
			sameDay(existing.Scheduled, c.Scheduled) {
			return ErrDuplicateCall
		}
	}
	r.calls[c.ID] = c
	return nil
}

func (r *MemoryRepo) GetCall(ctx context.Context, id string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) FindCallByKey(ctx context.Context, subjectIdentifier, label string, scheduled time.Time) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c.SubjectIdentifier == subjectIdentifier && c.Label == label && sameDay(c.Scheduled, scheduled) {
			return c, nil
		}
	}
	return Call{}, ErrNotFound
}

func (r *MemoryRepo) ListActiveCalls(ctx context.Context, subjectIdentifier, label string) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, 0)
	for _, c := range r.calls {
		if c.SubjectIdentifier != subjectIdentifier || c.Label != label {
			continue
		}
		if c.Status == CallStatusNew || c.Status == CallStatusOpen {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListCallsBySubject(ctx context.Context, subjectIdentifier string) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, 0)
	for _, c := range r.calls {
		if c.SubjectIdentifier == subjectIdentifier {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) UpdateCall(ctx context.Context, c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[c.ID]; !ok {
		return ErrNotFound
	}
	r.calls[c.ID] = c
	return nil
}

func (r *MemoryRepo) DeleteCall(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[id]; !ok {
		return ErrNotFound
	}
	delete(r.calls, id)
	for logID, l := range r.logs {
		if l.CallID == id {
			delete(r.logs, logID)
			delete(r.entries, logID)
		}
	}
	return nil
}

func (r *MemoryRepo) CreateLog(ctx context.Context, l Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[l.ID] = l
	return nil
}

func (r *MemoryRepo) GetLog(ctx context.Context, id string) (Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[id]
	if !ok {
		return Log{}, ErrNotFound
	}
	return l, nil
}

func (r *MemoryRepo) GetLogByCall(ctx context.Context, callID string) (Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if l.CallID == callID {
			return l, nil
		}
	}
	return Log{}, ErrNotFound
}

func (r *MemoryRepo) CreateLogEntry(ctx context.Context, e LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.logs[e.LogID]; !ok {
		return ErrNotFound
	}
	r.entries[e.LogID] = append(r.entries[e.LogID], e)
	return nil
}

func (r *MemoryRepo) ListLogEntries(ctx context.Context, logID string) ([]LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.entries[logID]
	out := make([]LogEntry, len(src))
	copy(out, src)
	return out, nil
}
