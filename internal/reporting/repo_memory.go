package reporting

import (
	"context"
	"sync"
	"time"

	"callmanager/internal/calls"
)

// MemoryRepo is a simple in-memory reporting repository for tests and early development.

type MemoryRepo struct {
	mu sync.Mutex

	Calls []calls.Call
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListCalls(ctx context.Context, label string, from, to time.Time) ([]calls.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]calls.Call, 0)
	for _, c := range r.Calls {
		if label != "" && c.Label != label {
			continue
		}
		if !c.Scheduled.IsZero() {
			if c.Scheduled.Before(from) || !c.Scheduled.Before(to) {
				continue
			}
		}
		out = append(out, c)
	}
	return out, nil
}
