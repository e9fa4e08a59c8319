package subjects

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory subject/locator source for tests and early
// development. It implements both Resolver and LocatorResolver.

type MemoryRepo struct {
	mu       sync.Mutex
	subjects map[string]Subject
	locators map[string]Locator
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		subjects: map[string]Subject{},
		locators: map[string]Locator{},
	}
}

func (r *MemoryRepo) PutSubject(s Subject) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects[s.Identifier] = s
}

func (r *MemoryRepo) PutLocator(l Locator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locators[l.SubjectIdentifier] = l
}

func (r *MemoryRepo) ResolveSubject(ctx context.Context, subjectRef string) (Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subjects[subjectRef]
	if !ok {
		return Subject{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) ResolveLocator(ctx context.Context, subjectRef string) (Locator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locators[subjectRef]
	if !ok {
		return Locator{}, ErrNotFound
	}
	return l, nil
}
