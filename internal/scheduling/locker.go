package scheduling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"callmanager/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes the engine's read-then-write decisions per
// (subject_identifier, label). Locks are held only across the
// create/delete decision, never across a whole event's handling.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// MutexLocker is the single-process locker. Mutexes are kept per key; the
// key space is bounded by subjects x labels, so entries are not reclaimed.
type MutexLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMutexLocker() *MutexLocker {
	return &MutexLocker{locks: map[string]*sync.Mutex{}}
}

func (l *MutexLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

// RedisLocker serializes decisions across processes with a SET NX PX lock.
type RedisLocker struct {
	rdb *redis.Client

	// TTL bounds how long a crashed holder can block others.
	TTL time.Duration
	// RetryEvery is the poll interval while the lock is contended.
	RetryEvery time.Duration
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb, TTL: 10 * time.Second, RetryEvery: 50 * time.Millisecond}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	lockKey := "callsched:lock:" + key

	for {
		ok, err := utils.AcquireKeyLock(ctx, l.rdb, lockKey, token, l.TTL)
		if err != nil {
			return nil, fmt.Errorf("scheduling: acquire lock %s: %w", key, err)
		}
		if ok {
			release := func() {
				_ = utils.ReleaseKeyLock(context.Background(), l.rdb, lockKey, token)
			}
			return release, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.RetryEvery):
		}
	}
}
