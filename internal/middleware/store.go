package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/maildraft/maildraft/internal/database"
)

// CounterStore backs the fixed-window rate limiter. Incr bumps the counter
// for key, starting a new window of the given length when none is active, and
// returns the updated count together with the time left in the window.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, remaining time.Duration, err error)
}

// RedisCounterStore keeps windows in Redis so the limit holds across
// replicas.
type RedisCounterStore struct {
	rdb *database.Redis
}

// NewRedisCounterStore creates a Redis-backed counter store
func NewRedisCounterStore(rdb *database.Redis) *RedisCounterStore {
	return &RedisCounterStore{rdb: rdb}
}

// Incr implements CounterStore
func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := s.rdb.Incr(ctx, key)
	if err != nil {
		return 0, 0, err
	}
	// First hit opens the window
	if count == 1 {
		if err := s.rdb.Expire(ctx, key, window); err != nil {
			return count, window, err
		}
		return count, window, nil
	}
	ttl, err := s.rdb.TTL(ctx, key)
	if err != nil || ttl < 0 {
		return count, window, err
	}
	return count, ttl, nil
}

// MemoryCounterStore keeps windows in process memory. Suitable for the
// default single-process deployment; counters reset on restart.
type MemoryCounterStore struct {
	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	count   int64
	resetAt time.Time
}

// NewMemoryCounterStore creates an in-process counter store
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{windows: make(map[string]*window)}
}

// Incr implements CounterStore
func (s *MemoryCounterStore) Incr(_ context.Context, key string, length time.Duration) (int64, time.Duration, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(length)}
		s.windows[key] = w
	}
	w.count++

	// Drop stale windows opportunistically so the map does not grow with
	// one entry per client forever.
	if len(s.windows) > 1024 {
		for k, other := range s.windows {
			if !now.Before(other.resetAt) {
				delete(s.windows, k)
			}
		}
	}

	return w.count, w.resetAt.Sub(now), nil
}
