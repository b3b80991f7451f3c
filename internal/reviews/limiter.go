package reviews

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether scope may submit another review now.
type Limiter interface {
	Allow(ctx context.Context, scope string) (bool, error)
}

type fixedWindow interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RedisLimiter counts submissions per scope in a Redis fixed window.
type RedisLimiter struct {
	store  fixedWindow
	limit  int64
	window time.Duration
}

func NewRedisLimiter(store fixedWindow, limit int64, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{store: store, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, scope string) (bool, error) {
	allowed, _, err := l.store.FixedWindowAllow(ctx, "reviews:"+scope, l.limit, l.window)
	return allowed, err
}

// MemoryLimiter is the single-instance fallback when Redis is not configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	windows map[string]memoryWindow
}

type memoryWindow struct {
	start time.Time
	count int
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]memoryWindow),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, scope string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	w, ok := l.windows[scope]
	if !ok || now.Sub(w.start) >= l.window {
		w = memoryWindow{start: now}
	}
	w.count++
	l.windows[scope] = w

	if len(l.windows) > 4096 {
		for k, v := range l.windows {
			if now.Sub(v.start) >= l.window {
				delete(l.windows, k)
			}
		}
	}
	return w.count <= l.limit, nil
}
