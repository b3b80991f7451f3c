package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/snaapconnections/storefront/pkg/logger"
)

// Registry holds checkout sessions in memory keyed by shopper session id.
// Sessions idle for longer than ttl are dropped by Sweep.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: map[string]*Session{},
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Start returns the shopper's open checkout, or a fresh one when none exists
// or the previous one was confirmed.
func (r *Registry) Start(id string, draft func() Draft) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok && !s.Stage().Terminal() {
		return s, false
	}
	s := NewSession(id, draft(), r.now())
	r.sessions[id] = s
	return s, true
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops idle sessions and reports how many were removed. Sessions
// with a submission in flight are kept.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.Snapshot().Submitting {
			continue
		}
		if s.lastTouched().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration, logg *logger.Logger) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 && logg != nil {
				logg.Debug(logg.WithField(ctx, "removed", n), "swept idle checkout sessions")
			}
		}
	}
}
