package services

import (
	"context"
	"sync"
	"time"

	"taxonomy/application/ports"

	"go.uber.org/zap"
)

// SessionRegistry keeps live sessions in process and evicts the ones that
// have been idle longer than the TTL.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	metrics  ports.Metrics
	logger   *zap.Logger
}

// NewSessionRegistry creates an empty registry. A zero TTL disables eviction.
func NewSessionRegistry(ttl time.Duration, metrics ports.Metrics, logger *zap.Logger) *SessionRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		metrics:  metrics,
		logger:   logger,
	}
}

// Get returns a live session
func (r *SessionRegistry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Put registers a session, replacing any with the same id
func (r *SessionRegistry) Put(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID()] = s
	n := len(r.sessions)
	r.mu.Unlock()
	r.report(n)
}

// Delete forgets a session
func (r *SessionRegistry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	r.report(n)
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle removes sessions idle since before now-ttl and returns how many
func (r *SessionRegistry) EvictIdle(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	evicted := 0
	for id, s := range r.sessions {
		if now.Sub(s.IdleSince()) > r.ttl {
			delete(r.sessions, id)
			evicted++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if evicted > 0 {
		r.logger.Info("Evicted idle sessions", zap.Int("evicted", evicted), zap.Int("remaining", n))
		r.report(n)
	}
	return evicted
}

// Run evicts idle sessions on every tick until ctx is done
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.EvictIdle(now)
		}
	}
}

func (r *SessionRegistry) report(n int) {
	if r.metrics != nil {
		r.metrics.SetActiveSessions(n)
	}
}
