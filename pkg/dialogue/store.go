package dialogue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SessionStore persists live sessions. The in-memory store below suits
// single-node deployments; RedisStore backs multi-node ones. Stores do not
// serialize per-user access, the manager does.
type SessionStore interface {
	// Get returns the session for a user, or nil, nil when none exists or
	// it has expired.
	Get(ctx context.Context, userID string) (*Session, error)

	// Save creates or replaces a session.
	Save(ctx context.Context, session *Session) error

	// Delete removes a session and its history. Deleting a missing
	// session is not an error.
	Delete(ctx context.Context, userID string) error

	// Sweep removes all expired sessions and returns how many went.
	Sweep(ctx context.Context) (int, error)

	// Stats reports store contents.
	Stats(ctx context.Context) (StoreStats, error)

	Close() error
}

// StoreStats contains session store statistics.
type StoreStats struct {
	SessionCount int `json:"session_count"`
	TotalTurns   int `json:"total_turns"`
}

// InMemoryStore keeps sessions in a map with TTL expiry. A background
// reaper removes stale sessions on an interval; Sweep can additionally be
// called opportunistically per request.
type InMemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	maxAge        time.Duration // session TTL (default: 24 hours)
	sweepInterval time.Duration // reaper interval (default: 10 minutes)

	stopReaper chan struct{}
	reaperOnce sync.Once
}

// StoreOption is a functional option for configuring InMemoryStore.
type StoreOption func(*InMemoryStore)

// WithMaxAge sets the idle TTL after which a session expires.
func WithMaxAge(d time.Duration) StoreOption {
	return func(s *InMemoryStore) {
		s.maxAge = d
	}
}

// WithSweepInterval sets how often the background reaper runs.
func WithSweepInterval(d time.Duration) StoreOption {
	return func(s *InMemoryStore) {
		s.sweepInterval = d
	}
}

// NewInMemoryStore creates an in-memory session store and starts its reaper.
func NewInMemoryStore(opts ...StoreOption) *InMemoryStore {
	s := &InMemoryStore{
		sessions:      make(map[string]*Session),
		maxAge:        24 * time.Hour,
		sweepInterval: 10 * time.Minute,
		stopReaper:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.reaperLoop()

	return s
}

// Get retrieves a session. Expired sessions are treated as not found; the
// reaper or the next Sweep removes them. The returned session is a copy:
// callers mutate it freely and persist changes through Save, while Sweep and
// Stats read the stored snapshot without racing those mutations.
func (s *InMemoryStore) Get(_ context.Context, userID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	if time.Since(session.LastActivity) > s.maxAge {
		return nil, nil
	}
	return session.clone(), nil
}

// Save creates or replaces a session.
func (s *InMemoryStore) Save(_ context.Context, session *Session) error {
	if session == nil {
		return fmt.Errorf("session is nil")
	}
	if session.UserID == "" {
		return fmt.Errorf("user ID is required")
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.LastActivity.IsZero() {
		session.LastActivity = time.Now()
	}

	// Store a snapshot so later caller mutations cannot reach the map.
	stored := session.clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.UserID] = stored
	return nil
}

// Delete removes a session.
func (s *InMemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}

// Sweep removes expired sessions using a snapshot then delete pattern so the
// write lock is held only for short map operations, never while scanning a
// large session set under contention.
func (s *InMemoryStore) Sweep(_ context.Context) (int, error) {
	cutoff := time.Now().Add(-s.maxAge)

	s.mu.RLock()
	var stale []string
	for id, session := range s.sessions {
		if session.LastActivity.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	if len(stale) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	removed := 0
	for _, id := range stale {
		// Re-check: the session may have been touched since the snapshot.
		if session, ok := s.sessions[id]; ok && session.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	s.mu.Unlock()

	return removed, nil
}

// Stats reports current store contents.
func (s *InMemoryStore) Stats(_ context.Context) (StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := StoreStats{SessionCount: len(s.sessions)}
	for _, session := range s.sessions {
		stats.TotalTurns += len(session.History)
	}
	return stats, nil
}

// Close stops the background reaper.
func (s *InMemoryStore) Close() error {
	s.reaperOnce.Do(func() {
		close(s.stopReaper)
	})
	return nil
}

func (s *InMemoryStore) reaperLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.Sweep(context.Background())
		case <-s.stopReaper:
			return
		}
	}
}

// Ensure InMemoryStore implements SessionStore
var _ SessionStore = (*InMemoryStore)(nil)
