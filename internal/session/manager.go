package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"nextgenschool/internal/catalog"
	"nextgenschool/internal/identity"
	"nextgenschool/internal/logger"
	"nextgenschool/internal/metrics"
	"nextgenschool/internal/progress"
	"nextgenschool/internal/syncer"
)

// ErrNotFound is returned for unknown session ids
var ErrNotFound = errors.New("session not found")

// Deps are the collaborators every session is built from
type Deps struct {
	Catalog  *catalog.Catalog
	Policy   *syncer.Policy
	Parents  identity.ParentAuthenticator
	PINs     identity.PINLookup
	Notifier CompletionNotifier
	Log      *logger.Logger
	Metrics  *metrics.Metrics
	// Now defaults to time.Now
	Now func() time.Time
}

// Manager keeps the live sessions of the server
type Manager struct {
	deps     Deps
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager
func NewManager(deps Deps) *Manager {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	return &Manager{deps: deps, sessions: make(map[string]*Session)}
}

// Create starts a new guest session under a fresh id
func (m *Manager) Create(ctx context.Context) *Session {
	return m.Resume(ctx, uuid.NewString())
}

// Get returns a live session
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.touch(m.deps.Now())
	return s, nil
}

// Resume returns the live session with id, or recreates it as a guest
// session whose progress is restored from the local cache
func (m *Manager) Resume(ctx context.Context, id string) *Session {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		s.touch(m.deps.Now())
		return s
	}
	s := m.newSession(id)
	m.sessions[id] = s
	m.mu.Unlock()

	s.mu.Lock()
	s.syncer.Rebuild(ctx, s.resolver.Tag())
	s.mu.Unlock()
	return s
}

func (m *Manager) newSession(id string) *Session {
	resolver := identity.NewResolver(m.deps.Parents, m.deps.PINs)
	model := progress.NewModel(m.deps.Catalog, progress.WithClock(m.deps.Now))
	s := &Session{
		ID:       id,
		resolver: resolver,
		model:    model,
		syncer:   m.deps.Policy.ForSession(id, resolver, model),
		notifier: m.deps.Notifier,
		log:      m.deps.Log.With("session", id),
		metrics:  m.deps.Metrics,
	}
	s.touch(m.deps.Now())
	return s
}

// Remove forgets a session. Its guest progress stays in the local cache.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len is the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than maxIdle and returns how many
// were removed
func (m *Manager) Sweep(maxIdle time.Duration) int {
	now := m.deps.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.idleSince(now) > maxIdle {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps every interval until ctx is done
func (m *Manager) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(maxIdle); n > 0 {
				m.deps.Log.Debug("swept idle sessions", "count", n)
			}
		}
	}
}
