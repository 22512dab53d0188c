package reading

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helixir/article-explorer/internal/domain"
)

// ManagerConfig configures the session registry.
type ManagerConfig struct {
	// IdleTTL is how long an untouched session is kept. Zero disables eviction.
	IdleTTL time.Duration

	// MaxSessions caps the number of open sessions. Zero means unlimited.
	MaxSessions int

	// ReadingTime is the reading time estimate assigned to each session.
	ReadingTime time.Duration

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Manager is a registry of open reading sessions.
type Manager struct {
	cfg ManagerConfig

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates an empty session registry.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		cfg:      cfg,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Open starts a fresh session for the article. Annotations from earlier
// sessions on the same article are never carried over.
func (m *Manager) Open(article domain.Article) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictIdleLocked()
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		return nil, domain.NewRateLimitError("reading sessions", m.cfg.IdleTTL)
	}

	s := newSession(article, m.cfg.ReadingTime, m.cfg.Now)
	m.sessions[s.id] = s
	return s, nil
}

// Get returns an open session. Idle-expired sessions are treated as closed.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.NewNotFoundError("session", id.String())
	}
	if m.expired(s) {
		delete(m.sessions, id)
		return nil, domain.NewNotFoundError("session", id.String())
	}
	s.mu.Lock()
	s.touch()
	s.mu.Unlock()
	return s, nil
}

// Close discards a session and its annotations.
func (m *Manager) Close(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return domain.NewNotFoundError("session", id.String())
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) evictIdleLocked() {
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
		}
	}
}

func (m *Manager) expired(s *Session) bool {
	return m.cfg.IdleTTL > 0 && s.idleSince(m.cfg.Now()) > m.cfg.IdleTTL
}
