package session

import (
	"sync"

	"github.com/brandlens/brandlens/internal/resultlog"
)

// Manager hands out sessions keyed by ID, creating them on first use.
// Sessions live for the process lifetime; nothing is persisted.
type Manager struct {
	checker Checker
	log     *resultlog.Store

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(checker Checker, log *resultlog.Store) *Manager {
	return &Manager{
		checker:  checker,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it if needed.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		s = New(id, m.checker, m.log)
		m.sessions[id] = s
	}
	return s
}
