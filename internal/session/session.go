package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tablechat/tablechat/internal/dataset"
	"github.com/tablechat/tablechat/internal/intent"
)

// Session is the unit of isolation: its own dataset store and chat
// history, never shared with other sessions. The mutex serializes
// request processing so one upload or question completes before the
// next begins.
type Session struct {
	ID    string
	Store *dataset.Store

	mu      sync.Mutex
	history []intent.Turn
}

// Acquire blocks until the session is free for the caller's request.
func (s *Session) Acquire() { s.mu.Lock() }

func (s *Session) Release() { s.mu.Unlock() }

// History returns a copy; the underlying sequence is append-only.
func (s *Session) History() []intent.Turn {
	history := make([]intent.Turn, len(s.history))
	copy(history, s.history)
	return history
}

func (s *Session) AppendTurn(role, content string) {
	s.history = append(s.history, intent.Turn{Role: role, Content: content})
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

func (m *Manager) Create() *Session {
	s := &Session{
		ID:    uuid.NewString(),
		Store: dataset.NewStore(),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// DatasetCount sums the datasets held across all sessions.
func (m *Manager) DatasetCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, s := range m.sessions {
		total += s.Store.Len()
	}
	return total
}
