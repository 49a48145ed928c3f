// Package session holds the client's authentication state: the bearer token
// and the logged-in user, persisted between CLI invocations.
package session

import (
	"sync"

	"github.com/atinyakov/VoiceNotes/internal/models"
)

// Session is the authenticated identity of the client.
type Session struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Valid reports whether s carries a token.
func (s Session) Valid() bool {
	return s.Token != ""
}

// Persister stores a session outside the process.
type Persister interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// Manager is the single source of truth for the current session.
// It is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	current Session
	store   Persister
}

// NewManager loads the persisted session, if any. A nil store keeps the
// session in memory only.
func NewManager(store Persister) (*Manager, error) {
	m := &Manager{store: store}
	if store != nil {
		s, err := store.Load()
		if err != nil {
			return nil, err
		}
		m.current = s
	}
	return m, nil
}

// Current returns the session and whether one is set.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current.Valid()
}

// Set replaces the session and persists it.
func (m *Manager) Set(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
	if m.store != nil {
		return m.store.Save(s)
	}
	return nil
}

// Clear forgets the session both in memory and on disk.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Session{}
	if m.store != nil {
		return m.store.Clear()
	}
	return nil
}

// RequireSession guards protected commands.
func RequireSession(m *Manager) (Session, error) {
	s, ok := m.Current()
	if !ok {
		return Session{}, models.ErrAuthRequired
	}
	return s, nil
}
