package chat

import (
	"log/slog"
	"sync"
)

// Factory builds the controller for a new session id.
type Factory func(sessionID string) *Controller

// Manager is the registry of live controllers, one per browser session.
type Manager struct {
	factory Factory

	mu          sync.Mutex
	controllers map[string]*Controller
	closed      bool
}

// NewManager creates an empty registry that builds controllers with factory.
func NewManager(factory Factory) *Manager {
	return &Manager{
		factory:     factory,
		controllers: make(map[string]*Controller),
	}
}

// Get returns the controller for sessionID, if one exists.
func (m *Manager) Get(sessionID string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.controllers[sessionID]
	return c, ok
}

// GetOrCreate returns the controller for sessionID, creating it on first
// use. The boolean reports whether the controller was created by this call.
func (m *Manager) GetOrCreate(sessionID string) (*Controller, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	if c, ok := m.controllers[sessionID]; ok {
		return c, false, nil
	}
	c := m.factory(sessionID)
	m.controllers[sessionID] = c
	slog.Debug("Session controller created", "event", "session_created", "session_id", sessionID)
	return c, true, nil
}

// Remove closes and forgets the controller for sessionID.
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	c, ok := m.controllers[sessionID]
	delete(m.controllers, sessionID)
	m.mu.Unlock()

	if ok {
		c.Close()
	}
}

// Len returns the number of live controllers.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.controllers)
}

// Close closes every controller. Later GetOrCreate calls fail with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	controllers := m.controllers
	m.controllers = make(map[string]*Controller)
	m.closed = true
	m.mu.Unlock()

	for _, c := range controllers {
		c.Close()
	}
	slog.Info("Session controllers closed", "event", "sessions_closed", "count", len(controllers))
}
