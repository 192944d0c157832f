package scan

import (
	"sync"

	id "scangate/pkg/domain"
)

// SessionFactory builds a session for a device the manager has not seen yet.
type SessionFactory func(deviceID id.DeviceID) (*Session, error)

// Manager hands out one long-lived Session per device. Sessions are created
// lazily on first scan and kept for the device's lifetime; the single-flight
// rule lives in the Session itself.
type Manager struct {
	mu       sync.Mutex
	sessions map[id.DeviceID]*Session
	factory  SessionFactory
}

func NewManager(factory SessionFactory) *Manager {
	return &Manager{
		sessions: make(map[id.DeviceID]*Session),
		factory:  factory,
	}
}

// Session returns the device's session, creating it on first use.
func (m *Manager) Session(deviceID id.DeviceID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[deviceID]; ok {
		return s, nil
	}
	s, err := m.factory(deviceID)
	if err != nil {
		return nil, err
	}
	m.sessions[deviceID] = s
	return s, nil
}
