// Package memory provides the in-memory audit store used by tests and
// single-node deployments that do not ship events to Kafka.
package memory

import (
	"context"
	"sync"

	"scangate/internal/audit"
)

type InMemoryStore struct {
	mu     sync.Mutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// List returns all appended events in order.
func (s *InMemoryStore) List(_ context.Context) ([]audit.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out, nil
}

// ListByAction filters the trail by action name.
func (s *InMemoryStore) ListByAction(_ context.Context, action string) ([]audit.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out, nil
}
