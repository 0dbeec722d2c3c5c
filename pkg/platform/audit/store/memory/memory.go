// Package memory provides an in-memory audit store for development and tests.
package memory

import (
	"context"
	"sync"

	id "induct/pkg/domain"
	"induct/pkg/platform/audit"
)

// Store keeps audit events in memory, append-only.
type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

// Append records one event.
func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByPersonnel returns the events recorded for one personnel record,
// oldest first.
func (s *Store) ListByPersonnel(_ context.Context, personnelID id.PersonnelID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.PersonnelID == personnelID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns a copy of every recorded event. Test helper.
func (s *Store) All() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}
