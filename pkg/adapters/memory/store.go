// Package memory provides an in-memory ports.RunStore. It is the default
// store for single-process servers and for tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/scribe/pkg/domain"
)

// Store keeps run records in a map. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*domain.Run
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{runs: make(map[string]*domain.Run)}
}

// Save creates or replaces the record under run.ID. The run is cloned on the
// way in so later caller mutations cannot reach the stored record.
func (s *Store) Save(_ context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run.Clone()
	return nil
}

// Get retrieves a copy of one run.
func (s *Store) Get(_ context.Context, id string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return run.Clone(), nil
}

// List returns copies of every run, newest first.
func (s *Store) List(_ context.Context) ([]*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a run.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return domain.ErrRunNotFound
	}
	delete(s.runs, id)
	return nil
}
