// Package memory provides an in-process RunStore.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/aretw0/slicer/pkg/domain"
)

// Store implements ports.RunStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Run
	mu   sync.RWMutex
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		data: make(map[string]*domain.Run),
	}
}

// Save persists a copy of the run.
func (s *Store) Save(ctx context.Context, run *domain.Run) error {
	copied := clone(run)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[run.ID] = copied
	return nil
}

// Load returns a copy of the run so callers cannot mutate the stored record.
func (s *Store) Load(ctx context.Context, runID string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return clone(run), nil
}

// Delete removes the run.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns stored run IDs ordered by start time.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	runs := make([]*domain.Run, 0, len(s.data))
	for _, r := range s.data {
		runs = append(runs, r)
	}
	s.mu.RUnlock()

	slices.SortFunc(runs, func(a, b *domain.Run) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids, nil
}

func clone(run *domain.Run) *domain.Run {
	c := *run
	if run.Bounds != nil {
		box := *run.Bounds
		c.Bounds = &box
	}
	return &c
}
