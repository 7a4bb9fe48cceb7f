// Package memory implements store.Store in process memory.
package memory

import (
	"context"
	"sync"

	"taskmgr/internal/store"
)

// Store is an in-memory task store. Records are kept in insertion order.
type Store struct {
	mu    sync.RWMutex
	tasks []store.Task
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, t store.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t.Clone())
	return nil
}

// Fetch implements store.Store.
func (s *Store) Fetch(ctx context.Context, sort store.Sort, filter store.Filter) ([]store.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.Apply(s.tasks, sort, filter), nil
}

// Update implements store.Store.
func (s *Store) Update(ctx context.Context, t store.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks[i] = t.Clone()
			return nil
		}
	}
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, t store.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}

// DeleteAll implements store.Store.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
	return nil
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
