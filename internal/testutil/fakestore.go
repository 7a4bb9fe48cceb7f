// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"sync"

	"taskmgr/internal/backend/memory"
	"taskmgr/internal/store"
)

// ErrInjected is a convenience error for failure injection.
var ErrInjected = errors.New("injected failure")

// FakeStore is an in-memory store.Store with error injection and call counting.
type FakeStore struct {
	*memory.Store

	mu    sync.Mutex
	calls map[string]int

	// Error injection for testing
	CreateErr    error
	FetchErr     error
	UpdateErr    error
	DeleteErr    error
	DeleteAllErr error

	// UpdateErrAfter makes Update fail once this many updates have succeeded.
	// Zero disables it.
	UpdateErrAfter int
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		Store: memory.New(),
		calls: make(map[string]int),
	}
}

// AddTask seeds a task directly, bypassing error injection.
func (f *FakeStore) AddTask(t store.Task) {
	_ = f.Store.Create(context.Background(), t)
}

// Calls returns the number of times op was invoked.
func (f *FakeStore) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FakeStore) record(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.calls[op]
}

// All returns every stored task in manual order.
func (f *FakeStore) All() []store.Task {
	tasks, _ := f.Store.Fetch(context.Background(), store.SortManual, store.FilterAll)
	return tasks
}

// Create implements store.Store.
func (f *FakeStore) Create(ctx context.Context, t store.Task) error {
	f.record("create")
	if f.CreateErr != nil {
		return store.Wrap("create", f.CreateErr)
	}
	return f.Store.Create(ctx, t)
}

// Fetch implements store.Store.
func (f *FakeStore) Fetch(ctx context.Context, sort store.Sort, filter store.Filter) ([]store.Task, error) {
	f.record("fetch")
	if f.FetchErr != nil {
		return nil, store.Wrap("fetch", f.FetchErr)
	}
	return f.Store.Fetch(ctx, sort, filter)
}

// Update implements store.Store.
func (f *FakeStore) Update(ctx context.Context, t store.Task) error {
	n := f.record("update")
	if f.UpdateErr != nil {
		return store.Wrap("update", f.UpdateErr)
	}
	if f.UpdateErrAfter > 0 && n > f.UpdateErrAfter {
		return store.Wrap("update", ErrInjected)
	}
	return f.Store.Update(ctx, t)
}

// Delete implements store.Store.
func (f *FakeStore) Delete(ctx context.Context, t store.Task) error {
	f.record("delete")
	if f.DeleteErr != nil {
		return store.Wrap("delete", f.DeleteErr)
	}
	return f.Store.Delete(ctx, t)
}

// DeleteAll implements store.Store.
func (f *FakeStore) DeleteAll(ctx context.Context) error {
	f.record("deleteAll")
	if f.DeleteAllErr != nil {
		return store.Wrap("deleteAll", f.DeleteAllErr)
	}
	return f.Store.DeleteAll(ctx)
}
