// Package tasklist holds the task list controller: the visible list, the
// active sort and filter, and the single-slot undo buffers. Every mutation goes
// through the store and is followed by a refresh.
package tasklist

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"taskmgr/internal/store"
)

// Draft holds the caller-supplied fields of a new task.
type Draft struct {
	Title       string
	Description *string
	Priority    store.Priority
	DueDate     *time.Time
}

// UndoSlots holds the pre-mutation snapshots of the most recent delete and
// complete. Either may be nil.
type UndoSlots struct {
	Deleted   *store.Task
	Completed *store.Task
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for mutation and failure reporting.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithSort sets the initial sort option.
func WithSort(s store.Sort) Option {
	return func(c *Controller) { c.sort = s }
}

// WithFilter sets the initial filter option.
func WithFilter(f store.Filter) Option {
	return func(c *Controller) { c.filter = f }
}

// WithUndoSlots restores undo buffers saved from an earlier session.
func WithUndoSlots(u UndoSlots) Option {
	return func(c *Controller) {
		c.lastDeleted = clonePtr(u.Deleted)
		c.lastCompleted = clonePtr(u.Completed)
	}
}

// Controller mediates every change to the task list.
//
// All operations are serialized. Subscribers are invoked synchronously while
// the controller is locked and must not call back into it.
type Controller struct {
	mu     sync.Mutex
	store  store.Store
	logger *log.Logger
	newID  func() string

	sort   store.Sort
	filter store.Filter
	tasks  []store.Task

	lastDeleted   *store.Task
	lastCompleted *store.Task

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// New creates a controller over s. The visible list starts empty; call
// Refresh to load it.
func New(s store.Store, opts ...Option) *Controller {
	c := &Controller{
		store:  s,
		logger: log.New(io.Discard),
		newID:  uuid.NewString,
		sort:   store.SortManual,
		filter: store.FilterAll,
		subs:   make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh re-fetches the visible list with the current sort and filter.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh(ctx)
}

// SetSort changes the sort option and refreshes.
func (c *Controller) SetSort(ctx context.Context, s store.Sort) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = s
	return c.refresh(ctx)
}

// SetFilter changes the filter option and refreshes.
func (c *Controller) SetFilter(ctx context.Context, f store.Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
	return c.refresh(ctx)
}

// Create validates d, persists it as a new pending task and refreshes.
func (c *Controller) Create(ctx context.Context, d Draft) (store.Task, error) {
	if err := validate(d.Title, d.Priority); err != nil {
		return store.Task{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	t := store.Task{
		ID:          c.newID(),
		Title:       d.Title,
		Description: cloneString(d.Description),
		Priority:    d.Priority,
		DueDate:     store.NormalizeDue(d.DueDate),
	}
	if err := c.store.Create(ctx, t); err != nil {
		return store.Task{}, c.failed("create", t.ID, err)
	}
	c.logger.Debug("task created", "id", t.ID, "title", t.Title)
	return t, c.refresh(ctx)
}

// Update overwrites the editable fields of an existing task and refreshes.
func (c *Controller) Update(ctx context.Context, t store.Task) error {
	if err := validate(t.Title, t.Priority); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	t = t.Clone()
	t.DueDate = store.NormalizeDue(t.DueDate)
	if err := c.store.Update(ctx, t); err != nil {
		return c.failed("update", t.ID, err)
	}
	c.logger.Debug("task updated", "id", t.ID)
	return c.refresh(ctx)
}

// Delete removes t, keeping it as the delete undo snapshot.
func (c *Controller) Delete(ctx context.Context, t store.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.lastDeleted
	c.lastDeleted = clonePtr(&t)
	if err := c.store.Delete(ctx, t); err != nil {
		c.lastDeleted = prev
		return c.failed("delete", t.ID, err)
	}
	c.logger.Debug("task deleted", "id", t.ID)
	return c.refresh(ctx)
}

// UndoDelete re-creates the last deleted task under a new ID. The old ID is
// not reused. No-op when nothing was deleted.
func (c *Controller) UndoDelete(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastDeleted == nil {
		return nil
	}
	t := c.lastDeleted.Clone()
	t.ID = c.newID()
	if err := c.store.Create(ctx, t); err != nil {
		return c.failed("create", t.ID, err)
	}
	c.logger.Debug("delete undone", "old_id", c.lastDeleted.ID, "id", t.ID)
	c.lastDeleted = nil
	return c.refresh(ctx)
}

// Complete marks t completed, keeping the pre-mutation record as the
// complete undo snapshot.
func (c *Controller) Complete(ctx context.Context, t store.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.lastCompleted
	c.lastCompleted = clonePtr(&t)
	done := t.Clone()
	done.IsCompleted = true
	if err := c.store.Update(ctx, done); err != nil {
		c.lastCompleted = prev
		return c.failed("update", t.ID, err)
	}
	c.logger.Debug("task completed", "id", t.ID)
	return c.refresh(ctx)
}

// UndoComplete marks the last completed task pending again, keeping its ID.
// No-op when nothing was completed.
func (c *Controller) UndoComplete(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastCompleted == nil {
		return nil
	}
	t := c.lastCompleted.Clone()
	t.IsCompleted = false
	if err := c.store.Update(ctx, t); err != nil {
		return c.failed("update", t.ID, err)
	}
	c.logger.Debug("complete undone", "id", t.ID)
	c.lastCompleted = nil
	return c.refresh(ctx)
}

// SetCompletion sets the completion flag of t. Completing goes through
// Complete so it can be undone; reopening is a plain update.
func (c *Controller) SetCompletion(ctx context.Context, t store.Task, done bool) error {
	if done {
		return c.Complete(ctx, t)
	}
	t = t.Clone()
	t.IsCompleted = false
	return c.Update(ctx, t)
}

// DeleteAll removes every task. Undo slots are left untouched.
func (c *Controller) DeleteAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.DeleteAll(ctx); err != nil {
		return c.failed("deleteAll", "", err)
	}
	c.logger.Debug("all tasks deleted")
	return c.refresh(ctx)
}

// Reorder moves the visible tasks at indices from so they sit before the
// task that was at index to (to == len appends), then persists order = index
// for every visible task. Subscribers see the moved list before any write.
//
// Writes are made one record at a time; a failure part way through leaves a
// partial reorder in the store, after which the visible list is re-fetched.
// If that fetch fails too, the list from before the move is restored.
func (c *Controller) Reorder(ctx context.Context, from []int, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := validateMove(len(c.tasks), from, to); err != nil {
		return err
	}

	prev := cloneTasks(c.tasks)
	c.tasks = move(c.tasks, from, to)
	for i := range c.tasks {
		c.tasks[i].Order = i
	}
	c.publish()

	for _, t := range c.tasks {
		if err := c.store.Update(ctx, t); err != nil {
			err = c.failed("update", t.ID, err)
			if rerr := c.refresh(ctx); rerr != nil {
				c.logger.Warn("refresh after failed reorder", "err", rerr)
				c.tasks = prev
				c.publish()
			}
			return err
		}
	}
	c.logger.Debug("tasks reordered", "count", len(c.tasks), "sort", c.sort)

	if c.sort != store.SortManual {
		return c.refresh(ctx)
	}
	return nil
}

// refresh must be called with c.mu held.
func (c *Controller) refresh(ctx context.Context) error {
	tasks, err := c.store.Fetch(ctx, c.sort, c.filter)
	if err != nil {
		return c.failed("fetch", "", err)
	}
	c.tasks = tasks
	c.publish()
	return nil
}

// failed logs a store failure and returns it as a PersistenceError.
func (c *Controller) failed(op, id string, err error) error {
	err = store.Wrap(op, err)
	c.logger.Error("store operation failed", "op", op, "id", id, "err", err)
	return err
}

func validate(title string, p store.Priority) error {
	if strings.TrimSpace(title) == "" {
		return &store.ValidationError{Field: "title", Err: store.ErrEmptyTitle}
	}
	if !p.Valid() {
		return &store.ValidationError{Field: "priority", Err: fmt.Errorf("invalid priority: %d", p)}
	}
	return nil
}

func validateMove(n int, from []int, to int) error {
	if len(from) == 0 {
		return &store.ValidationError{Field: "from", Err: fmt.Errorf("no source index")}
	}
	seen := make(map[int]bool, len(from))
	for _, i := range from {
		if i < 0 || i >= n {
			return &store.ValidationError{Field: "from", Err: fmt.Errorf("index out of range: %d", i)}
		}
		if seen[i] {
			return &store.ValidationError{Field: "from", Err: fmt.Errorf("duplicate index: %d", i)}
		}
		seen[i] = true
	}
	if to < 0 || to > n {
		return &store.ValidationError{Field: "to", Err: fmt.Errorf("index out of range: %d", to)}
	}
	return nil
}

// move returns tasks with the entries at from reinserted, in their original
// relative order, before the entry originally at to.
func move(tasks []store.Task, from []int, to int) []store.Task {
	moving := make(map[int]bool, len(from))
	for _, i := range from {
		moving[i] = true
	}

	var moved, rest []store.Task
	insertAt := 0
	for i, t := range tasks {
		if moving[i] {
			moved = append(moved, t)
			continue
		}
		if i < to {
			insertAt++
		}
		rest = append(rest, t)
	}

	out := make([]store.Task, 0, len(tasks))
	out = append(out, rest[:insertAt]...)
	out = append(out, moved...)
	return append(out, rest[insertAt:]...)
}

func clonePtr(t *store.Task) *store.Task {
	if t == nil {
		return nil
	}
	c := t.Clone()
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
