package tasklist

import "taskmgr/internal/store"

// Snapshot is an immutable view of the controller state.
type Snapshot struct {
	Tasks           []store.Task
	Sort            store.Sort
	Filter          store.Filter
	CompletionRatio float64
}

// Stats summarizes completion over the visible list.
type Stats struct {
	Total     int
	Completed int
	Pending   int
	Ratio     float64
}

// Subscribe registers fn to receive a snapshot after every change of visible
// state. The returned func removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

// publish must be called with c.mu held.
func (c *Controller) publish() {
	c.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	if len(fns) == 0 {
		return
	}
	snap := c.snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() Snapshot {
	return Snapshot{
		Tasks:           cloneTasks(c.tasks),
		Sort:            c.sort,
		Filter:          c.filter,
		CompletionRatio: computeStats(c.tasks).Ratio,
	}
}

// Tasks returns a copy of the visible list.
func (c *Controller) Tasks() []store.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneTasks(c.tasks)
}

// Sort returns the active sort option.
func (c *Controller) Sort() store.Sort {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sort
}

// Filter returns the active filter option.
func (c *Controller) Filter() store.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// CompletionRatio returns completed/total over the visible list, or exactly
// 0 when the list is empty.
func (c *Controller) CompletionRatio() float64 {
	return c.Stats().Ratio
}

// Stats returns completion counts over the visible list.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return computeStats(c.tasks)
}

// UndoSlots returns copies of the undo buffers.
func (c *Controller) UndoSlots() UndoSlots {
	c.mu.Lock()
	defer c.mu.Unlock()
	return UndoSlots{
		Deleted:   clonePtr(c.lastDeleted),
		Completed: clonePtr(c.lastCompleted),
	}
}

func computeStats(tasks []store.Task) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.IsCompleted {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	if s.Total > 0 {
		s.Ratio = float64(s.Completed) / float64(s.Total)
	}
	return s
}

func cloneTasks(tasks []store.Task) []store.Task {
	out := make([]store.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
