package store

import (
	"cmp"
	"context"
	"slices"
)

// Store defines the persistence contract for task records.
// Backends live under internal/backend; the controller never imports them.
type Store interface {
	// Create inserts a new record. The caller generates the ID.
	Create(ctx context.Context, t Task) error

	// Fetch returns every record matching filter, ordered by sort.
	// Ties are broken by insertion order.
	Fetch(ctx context.Context, sort Sort, filter Filter) ([]Task, error)

	// Update overwrites the mutable fields of the record with t.ID.
	// A missing record is a silent no-op.
	Update(ctx context.Context, t Task) error

	// Delete removes the record with t.ID. A missing record is a no-op.
	Delete(ctx context.Context, t Task) error

	// DeleteAll removes every record.
	DeleteAll(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Apply filters tasks and sorts the result. tasks must be in insertion order;
// the sort is stable so that insertion order breaks ties. The input slice is
// not modified.
func Apply(tasks []Task, sort Sort, filter Filter) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.Match(t) {
			out = append(out, t.Clone())
		}
	}
	slices.SortStableFunc(out, Comparator(sort))
	return out
}

// Comparator returns the ordering function for sort.
func Comparator(sort Sort) func(a, b Task) int {
	switch sort {
	case SortPriority:
		return func(a, b Task) int { return cmp.Compare(b.Priority, a.Priority) }
	case SortDueDate:
		return compareDue
	case SortAlphabetical:
		return func(a, b Task) int { return cmp.Compare(a.Title, b.Title) }
	default:
		return func(a, b Task) int { return cmp.Compare(a.Order, b.Order) }
	}
}

// compareDue orders dated records ascending and undated records last.
func compareDue(a, b Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	return a.DueDate.Compare(*b.DueDate)
}
