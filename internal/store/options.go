package store

import (
	"fmt"
	"strings"
)

// Sort selects the ordering of a fetch.
type Sort string

const (
	SortManual       Sort = "manual"
	SortPriority     Sort = "priority"
	SortDueDate      Sort = "dueDate"
	SortAlphabetical Sort = "alphabetical"
)

// Sorts lists every sort option in display order.
var Sorts = []Sort{SortManual, SortPriority, SortDueDate, SortAlphabetical}

// ParseSort parses a sort option. Accepts the canonical names and the short
// forms used on the command line (due, alpha, title).
func ParseSort(s string) (Sort, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "manual", "order":
		return SortManual, nil
	case "priority":
		return SortPriority, nil
	case "duedate", "due":
		return SortDueDate, nil
	case "alphabetical", "alpha", "title":
		return SortAlphabetical, nil
	}
	return "", &ValidationError{Field: "sort", Err: fmt.Errorf("invalid sort option: %s", s)}
}

// Filter selects which records a fetch returns.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterCompleted Filter = "completed"
	FilterPending   Filter = "pending"
)

// Filters lists every filter option in display order.
var Filters = []Filter{FilterAll, FilterCompleted, FilterPending}

// ParseFilter parses a filter option.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "completed", "done":
		return FilterCompleted, nil
	case "pending", "open":
		return FilterPending, nil
	}
	return "", &ValidationError{Field: "filter", Err: fmt.Errorf("invalid filter option: %s", s)}
}

// Match reports whether t passes the filter.
func (f Filter) Match(t Task) bool {
	switch f {
	case FilterCompleted:
		return t.IsCompleted
	case FilterPending:
		return !t.IsCompleted
	default:
		return true
	}
}
