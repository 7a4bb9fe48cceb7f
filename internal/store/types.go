// Package store defines the task record and the backend-agnostic storage contract.
package store

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the ordered importance of a task.
type Priority int

const (
	Low    Priority = 0
	Medium Priority = 1
	High   Priority = 2
)

// String returns the display name of the priority.
func (p Priority) String() string {
	switch p {
	case Low:
		return "Low"
	case Medium:
		return "Medium"
	case High:
		return "High"
	default:
		return "Unknown"
	}
}

// Valid reports whether p is one of Low, Medium or High.
func (p Priority) Valid() bool {
	return p >= Low && p <= High
}

// ParsePriority parses a priority name (case-insensitive) or its numeric value.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "0":
		return Low, nil
	case "medium", "med", "1":
		return Medium, nil
	case "high", "2":
		return High, nil
	}
	return 0, &ValidationError{Field: "priority", Err: fmt.Errorf("invalid priority: %s", s)}
}

// Task is a single to-do record.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	IsCompleted bool       `json:"completed"`
	Order       int        `json:"order"`
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	c := t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	return c
}

// Equal reports whether t and o have identical fields.
func (t Task) Equal(o Task) bool {
	return t.ID == o.ID && t.SameContent(o) && t.Order == o.Order
}

// SameContent reports whether t and o match on every field except ID and Order.
func (t Task) SameContent(o Task) bool {
	if t.Title != o.Title || t.Priority != o.Priority || t.IsCompleted != o.IsCompleted {
		return false
	}
	if (t.Description == nil) != (o.Description == nil) {
		return false
	}
	if t.Description != nil && *t.Description != *o.Description {
		return false
	}
	if (t.DueDate == nil) != (o.DueDate == nil) {
		return false
	}
	if t.DueDate != nil && !t.DueDate.Equal(*o.DueDate) {
		return false
	}
	return true
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }

// NormalizeDue truncates a due date to the microsecond precision every backend
// can store, so that create-then-fetch round-trips are exact.
func NormalizeDue(due *time.Time) *time.Time {
	if due == nil {
		return nil
	}
	t := due.Truncate(time.Microsecond).UTC()
	return &t
}
