// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"taskmgr/internal/store"
)

const (
	// Separator is the separator line around section headers.
	Separator = "------------"

	// NoDueDate is shown for tasks without a due date.
	NoDueDate = "No Due Date"

	// DateLayout is the short date used in list lines and accepted by --due.
	DateLayout = "2006-01-02"

	// LongDateLayout is the date shown on the details view.
	LongDateLayout = "Jan 2, 2006"
)

// FormatTask formats a task line.
// Format: "{N:>4}  [x] {TITLE}  ({PRIORITY}[, due {DATE}])\n"
func FormatTask(w io.Writer, num int, task store.Task) {
	mark := "[ ]"
	if task.IsCompleted {
		mark = "[x]"
	}
	attrs := task.Priority.String()
	if task.DueDate != nil {
		attrs += ", due " + task.DueDate.In(time.Local).Format(DateLayout)
	}
	fmt.Fprintf(w, "%4d  %s %s  (%s)\n", num, mark, normalizeTitle(task.Title), attrs)
}

// FormatTasks formats every task, numbered from 1.
func FormatTasks(w io.Writer, tasks []store.Task) {
	for i, t := range tasks {
		FormatTask(w, i+1, t)
	}
}

// FormatHeader formats a section header.
func FormatHeader(w io.Writer, title string) {
	fmt.Fprintln(w, Separator)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, Separator)
}

// FormatDetails prints every field of a task, one per line.
func FormatDetails(w io.Writer, task store.Task) {
	status := "Pending"
	if task.IsCompleted {
		status = "Completed"
	}
	desc := "(none)"
	if task.Description != nil && strings.TrimSpace(*task.Description) != "" {
		desc = *task.Description
	}
	FormatHeader(w, normalizeTitle(task.Title))
	fmt.Fprintf(w, "Description: %s\n", desc)
	fmt.Fprintf(w, "Priority:    %s\n", task.Priority)
	fmt.Fprintf(w, "Due:         %s\n", FormatDue(task.DueDate))
	fmt.Fprintf(w, "Status:      %s\n", status)
}

// FormatDue renders a due date for display, or NoDueDate when absent.
func FormatDue(due *time.Time) string {
	if due == nil {
		return NoDueDate
	}
	return due.In(time.Local).Format(LongDateLayout)
}

// FormatSummary prints completion counts.
// Format: "{TOTAL} tasks, {DONE} completed, {PENDING} pending ({PCT}%)\n"
func FormatSummary(w io.Writer, total, completed, pending int, ratio float64) {
	fmt.Fprintf(w, "%d %s, %d completed, %d pending (%d%%)\n",
		total, plural(total, "task", "tasks"), completed, pending, Percent(ratio))
}

// Percent converts a completion ratio to a whole percentage.
func Percent(ratio float64) int {
	return int(math.Round(ratio * 100))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
