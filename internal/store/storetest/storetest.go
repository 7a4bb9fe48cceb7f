// Package storetest provides a conformance suite run against every store.Store backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"taskmgr/internal/store"
)

// Factory returns an empty store. The suite closes it when the subtest ends.
type Factory func(t *testing.T) store.Store

// Run executes the conformance suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"RoundTrip", testRoundTrip},
		{"RoundTripNilOptionals", testRoundTripNilOptionals},
		{"FilterPredicates", testFilterPredicates},
		{"SortPriority", testSortPriority},
		{"SortDueDateUndatedLast", testSortDueDate},
		{"SortAlphabetical", testSortAlphabetical},
		{"SortManual", testSortManual},
		{"TiesKeepInsertionOrder", testTies},
		{"UpdateOverwrites", testUpdate},
		{"UpdateMissingIsNoop", testUpdateMissing},
		{"Delete", testDelete},
		{"DeleteMissingIsNoop", testDeleteMissing},
		{"DeleteAll", testDeleteAll},
		{"FetchIdempotent", testFetchIdempotent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

// NewTask returns a pending task with a fresh id.
func NewTask(title string, p store.Priority) store.Task {
	return store.Task{ID: uuid.NewString(), Title: title, Priority: p}
}

// Due returns a normalized due date offset by days from a fixed base.
func Due(days int) *time.Time {
	base := time.Date(2026, 4, 1, 8, 30, 15, 123456000, time.UTC)
	return store.NormalizeDue(store.TimePtr(base.AddDate(0, 0, days)))
}

func mustCreate(t *testing.T, s store.Store, tasks ...store.Task) {
	t.Helper()
	for _, task := range tasks {
		if err := s.Create(context.Background(), task); err != nil {
			t.Fatalf("create %q: %v", task.Title, err)
		}
	}
}

func mustFetch(t *testing.T, s store.Store, sort store.Sort, filter store.Filter) []store.Task {
	t.Helper()
	tasks, err := s.Fetch(context.Background(), sort, filter)
	if err != nil {
		t.Fatalf("fetch(%s, %s): %v", sort, filter, err)
	}
	return tasks
}

func titles(tasks []store.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func expectTitles(t *testing.T, got []store.Task, want ...string) {
	t.Helper()
	gotTitles := titles(got)
	if len(gotTitles) != len(want) {
		t.Fatalf("expected %v, got %v", want, gotTitles)
	}
	for i := range want {
		if gotTitles[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, gotTitles)
		}
	}
}

func findByID(tasks []store.Task, id string) (store.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return store.Task{}, false
}

func testRoundTrip(t *testing.T, s store.Store) {
	in := store.Task{
		ID:          uuid.NewString(),
		Title:       "Buy milk",
		Description: store.StringPtr("two litres, semi-skimmed"),
		Priority:    store.High,
		DueDate:     Due(3),
		IsCompleted: true,
		Order:       7,
	}
	mustCreate(t, s, in)

	got, ok := findByID(mustFetch(t, s, store.SortManual, store.FilterAll), in.ID)
	if !ok {
		t.Fatalf("created task %s not returned by fetch", in.ID)
	}
	if !got.SameContent(in) {
		t.Errorf("round trip mismatch:\nwant %+v\ngot  %+v", in, got)
	}
	if got.Order != in.Order {
		t.Errorf("expected order %d, got %d", in.Order, got.Order)
	}
}

func testRoundTripNilOptionals(t *testing.T, s store.Store) {
	in := NewTask("Call Bob", store.Low)
	mustCreate(t, s, in)

	got, ok := findByID(mustFetch(t, s, store.SortManual, store.FilterAll), in.ID)
	if !ok {
		t.Fatalf("created task %s not returned by fetch", in.ID)
	}
	if got.Description != nil {
		t.Errorf("expected nil description, got %q", *got.Description)
	}
	if got.DueDate != nil {
		t.Errorf("expected nil due date, got %v", *got.DueDate)
	}
	if !got.SameContent(in) {
		t.Errorf("round trip mismatch:\nwant %+v\ngot  %+v", in, got)
	}
}

func testFilterPredicates(t *testing.T, s store.Store) {
	done := NewTask("done", store.Low)
	done.IsCompleted = true
	mustCreate(t, s, NewTask("open 1", store.Low), done, NewTask("open 2", store.High))

	for _, task := range mustFetch(t, s, store.SortManual, store.FilterCompleted) {
		if !task.IsCompleted {
			t.Errorf("completed filter returned pending task %q", task.Title)
		}
	}
	for _, task := range mustFetch(t, s, store.SortManual, store.FilterPending) {
		if task.IsCompleted {
			t.Errorf("pending filter returned completed task %q", task.Title)
		}
	}
	if n := len(mustFetch(t, s, store.SortManual, store.FilterAll)); n != 3 {
		t.Errorf("all filter: expected 3 tasks, got %d", n)
	}
	if n := len(mustFetch(t, s, store.SortManual, store.FilterCompleted)); n != 1 {
		t.Errorf("completed filter: expected 1 task, got %d", n)
	}
}

func testSortPriority(t *testing.T, s store.Store) {
	mustCreate(t, s,
		NewTask("Buy milk", store.Medium),
		NewTask("Call Bob", store.High),
		NewTask("Water plants", store.Low),
	)
	expectTitles(t, mustFetch(t, s, store.SortPriority, store.FilterAll), "Call Bob", "Buy milk", "Water plants")
}

func testSortDueDate(t *testing.T, s store.Store) {
	undated := NewTask("undated", store.Low)
	late := NewTask("late", store.Low)
	late.DueDate = Due(10)
	early := NewTask("early", store.Low)
	early.DueDate = Due(1)
	mustCreate(t, s, undated, late, early)

	expectTitles(t, mustFetch(t, s, store.SortDueDate, store.FilterAll), "early", "late", "undated")
}

func testSortAlphabetical(t *testing.T, s store.Store) {
	mustCreate(t, s,
		NewTask("beta", store.Low),
		NewTask("Alpha", store.Low),
		NewTask("alpha", store.Low),
	)
	expectTitles(t, mustFetch(t, s, store.SortAlphabetical, store.FilterAll), "Alpha", "alpha", "beta")
}

func testSortManual(t *testing.T, s store.Store) {
	a := NewTask("a", store.Low)
	a.Order = 2
	b := NewTask("b", store.Low)
	b.Order = 0
	c := NewTask("c", store.Low)
	c.Order = 1
	mustCreate(t, s, a, b, c)

	expectTitles(t, mustFetch(t, s, store.SortManual, store.FilterAll), "b", "c", "a")
}

func testTies(t *testing.T, s store.Store) {
	mustCreate(t, s,
		NewTask("first", store.Medium),
		NewTask("second", store.Medium),
		NewTask("third", store.Medium),
	)
	expectTitles(t, mustFetch(t, s, store.SortPriority, store.FilterAll), "first", "second", "third")
	expectTitles(t, mustFetch(t, s, store.SortManual, store.FilterAll), "first", "second", "third")
	expectTitles(t, mustFetch(t, s, store.SortDueDate, store.FilterAll), "first", "second", "third")
}

func testUpdate(t *testing.T, s store.Store) {
	task := NewTask("draft", store.Low)
	mustCreate(t, s, task)

	task.Title = "final"
	task.Description = store.StringPtr("edited")
	task.Priority = store.High
	task.DueDate = Due(2)
	task.IsCompleted = true
	task.Order = 4
	if err := s.Update(context.Background(), task); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, ok := findByID(mustFetch(t, s, store.SortManual, store.FilterAll), task.ID)
	if !ok {
		t.Fatal("updated task missing")
	}
	if !got.Equal(task) {
		t.Errorf("update mismatch:\nwant %+v\ngot  %+v", task, got)
	}
}

func testUpdateMissing(t *testing.T, s store.Store) {
	mustCreate(t, s, NewTask("only", store.Low))

	ghost := NewTask("ghost", store.High)
	if err := s.Update(context.Background(), ghost); err != nil {
		t.Fatalf("update of missing record should be a no-op, got %v", err)
	}
	expectTitles(t, mustFetch(t, s, store.SortManual, store.FilterAll), "only")
}

func testDelete(t *testing.T, s store.Store) {
	a := NewTask("a", store.Low)
	b := NewTask("b", store.Low)
	mustCreate(t, s, a, b)

	if err := s.Delete(context.Background(), a); err != nil {
		t.Fatalf("delete: %v", err)
	}
	expectTitles(t, mustFetch(t, s, store.SortManual, store.FilterAll), "b")
}

func testDeleteMissing(t *testing.T, s store.Store) {
	mustCreate(t, s, NewTask("only", store.Low))

	if err := s.Delete(context.Background(), NewTask("ghost", store.Low)); err != nil {
		t.Fatalf("delete of missing record should be a no-op, got %v", err)
	}
	expectTitles(t, mustFetch(t, s, store.SortManual, store.FilterAll), "only")
}

func testDeleteAll(t *testing.T, s store.Store) {
	mustCreate(t, s, NewTask("a", store.Low), NewTask("b", store.High))

	if err := s.DeleteAll(context.Background()); err != nil {
		t.Fatalf("deleteAll: %v", err)
	}
	if n := len(mustFetch(t, s, store.SortManual, store.FilterAll)); n != 0 {
		t.Errorf("expected empty store, got %d tasks", n)
	}
}

func testFetchIdempotent(t *testing.T, s store.Store) {
	mustCreate(t, s, NewTask("x", store.Low), NewTask("y", store.High))

	first := mustFetch(t, s, store.SortPriority, store.FilterAll)
	second := mustFetch(t, s, store.SortPriority, store.FilterAll)
	if len(first) != len(second) {
		t.Fatalf("fetch not idempotent: %d vs %d tasks", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("fetch not idempotent at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}
