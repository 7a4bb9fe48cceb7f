package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskmgr/internal/commands"
	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/store"
	"taskmgr/internal/testutil"
)

// runCommand runs cmd the way the dispatcher does, parsing args with the
// command's own flags.
func runCommand(t *testing.T, cfg *config.Config, cmd commands.Command, st store.Store, args ...string) (stdout, stderr string, code int) {
	t.Helper()

	fs := commands.NewFlagSet(cmd.Name())
	cmd.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}

	var outBuf, errBuf bytes.Buffer
	code = cmd.Run(context.Background(), cfg, st, fs.Args(), &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func newConfig(t *testing.T, quiet bool) *config.Config {
	t.Helper()
	return &config.Config{Dir: t.TempDir(), Quiet: quiet, Backend: config.BackendMemory}
}

func seeded() *testutil.FakeStore {
	st := testutil.NewFakeStore()
	st.AddTask(store.Task{ID: "a", Title: "Write report", Priority: store.High, Order: 0})
	st.AddTask(store.Task{ID: "b", Title: "buy milk", Priority: store.Low, Order: 1, IsCompleted: true})
	st.AddTask(store.Task{ID: "c", Title: "Call plumber", Priority: store.Medium, Order: 2})
	return st
}

func titles(tasks []store.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func find(t *testing.T, st *testutil.FakeStore, id string) store.Task {
	t.Helper()
	for _, task := range st.All() {
		if task.ID == id {
			return task
		}
	}
	t.Fatalf("task %s not found", id)
	return store.Task{}
}

func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, newConfig(t, false), &commands.VersionCmd{}, nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskmgr 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

func TestHelpCommand(t *testing.T) {
	stdout, _, code := runCommand(t, newConfig(t, false), &commands.HelpCmd{}, nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	for _, want := range []string{"Usage:", "taskmgr undo", "--backend", "--sort"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output should contain %q", want)
		}
	}
}

func TestListCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, newConfig(t, false), &commands.ListCmd{}, seeded())

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	testutil.GoldenString(t, "list_manual", stdout)
}

func TestListCommand_SortAndFilter(t *testing.T) {
	stdout, _, code := runCommand(t, newConfig(t, false), &commands.ListCmd{}, seeded(),
		"--sort", "alpha", "--filter", "pending")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	want := "   1  [ ] Call plumber  (Medium)\n" +
		"   2  [ ] Write report  (High)\n"
	if stdout != want {
		t.Errorf("got:\n%s\nwant:\n%s", stdout, want)
	}
}

func TestListCommand_Empty(t *testing.T) {
	stdout, _, code := runCommand(t, newConfig(t, false), &commands.ListCmd{}, testutil.NewFakeStore())
	if code != exitcode.Success || stdout != "no tasks found\n" {
		t.Errorf("got code %d, stdout %q", code, stdout)
	}

	stdout, _, _ = runCommand(t, newConfig(t, true), &commands.ListCmd{}, testutil.NewFakeStore())
	if stdout != "" {
		t.Errorf("expected no stdout in quiet mode, got %q", stdout)
	}
}

func TestListCommand_InvalidSort(t *testing.T) {
	_, stderr, code := runCommand(t, newConfig(t, false), &commands.ListCmd{}, seeded(), "--sort", "size")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: invalid sort option: size\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestListCommand_BackendError(t *testing.T) {
	st := seeded()
	st.FetchErr = testutil.ErrInjected

	_, stderr, code := runCommand(t, newConfig(t, false), &commands.ListCmd{}, st)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.HasPrefix(stderr, "error: backend error:") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestShowCommand(t *testing.T) {
	st := seeded()
	desc := "quarterly numbers"
	st.AddTask(store.Task{ID: "d", Title: "Plan offsite", Description: &desc, Priority: store.Low, Order: 3})

	stdout, _, code := runCommand(t, newConfig(t, false), &commands.ShowCmd{}, st, "4")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	for _, want := range []string{"Plan offsite", "Description: quarterly numbers", "Priority:    Low", "Due:         No Due Date", "Status:      Pending"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("details missing %q:\n%s", want, stdout)
		}
	}
}

func TestAddCommand(t *testing.T) {
	st := testutil.NewFakeStore()

	stdout, stderr, code := runCommand(t, newConfig(t, false), &commands.AddCmd{}, st,
		"--priority", "high", "--desc", "before friday", "--due", "2026-05-01", "Submit", "expenses")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}

	tasks := st.All()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Title != "Submit expenses" || got.Priority != store.High || got.IsCompleted {
		t.Errorf("unexpected task %+v", got)
	}
	if got.Description == nil || *got.Description != "before friday" {
		t.Errorf("unexpected description %v", got.Description)
	}
	if got.DueDate == nil || got.DueDate.In(time.Local).Format("2006-01-02") != "2026-05-01" {
		t.Errorf("unexpected due date %v", got.DueDate)
	}
}

func TestAddCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no title", nil, "error: title required\n"},
		{"blank title", []string{"   "}, "error: title required\n"},
		{"bad priority", []string{"--priority", "urgent", "x"}, "error: invalid priority: urgent\n"},
		{"bad due", []string{"--due", "tomorrow", "x"}, "error: invalid due date: tomorrow (want YYYY-MM-DD)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testutil.NewFakeStore()
			_, stderr, code := runCommand(t, newConfig(t, false), &commands.AddCmd{}, st, tt.args...)

			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if stderr != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stderr)
			}
			if st.Calls("create") != 0 {
				t.Error("store should not be called")
			}
		})
	}
}

func TestEditCommand(t *testing.T) {
	st := seeded()

	_, stderr, code := runCommand(t, newConfig(t, true), &commands.EditCmd{}, st,
		"--title", "Write final report", "--priority", "low", "--desc", "draft first", "1")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	got := find(t, st, "a")
	if got.Title != "Write final report" || got.Priority != store.Low {
		t.Errorf("unexpected task %+v", got)
	}
	if got.Description == nil || *got.Description != "draft first" {
		t.Errorf("unexpected description %v", got.Description)
	}

	// An empty --desc clears the description.
	if _, _, code := runCommand(t, newConfig(t, true), &commands.EditCmd{}, st, "--desc", "", "1"); code != exitcode.Success {
		t.Fatalf("clear description: exit %d", code)
	}
	if got := find(t, st, "a"); got.Description != nil {
		t.Errorf("description should be cleared, got %q", *got.Description)
	}
}

func TestEditCommand_NothingToEdit(t *testing.T) {
	_, stderr, code := runCommand(t, newConfig(t, false), &commands.EditCmd{}, seeded(), "1")

	if code != exitcode.UserError || stderr != "error: nothing to edit\n" {
		t.Errorf("got code %d, stderr %q", code, stderr)
	}
}

func TestDoneCommand_UsesVisibleNumbering(t *testing.T) {
	st := seeded()

	// Pending tasks sorted by priority: Write report, Call plumber.
	_, _, code := runCommand(t, newConfig(t, false), &commands.DoneCmd{}, st,
		"--sort", "priority", "--filter", "pending", "2")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !find(t, st, "c").IsCompleted {
		t.Error("Call plumber should be completed")
	}
	if find(t, st, "a").IsCompleted {
		t.Error("Write report should still be pending")
	}
}

func TestDoneCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing ref", nil, "error: task reference required\n"},
		{"zero", []string{"0"}, "error: task number out of range: 0\n"},
		{"past end", []string{"9"}, "error: task number out of range: 9\n"},
		{"not a number", []string{"abc"}, "error: invalid task reference: abc\n"},
		{"extra args", []string{"1", "2"}, "error: too many arguments: [2]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := runCommand(t, newConfig(t, false), &commands.DoneCmd{}, seeded(), tt.args...)
			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if stderr != tt.want {
				t.Errorf("expected %q, got %q", tt.want, stderr)
			}
		})
	}
}

func TestUndoneCommand(t *testing.T) {
	st := seeded()

	_, _, code := runCommand(t, newConfig(t, false), &commands.UndoneCmd{}, st, "--filter", "completed", "1")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if find(t, st, "b").IsCompleted {
		t.Error("buy milk should be pending")
	}
}

func TestRmAndUndoDelete(t *testing.T) {
	st := seeded()
	cfg := newConfig(t, false)

	if _, _, code := runCommand(t, cfg, &commands.RmCmd{}, st, "1"); code != exitcode.Success {
		t.Fatalf("rm: exit %d", code)
	}
	if len(st.All()) != 2 {
		t.Fatalf("expected 2 tasks after rm, got %d", len(st.All()))
	}
	if _, err := os.Stat(cfg.UndoPath()); err != nil {
		t.Fatalf("undo state should be saved: %v", err)
	}

	// A later invocation restores the deleted task under a new ID.
	stdout, _, code := runCommand(t, cfg, &commands.UndoCmd{}, st, "delete")
	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("undo: code %d, stdout %q", code, stdout)
	}
	tasks := st.All()
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks after undo, got %d", len(tasks))
	}
	var restored *store.Task
	for i := range tasks {
		if tasks[i].Title == "Write report" {
			restored = &tasks[i]
		}
	}
	if restored == nil || restored.ID == "a" {
		t.Errorf("restored task should have a fresh ID, got %+v", restored)
	}
	if _, err := os.Stat(cfg.UndoPath()); !os.IsNotExist(err) {
		t.Error("empty undo state should remove the file")
	}

	stdout, _, code = runCommand(t, cfg, &commands.UndoCmd{}, st, "delete")
	if code != exitcode.Success || stdout != "nothing to undo\n" {
		t.Errorf("second undo: code %d, stdout %q", code, stdout)
	}
}

func TestUndoIgnoresOtherBackend(t *testing.T) {
	st := seeded()
	cfg := newConfig(t, false)

	if _, _, code := runCommand(t, cfg, &commands.RmCmd{}, st, "1"); code != exitcode.Success {
		t.Fatalf("rm: exit %d", code)
	}

	other := *cfg
	other.Backend = config.BackendPostgres
	otherStore := testutil.NewFakeStore()
	stdout, _, code := runCommand(t, &other, &commands.UndoCmd{}, otherStore, "delete")
	if code != exitcode.Success || stdout != "nothing to undo\n" {
		t.Fatalf("undo on other backend: code %d, stdout %q", code, stdout)
	}
	if n := len(otherStore.All()); n != 0 {
		t.Errorf("other backend should stay empty, got %d tasks", n)
	}

	// The slot still belongs to the backend it was taken from.
	stdout, _, code = runCommand(t, cfg, &commands.UndoCmd{}, st, "delete")
	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("undo on original backend: code %d, stdout %q", code, stdout)
	}
	if n := len(st.All()); n != 3 {
		t.Errorf("expected 3 tasks after undo, got %d", n)
	}
}

func TestUndoComplete(t *testing.T) {
	st := seeded()
	cfg := newConfig(t, true)

	if _, _, code := runCommand(t, cfg, &commands.DoneCmd{}, st, "3"); code != exitcode.Success {
		t.Fatalf("done: exit %d", code)
	}
	if !find(t, st, "c").IsCompleted {
		t.Fatal("task should be completed")
	}

	data, err := os.ReadFile(cfg.UndoPath())
	if err != nil {
		t.Fatalf("read undo state: %v", err)
	}
	var saved map[string]json.RawMessage
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("undo state is not json: %v", err)
	}
	if _, ok := saved["completed"]; !ok {
		t.Errorf("undo state should hold the completed slot: %s", data)
	}

	if _, _, code := runCommand(t, cfg, &commands.UndoCmd{}, st, "complete"); code != exitcode.Success {
		t.Fatalf("undo: exit %d", code)
	}
	if got := find(t, st, "c"); got.IsCompleted {
		t.Error("task should be pending again with the same ID")
	}
}

func TestUndoCommand_BadTarget(t *testing.T) {
	_, stderr, code := runCommand(t, newConfig(t, false), &commands.UndoCmd{}, seeded(), "edit")
	if code != exitcode.UserError || stderr != "error: unknown undo target: edit\n" {
		t.Errorf("got code %d, stderr %q", code, stderr)
	}
}

func TestUndoCommand_CorruptStateIsIgnored(t *testing.T) {
	cfg := newConfig(t, false)
	if err := os.WriteFile(filepath.Join(cfg.Dir, config.UndoFile), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	stdout, _, code := runCommand(t, cfg, &commands.UndoCmd{}, seeded(), "delete")
	if code != exitcode.Success || stdout != "nothing to undo\n" {
		t.Errorf("got code %d, stdout %q", code, stdout)
	}
}

func TestMvCommand(t *testing.T) {
	st := seeded()

	// Move "Call plumber" to the front.
	if _, stderr, code := runCommand(t, newConfig(t, true), &commands.MvCmd{}, st, "3", "1"); code != exitcode.Success {
		t.Fatalf("mv: exit %d (stderr %q)", code, stderr)
	}
	got := titles(st.All())
	want := []string{"Call plumber", "Write report", "buy milk"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %v, want %v", got, want)
	}

	// A target one past the end appends.
	if _, _, code := runCommand(t, newConfig(t, true), &commands.MvCmd{}, st, "1", "4"); code != exitcode.Success {
		t.Fatalf("mv append: exit %d", code)
	}
	got = titles(st.All())
	want = []string{"Write report", "buy milk", "Call plumber"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %v, want %v", got, want)
	}
	for i, task := range st.All() {
		if task.Order != i {
			t.Errorf("task %q has order %d, want %d", task.Title, task.Order, i)
		}
	}
}

func TestMvCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"one arg", []string{"1"}, "error: mv needs a task and a target position\n"},
		{"target too far", []string{"1", "5"}, "error: target out of range: 5\n"},
		{"source too far", []string{"4", "1"}, "error: task number out of range: 4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := seeded()
			_, stderr, code := runCommand(t, newConfig(t, false), &commands.MvCmd{}, st, tt.args...)
			if code != exitcode.UserError || stderr != tt.want {
				t.Errorf("got code %d, stderr %q", code, stderr)
			}
			if st.Calls("update") != 0 {
				t.Error("store should not be updated")
			}
		})
	}
}

func TestClearCommand(t *testing.T) {
	st := seeded()

	_, stderr, code := runCommand(t, newConfig(t, false), &commands.ClearCmd{}, st)
	if code != exitcode.UserError || stderr != "error: list not empty (use --force)\n" {
		t.Errorf("got code %d, stderr %q", code, stderr)
	}
	if len(st.All()) != 3 {
		t.Fatal("tasks should be kept without --force")
	}

	if _, _, code := runCommand(t, newConfig(t, false), &commands.ClearCmd{}, st, "--force"); code != exitcode.Success {
		t.Fatalf("clear --force: exit %d", code)
	}
	if len(st.All()) != 0 {
		t.Errorf("expected no tasks, got %d", len(st.All()))
	}
}

func TestStatsCommand(t *testing.T) {
	stdout, _, code := runCommand(t, newConfig(t, false), &commands.StatsCmd{}, seeded())

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "3 tasks, 1 completed, 2 pending (33%)\n" {
		t.Errorf("unexpected summary %q", stdout)
	}
}

func TestExportCommand(t *testing.T) {
	stdout, _, code := runCommand(t, newConfig(t, false), &commands.ExportCmd{}, seeded(),
		"--format", "csv", "--filter", "pending")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), stdout)
	}
	if !strings.HasPrefix(lines[0], "position,id,title") {
		t.Errorf("unexpected header %q", lines[0])
	}
}

func TestExportCommand_ToFile(t *testing.T) {
	cfg := newConfig(t, false)
	path := filepath.Join(t.TempDir(), "out", "tasks.json")

	stdout, _, code := runCommand(t, cfg, &commands.ExportCmd{}, seeded(), "--out", path)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "wrote 3 tasks to "+path+"\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var report struct {
		Tasks []store.Task `json:"tasks"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("export is not json: %v", err)
	}
	if len(report.Tasks) != 3 {
		t.Errorf("expected 3 exported tasks, got %d", len(report.Tasks))
	}
}

func TestExportCommand_UnknownFormat(t *testing.T) {
	_, stderr, code := runCommand(t, newConfig(t, false), &commands.ExportCmd{}, seeded(), "--format", "xml")
	if code != exitcode.UserError || !strings.HasPrefix(stderr, "error: ") {
		t.Errorf("got code %d, stderr %q", code, stderr)
	}
}
