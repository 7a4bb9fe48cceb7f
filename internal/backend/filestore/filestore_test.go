package filestore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskmgr/internal/backend/filestore"
	"taskmgr/internal/store"
	"taskmgr/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	for _, ext := range []string{"json", "yaml", "toml"} {
		t.Run(ext, func(t *testing.T) {
			storetest.Run(t, func(t *testing.T) store.Store {
				s, err := filestore.Open(filestore.Options{
					Path: filepath.Join(t.TempDir(), "tasks."+ext),
				})
				if err != nil {
					t.Fatalf("Open: %v", err)
				}
				return s
			})
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name, path string
		want       filestore.Format
		wantErr    bool
	}{
		{"", "tasks.json", filestore.FormatJSON, false},
		{"", "tasks.yml", filestore.FormatYAML, false},
		{"", "tasks.YAML", filestore.FormatYAML, false},
		{"", "tasks.toml", filestore.FormatTOML, false},
		{"", "tasks", filestore.FormatJSON, false},
		{"toml", "tasks.json", filestore.FormatTOML, false},
		{"xml", "tasks.xml", "", true},
	}
	for _, tt := range tests {
		got, err := filestore.ParseFormat(tt.name, tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q, %q) error = %v, wantErr %v", tt.name, tt.path, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q, %q) = %q, want %q", tt.name, tt.path, got, tt.want)
		}
	}
}

func TestOpenCreatesDirectoryLazily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "tasks.json")
	s, err := filestore.Open(filestore.Options{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("data file should not exist before first write, stat err = %v", err)
	}

	if err := s.Create(context.Background(), storetest.NewTask("first", store.Low)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"schema_version": 1`) {
		t.Errorf("data file missing schema_version:\n%s", data)
	}
	if !strings.Contains(string(data), `"title": "first"`) {
		t.Errorf("data file missing task:\n%s", data)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := filestore.Open(filestore.Options{Path: "  "}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestEmptyFileIsEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte("\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := filestore.Open(filestore.Options{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	got, err := s.Fetch(context.Background(), store.SortManual, store.FilterAll)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d tasks, want 0", len(got))
	}
}

func TestCorruptFileFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := filestore.Open(filestore.Options{Path: path})
	if err == nil {
		t.Fatal("expected error for corrupt file")
	}
	if !store.IsPersistence(err) {
		t.Errorf("expected persistence error, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "parse data file") {
		t.Errorf("error = %q, want parse failure", err)
	}
}

func TestSchemaViolationFailsOpen(t *testing.T) {
	tests := []struct {
		name, body, field string
	}{
		{
			name:  "priority out of range",
			body:  `{"schema_version":1,"tasks":[{"id":"a","title":"x","priority":7,"completed":false,"order":0}]}`,
			field: "tasks[0].priority",
		},
		{
			name:  "missing id",
			body:  `{"schema_version":1,"tasks":[{"title":"x","priority":1,"completed":false,"order":0}]}`,
			field: "tasks[0].id",
		},
		{
			name:  "wrong version",
			body:  `{"schema_version":2,"tasks":[]}`,
			field: "schema_version",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tasks.json")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := filestore.Open(filestore.Options{Path: path})
			if err == nil {
				t.Fatal("expected schema error")
			}
			var ve *store.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError in chain, got %T: %v", err, err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestYAMLFileIsReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	body := `schema_version: 1
tasks:
  - id: abc
    title: Water plants
    priority: 2
    due_date: 2026-05-01T09:00:00Z
    completed: true
    order: 3
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := filestore.Open(filestore.Options{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	got, err := s.Fetch(context.Background(), store.SortManual, store.FilterAll)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d tasks, want 1", len(got))
	}
	task := got[0]
	if task.ID != "abc" || task.Title != "Water plants" || task.Priority != store.High ||
		!task.IsCompleted || task.Order != 3 || task.Description != nil {
		t.Errorf("unexpected task: %+v", task)
	}
	if task.DueDate == nil || task.DueDate.Format("2006-01-02T15:04") != "2026-05-01T09:00" {
		t.Errorf("DueDate = %v", task.DueDate)
	}
}

func TestSharedFileBetweenStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.toml")
	a, err := filestore.Open(filestore.Options{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := filestore.Open(filestore.Options{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	ctx := context.Background()
	if err := a.Create(ctx, storetest.NewTask("from a", store.Medium)); err != nil {
		t.Fatal(err)
	}
	if err := b.Create(ctx, storetest.NewTask("from b", store.Medium)); err != nil {
		t.Fatal(err)
	}

	got, err := a.Fetch(ctx, store.SortManual, store.FilterAll)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Title != "from a" || got[1].Title != "from b" {
		t.Errorf("got %+v, want both tasks in insertion order", got)
	}
}
