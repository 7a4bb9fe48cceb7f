package backend_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"taskmgr/internal/backend"
	"taskmgr/internal/backend/filestore"
	"taskmgr/internal/backend/memory"
	"taskmgr/internal/config"
)

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Dir: dir, Backend: config.BackendFile, DataFile: filepath.Join(dir, "tasks.yaml")}

	s, err := backend.Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	fs, ok := s.(*filestore.Store)
	if !ok {
		t.Fatalf("got %T, want *filestore.Store", s)
	}
	if fs.Path() != cfg.DataFile {
		t.Errorf("Path = %q", fs.Path())
	}
}

func TestOpenMemory(t *testing.T) {
	s, err := backend.Open(context.Background(), &config.Config{Backend: config.BackendMemory}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Fatalf("got %T, want *memory.Store", s)
	}
}

func TestOpenDatabaseWithoutDSN(t *testing.T) {
	for _, name := range []string{config.BackendPostgres, config.BackendMySQL} {
		cfg := &config.Config{Backend: name, Timeout: time.Second}
		_, err := backend.Open(context.Background(), cfg, nil)
		if !errors.Is(err, backend.ErrNoDSN) {
			t.Errorf("%s: error = %v, want ErrNoDSN", name, err)
		}
	}
}

func TestOpenGoogleWithoutCredentials(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir(), Backend: config.BackendGoogle}
	if _, err := backend.Open(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error without oauth_client.json")
	}
	if !backend.NeedsAuth(cfg) {
		t.Error("google backend should need auth")
	}
}

func TestOpenUnknown(t *testing.T) {
	if _, err := backend.Open(context.Background(), &config.Config{Backend: "redis"}, nil); err == nil {
		t.Fatal("expected error")
	}
}
