// Package filestore implements store.Store on a single JSON, YAML or TOML file.
//
// Every operation re-reads the file under an OS file lock, so several
// processes can share one data file. Writes go to a temporary file that is
// synced and renamed over the original.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"taskmgr/internal/store"
)

// Format is the on-disk encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

const lockSuffix = ".lock"

// ParseFormat parses a format name. An empty name infers the format from the
// path extension, defaulting to JSON.
func ParseFormat(name, path string) (Format, error) {
	if name == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			return FormatYAML, nil
		case ".toml":
			return FormatTOML, nil
		default:
			return FormatJSON, nil
		}
	}
	switch f := Format(strings.ToLower(name)); f {
	case FormatJSON, FormatYAML, FormatTOML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported data format: %s (supported: json, yaml, toml)", name)
}

// Options configures a file store.
type Options struct {
	// Path is the data file. Its directory is created if needed.
	Path string
	// Format is json, yaml or toml; empty infers it from Path.
	Format string
	// Logger receives debug output. Nil discards it.
	Logger *log.Logger
}

// Store is a file-backed task store.
type Store struct {
	mu     sync.Mutex
	path   string
	format Format
	flk    *flock.Flock
	logger *log.Logger
}

// Open prepares a file store. The data file itself is created on first write;
// an existing file is read and validated immediately.
func Open(opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("data file path is required")
	}
	format, err := ParseFormat(opts.Format, opts.Path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(opts.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dir, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Store{
		path:   opts.Path,
		format: format,
		flk:    flock.New(opts.Path + lockSuffix),
		logger: logger,
	}

	// Fail fast on a corrupt or invalid file.
	if _, err := s.Fetch(context.Background(), store.SortManual, store.FilterAll); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the data file path.
func (s *Store) Path() string { return s.path }

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, t store.Task) error {
	return s.mutate("create", func(doc *document) {
		doc.Tasks = append(doc.Tasks, toRecord(t))
	})
}

// Fetch implements store.Store.
func (s *Store) Fetch(ctx context.Context, sort store.Sort, filter store.Filter) ([]store.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flk.RLock(); err != nil {
		return nil, store.Wrap("fetch", fmt.Errorf("lock %s: %w", s.flk.Path(), err))
	}
	defer func() { _ = s.flk.Unlock() }()

	doc, err := s.load()
	if err != nil {
		return nil, store.Wrap("fetch", err)
	}
	return store.Apply(doc.tasks(), sort, filter), nil
}

// Update implements store.Store.
func (s *Store) Update(ctx context.Context, t store.Task) error {
	return s.mutate("update", func(doc *document) {
		for i := range doc.Tasks {
			if doc.Tasks[i].ID == t.ID {
				doc.Tasks[i] = toRecord(t)
				return
			}
		}
	})
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, t store.Task) error {
	return s.mutate("delete", func(doc *document) {
		for i := range doc.Tasks {
			if doc.Tasks[i].ID == t.ID {
				doc.Tasks = append(doc.Tasks[:i], doc.Tasks[i+1:]...)
				return
			}
		}
	})
}

// DeleteAll implements store.Store.
func (s *Store) DeleteAll(ctx context.Context) error {
	return s.mutate("deleteAll", func(doc *document) {
		doc.Tasks = []record{}
	})
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.flk.Close()
}

// mutate loads the document under an exclusive lock, applies fn and writes
// the result back.
func (s *Store) mutate(op string, fn func(*document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flk.Lock(); err != nil {
		return store.Wrap(op, fmt.Errorf("lock %s: %w", s.flk.Path(), err))
	}
	defer func() { _ = s.flk.Unlock() }()

	doc, err := s.load()
	if err != nil {
		return store.Wrap(op, err)
	}
	fn(doc)
	if err := s.save(doc); err != nil {
		return store.Wrap(op, err)
	}
	s.logger.Debug("data file written", "op", op, "path", s.path, "tasks", len(doc.Tasks))
	return nil
}

// load reads and validates the data file. A missing file is an empty list.
func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newDocument(), nil
		}
		return nil, fmt.Errorf("read data file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return newDocument(), nil
	}

	doc, err := decode(s.format, data)
	if err != nil {
		return nil, fmt.Errorf("parse data file %s: %w", s.path, err)
	}
	if err := validate(doc); err != nil {
		return nil, fmt.Errorf("invalid data file %s: %w", s.path, err)
	}
	return doc, nil
}

// save writes doc atomically: temp file, fsync, rename.
func (s *Store) save(doc *document) error {
	data, err := encode(s.format, doc)
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}
