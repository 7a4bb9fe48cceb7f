// Package mysql implements store.Store on a MySQL table via database/sql and
// the go-sql-driver/mysql driver.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	driver "github.com/go-sql-driver/mysql"

	"taskmgr/internal/store"
)

// The binary collation on title keeps alphabetical order byte-wise.
const schema = `CREATE TABLE IF NOT EXISTS tasks (
    seq BIGINT PRIMARY KEY AUTO_INCREMENT,
    id VARCHAR(64) NOT NULL UNIQUE,
    title TEXT CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
    description TEXT NULL,
    priority TINYINT NOT NULL DEFAULT 1,
    due_date DATETIME(6) NULL,
    is_completed BOOLEAN NOT NULL DEFAULT FALSE,
    sort_order INT NOT NULL DEFAULT 0
)`

const columns = `id, title, description, priority, due_date, is_completed, sort_order`

// Store keeps tasks in a MySQL database.
type Store struct {
	db      *sql.DB
	timeout time.Duration
	logger  *log.Logger
}

// Open connects to dsn and creates the tasks table if needed. The DSN is
// forced to parse times in UTC so due dates round-trip. A positive timeout
// bounds the connect and every later call.
func Open(ctx context.Context, dsn string, timeout time.Duration, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, store.Wrap("connect", err)
	}
	s := &Store{db: db, timeout: timeout, logger: logger}

	pingCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, store.Wrap("connect", err)
	}
	if err := s.migrate(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// callCtx derives the context for one database call.
func (s *Store) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return store.Wrap("migrate", err)
	}
	s.logger.Debug("mysql schema ready")
	return nil
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, t store.Task) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, nullString(t.Description), int(t.Priority), nullTime(t.DueDate), t.IsCompleted, t.Order,
	)
	return store.Wrap("create", err)
}

// Fetch implements store.Store.
func (s *Store) Fetch(ctx context.Context, sort store.Sort, filter store.Filter) ([]store.Task, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	query := `SELECT ` + columns + ` FROM tasks` + whereClause(filter) + ` ORDER BY ` + orderClause(sort)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, store.Wrap("fetch", err)
	}
	defer rows.Close()

	tasks := []store.Task{}
	for rows.Next() {
		var (
			t           store.Task
			description sql.NullString
			priority    int
			due         sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.Title, &description, &priority, &due, &t.IsCompleted, &t.Order); err != nil {
			return nil, store.Wrap("fetch", fmt.Errorf("scan task: %w", err))
		}
		t.Priority = store.Priority(priority)
		if description.Valid {
			t.Description = store.StringPtr(description.String)
		}
		if due.Valid {
			t.DueDate = store.NormalizeDue(&due.Time)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("fetch", err)
	}
	return tasks, nil
}

// Update implements store.Store. Updating a missing task is not an error.
func (s *Store) Update(ctx context.Context, t store.Task) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `UPDATE tasks
SET title = ?, description = ?, priority = ?, due_date = ?, is_completed = ?, sort_order = ?
WHERE id = ?`,
		t.Title, nullString(t.Description), int(t.Priority), nullTime(t.DueDate), t.IsCompleted, t.Order, t.ID,
	)
	return store.Wrap("update", err)
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, t store.Task) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, t.ID)
	return store.Wrap("delete", err)
}

// DeleteAll implements store.Store.
func (s *Store) DeleteAll(ctx context.Context) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks`)
	return store.Wrap("deleteAll", err)
}

// Close implements store.Store.
func (s *Store) Close() error { return s.db.Close() }

func whereClause(f store.Filter) string {
	switch f {
	case store.FilterCompleted:
		return ` WHERE is_completed = TRUE`
	case store.FilterPending:
		return ` WHERE is_completed = FALSE`
	default:
		return ``
	}
}

// orderClause mirrors store.Comparator. MySQL sorts NULL first, so the
// due date order puts undated rows last explicitly.
func orderClause(s store.Sort) string {
	switch s {
	case store.SortPriority:
		return `priority DESC, seq`
	case store.SortDueDate:
		return `due_date IS NULL, due_date, seq`
	case store.SortAlphabetical:
		return `title, seq`
	default:
		return `sort_order, seq`
	}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: p.UTC(), Valid: true}
}
