// Package postgres implements store.Store on a PostgreSQL table through pgxpool.
package postgres

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskmgr/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	seq          BIGSERIAL,
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NULL,
	priority     SMALLINT NOT NULL DEFAULT 1,
	due_date     TIMESTAMPTZ NULL,
	is_completed BOOLEAN NOT NULL DEFAULT FALSE,
	sort_order   INTEGER NOT NULL DEFAULT 0
)`

const columns = `id, title, description, priority, due_date, is_completed, sort_order`

// Store keeps tasks in a PostgreSQL database.
type Store struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  *log.Logger
}

// Open connects to dsn, verifies the connection and creates the tasks table
// if it does not exist. A positive timeout bounds the connect and every
// later call.
func Open(ctx context.Context, dsn string, timeout time.Duration, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, store.Wrap("connect", err)
	}
	s := &Store{pool: pool, timeout: timeout, logger: logger}

	pingCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, store.Wrap("connect", err)
	}
	if err := s.migrate(pingCtx); err != nil {
		pool.Close()
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
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return store.Wrap("migrate", err)
	}
	s.logger.Debug("postgres schema ready")
	return nil
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, t store.Task) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Title, t.Description, int16(t.Priority), t.DueDate, t.IsCompleted, t.Order,
	)
	return store.Wrap("create", err)
}

// Fetch implements store.Store.
func (s *Store) Fetch(ctx context.Context, sort store.Sort, filter store.Filter) ([]store.Task, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	query := `SELECT ` + columns + ` FROM tasks` + whereClause(filter) + ` ORDER BY ` + orderClause(sort)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, store.Wrap("fetch", err)
	}
	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, store.Wrap("fetch", err)
	}
	return tasks, nil
}

// Update implements store.Store. Updating a missing task is not an error.
func (s *Store) Update(ctx context.Context, t store.Task) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, priority = $4, due_date = $5, is_completed = $6, sort_order = $7
		WHERE id = $1`,
		t.ID, t.Title, t.Description, int16(t.Priority), t.DueDate, t.IsCompleted, t.Order,
	)
	if err != nil {
		return store.Wrap("update", err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Debug("update matched no rows", "id", t.ID)
	}
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, t store.Task) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, t.ID)
	return store.Wrap("delete", err)
}

// DeleteAll implements store.Store.
func (s *Store) DeleteAll(ctx context.Context) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `DELETE FROM tasks`)
	return store.Wrap("deleteAll", err)
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func whereClause(f store.Filter) string {
	switch f {
	case store.FilterCompleted:
		return ` WHERE is_completed`
	case store.FilterPending:
		return ` WHERE NOT is_completed`
	default:
		return ``
	}
}

// orderClause mirrors store.Comparator. seq breaks ties by insertion order,
// and titles use the C collation for byte-wise comparison.
func orderClause(s store.Sort) string {
	switch s {
	case store.SortPriority:
		return `priority DESC, seq`
	case store.SortDueDate:
		return `due_date ASC NULLS LAST, seq`
	case store.SortAlphabetical:
		return `title COLLATE "C", seq`
	default:
		return `sort_order, seq`
	}
}

func collectTasks(rows pgx.Rows) ([]store.Task, error) {
	defer rows.Close()

	tasks := []store.Task{}
	for rows.Next() {
		var (
			t        store.Task
			priority int16
			due      *time.Time
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &priority, &due, &t.IsCompleted, &t.Order); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Priority = store.Priority(priority)
		t.DueDate = store.NormalizeDue(due)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
