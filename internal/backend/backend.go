// Package backend opens the task store selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"taskmgr/internal/backend/filestore"
	"taskmgr/internal/backend/googletasks"
	"taskmgr/internal/backend/memory"
	"taskmgr/internal/backend/mysql"
	"taskmgr/internal/backend/postgres"
	"taskmgr/internal/config"
	"taskmgr/internal/store"
)

// ErrNoDSN is returned when a database backend has no connection string.
var ErrNoDSN = errors.New("no dsn configured (set dsn in config.toml or " + config.EnvDSN + ")")

// Open returns the store named by cfg.Backend.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.Store, error) {
	if logger != nil {
		logger = logger.With("backend", cfg.Backend)
	}

	var (
		s   store.Store
		err error
	)
	switch cfg.Backend {
	case config.BackendFile, "":
		s, err = wrap(filestore.Open(filestore.Options{
			Path:   cfg.DataFile,
			Format: cfg.DataFormat,
			Logger: logger,
		}))
	case config.BackendMemory:
		s = memory.New()
	case config.BackendPostgres, config.BackendMySQL:
		if cfg.DSN == "" {
			return nil, ErrNoDSN
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = config.DefaultTimeout
		}
		if cfg.Backend == config.BackendPostgres {
			s, err = wrap(postgres.Open(ctx, cfg.DSN, timeout, logger))
		} else {
			s, err = wrap(mysql.Open(ctx, cfg.DSN, timeout, logger))
		}
	case config.BackendGoogle:
		s, err = wrap(googletasks.New(ctx, cfg, logger))
	default:
		err = fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// wrap converts a concrete store result so a failed open yields a nil interface.
func wrap[S store.Store](s S, err error) (store.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NeedsAuth reports whether the backend needs Google credentials.
func NeedsAuth(cfg *config.Config) bool {
	return cfg.Backend == config.BackendGoogle
}
