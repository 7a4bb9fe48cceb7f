// Package config handles the XDG configuration directory, the optional
// config.toml file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// AppName is the application directory name.
	AppName = "taskmgr"

	// ConfigFile is the optional settings filename inside the config directory.
	ConfigFile = "config.toml"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// UndoFile holds the undo slots between invocations.
	UndoFile = "undo.json"

	// DefaultDataFile is the file store's data filename.
	DefaultDataFile = "tasks.json"

	// DefaultTimeout bounds a single backend call.
	DefaultTimeout = 5 * time.Second
)

// Backend names.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
	BackendGoogle   = "google"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendFile, BackendMemory, BackendPostgres, BackendMySQL, BackendGoogle}

// Environment variables that override config.toml.
const (
	EnvBackend    = "TASKMGR_BACKEND"
	EnvDataFile   = "TASKMGR_DATA_FILE"
	EnvDSN        = "TASKMGR_DSN"
	EnvGoogleList = "TASKMGR_GOOGLE_LIST"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Backend selects the task store.
	Backend string

	// DataFile is the file store's data file.
	DataFile string

	// DataFormat is json, yaml or toml. Empty infers it from DataFile.
	DataFormat string

	// DSN is the postgres or mysql connection string.
	DSN string

	// GoogleList is the Google Tasks list name. Empty means the default list.
	GoogleList string

	// Timeout bounds a single backend call.
	Timeout time.Duration
}

// fileConfig mirrors config.toml.
type fileConfig struct {
	Backend    string `toml:"backend"`
	DataFile   string `toml:"data_file"`
	DataFormat string `toml:"data_format"`
	DSN        string `toml:"dsn"`
	GoogleList string `toml:"google_list"`
	Timeout    string `toml:"timeout"`
}

// New creates a Config for configDir, or the default directory when empty.
// Settings come from defaults, then config.toml if present, then the
// environment.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:     dir,
		Backend: BackendFile,
		Timeout: DefaultTimeout,
	}
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if cfg.DataFile == "" {
		cfg.DataFile = filepath.Join(cfg.Dir, DefaultDataFile)
	}
	if err := cfg.SetBackend(cfg.Backend); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile() error {
	var fc fileConfig
	_, err := toml.DecodeFile(c.Path(), &fc)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}

	if fc.Backend != "" {
		c.Backend = fc.Backend
	}
	if fc.DataFile != "" {
		c.DataFile = expandHome(fc.DataFile)
	}
	c.DataFormat = fc.DataFormat
	c.DSN = fc.DSN
	c.GoogleList = fc.GoogleList
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid %s: timeout must be a positive duration, got %q", ConfigFile, fc.Timeout)
		}
		c.Timeout = d
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvDataFile); v != "" {
		c.DataFile = expandHome(v)
	}
	if v := os.Getenv(EnvDSN); v != "" {
		c.DSN = v
	}
	if v := os.Getenv(EnvGoogleList); v != "" {
		c.GoogleList = v
	}
}

// SetBackend validates and sets the backend name.
func (c *Config) SetBackend(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, b := range Backends {
		if name == b {
			c.Backend = name
			return nil
		}
	}
	return fmt.Errorf("unknown backend: %s (supported: %s)", name, strings.Join(Backends, ", "))
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Path returns the path to config.toml.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// UndoPath returns the path to the persisted undo slots.
func (c *Config) UndoPath() string {
	return filepath.Join(c.Dir, UndoFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
