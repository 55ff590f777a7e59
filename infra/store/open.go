// Package store selects and opens the configured job repository backend.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	corestore "github.com/kilianp07/haulplan/core/store"
	"github.com/kilianp07/haulplan/infra/logger"
	"github.com/kilianp07/haulplan/infra/store/postgres"
	"github.com/kilianp07/haulplan/infra/store/sqlite"
)

// Supported backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config selects the repository backend.
type Config struct {
	Backend string `json:"backend"`
	// Path is the SQLite database file.
	Path string `json:"path"`
	// DSN is the PostgreSQL connection string.
	DSN string `json:"dsn"`
}

// SetDefaults applies the embedded SQLite backend.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendSQLite
	}
	if c.Path == "" {
		c.Path = "data/haulplan.db"
	}
}

// Validate checks backend specific settings.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.Path == "" {
			return fmt.Errorf("store: path is required for sqlite")
		}
	case BackendPostgres:
		if c.DSN == "" {
			return fmt.Errorf("store: dsn is required for postgres")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("store: unknown backend %q", c.Backend)
	}
	return nil
}

// Open opens the configured repository.
func Open(ctx context.Context, cfg Config, log logger.Logger) (corestore.Repository, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendPostgres:
		log.Infof("using postgres store")
		return postgres.Open(ctx, cfg.DSN)
	case BackendMemory:
		log.Warnf("using in-memory store, jobs are lost on exit")
		return corestore.NewMemoryStore(), nil
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	log.Infof("using sqlite store at %s", cfg.Path)
	return sqlite.Open(cfg.Path)
}
