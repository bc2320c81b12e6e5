package database

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/rickgao/lotto-engine/internal/config"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded schema migrations for one driver.
type Migrator struct {
	m      *migrate.Migrate
	logger *slog.Logger
}

// NewMigrator creates a migrator for the configured driver.
func NewMigrator(cfg config.DatabaseConfig, logger *slog.Logger) (*Migrator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir, err := fs.Sub(migrationsFS, "migrations/"+cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("access migrations: %w", err)
	}
	src, err := iofs.New(dir, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}

	dbURL, err := migrateURL(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		// The migrate driver opens the file itself.
		if err := ensureDir(cfg.SQLite.Path); err != nil {
			return nil, err
		}
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return &Migrator{m: m, logger: logger}, nil
}

// Up applies all pending migrations. No pending migration is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	v, dirty, _ := mg.Version()
	mg.logger.Info("migrations applied", "version", v, "dirty", dirty)
	return nil
}

// Down rolls back the last migration.
func (mg *Migrator) Down() error {
	if err := mg.m.Steps(-1); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}

// Version returns the current schema version; 0 when nothing was applied.
func (mg *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mg.m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the migrator's connections.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	if srcErr != nil {
		return fmt.Errorf("close migration source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration database: %w", dbErr)
	}
	return nil
}

// MigrateUp is a convenience wrapper that opens, applies and closes a Migrator.
func MigrateUp(cfg config.DatabaseConfig, logger *slog.Logger) error {
	mg, err := NewMigrator(cfg, logger)
	if err != nil {
		return err
	}
	if err := mg.Up(); err != nil {
		mg.Close()
		return err
	}
	return mg.Close()
}
