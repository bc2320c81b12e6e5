package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/rickgao/lotto-engine/internal/config"
	"github.com/rickgao/lotto-engine/internal/store"
	"github.com/rickgao/lotto-engine/internal/store/postgres"
	"github.com/rickgao/lotto-engine/internal/store/sqlite"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the configured backend, applies pending migrations when
// AutoMigrate is set, and returns the store adapter for it.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.AutoMigrate {
		if err := MigrateUp(cfg, logger); err != nil {
			return nil, err
		}
	}

	switch cfg.Driver {
	case DriverPostgres:
		pool, err := Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info("database connected", "driver", cfg.Driver, "host", cfg.Postgres.Host, "name", cfg.Postgres.Name)
		return postgres.New(pool), nil

	case DriverSQLite:
		db, err := OpenSQLite(ctx, cfg.SQLite)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("database opened", "driver", cfg.Driver, "path", cfg.SQLite.Path)
		return sqlite.New(db), nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// Connect creates a single PostgreSQL connection pool.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// OpenSQLite opens the database file, creating its directory if needed.
func OpenSQLite(ctx context.Context, cfg config.SQLiteConfig) (*sql.DB, error) {
	if err := ensureDir(cfg.Path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", BuildSQLiteDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One writer at a time; busy_timeout covers the migrator and other processes.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func ensureDir(path string) error {
	if path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	return nil
}
