package database

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/rickgao/lotto-engine/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}

// BuildSQLiteDSN builds a modernc.org/sqlite DSN with the pragmas every
// connection needs.
func BuildSQLiteDSN(cfg config.SQLiteConfig) string {
	return fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		filepath.ToSlash(cfg.Path),
		cfg.BusyTimeout.Milliseconds(),
	)
}

// migrateURL returns the golang-migrate database URL for the configured driver.
func migrateURL(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case DriverPostgres:
		// pgx5:// selects the pgx v5 migrate driver; the rest is a normal DSN.
		u, err := url.Parse(BuildConnString(cfg.Postgres))
		if err != nil {
			return "", fmt.Errorf("parse connection string: %w", err)
		}
		u.Scheme = "pgx5"
		return u.String(), nil
	case DriverSQLite:
		p := filepath.ToSlash(cfg.SQLite.Path)
		if filepath.IsAbs(cfg.SQLite.Path) && p[0] != '/' {
			p = "/" + p
		}
		return "sqlite://" + p, nil
	default:
		return "", fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
