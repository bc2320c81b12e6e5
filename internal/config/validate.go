package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rickgao/lotto-engine/internal/model"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	switch c.Database.Driver {
	case "postgres":
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return errors.New("database.sqlite.path is required")
		}
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}

	if c.Server.AdminSecret != "" && c.Server.AdminKeyID == "" {
		return errors.New("server.admin_key_id is required when server.admin_secret is set")
	}

	if _, err := time.Parse(time.RFC3339, c.Upstream.Epoch); err != nil {
		return fmt.Errorf("upstream.epoch must be RFC 3339: %w", err)
	}
	if c.Upstream.Cadence <= 0 {
		return errors.New("upstream.cadence must be > 0")
	}
	if c.Upstream.MaxRetries < 0 {
		return errors.New("upstream.max_retries must be >= 0")
	}

	if c.Sync.FailureThreshold < 1 {
		return errors.New("sync.failure_threshold must be >= 1")
	}
	if c.Sync.RequestDelay < 0 {
		return errors.New("sync.request_delay must be >= 0")
	}
	if c.Sync.PollTimeout < c.Sync.PollInterval {
		return fmt.Errorf("sync.poll_timeout (%s) cannot be shorter than poll_interval (%s)", c.Sync.PollTimeout, c.Sync.PollInterval)
	}

	if c.Generation.MaxCount < 1 {
		return errors.New("generation.max_count must be >= 1")
	}
	if c.Generation.DefaultCount < 1 || c.Generation.DefaultCount > c.Generation.MaxCount {
		return fmt.Errorf("generation.default_count must be between 1 and %d, got %d", c.Generation.MaxCount, c.Generation.DefaultCount)
	}
	if !model.ValidWindow(c.Generation.DefaultWindow) {
		return fmt.Errorf("generation.default_window must be one of %v, got %d", model.Windows, c.Generation.DefaultWindow)
	}

	if c.Pacer.MaxConcurrent < 1 {
		return errors.New("pacer.max_concurrent must be >= 1")
	}
	if c.Pacer.QueueSize < 1 {
		return errors.New("pacer.queue_size must be >= 1")
	}
	if c.Pacer.MinDelay > c.Pacer.MaxDelay {
		return fmt.Errorf("pacer.min_delay (%s) cannot exceed max_delay (%s)", c.Pacer.MinDelay, c.Pacer.MaxDelay)
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// EpochTime returns the parsed upstream epoch. Validate guarantees it parses.
func (c *Config) EpochTime() time.Time {
	t, _ := time.Parse(time.RFC3339, c.Upstream.Epoch)
	return t
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
