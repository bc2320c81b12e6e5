package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: lottod-test
upstream:
  primary_url: https://upstream.example.com
  request_delay: 250ms
database:
  driver: postgres
  postgres:
    host: localhost
    port: 5432
    name: lotto
    user: testuser
    password: testpass
sync:
  request_delay: 250ms
`
	path := writeTempFile(t, "config.yaml", yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "lottod-test" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "lottod-test")
	}
	if cfg.Upstream.PrimaryURL != "https://upstream.example.com" {
		t.Errorf("Upstream.PrimaryURL = %q, want %q", cfg.Upstream.PrimaryURL, "https://upstream.example.com")
	}
	if cfg.Database.Postgres.Host != "localhost" {
		t.Errorf("Database.Postgres.Host = %q, want %q", cfg.Database.Postgres.Host, "localhost")
	}
	if cfg.Sync.RequestDelay != 250*time.Millisecond {
		t.Errorf("Sync.RequestDelay = %v, want %v", cfg.Sync.RequestDelay, 250*time.Millisecond)
	}
}

func TestLoadTOML(t *testing.T) {
	doc := `
[instance]
id = "lottod-toml"

[database]
driver = "sqlite"

[database.sqlite]
path = "/tmp/lotto.db"

[sync]
request_delay = "1s"
failure_threshold = 7
`
	path := writeTempFile(t, "config.toml", doc)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.Instance.ID != "lottod-toml" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "lottod-toml")
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.SQLite.Path != "/tmp/lotto.db" {
		t.Errorf("Database.SQLite.Path = %q, want %q", cfg.Database.SQLite.Path, "/tmp/lotto.db")
	}
	if cfg.Sync.RequestDelay != time.Second {
		t.Errorf("Sync.RequestDelay = %v, want 1s", cfg.Sync.RequestDelay)
	}
	if cfg.Sync.FailureThreshold != 7 {
		t.Errorf("Sync.FailureThreshold = %d, want 7", cfg.Sync.FailureThreshold)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")
	t.Setenv("TEST_ADMIN_SECRET", "s3cr3t")

	yaml := `
instance:
  id: lottod-test
server:
  admin_key_id: ops
  admin_secret: ${TEST_ADMIN_SECRET}
database:
  postgres:
    host: localhost
    name: lotto
    user: testuser
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, "config.yaml", yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Postgres.Password != "secret123" {
		t.Errorf("Database.Postgres.Password = %q, want %q", cfg.Database.Postgres.Password, "secret123")
	}
	if cfg.Server.AdminSecret != "s3cr3t" {
		t.Errorf("Server.AdminSecret = %q, want %q", cfg.Server.AdminSecret, "s3cr3t")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: lottod-test
database:
  postgres:
    host: localhost
    name: lotto
    user: testuser
    password: testpass
`
	path := writeTempFile(t, "config.yaml", yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Upstream.PrimaryURL != DefaultPrimaryURL {
		t.Errorf("Upstream.PrimaryURL = %q, want default %q", cfg.Upstream.PrimaryURL, DefaultPrimaryURL)
	}
	if cfg.Upstream.Timeout != DefaultUpstreamTimeout {
		t.Errorf("Upstream.Timeout = %v, want default %v", cfg.Upstream.Timeout, DefaultUpstreamTimeout)
	}
	if cfg.Database.Driver != DefaultDriver {
		t.Errorf("Database.Driver = %q, want default %q", cfg.Database.Driver, DefaultDriver)
	}
	if cfg.Database.Postgres.Port != DefaultDBPort {
		t.Errorf("Database.Postgres.Port = %d, want default %d", cfg.Database.Postgres.Port, DefaultDBPort)
	}
	if cfg.Sync.FailureThreshold != DefaultFailureThreshold {
		t.Errorf("Sync.FailureThreshold = %d, want default %d", cfg.Sync.FailureThreshold, DefaultFailureThreshold)
	}
	if cfg.Pacer.Bucket != DefaultPacerBucket {
		t.Errorf("Pacer.Bucket = %v, want default %v", cfg.Pacer.Bucket, DefaultPacerBucket)
	}
	if got := cfg.EpochTime(); got.Year() != 2002 || got.Month() != time.December || got.Day() != 7 {
		t.Errorf("EpochTime() = %v, want 2002-12-07", got)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Config{
			Instance: InstanceConfig{ID: "test"},
			Database: DatabaseConfig{
				Driver:   "postgres",
				Postgres: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 10, MinConns: 2},
			},
		}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing instance id",
			mutate:  func(c *Config) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "missing postgres host",
			mutate:  func(c *Config) { c.Database.Postgres.Host = "" },
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "missing postgres password",
			mutate:  func(c *Config) { c.Database.Postgres.Password = "" },
			wantErr: "database.postgres.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Database.Postgres.MaxConns = 5
				c.Database.Postgres.MinConns = 10
			},
			wantErr: "database.postgres.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "mysql" },
			wantErr: `database.driver must be postgres or sqlite, got "mysql"`,
		},
		{
			name:    "admin secret without key id",
			mutate:  func(c *Config) { c.Server.AdminSecret = "x" },
			wantErr: "server.admin_key_id is required when server.admin_secret is set",
		},
		{
			name:    "bad default window",
			mutate:  func(c *Config) { c.Generation.DefaultWindow = 30 },
			wantErr: "generation.default_window must be one of [20 50 100], got 30",
		},
		{
			name: "pacer delays inverted",
			mutate: func(c *Config) {
				c.Pacer.MinDelay = 2 * time.Second
				c.Pacer.MaxDelay = time.Second
			},
			wantErr: "pacer.min_delay (2s) cannot exceed max_delay (1s)",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: `logging.format must be text or json, got "xml"`,
		},
		{
			name:    "sqlite needs no postgres settings",
			mutate:  func(c *Config) { c.Database.Driver = "sqlite"; c.Database.Postgres = DBConfig{} },
			wantErr: "",
		},
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
