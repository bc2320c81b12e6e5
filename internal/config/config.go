package config

import "time"

// Config is the root configuration for a lottod instance.
type Config struct {
	Instance   InstanceConfig   `yaml:"instance"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Sync       SyncConfig       `yaml:"sync"`
	Generation GenerationConfig `yaml:"generation"`
	Pacer      PacerConfig      `yaml:"pacer"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// InstanceConfig identifies this instance. The id doubles as the sync lease owner.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	AdminKeyID    string        `yaml:"admin_key_id"`   // key id expected in X-Lotto-Key
	AdminSecret   string        `yaml:"admin_secret"`   // HMAC secret for admin request signatures
	SignatureSkew time.Duration `yaml:"signature_skew"` // accepted clock skew for signed requests
	CORSOrigins   []string      `yaml:"cors_origins"`   // empty disables CORS headers
}

// DatabaseConfig selects and configures the persistence backend.
type DatabaseConfig struct {
	Driver      string       `yaml:"driver"` // "postgres" or "sqlite"
	Postgres    DBConfig     `yaml:"postgres"`
	SQLite      SQLiteConfig `yaml:"sqlite"`
	AutoMigrate bool         `yaml:"auto_migrate"`
}

// DBConfig holds a single PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// SQLiteConfig holds the local database file settings.
type SQLiteConfig struct {
	Path        string        `yaml:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// UpstreamConfig holds draw source settings.
type UpstreamConfig struct {
	PrimaryURL   string        `yaml:"primary_url"`
	FallbackURL  string        `yaml:"fallback_url"`
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	// Epoch is the RFC 3339 timestamp of draw #1; draws follow weekly.
	Epoch        string        `yaml:"epoch"`
	Cadence      time.Duration `yaml:"cadence"`
	PublishDelay time.Duration `yaml:"publish_delay"`
}

// SyncConfig holds draw synchronization settings.
type SyncConfig struct {
	Interval         time.Duration `yaml:"interval"`
	OnStartup        bool          `yaml:"on_startup"`
	RequestDelay     time.Duration `yaml:"request_delay"`
	FailureThreshold int           `yaml:"failure_threshold"`
	LeaseTTL         time.Duration `yaml:"lease_ttl"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	PollTimeout      time.Duration `yaml:"poll_timeout"`
}

// GenerationConfig bounds recommendation requests.
type GenerationConfig struct {
	DefaultCount  int `yaml:"default_count"`
	MaxCount      int `yaml:"max_count"`
	DefaultWindow int `yaml:"default_window"`
}

// PacerConfig holds the heuristic-strategy delay pool settings.
type PacerConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	QueueSize     int           `yaml:"queue_size"`
	MinDelay      time.Duration `yaml:"min_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	Bucket        time.Duration `yaml:"bucket"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
