package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultServerAddr       = ":8080"
	DefaultReadTimeout      = 15 * time.Second
	DefaultWriteTimeout     = 60 * time.Second
	DefaultSignatureSkew    = 5 * time.Minute
	DefaultDriver           = "postgres"
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 10
	DefaultMinConns         = 2
	DefaultSQLitePath       = "data/lotto.db"
	DefaultSQLiteBusy       = 5 * time.Second
	DefaultPrimaryURL       = "https://www.dhlottery.co.kr"
	DefaultFallbackURL      = "https://m.dhlottery.co.kr"
	DefaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	DefaultUpstreamTimeout  = 10 * time.Second
	DefaultMaxRetries       = 2
	DefaultRetryBackoff     = time.Second
	DefaultEpoch            = "2002-12-07T20:45:00+09:00"
	DefaultCadence          = 7 * 24 * time.Hour
	DefaultPublishDelay     = 30 * time.Minute
	DefaultSyncInterval     = 6 * time.Hour
	DefaultRequestDelay     = 500 * time.Millisecond
	DefaultFailureThreshold = 5
	DefaultLeaseTTL         = 30 * time.Minute
	DefaultPollInterval     = 500 * time.Millisecond
	DefaultPollTimeout      = 10 * time.Second
	DefaultCount            = 5
	DefaultMaxCount         = 50
	DefaultWindow           = 50
	DefaultPacerConcurrent  = 16
	DefaultPacerQueue       = 64
	DefaultPacerMinDelay    = 300 * time.Millisecond
	DefaultPacerMaxDelay    = 1200 * time.Millisecond
	DefaultPacerBucket      = 2 * time.Second
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.SignatureSkew == 0 {
		c.Server.SignatureSkew = DefaultSignatureSkew
	}

	// Database defaults
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDriver
	}
	applyDBDefaults(&c.Database.Postgres)
	if c.Database.SQLite.Path == "" {
		c.Database.SQLite.Path = DefaultSQLitePath
	}
	if c.Database.SQLite.BusyTimeout == 0 {
		c.Database.SQLite.BusyTimeout = DefaultSQLiteBusy
	}

	// Upstream defaults
	if c.Upstream.PrimaryURL == "" {
		c.Upstream.PrimaryURL = DefaultPrimaryURL
	}
	if c.Upstream.FallbackURL == "" {
		c.Upstream.FallbackURL = DefaultFallbackURL
	}
	if c.Upstream.UserAgent == "" {
		c.Upstream.UserAgent = DefaultUserAgent
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = DefaultUpstreamTimeout
	}
	if c.Upstream.MaxRetries == 0 {
		c.Upstream.MaxRetries = DefaultMaxRetries
	}
	if c.Upstream.RetryBackoff == 0 {
		c.Upstream.RetryBackoff = DefaultRetryBackoff
	}
	if c.Upstream.Epoch == "" {
		c.Upstream.Epoch = DefaultEpoch
	}
	if c.Upstream.Cadence == 0 {
		c.Upstream.Cadence = DefaultCadence
	}
	if c.Upstream.PublishDelay == 0 {
		c.Upstream.PublishDelay = DefaultPublishDelay
	}

	// Sync defaults
	if c.Sync.Interval == 0 {
		c.Sync.Interval = DefaultSyncInterval
	}
	if c.Sync.RequestDelay == 0 {
		c.Sync.RequestDelay = DefaultRequestDelay
	}
	if c.Sync.FailureThreshold == 0 {
		c.Sync.FailureThreshold = DefaultFailureThreshold
	}
	if c.Sync.LeaseTTL == 0 {
		c.Sync.LeaseTTL = DefaultLeaseTTL
	}
	if c.Sync.PollInterval == 0 {
		c.Sync.PollInterval = DefaultPollInterval
	}
	if c.Sync.PollTimeout == 0 {
		c.Sync.PollTimeout = DefaultPollTimeout
	}

	// Generation defaults
	if c.Generation.DefaultCount == 0 {
		c.Generation.DefaultCount = DefaultCount
	}
	if c.Generation.MaxCount == 0 {
		c.Generation.MaxCount = DefaultMaxCount
	}
	if c.Generation.DefaultWindow == 0 {
		c.Generation.DefaultWindow = DefaultWindow
	}

	// Pacer defaults
	if c.Pacer.MaxConcurrent == 0 {
		c.Pacer.MaxConcurrent = DefaultPacerConcurrent
	}
	if c.Pacer.QueueSize == 0 {
		c.Pacer.QueueSize = DefaultPacerQueue
	}
	if c.Pacer.MinDelay == 0 {
		c.Pacer.MinDelay = DefaultPacerMinDelay
	}
	if c.Pacer.MaxDelay == 0 {
		c.Pacer.MaxDelay = DefaultPacerMaxDelay
	}
	if c.Pacer.Bucket == 0 {
		c.Pacer.Bucket = DefaultPacerBucket
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
