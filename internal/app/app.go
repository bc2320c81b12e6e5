// Package app wires configuration into the running services shared by
// lottod and lottoctl.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rickgao/lotto-engine/internal/auth"
	"github.com/rickgao/lotto-engine/internal/config"
	"github.com/rickgao/lotto-engine/internal/database"
	"github.com/rickgao/lotto-engine/internal/drawsync"
	"github.com/rickgao/lotto-engine/internal/engine"
	"github.com/rickgao/lotto-engine/internal/metrics"
	"github.com/rickgao/lotto-engine/internal/pacer"
	"github.com/rickgao/lotto-engine/internal/pattern"
	"github.com/rickgao/lotto-engine/internal/progress"
	"github.com/rickgao/lotto-engine/internal/recommend"
	"github.com/rickgao/lotto-engine/internal/server"
	"github.com/rickgao/lotto-engine/internal/store"
	"github.com/rickgao/lotto-engine/internal/upstream"
)

// App holds every long-lived service of one instance.
type App struct {
	Config    *config.Config
	Store     store.Store
	Patterns  *pattern.Cache
	Metrics   *metrics.Recomputer
	Engine    *engine.Engine
	Pacer     *pacer.Pacer
	Hub       *progress.Hub
	Sync      *drawsync.Service
	Scheduler *drawsync.Scheduler
	Recommend *recommend.Service

	logger *slog.Logger
}

// New opens the store and builds the services on top of it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return Assemble(cfg, st, NewSource(cfg.Upstream, logger), logger), nil
}

// Assemble builds the services over an open store and draw source.
func Assemble(cfg *config.Config, st store.Store, src upstream.Source, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	patterns := pattern.NewCache(st.Draws(), logger)
	recomputer := metrics.NewRecomputer(st.Draws(), st.Metrics(), logger)
	eng := engine.New(patterns, engine.WithLogger(logger))
	hub := progress.NewHub(logger)
	p := pacer.New(pacer.Config{
		MaxConcurrent: cfg.Pacer.MaxConcurrent,
		QueueSize:     cfg.Pacer.QueueSize,
		MinDelay:      cfg.Pacer.MinDelay,
		MaxDelay:      cfg.Pacer.MaxDelay,
		Bucket:        cfg.Pacer.Bucket,
	}, logger)

	syncer := drawsync.New(drawsync.Config{
		Owner:            cfg.Instance.ID,
		RequestDelay:     cfg.Sync.RequestDelay,
		FailureThreshold: cfg.Sync.FailureThreshold,
		LeaseTTL:         cfg.Sync.LeaseTTL,
		PollInterval:     cfg.Sync.PollInterval,
		PollTimeout:      cfg.Sync.PollTimeout,
	}, drawsync.Deps{
		Draws:    st.Draws(),
		State:    st.SyncState(),
		Source:   src,
		Schedule: NewSchedule(cfg),
		Metrics:  recomputer,
		Patterns: patterns,
		Events:   hub,
	}, logger)

	scheduler := drawsync.NewScheduler(drawsync.SchedulerConfig{
		Interval:  cfg.Sync.Interval,
		Timeout:   cfg.Sync.LeaseTTL,
		OnStartup: cfg.Sync.OnStartup,
	}, syncer, logger)

	rec := recommend.New(recommend.Deps{
		Data:    syncer,
		Metrics: st.Metrics(),
		Results: st.Results(),
		Engine:  eng,
		Pacer:   p,
	}, logger)

	return &App{
		Config:    cfg,
		Store:     st,
		Patterns:  patterns,
		Metrics:   recomputer,
		Engine:    eng,
		Pacer:     p,
		Hub:       hub,
		Sync:      syncer,
		Scheduler: scheduler,
		Recommend: rec,
		logger:    logger,
	}
}

// Server builds the HTTP API. Admin routes are mounted only when admin
// credentials are configured.
func (a *App) Server() (*server.Server, error) {
	cfg := a.Config.Server
	deps := server.Deps{
		Recommender: a.Recommend,
		Draws:       a.Store.Draws(),
		Patterns:    a.Patterns,
		Sync:        a.Sync,
		Hub:         a.Hub,
	}
	if cfg.AdminKeyID != "" || cfg.AdminSecret != "" {
		creds, err := auth.NewCredentials(cfg.AdminKeyID, cfg.AdminSecret)
		if err != nil {
			return nil, fmt.Errorf("admin credentials: %w", err)
		}
		deps.Verifier = auth.NewVerifier(creds, cfg.SignatureSkew)
	}

	return server.New(server.Config{
		Addr:           cfg.Addr,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		RequestTimeout: cfg.WriteTimeout,
		DefaultCount:   a.Config.Generation.DefaultCount,
		MaxCount:       a.Config.Generation.MaxCount,
		DefaultWindow:  a.Config.Generation.DefaultWindow,
		CORSOrigins:    cfg.CORSOrigins,
	}, deps, a.logger), nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// NewSource builds the primary JSON client with the HTML page fallback.
func NewSource(cfg config.UpstreamConfig, logger *slog.Logger) upstream.Source {
	opts := []upstream.ClientOption{
		upstream.WithLogger(logger),
		upstream.WithTimeout(cfg.Timeout),
		upstream.WithRetries(cfg.MaxRetries, cfg.RetryBackoff),
		upstream.WithUserAgent(cfg.UserAgent),
	}
	sources := []upstream.Source{upstream.NewClient(cfg.PrimaryURL, opts...)}
	if cfg.FallbackURL != "" {
		sources = append(sources, upstream.NewPageClient(cfg.FallbackURL, opts...))
	}
	return upstream.NewChain(logger, sources...)
}

// NewSchedule builds the draw calendar from cfg.
func NewSchedule(cfg *config.Config) upstream.Schedule {
	return upstream.Schedule{
		Epoch:        cfg.EpochTime(),
		Cadence:      cfg.Upstream.Cadence,
		PublishDelay: cfg.Upstream.PublishDelay,
	}
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, errors.New("logging.format must be text or json")
	}
}
