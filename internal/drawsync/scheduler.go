package drawsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Syncer runs one sweep.
type Syncer interface {
	Sync(ctx context.Context) (*Report, error)
}

// SchedulerConfig holds background sync settings.
type SchedulerConfig struct {
	Interval  time.Duration // time between sweeps (default: 1h)
	Timeout   time.Duration // per-sweep limit (default: 30m)
	OnStartup bool          // sweep immediately on Start
}

// DefaultSchedulerConfig returns sensible defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:  time.Hour,
		Timeout:   30 * time.Minute,
		OnStartup: true,
	}
}

// Scheduler runs sweeps on a fixed interval. A sweep that finds nothing
// missing makes no upstream requests, so frequent ticks are cheap.
type Scheduler struct {
	cfg    SchedulerConfig
	syncer Syncer
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler.
func NewScheduler(cfg SchedulerConfig, syncer Syncer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:    cfg,
		syncer: syncer,
		logger: logger.With("component", "sync-scheduler"),
	}
}

// Start begins the sweep loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		return errors.New("sync interval must be positive")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("sync scheduler started", "interval", s.cfg.Interval, "on_startup", s.cfg.OnStartup)
	return nil
}

// Stop cancels the loop and waits for the running sweep to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sync scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	if s.cfg.OnStartup {
		s.syncOnce()
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.syncOnce()
		}
	}
}

func (s *Scheduler) syncOnce() {
	ctx := s.ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, s.cfg.Timeout)
		defer cancel()
	}

	rep, err := s.syncer.Sync(ctx)
	switch {
	case errors.Is(err, ErrSyncInProgress):
		s.logger.Info("scheduled sync skipped, lease held elsewhere")
	case err != nil:
		s.logger.Error("scheduled sync failed", "err", err)
	case rep.Err != nil && !errors.Is(rep.Err, context.Canceled):
		s.logger.Warn("scheduled sync incomplete", "inserted", rep.Inserted, "failed", len(rep.Failed), "err", rep.Err)
	}
}
