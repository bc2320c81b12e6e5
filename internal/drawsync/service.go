package drawsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/progress"
	"github.com/rickgao/lotto-engine/internal/store"
	"github.com/rickgao/lotto-engine/internal/upstream"
)

var (
	// ErrSyncInProgress is returned when another instance held the lease
	// for longer than PollTimeout.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrNoProgress marks a sweep that expected draws but stored none.
	ErrNoProgress = errors.New("sync inserted no draws")

	// ErrLeaseLost stops a sweep whose lease was taken over after expiring.
	ErrLeaseLost = errors.New("sync lease lost")
)

// Config holds sync settings.
type Config struct {
	Owner            string        // lease owner id; random when empty
	RequestDelay     time.Duration // minimum spacing between upstream requests
	FailureThreshold int           // consecutive failures that abort a sweep
	LeaseTTL         time.Duration // renewed every LeaseTTL/2 while a sweep runs
	PollInterval     time.Duration
	PollTimeout      time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RequestDelay:     500 * time.Millisecond,
		FailureThreshold: 5,
		LeaseTTL:         30 * time.Minute,
		PollInterval:     500 * time.Millisecond,
		PollTimeout:      10 * time.Second,
	}
}

// Recomputer rebuilds derived data after new draws arrive.
type Recomputer interface {
	RecomputeAll(ctx context.Context) error
}

// PatternCache is the part of the pattern cache a sweep refreshes.
type PatternCache interface {
	Invalidate()
	RecomputeAll(ctx context.Context) error
}

// Deps are the collaborators of a Service. Events may be nil.
type Deps struct {
	Draws    store.DrawStore
	State    store.SyncStateStore
	Source   upstream.Source
	Schedule upstream.Schedule
	Metrics  Recomputer
	Patterns PatternCache
	Events   progress.Publisher
}

// has-data flag values.
const (
	dataUnknown int32 = iota
	dataAbsent
	dataPresent
)

// Service runs sweeps and answers has-data queries.
type Service struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
	now    func() time.Time

	group    singleflight.Group
	hasData  atomic.Int32
	cancel   atomic.Bool
	running  atomic.Bool
	sweeps   atomic.Int64
	inserted atomic.Int64
	last     atomic.Pointer[Report]

	renewAt time.Time // owned by the running sweep
}

// New creates a Service.
func New(cfg Config, deps Deps, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Owner == "" {
		cfg.Owner = uuid.NewString()
	}
	if deps.Events == nil {
		deps.Events = progress.Discard
	}
	return &Service{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With("component", "drawsync", "owner", cfg.Owner),
		now:    time.Now,
	}
}

// HasData reports whether any draw is stored. The answer is cached after the
// first store lookup and flipped by sweeps that insert draws.
func (s *Service) HasData(ctx context.Context) (bool, error) {
	switch s.hasData.Load() {
	case dataPresent:
		return true, nil
	case dataAbsent:
		return false, nil
	}

	n, err := s.deps.Draws.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count draws: %w", err)
	}
	if n > 0 {
		s.hasData.Store(dataPresent)
		return true, nil
	}
	s.hasData.Store(dataAbsent)
	return false, nil
}

// Sync runs one sweep or joins the one in progress. When another instance
// holds the lease it waits for it and returns a report with AlreadyRunning.
func (s *Service) Sync(ctx context.Context) (*Report, error) {
	v, err, shared := s.group.Do("sync", func() (any, error) {
		return s.syncOnce(ctx)
	})
	if err != nil {
		return nil, err
	}
	rep := *v.(*Report)
	rep.Shared = shared
	return &rep, nil
}

// Cancel asks the running sweep to stop before its next draw. Draws already
// stored stay. It reports whether a sweep was running.
func (s *Service) Cancel() bool {
	if !s.running.Load() {
		return false
	}
	s.cancel.Store(true)
	s.logger.Info("sync cancel requested")
	return true
}

// Status describes the sync subsystem.
type Status struct {
	State      model.SyncState `json:"state"`
	Running    bool            `json:"running"`
	Sweeps     int64           `json:"sweeps"`
	Inserted   int64           `json:"inserted"`
	LastReport *Report         `json:"lastReport,omitempty"`
}

// Status returns the persisted state plus this process's counters.
func (s *Service) Status(ctx context.Context) (Status, error) {
	st, err := s.deps.State.Load(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("load sync state: %w", err)
	}
	return Status{
		State:      st,
		Running:    s.running.Load(),
		Sweeps:     s.sweeps.Load(),
		Inserted:   s.inserted.Load(),
		LastReport: s.last.Load(),
	}, nil
}

func (s *Service) syncOnce(ctx context.Context) (*Report, error) {
	now := s.now()
	ok, err := s.deps.State.TryAcquire(ctx, s.cfg.Owner, now, now.Add(s.cfg.LeaseTTL))
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.waitForOther(ctx)
	}

	s.renewAt = now.Add(s.cfg.LeaseTTL / 2)
	s.cancel.Store(false)
	s.running.Store(true)
	defer s.running.Store(false)

	rep := s.sweep(ctx)
	s.sweeps.Add(1)
	s.inserted.Add(int64(rep.Inserted))
	s.last.Store(rep)

	asOf := 0
	if latest, err := s.deps.Draws.FindLatest(ctx); err == nil {
		asOf = latest.No
	}
	lastErr := ""
	if rep.Err != nil {
		lastErr = rep.Err.Error()
	}
	// Release even if ctx was cancelled mid-sweep.
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.deps.State.Release(relCtx, s.cfg.Owner, asOf, lastErr, s.now()); err != nil {
		s.logger.Error("failed to release sync lease", "err", err)
	}
	return rep, nil
}

// waitForOther polls the lease until it clears or PollTimeout passes.
func (s *Service) waitForOther(ctx context.Context) (*Report, error) {
	s.logger.Info("sync lease held elsewhere, waiting")

	deadline := time.NewTimer(s.cfg.PollTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrSyncInProgress
		case <-ticker.C:
			st, err := s.deps.State.Load(ctx)
			if err != nil {
				return nil, fmt.Errorf("load sync state: %w", err)
			}
			if !st.LeaseHeld(s.now()) {
				s.hasData.Store(dataUnknown)
				return &Report{AlreadyRunning: true, Owner: st.Owner, AsOfDrawNo: st.AsOfDrawNo}, nil
			}
		}
	}
}
