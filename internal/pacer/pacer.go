package pacer

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrBusy is returned when both the workers and the queue are full.
var ErrBusy = errors.New("pacer busy")

// Config holds pacer settings.
type Config struct {
	MaxConcurrent int
	QueueSize     int
	MinDelay      time.Duration
	MaxDelay      time.Duration
	Bucket        time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 16,
		QueueSize:     64,
		MinDelay:      300 * time.Millisecond,
		MaxDelay:      1200 * time.Millisecond,
		Bucket:        2 * time.Second,
	}
}

// Pacer is safe for concurrent use.
type Pacer struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	workers *semaphore.Weighted
	slots   chan struct{} // admission: workers + queue

	mu      sync.Mutex
	buckets map[int64]time.Duration
}

// New creates a Pacer.
func New(cfg Config, logger *slog.Logger) *Pacer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	if cfg.Bucket <= 0 {
		cfg.Bucket = DefaultConfig().Bucket
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	return &Pacer{
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		workers: semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		slots:   make(chan struct{}, cfg.MaxConcurrent+cfg.QueueSize),
		buckets: make(map[int64]time.Duration),
	}
}

// Pause waits for the current bucket's delay. It fails fast with ErrBusy when
// the pacer is saturated and returns ctx.Err() if ctx ends first.
func (p *Pacer) Pause(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
	default:
		p.logger.Warn("pacer saturated", "capacity", cap(p.slots))
		return ErrBusy
	}
	defer func() { <-p.slots }()

	if err := p.workers.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.workers.Release(1)

	t := time.NewTimer(p.Delay())
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Delay returns the delay of the current bucket, picking one on first use.
// Buckets older than the current one are evicted.
func (p *Pacer) Delay() time.Duration {
	key := p.now().UnixNano() / int64(p.cfg.Bucket)

	p.mu.Lock()
	defer p.mu.Unlock()

	if d, ok := p.buckets[key]; ok {
		return d
	}
	for k := range p.buckets {
		if k < key {
			delete(p.buckets, k)
		}
	}

	d := p.cfg.MinDelay
	if span := p.cfg.MaxDelay - p.cfg.MinDelay; span > 0 {
		d += rand.N(span + 1)
	}
	p.buckets[key] = d
	return d
}

// InFlight returns how many callers are sleeping or queued.
func (p *Pacer) InFlight() int {
	return len(p.slots)
}
