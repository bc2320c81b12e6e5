package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/pattern"
	"github.com/rickgao/lotto-engine/internal/sampling"
	"github.com/rickgao/lotto-engine/internal/strategy"
)

// ErrInvalidRequest wraps request shape violations that slipped past the caller.
var ErrInvalidRequest = errors.New("invalid request")

// StatsSource provides pattern stats per window.
type StatsSource interface {
	Get(ctx context.Context, window int) (model.PatternStats, error)
}

// Request is one generation call.
type Request struct {
	Strategy    model.StrategyID
	Constraints model.Constraints
	Count       int
	Window      int
	Metrics     map[int]model.NumberMetric // empty means no history
}

// Result is the outcome of Generate. Sets may be fewer than requested when
// the similarity filter or dedup removed some.
type Result struct {
	Strategy model.StrategyID
	Window   int
	Stats    model.PatternStats
	Sets     []model.GeneratedSet
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRandSource overrides the per-call random source, for tests.
func WithRandSource(f func() *rand.Rand) Option {
	return func(e *Engine) { e.newRand = f }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine is safe for concurrent use.
type Engine struct {
	stats   StatsSource
	logger  *slog.Logger
	newRand func() *rand.Rand
	now     func() time.Time
}

// New creates an Engine reading pattern stats from stats.
func New(stats StatsSource, opts ...Option) *Engine {
	e := &Engine{
		stats:  stats,
		logger: slog.Default(),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate produces up to req.Count combinations.
func (e *Engine) Generate(ctx context.Context, req Request) (*Result, error) {
	s, err := strategy.Lookup(req.Strategy)
	if err != nil {
		return nil, err
	}
	if req.Count < 1 {
		return nil, fmt.Errorf("%w: count %d", ErrInvalidRequest, req.Count)
	}
	if req.Window == 0 {
		req.Window = model.DefaultWindow
	}
	if !model.ValidWindow(req.Window) {
		return nil, fmt.Errorf("%w: window %d", ErrInvalidRequest, req.Window)
	}

	stats := model.DefaultPatternStats(req.Window)
	if req.Strategy.UsesPatternStats() {
		stats, err = e.stats.Get(ctx, req.Window)
		if err != nil {
			return nil, fmt.Errorf("pattern stats: %w", err)
		}
	}

	cons := req.Constraints.Clone()
	in := strategy.Input{
		Rand:        e.newRand(),
		Constraints: cons,
		Window:      req.Window,
		Metrics:     req.Metrics,
		Stats:       stats,
	}

	var raw [][6]int
	if bg, ok := s.(strategy.BatchGenerator); ok {
		raw = bg.GenerateBatch(in, req.Count)
	} else {
		raw = make([][6]int, req.Count)
		for i := range raw {
			raw[i] = s.Generate(in)
		}
	}

	// Balanced and PatternMatcher force includes per candidate; this pass
	// covers the rest and is a no-op for combinations already holding them.
	forced := sampling.HasIncludes(cons.Include)
	for i, c := range raw {
		raw[i], _ = sampling.ApplyIncludes(in.Rand, c, cons.Include)
	}

	kept := Diversify(raw, cons.SimilarityThreshold)

	now := e.now()
	sets := make([]model.GeneratedSet, len(kept))
	for i, c := range kept {
		sets[i] = model.GeneratedSet{
			Index:       i,
			Numbers:     c,
			Tags:        Explain(c, stats, forced),
			Strategy:    req.Strategy,
			Constraints: cons,
			CreatedAt:   now,
		}
	}

	e.logger.Debug("generated",
		"strategy", req.Strategy,
		"window", req.Window,
		"requested", req.Count,
		"returned", len(sets),
		"history", len(req.Metrics) > 0,
	)

	return &Result{Strategy: req.Strategy, Window: req.Window, Stats: stats, Sets: sets}, nil
}

// Explain returns human-readable tags describing a combination's shape.
func Explain(c [6]int, stats model.PatternStats, forced bool) []string {
	sh := pattern.Describe(c)
	tags := []string{
		"sum:" + strconv.Itoa(sh.Sum),
		"odd:" + strconv.Itoa(sh.Odd) + "/even:" + strconv.Itoa(model.PickSize-sh.Odd),
		"high:" + strconv.Itoa(sh.High) + "/low:" + strconv.Itoa(model.PickSize-sh.High),
	}
	if sh.HasConsecutive() {
		tags = append(tags, "consecutive:"+strconv.Itoa(sh.LongestRun))
	}
	if !stats.IsDefault() && sh.Sum >= stats.MinSum && sh.Sum <= stats.MaxSum {
		tags = append(tags, "sum-in-range")
	}
	if forced {
		tags = append(tags, "includes-applied")
	}
	return tags
}
