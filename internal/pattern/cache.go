package pattern

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/store"
)

// DrawSource is the read side of the draw store the cache needs.
type DrawSource interface {
	FindLatest(ctx context.Context) (model.Draw, error)
	FindRecent(ctx context.Context, n int) ([]model.Draw, error)
}

// Cache holds PatternStats per window. Readers never block each other: the
// map is replaced wholesale on every update.
type Cache struct {
	draws  DrawSource
	logger *slog.Logger

	entries atomic.Pointer[map[int]model.PatternStats]
	group   singleflight.Group
	mu      sync.Mutex // serializes writers of entries
}

// NewCache creates an empty cache over draws.
func NewCache(draws DrawSource, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{draws: draws, logger: logger}
	empty := map[int]model.PatternStats{}
	c.entries.Store(&empty)
	return c
}

// Get returns the stats for window, recomputing them whenever the latest
// stored draw number differs from the cached entry's. An empty store yields the defaults.
func (c *Cache) Get(ctx context.Context, window int) (model.PatternStats, error) {
	if !model.ValidWindow(window) {
		return model.PatternStats{}, fmt.Errorf("unsupported window %d", window)
	}

	latest, err := c.draws.FindLatest(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return model.DefaultPatternStats(window), nil
	case err != nil:
		return model.PatternStats{}, fmt.Errorf("find latest draw: %w", err)
	}

	if st, ok := (*c.entries.Load())[window]; ok && st.AsOfDrawNo == latest.No {
		return st, nil
	}

	v, err, _ := c.group.Do(strconv.Itoa(window), func() (any, error) {
		return c.recompute(ctx, window)
	})
	if err != nil {
		return model.PatternStats{}, err
	}
	return v.(model.PatternStats), nil
}

// Invalidate drops every cached entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	empty := map[int]model.PatternStats{}
	c.entries.Store(&empty)
}

// RecomputeAll rebuilds every supported window concurrently.
func (c *Cache) RecomputeAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range model.Windows {
		g.Go(func() error {
			_, err := c.recompute(ctx, w)
			return err
		})
	}
	return g.Wait()
}

func (c *Cache) recompute(ctx context.Context, window int) (model.PatternStats, error) {
	draws, err := c.draws.FindRecent(ctx, window)
	if err != nil {
		return model.PatternStats{}, fmt.Errorf("load recent draws: %w", err)
	}
	st := Compute(draws, window)

	c.mu.Lock()
	next := maps.Clone(*c.entries.Load())
	next[window] = st
	c.entries.Store(&next)
	c.mu.Unlock()

	c.logger.Debug("pattern stats recomputed",
		"window", window,
		"sample_size", st.SampleSize,
		"as_of", st.AsOfDrawNo,
	)
	return st, nil
}
