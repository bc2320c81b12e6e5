package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/store"
)

// Recomputer rebuilds stored metrics for every window.
type Recomputer struct {
	draws   store.DrawStore
	metrics store.MetricsStore
	logger  *slog.Logger
}

// NewRecomputer creates a Recomputer.
func NewRecomputer(draws store.DrawStore, metrics store.MetricsStore, logger *slog.Logger) *Recomputer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recomputer{draws: draws, metrics: metrics, logger: logger}
}

// RecomputeAll loads the largest window once and replaces each window's
// metrics concurrently. It is idempotent.
func (r *Recomputer) RecomputeAll(ctx context.Context) error {
	start := time.Now()

	draws, err := r.draws.FindRecent(ctx, slices.Max(model.Windows))
	if err != nil {
		return fmt.Errorf("load recent draws: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, w := range model.Windows {
		g.Go(func() error {
			if err := r.metrics.ReplaceWindow(ctx, w, Compute(draws, w)); err != nil {
				return fmt.Errorf("replace window %d: %w", w, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.logger.Info("metrics recomputed",
		"draws", len(draws),
		"windows", len(model.Windows),
		"duration", time.Since(start),
	)
	return nil
}

// Load returns the stored metrics of a window indexed by number. An empty map
// means no metrics exist yet.
func Load(ctx context.Context, ms store.MetricsStore, window int) (map[int]model.NumberMetric, error) {
	list, err := ms.FindByWindow(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("load metrics for window %d: %w", window, err)
	}
	return store.MetricsByNumber(list), nil
}
