package upstream

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rickgao/lotto-engine/internal/model"
)

// Chain tries each source in order until one returns a draw.
type Chain struct {
	sources []Source
	logger  *slog.Logger
}

// NewChain creates a chain over sources, primary first.
func NewChain(logger *slog.Logger, sources ...Source) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{sources: sources, logger: logger}
}

// FetchDraw returns the first successful result. ErrNoData is returned only
// when every source reported no data; otherwise the last real error wins.
func (c *Chain) FetchDraw(ctx context.Context, no int) (model.Draw, error) {
	var lastErr error = ErrNoData
	for i, src := range c.sources {
		d, err := src.FetchDraw(ctx, no)
		if err == nil {
			if i > 0 {
				c.logger.Info("draw fetched from fallback", "draw_no", no, "source", i)
			}
			return d, nil
		}
		if ctx.Err() != nil {
			return model.Draw{}, ctx.Err()
		}

		c.logger.Debug("draw source failed", "draw_no", no, "source", i, "err", err)
		if !errors.Is(err, ErrNoData) {
			lastErr = err
		}
	}
	return model.Draw{}, lastErr
}
