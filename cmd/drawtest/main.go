// drawtest fetches draws from the upstream site and prints them, without
// touching any database.
// Usage: go run ./cmd/drawtest --config configs/lottod.local.yaml --draw 1100 --count 3
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/lotto-engine/internal/app"
	"github.com/rickgao/lotto-engine/internal/config"
	"github.com/rickgao/lotto-engine/internal/upstream"
)

func main() {
	configPath := flag.String("config", "configs/lottod.example.yaml", "path to config file")
	drawNo := flag.Int("draw", 0, "first draw number to fetch (default: latest per schedule)")
	count := flag.Int("count", 1, "number of draws to fetch, walking backwards")
	sourceName := flag.String("source", "chain", "source to probe: primary, fallback or chain")
	every := flag.Duration("every", time.Second, "minimum spacing between requests")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Warn("config not loaded, using defaults", "err", err)
		cfg = config.Default()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := []upstream.ClientOption{
		upstream.WithLogger(logger),
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithRetries(cfg.Upstream.MaxRetries, cfg.Upstream.RetryBackoff),
		upstream.WithUserAgent(cfg.Upstream.UserAgent),
		upstream.WithRateLimit(*every),
	}

	var src upstream.Source
	switch *sourceName {
	case "primary":
		src = upstream.NewClient(cfg.Upstream.PrimaryURL, opts...)
	case "fallback":
		src = upstream.NewPageClient(cfg.Upstream.FallbackURL, opts...)
	case "chain":
		src = upstream.NewChain(logger,
			upstream.NewClient(cfg.Upstream.PrimaryURL, opts...),
			upstream.NewPageClient(cfg.Upstream.FallbackURL, opts...),
		)
	default:
		logger.Error("unknown source", "source", *sourceName)
		os.Exit(2)
	}

	start := *drawNo
	if start <= 0 {
		start = app.NewSchedule(cfg).LatestDrawNo(time.Now())
		logger.Info("latest draw per schedule", "draw_no", start)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	failed := 0
	for no := start; no > start-*count && no > 0; no-- {
		d, err := src.FetchDraw(ctx, no)
		switch {
		case errors.Is(err, upstream.ErrNoData):
			logger.Warn("no data", "draw_no", no)
			failed++
			continue
		case err != nil:
			logger.Error("fetch failed", "draw_no", no, "err", err)
			failed++
			continue
		}
		if err := enc.Encode(d); err != nil {
			logger.Error("encode failed", "err", err)
			os.Exit(1)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}
