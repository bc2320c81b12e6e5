package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/lotto-engine/internal/app"
	"github.com/rickgao/lotto-engine/internal/config"
	"github.com/rickgao/lotto-engine/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/lottod.local.yaml", "path to config file")
	noSync := flag.Bool("no-sync", false, "disable the background sync scheduler")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "config", *configPath, "err", err)
		os.Exit(1)
	}

	logger, err := app.NewLogger(cfg.Logging, os.Stdout)
	if err != nil {
		slog.Error("failed to build logger", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	logger.Info("starting lottod",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"instance_id", cfg.Instance.ID,
		"driver", cfg.Database.Driver,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close store", "err", err)
		}
	}()

	srv, err := a.Server()
	if err != nil {
		logger.Error("failed to build server", "err", err)
		os.Exit(1)
	}
	if err := srv.Start(ctx); err != nil {
		logger.Error("failed to start server", "err", err)
		os.Exit(1)
	}

	if !*noSync {
		if err := a.Scheduler.Start(ctx); err != nil {
			logger.Error("failed to start sync scheduler", "err", err)
			os.Exit(1)
		}
	}

	logger.Info("lottod running", "addr", cfg.Server.Addr)

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
	if !*noSync {
		if err := a.Scheduler.Stop(shutdownCtx); err != nil {
			logger.Error("scheduler shutdown error", "err", err)
		}
	}

	logger.Info("lottod stopped")
}
