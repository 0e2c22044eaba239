package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/qepting91/ticker-pulse/internal/collector"
	"github.com/qepting91/ticker-pulse/internal/config"
	"github.com/qepting91/ticker-pulse/internal/dashboard"
	"github.com/qepting91/ticker-pulse/internal/domain"
	"github.com/qepting91/ticker-pulse/internal/engine"
	"github.com/qepting91/ticker-pulse/internal/logging"
	"github.com/qepting91/ticker-pulse/internal/storage"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Setup
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// 2. Collector
	client, err := collector.NewCollector(cfg)
	if err != nil {
		logger.Error("failed to initialize collector", "err", err)
		os.Exit(1)
	}
	logger.Info("collector initialized", "mode", cfg.CollectorMode, "api", cfg.APIURL)

	// 3. Engine
	policy := engine.OverwriteAlways
	if cfg.DiscardStale {
		policy = engine.DiscardStale
	}
	eng := engine.New(client,
		engine.WithInterval(cfg.PollInterval),
		engine.WithFetchTimeout(cfg.FetchTimeout),
		engine.WithStalePolicy(policy),
		engine.WithLogger(logging.Component(logger, "engine")),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return eng.Run(gctx) })

	// 4. Snapshot history
	g.Go(func() error {
		recordHistory(cfg.HistoryFile, eng.Snapshots(), logging.Component(logger, "storage"))
		return nil
	})

	// 5. Dashboard
	srv := &dashboard.Server{
		Engine:       eng,
		Snapshots:    client,
		HistoryFile:  cfg.HistoryFile,
		HistoryLimit: cfg.HistoryLimit,
		RefreshEvery: cfg.PollInterval,
		Log:          logging.Component(logger, "dashboard"),
	}
	g.Go(func() error { return srv.Start(gctx, cfg.Addr()) })

	if err := g.Wait(); err != nil {
		logger.Error("pulse stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// recordHistory writes snapshots to path until the engine closes them.
// History is optional: a writer failure is logged and the live view keeps running.
func recordHistory(path string, snaps <-chan domain.Snapshot, log *slog.Logger) {
	if path == "" {
		for range snaps {
		}
		return
	}
	writer := &storage.WriterService{FilePath: path, Log: log}
	if err := writer.Start(snaps); err != nil {
		log.Warn("snapshot history was not recorded", "path", path, "err", err)
	}
}
