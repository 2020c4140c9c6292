// mailsort-poll runs the triage pass on a fixed interval until interrupted.
// Failures are logged only; there is no user-facing channel on this path.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joshsymonds/mailsort/internal/config"
	"github.com/joshsymonds/mailsort/internal/runtime"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "classify but skip label creation and application")
	flag.Parse()

	if err := run(*dryRun); err != nil {
		runtime.NewLogger(0, "text").Error("mailsort-poll failed", "error", err)
		os.Exit(1)
	}
}

func run(dryRun bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := runtime.NewLogger(runtime.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	orchestrator, closeStore, err := runtime.BuildOrchestrator(ctx, cfg, logger, dryRun)
	if err != nil {
		return err
	}
	defer closeStore()

	logger.Info("polling started", slog.Duration("interval", cfg.PollInterval))

	// Passes run back to back on the ticker; a pass that outlives the
	// interval simply delays the next tick, so runs never overlap.
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for {
		if _, err := orchestrator.RunAll(ctx); err != nil {
			logger.Error("pass failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-ticker.C:
		}
	}
}
