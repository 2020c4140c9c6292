// mailsort-run performs one triage pass over every registered mailbox and
// prints the per-mailbox summary as JSON. It is the manual trigger.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshsymonds/mailsort/internal/config"
	"github.com/joshsymonds/mailsort/internal/credstore"
	"github.com/joshsymonds/mailsort/internal/runtime"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "classify but skip label creation and application")
	mailbox := flag.String("mailbox", "", "restrict the run to one mailbox address")
	flag.Parse()

	if err := run(*dryRun, *mailbox); err != nil {
		runtime.NewLogger(0, "text").Error("mailsort-run failed", "error", err)
		os.Exit(1)
	}
}

func run(dryRun bool, mailbox string) error {
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

	if mailbox != "" {
		orchestrator.Registry = credstore.StaticRegistry{mailbox}
	}

	summary, err := orchestrator.RunAll(ctx)
	if err != nil {
		return fmt.Errorf("run all mailboxes: %w", err)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
