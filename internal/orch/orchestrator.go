// Package orch fans one run out across all registered mailboxes, keeping
// each tenant's failures to itself.
package orch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/joshsymonds/mailsort/internal/credstore"
	"github.com/joshsymonds/mailsort/internal/gmail"
	"github.com/joshsymonds/mailsort/internal/triage"
)

// Registry lists the mailboxes to process.
type Registry interface {
	ListMailboxes(ctx context.Context) ([]string, error)
}

// ClientFactory binds a live provider client to one mailbox's credential.
type ClientFactory interface {
	ClientFor(ctx context.Context, address string) (gmail.Client, error)
}

// Processor runs one mailbox pass.
type Processor interface {
	Run(ctx context.Context) ([]triage.Result, error)
}

// MailboxSummary is the per-tenant outcome of one run.
type MailboxSummary struct {
	Results []triage.Result `json:"results,omitempty"`
	Error   string          `json:"error,omitempty"`
	Skipped bool            `json:"skipped,omitempty"`
}

// Summary maps mailbox address to its outcome.
type Summary map[string]MailboxSummary

// Orchestrator is the single entry point for scheduled, polled and manual
// triggers. RunAll is idempotent: already-labeled messages are skipped by
// the per-mailbox duplicate guard.
type Orchestrator struct {
	Registry     Registry
	Factory      ClientFactory
	NewProcessor func(gmail.Client) Processor
	Log          *slog.Logger

	// Workers caps parallel mailbox processing. <=1 means sequential.
	// Per-mailbox state is never shared, so the cap exists purely to
	// respect provider and classifier rate limits.
	Workers int
}

func New(reg Registry, factory ClientFactory, newProcessor func(gmail.Client) Processor, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Orchestrator{
		Registry:     reg,
		Factory:      factory,
		NewProcessor: newProcessor,
		Log:          log,
		Workers:      1,
	}
}

// RunAll processes every registered mailbox. An error from one mailbox is
// recorded in the summary and never propagates to its siblings; only a
// registry failure aborts the run.
func (o *Orchestrator) RunAll(ctx context.Context) (Summary, error) {
	addrs, err := o.Registry.ListMailboxes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mailboxes: %w", err)
	}
	summary := make(Summary, len(addrs))

	if o.Workers <= 1 {
		for _, addr := range addrs {
			summary[addr] = o.runOne(ctx, addr)
		}
		return summary, nil
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, o.Workers)
	)
	for _, addr := range addrs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			res := o.runOne(ctx, addr)
			mu.Lock()
			summary[addr] = res
			mu.Unlock()
		}()
	}
	wg.Wait()
	return summary, nil
}

func (o *Orchestrator) runOne(ctx context.Context, addr string) MailboxSummary {
	log := o.Log.With(slog.String("mailbox", addr))

	client, err := o.Factory.ClientFor(ctx, addr)
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			log.WarnContext(ctx, "no credential, mailbox skipped")
		} else {
			log.ErrorContext(ctx, "credential unusable, mailbox skipped", slog.Any("error", err))
		}
		return MailboxSummary{Skipped: true, Error: err.Error()}
	}

	results, err := o.NewProcessor(client).Run(ctx)
	if err != nil {
		log.ErrorContext(ctx, "mailbox run failed", slog.Any("error", err))
		return MailboxSummary{Results: results, Error: err.Error()}
	}
	log.InfoContext(ctx, "mailbox run complete", slog.Int("labeled", len(results)))
	return MailboxSummary{Results: results}
}
