package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/joshsymonds/mailsort/internal/classify"
	"github.com/joshsymonds/mailsort/internal/config"
	"github.com/joshsymonds/mailsort/internal/credstore"
	"github.com/joshsymonds/mailsort/internal/gmail"
	"github.com/joshsymonds/mailsort/internal/orch"
	"github.com/joshsymonds/mailsort/internal/rate"
	"github.com/joshsymonds/mailsort/internal/triage"
)

// BuildOrchestrator wires the configured credential backend, classifier and
// per-mailbox processor factory into a ready orchestrator. The returned
// closer releases the credential store, if one was opened.
func BuildOrchestrator(ctx context.Context, cfg *config.Config, logger *slog.Logger, dryRun bool) (*orch.Orchestrator, func(), error) {
	classifier := classify.NewLLM(cfg.AnthropicAPIKey, cfg.Categories)
	if cfg.Model != "" {
		classifier.Model = cfg.Model
	}
	limiter := rate.PerSecond(cfg.RPS)

	newProcessor := func(client gmail.Client) orch.Processor {
		svc := triage.NewService(client, classifier, limiter, logger)
		svc.Vocabulary = cfg.Categories
		svc.Fallback = cfg.Fallback
		svc.BatchSize = cfg.BatchSize
		svc.ExcerptLimit = cfg.ExcerptLimit
		svc.DryRun = dryRun
		return svc
	}

	var (
		registry orch.Registry
		factory  orch.ClientFactory
		closer   = func() {}
	)
	switch cfg.CredBackend {
	case config.BackendLocalcred:
		registry = credstore.StaticRegistry(cfg.Mailboxes)
		factory = NewLocalcredFactory(cfg.Home)
	default:
		store, err := credstore.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		oauthCfg, err := LoadOAuthConfig(cfg.GoogleCredentialsFile)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		registry = store
		factory = NewOAuthFactory(oauthCfg, store)
		closer = func() { _ = store.Close() }
	}

	o := orch.New(registry, factory, newProcessor, logger)
	o.Workers = cfg.Workers
	return o, closer, nil
}

// LoadOAuthConfig reads the OAuth application client config used with
// tokens from the credential store.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("GOOGLE_CREDENTIALS_FILE is required with the sqlite backend")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oauth client config: %w", err)
	}
	oc, err := google.ConfigFromJSON(b, gmailapi.GmailModifyScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client config: %w", err)
	}
	return oc, nil
}
