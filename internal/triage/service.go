// Package triage runs the classification-and-labeling pass for one mailbox.
package triage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joshsymonds/mailsort/internal/classify"
	"github.com/joshsymonds/mailsort/internal/gmail"
	"github.com/joshsymonds/mailsort/internal/labels"
	"github.com/joshsymonds/mailsort/internal/rate"
)

const (
	defaultBatchSize       = 25
	defaultExcerptLimit    = 1500
	defaultClassifyTimeout = 30 * time.Second
)

// Result is one summary entry: a labeled message and the category it got.
type Result struct {
	Subject  string `json:"subject"`
	Category string `json:"category"`
}

// Service processes one mailbox: list unread, skip already-labeled, classify,
// resolve the label, apply it. Messages are handled sequentially so labels
// created for one message are visible to the rest of the run.
type Service struct {
	Client     gmail.Client
	Classifier classify.Classifier
	Limiter    rate.Limiter
	Log        *slog.Logger

	// Vocabulary is the closed, ordered category list; Fallback is used
	// when the classifier output is not an exact member.
	Vocabulary []string
	Fallback   string

	BatchSize       int
	ExcerptLimit    int
	ClassifyTimeout time.Duration
	DryRun          bool
}

// NewService constructs a Service with sane defaults.
func NewService(client gmail.Client, classifier classify.Classifier, limiter rate.Limiter, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	if limiter == nil {
		limiter = rate.None{}
	}
	return &Service{
		Client:          client,
		Classifier:      classifier,
		Limiter:         limiter,
		Log:             log,
		BatchSize:       defaultBatchSize,
		ExcerptLimit:    defaultExcerptLimit,
		ClassifyTimeout: defaultClassifyTimeout,
	}
}

// Run executes one pass over the mailbox's unread messages. A failure on one
// message is logged and skipped; only listing-level failures abort the pass.
func (s *Service) Run(ctx context.Context) ([]Result, error) {
	if len(s.Vocabulary) == 0 {
		return nil, fmt.Errorf("empty category vocabulary")
	}
	if s.Fallback == "" {
		return nil, fmt.Errorf("no fallback category")
	}
	batch := s.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	if err := s.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	refs, err := s.Client.ListUnread(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("list unread: %w", err)
	}
	if len(refs) == 0 {
		s.Log.InfoContext(ctx, "no unread messages")
		return nil, nil
	}

	if err := s.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	listing, err := s.Client.ListLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	managed := labels.ManagedSet(listing, s.Vocabulary, s.Fallback)
	resolver := labels.NewResolver(s.Client, labels.NewCache(listing), s.Log)

	vocab := make(map[string]struct{}, len(s.Vocabulary)+1)
	for _, v := range s.Vocabulary {
		vocab[v] = struct{}{}
	}
	vocab[s.Fallback] = struct{}{}

	var results []Result
	var skipped, failed int
	for _, ref := range refs {
		if labels.AlreadyProcessed(ref.Labels, managed) {
			skipped++
			continue
		}
		res, err := s.processOne(ctx, ref.ID, resolver, vocab)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			failed++
			s.Log.WarnContext(ctx, "message skipped",
				slog.String("message", string(ref.ID)), slog.Any("error", err))
			continue
		}
		results = append(results, res)
	}

	s.Log.InfoContext(ctx, "mailbox pass complete",
		slog.Int("labeled", len(results)),
		slog.Int("already_done", skipped),
		slog.Int("failed", failed),
		slog.Bool("dry_run", s.DryRun))
	return results, nil
}

func (s *Service) processOne(ctx context.Context, id gmail.MessageID, resolver *labels.Resolver, vocab map[string]struct{}) (Result, error) {
	if err := s.Limiter.Wait(ctx); err != nil {
		return Result{}, err
	}
	msg, err := s.Client.GetMessage(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("fetch: %w", err)
	}

	features := extractFeatures(msg, s.ExcerptLimit)

	if err := s.Limiter.Wait(ctx); err != nil {
		return Result{}, err
	}
	category, err := s.classify(ctx, features)
	if err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}
	if _, ok := vocab[category]; !ok {
		s.Log.DebugContext(ctx, "category outside vocabulary, using fallback",
			slog.String("got", category))
		category = s.Fallback
	}

	if s.DryRun {
		s.Log.InfoContext(ctx, "dry-run: would label",
			slog.String("subject", msg.Subject), slog.String("category", category))
		return Result{Subject: msg.Subject, Category: category}, nil
	}

	labelID, err := resolver.Resolve(ctx, category)
	if err != nil {
		return Result{}, err
	}
	if err := s.Limiter.Wait(ctx); err != nil {
		return Result{}, err
	}
	// Add-only: the unread flag and every existing label stay untouched.
	if err := s.Client.AddLabel(ctx, id, labelID); err != nil {
		return Result{}, fmt.Errorf("apply label: %w", err)
	}
	return Result{Subject: msg.Subject, Category: category}, nil
}

func (s *Service) classify(ctx context.Context, req classify.Request) (string, error) {
	timeout := s.ClassifyTimeout
	if timeout <= 0 {
		timeout = defaultClassifyTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.Classifier.Classify(cctx, req)
}
