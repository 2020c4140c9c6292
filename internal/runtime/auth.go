package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mbrt/gmailctl/cmd/gmailctl/localcred"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	gc "github.com/joshsymonds/mailsort/internal/gmail"
)

// TokenSource yields the stored OAuth token for a mailbox address.
type TokenSource interface {
	GetToken(ctx context.Context, address string) (*oauth2.Token, error)
}

// OAuthFactory builds per-mailbox Gmail clients from tokens held in the
// credential store, using a shared OAuth application config.
type OAuthFactory struct {
	Config *oauth2.Config
	Tokens TokenSource
}

func NewOAuthFactory(cfg *oauth2.Config, tokens TokenSource) *OAuthFactory {
	return &OAuthFactory{Config: cfg, Tokens: tokens}
}

func (f *OAuthFactory) ClientFor(ctx context.Context, address string) (gc.Client, error) {
	tok, err := f.Tokens.GetToken(ctx, address)
	if err != nil {
		return nil, err
	}
	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(f.Config.TokenSource(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("gmail service for %s: %w", address, err)
	}
	return NewGoogleAPIClient(svc), nil
}

// LocalcredFactory uses gmailctl's local credential flow, one config
// directory per mailbox under home/mailboxes/<address>. Intended for local
// setups where tokens live on disk rather than in the store.
type LocalcredFactory struct {
	Home string
}

func NewLocalcredFactory(home string) *LocalcredFactory {
	return &LocalcredFactory{Home: home}
}

func (f *LocalcredFactory) ClientFor(ctx context.Context, address string) (gc.Client, error) {
	dir := filepath.Join(f.Home, "mailboxes", address)
	svc, err := (localcred.Provider{}).Service(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("local credential for %s: %w", address, err)
	}
	return NewGoogleAPIClient(svc), nil
}

// NewLogger builds the process logger. format is "json" or "text"; text
// gets the tinted console handler.
func NewLogger(level slog.Level, format string) *slog.Logger {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
		})
	}
	return slog.New(handler)
}

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
