// Package config loads deployment configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Backend selects where mailbox credentials live.
const (
	BackendSQLite    = "sqlite"
	BackendLocalcred = "localcred"
)

// Config is the immutable configuration injected at construction. The
// vocabulary is closed: classification output outside it maps to Fallback.
type Config struct {
	// Categories is the ordered list of exact label display names.
	Categories []string `env:"MAILSORT_CATEGORIES" envSeparator:","`
	Fallback   string   `env:"MAILSORT_FALLBACK_CATEGORY" envDefault:"Spam or Ignore"`

	BatchSize    int           `env:"MAILSORT_BATCH_SIZE" envDefault:"25"`
	ExcerptLimit int           `env:"MAILSORT_EXCERPT_LIMIT" envDefault:"1500"`
	PollInterval time.Duration `env:"MAILSORT_POLL_INTERVAL" envDefault:"5m"`
	RPS          int           `env:"MAILSORT_RPS" envDefault:"4"`
	Workers      int           `env:"MAILSORT_MAILBOX_WORKERS" envDefault:"1"`

	CredBackend string `env:"MAILSORT_CRED_BACKEND" envDefault:"sqlite"`
	DBPath      string `env:"MAILSORT_DB_PATH" envDefault:"./data/mailsort.db"`
	// Home holds per-mailbox localcred directories when CredBackend is
	// "localcred"; Mailboxes is the registry for that backend.
	Home      string   `env:"MAILSORT_HOME" envDefault:"$HOME/.mailsort" envExpand:"true"`
	Mailboxes []string `env:"MAILSORT_MAILBOXES" envSeparator:","`

	// GoogleCredentialsFile is the OAuth application config used with the
	// sqlite backend's stored tokens.
	GoogleCredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE"`

	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	Model           string `env:"MAILSORT_MODEL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads the environment (and .env, if present) and validates the
// result. Validation failures here are fatal by design: a bad vocabulary
// must never reach a run.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Categories = cleanList(cfg.Categories)
	cfg.Mailboxes = cleanList(cfg.Mailboxes)
	cfg.Fallback = strings.TrimSpace(cfg.Fallback)

	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("MAILSORT_CATEGORIES must list at least one category")
	}
	if cfg.Fallback == "" {
		return nil, fmt.Errorf("MAILSORT_FALLBACK_CATEGORY must not be empty")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("MAILSORT_BATCH_SIZE must be positive")
	}
	switch cfg.CredBackend {
	case BackendSQLite, BackendLocalcred:
	default:
		return nil, fmt.Errorf("unknown MAILSORT_CRED_BACKEND %q", cfg.CredBackend)
	}
	if cfg.CredBackend == BackendLocalcred && len(cfg.Mailboxes) == 0 {
		return nil, fmt.Errorf("MAILSORT_MAILBOXES is required with the localcred backend")
	}
	return cfg, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
