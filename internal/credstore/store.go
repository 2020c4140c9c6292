// Package credstore persists registered mailboxes and their OAuth tokens.
package credstore

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// ErrNotFound is returned when no credential exists for a mailbox.
var ErrNotFound = errors.New("credential not found")

// Store is the credential surface the orchestrator depends on.
type Store interface {
	// ListMailboxes returns the addresses of all active registered mailboxes.
	ListMailboxes(ctx context.Context) ([]string, error)
	// GetToken returns the stored OAuth token for a mailbox, or ErrNotFound.
	GetToken(ctx context.Context, address string) (*oauth2.Token, error)
	// PutToken registers the mailbox if needed and stores its token.
	PutToken(ctx context.Context, address string, tok *oauth2.Token) error
}

// StaticRegistry exposes a fixed address list as a mailbox registry, for
// backends that keep credentials outside the database.
type StaticRegistry []string

func (r StaticRegistry) ListMailboxes(_ context.Context) ([]string, error) {
	out := make([]string, len(r))
	copy(out, r)
	return out, nil
}
