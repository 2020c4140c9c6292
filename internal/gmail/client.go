package gmail

import (
	"context"
	"errors"
)

// ErrLabelExists reports a label-creation name collision. Adapters wrap
// the provider's conflict response with this sentinel so callers can
// recover by re-listing labels.
var ErrLabelExists = errors.New("label name already exists")

// Client is the narrow Gmail surface required by mailsort.
type Client interface {
	// ListUnread returns up to max unread inbox messages in listing order.
	ListUnread(ctx context.Context, max int) ([]MessageRef, error)
	// GetMessage fetches headers, snippet and the full body tree.
	GetMessage(ctx context.Context, id MessageID) (Message, error)
	ListLabels(ctx context.Context) ([]Label, error)
	// CreateLabel creates a user label with the given display name. It
	// returns ErrLabelExists (wrapped) on a name collision.
	CreateLabel(ctx context.Context, name string) (Label, error)
	// AddLabel attaches labelID to the message. Add-only: implementations
	// must never remove labels or touch the unread flag.
	AddLabel(ctx context.Context, id MessageID, labelID LabelID) error
}
