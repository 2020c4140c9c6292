// Package labels resolves category names to mailbox label ids and decides
// whether a message has already been triaged.
package labels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshsymonds/mailsort/internal/gmail"
)

// normalize folds a label display name for comparison. Creation always uses
// the exact configured name; only lookups go through this.
func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Cache maps normalized label names to ids for one mailbox run. It is
// rebuilt from a fresh listing every run so out-of-band label edits are
// picked up, and it is never shared across mailboxes.
type Cache struct {
	byName map[string]gmail.LabelID
}

// NewCache builds a cache from a full label listing.
func NewCache(listing []gmail.Label) *Cache {
	c := &Cache{byName: make(map[string]gmail.LabelID, len(listing))}
	for _, l := range listing {
		c.byName[normalize(l.Name)] = l.ID
	}
	return c
}

func (c *Cache) Lookup(name string) (gmail.LabelID, bool) {
	id, ok := c.byName[normalize(name)]
	return id, ok
}

func (c *Cache) Put(name string, id gmail.LabelID) {
	c.byName[normalize(name)] = id
}

// Resolver maps a category to a label id, creating the label on first use.
type Resolver struct {
	Client gmail.Client
	Cache  *Cache
	Log    *slog.Logger
}

func NewResolver(client gmail.Client, cache *Cache, log *slog.Logger) *Resolver {
	return &Resolver{Client: client, Cache: cache, Log: log}
}

// Resolve returns the label id for category. On a cache miss it creates the
// label with the exact display name. A creation conflict means another
// process won the race: the resolver re-lists once and re-resolves. If the
// name still cannot be found it falls back to the inbox label rather than
// failing the message.
func (r *Resolver) Resolve(ctx context.Context, category string) (gmail.LabelID, error) {
	if id, ok := r.Cache.Lookup(category); ok {
		return id, nil
	}

	created, err := r.Client.CreateLabel(ctx, category)
	if err == nil {
		r.Cache.Put(category, created.ID)
		return created.ID, nil
	}
	if !errors.Is(err, gmail.ErrLabelExists) {
		return "", fmt.Errorf("resolve %q: %w", category, err)
	}

	// Lost a creation race. One re-list, then give up on the name.
	listing, listErr := r.Client.ListLabels(ctx)
	if listErr != nil {
		return "", fmt.Errorf("resolve %q after conflict: %w", category, listErr)
	}
	for _, l := range listing {
		if normalize(l.Name) == normalize(category) {
			r.Cache.Put(category, l.ID)
			return l.ID, nil
		}
	}
	r.Log.WarnContext(ctx, "label missing after creation conflict, using inbox",
		slog.String("category", category))
	return gmail.LabelInbox, nil
}

// ManagedSet returns the ids of labels whose display name matches the
// configured vocabulary or the fallback category.
func ManagedSet(listing []gmail.Label, vocabulary []string, fallback string) map[gmail.LabelID]struct{} {
	names := make(map[string]struct{}, len(vocabulary)+1)
	for _, v := range vocabulary {
		names[normalize(v)] = struct{}{}
	}
	names[normalize(fallback)] = struct{}{}

	out := make(map[gmail.LabelID]struct{})
	for _, l := range listing {
		if _, ok := names[normalize(l.Name)]; ok {
			out[l.ID] = struct{}{}
		}
	}
	return out
}

// AlreadyProcessed reports whether the message's labels intersect the
// managed set. Two or more managed labels still count as processed; the
// pipeline never removes labels it finds.
func AlreadyProcessed(msgLabels []gmail.LabelID, managed map[gmail.LabelID]struct{}) bool {
	for _, id := range msgLabels {
		if _, ok := managed[id]; ok {
			return true
		}
	}
	return false
}
