// Package runtime adapts the Google API client and credential backends to
// the narrow interfaces the pipeline consumes.
package runtime

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	gc "github.com/joshsymonds/mailsort/internal/gmail"
)

const unreadQuery = "in:inbox is:unread"

type googleClient struct{ svc *gmailapi.Service }

// NewGoogleAPIClient wraps a *gmail.Service in the gc.Client interface.
func NewGoogleAPIClient(svc *gmailapi.Service) gc.Client { return &googleClient{svc} }

func (g *googleClient) ListUnread(ctx context.Context, max int) ([]gc.MessageRef, error) {
	res, err := g.svc.Users.Messages.List("me").
		Q(unreadQuery).
		MaxResults(int64(max)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list unread: %w", err)
	}
	refs := make([]gc.MessageRef, 0, len(res.Messages))
	for _, m := range res.Messages {
		// The list call returns bare ids; a minimal get carries the
		// label set without paying for headers or body.
		msg, err := g.svc.Users.Messages.Get("me", m.Id).Format("minimal").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("get message %s labels: %w", m.Id, err)
		}
		refs = append(refs, gc.MessageRef{ID: gc.MessageID(m.Id), Labels: toLabelIDs(msg.LabelIds)})
	}
	return refs, nil
}

func (g *googleClient) GetMessage(ctx context.Context, id gc.MessageID) (gc.Message, error) {
	msg, err := g.svc.Users.Messages.Get("me", string(id)).Format("full").Context(ctx).Do()
	if err != nil {
		return gc.Message{}, fmt.Errorf("get message %s: %w", id, err)
	}
	out := gc.Message{
		ID:      id,
		Labels:  toLabelIDs(msg.LabelIds),
		Snippet: msg.Snippet,
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				out.From = h.Value
			case "Subject":
				out.Subject = h.Value
			}
		}
		out.Body = toBodyPart(msg.Payload)
	}
	return out, nil
}

func (g *googleClient) ListLabels(ctx context.Context) ([]gc.Label, error) {
	lr, err := g.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	out := make([]gc.Label, 0, len(lr.Labels))
	for _, l := range lr.Labels {
		out = append(out, gc.Label{ID: gc.LabelID(l.Id), Name: l.Name})
	}
	return out, nil
}

func (g *googleClient) CreateLabel(ctx context.Context, name string) (gc.Label, error) {
	created, err := g.svc.Users.Labels.Create("me", &gmailapi.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
			return gc.Label{}, fmt.Errorf("create label %q: %w", name, gc.ErrLabelExists)
		}
		return gc.Label{}, fmt.Errorf("create label %q: %w", name, err)
	}
	return gc.Label{ID: gc.LabelID(created.Id), Name: created.Name}, nil
}

func (g *googleClient) AddLabel(ctx context.Context, id gc.MessageID, labelID gc.LabelID) error {
	req := &gmailapi.ModifyMessageRequest{AddLabelIds: []string{string(labelID)}}
	if _, err := g.svc.Users.Messages.Modify("me", string(id), req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add label %s to %s: %w", labelID, id, err)
	}
	return nil
}

func toBodyPart(p *gmailapi.MessagePart) gc.BodyPart {
	out := gc.BodyPart{MIMEType: p.MimeType}
	if p.Body != nil && p.Body.Data != "" {
		out.Data = decodeBody(p.Body.Data)
	}
	for _, child := range p.Parts {
		out.Children = append(out.Children, toBodyPart(child))
	}
	return out
}

// decodeBody handles the web-safe base64 Gmail uses, with or without padding.
func decodeBody(data string) string {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	return ""
}

func toLabelIDs(ids []string) []gc.LabelID {
	out := make([]gc.LabelID, 0, len(ids))
	for _, id := range ids {
		out = append(out, gc.LabelID(id))
	}
	return out
}
