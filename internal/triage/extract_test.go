package triage

import (
	"strings"
	"testing"

	"github.com/joshsymonds/mailsort/internal/gmail"
)

func TestExtractPrefersFirstPlainTextPart(t *testing.T) {
	msg := gmail.Message{
		From:    "a@example.com",
		Subject: "hello",
		Snippet: "snip",
		Body: gmail.BodyPart{
			MIMEType: "multipart/alternative",
			Children: []gmail.BodyPart{
				{MIMEType: "text/html", Data: "<p>html body</p>"},
				{
					MIMEType: "multipart/mixed",
					Children: []gmail.BodyPart{
						{MIMEType: "text/plain", Data: "first plain"},
						{MIMEType: "text/plain", Data: "second plain"},
					},
				},
			},
		},
	}

	got := extractFeatures(msg, 100)
	if got.BodyExcerpt != "first plain" {
		t.Fatalf("excerpt %q, want %q", got.BodyExcerpt, "first plain")
	}
	if got.Sender != "a@example.com" || got.Subject != "hello" || got.Snippet != "snip" {
		t.Fatalf("header fields not carried through: %+v", got)
	}
}

func TestExtractFallsBackToStrippedHTML(t *testing.T) {
	msg := gmail.Message{
		Body: gmail.BodyPart{
			MIMEType: "text/html",
			Data:     "<html><head><style>p{}</style></head><body><p>Big sale</p><div>ends Friday</div><script>x()</script></body></html>",
		},
	}

	got := extractFeatures(msg, 200)
	if !strings.Contains(got.BodyExcerpt, "Big sale") || !strings.Contains(got.BodyExcerpt, "ends Friday") {
		t.Fatalf("stripped excerpt missing content: %q", got.BodyExcerpt)
	}
	if strings.Contains(got.BodyExcerpt, "x()") || strings.Contains(got.BodyExcerpt, "p{}") {
		t.Fatalf("script or style leaked into excerpt: %q", got.BodyExcerpt)
	}
}

func TestExtractTruncatesExcerpt(t *testing.T) {
	msg := gmail.Message{
		Body: gmail.BodyPart{MIMEType: "text/plain", Data: strings.Repeat("ab", 100)},
	}

	got := extractFeatures(msg, 30)
	if len([]rune(got.BodyExcerpt)) != 30 {
		t.Fatalf("excerpt length %d, want 30", len([]rune(got.BodyExcerpt)))
	}
}

func TestExtractEmptyBody(t *testing.T) {
	got := extractFeatures(gmail.Message{Subject: "no body"}, 100)
	if got.BodyExcerpt != "" {
		t.Fatalf("expected empty excerpt, got %q", got.BodyExcerpt)
	}
}
