package triage

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/joshsymonds/mailsort/internal/classify"
	"github.com/joshsymonds/mailsort/internal/gmail"
)

var (
	collapseSpaceRe = regexp.MustCompile(`[^\S\n]+`)
	manyNewlinesRe  = regexp.MustCompile(`\n{3,}`)
)

// extractFeatures pulls the classifier inputs out of a fetched message. The
// body excerpt is the first text/plain part found by a depth-first walk of
// the MIME tree; when none exists the first text/html part is stripped to
// plain text. The excerpt is truncated to limit runes.
func extractFeatures(msg gmail.Message, limit int) classify.Request {
	body := firstPart(msg.Body, "text/plain")
	if body == "" {
		if html := firstPart(msg.Body, "text/html"); html != "" {
			body = htmlToText(html)
		}
	}
	return classify.Request{
		Sender:      msg.From,
		Subject:     msg.Subject,
		Snippet:     msg.Snippet,
		BodyExcerpt: truncate(strings.TrimSpace(body), limit),
	}
}

func firstPart(p gmail.BodyPart, mimeType string) string {
	if strings.HasPrefix(p.MIMEType, mimeType) && p.Data != "" {
		return p.Data
	}
	for _, child := range p.Children {
		if found := firstPart(child, mimeType); found != "" {
			return found
		}
	}
	return ""
}

// htmlToText reduces an HTML body to readable text. Script, style and head
// content is dropped; block elements become line breaks.
func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, head, meta, link").Remove()
	doc.Find("p, div, br, h1, h2, h3, h4, h5, h6, li, tr").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
	})

	text := collapseSpaceRe.ReplaceAllString(doc.Text(), " ")
	lines := make([]string, 0, 16)
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return manyNewlinesRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
