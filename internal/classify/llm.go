package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 64
	defaultAPIURL    = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
)

// LLM classifies messages with an Anthropic messages call. The category
// vocabulary is embedded in the system prompt; the model is asked to answer
// with exactly one name.
type LLM struct {
	APIKey     string
	Model      string
	MaxTokens  int
	BaseURL    string
	HTTPClient *http.Client

	system string
}

// NewLLM builds a classifier over the given category vocabulary.
func NewLLM(apiKey string, categories []string) *LLM {
	var b strings.Builder
	b.WriteString("You label emails. Reply with exactly one of these category names, nothing else:\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	return &LLM{
		APIKey:     apiKey,
		Model:      defaultModel,
		MaxTokens:  defaultMaxTokens,
		BaseURL:    defaultAPIURL,
		HTTPClient: &http.Client{},
		system:     b.String(),
	}
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (l *LLM) Classify(ctx context.Context, req Request) (string, error) {
	prompt := fmt.Sprintf("From: %s\nSubject: %s\nSnippet: %s\n\n%s",
		req.Sender, req.Subject, req.Snippet, req.BodyExcerpt)

	body, err := json.Marshal(apiRequest{
		Model:     l.Model,
		MaxTokens: l.MaxTokens,
		System:    l.system,
		Messages:  []apiMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode classify request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build classify request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", l.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := l.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("classify call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read classify response: %w", err)
	}
	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode classify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("classify call failed: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("classify call failed: status %d", resp.StatusCode)
	}
	for _, c := range parsed.Content {
		if c.Type == "text" {
			return strings.TrimSpace(c.Text), nil
		}
	}
	return "", fmt.Errorf("classify response contained no text")
}

var _ Classifier = (*LLM)(nil)
