// Package assist provides a client for an OpenAI-compatible chat
// completions endpoint used for content moderation, translation, and
// summarization.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/campuslink/backend/internal/logger"
	"go.uber.org/zap"
)

// Client calls the chat completions API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates an assist client. baseURL is the API root, without the
// trailing /chat/completions.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Enabled reports whether the client has credentials to call the API.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// ModerationResult is the verdict on a piece of user content.
type ModerationResult struct {
	Flagged bool     `json:"flagged"`
	Labels  []string `json:"labels"`
	Reason  string   `json:"reason"`
}

// TranslationResult carries a translation and the detected source language.
type TranslationResult struct {
	Translated   string `json:"translated"`
	DetectedLang string `json:"detected_lang"`
}

// SummaryResult is a condensed rendering of a long text or thread.
type SummaryResult struct {
	Summary string `json:"summary"`
}

// SuggestionResult proposes a title and hashtags for a draft post.
type SuggestionResult struct {
	Title    string   `json:"title"`
	Hashtags []string `json:"hashtags"`
}

// Moderate classifies content for policy violations. Moderation fails
// open: when the API is unreachable, misbehaves, or is not configured, the
// content is treated as clean so the service never blocks posting on a
// third-party outage.
func (c *Client) Moderate(ctx context.Context, content string) ModerationResult {
	if !c.Enabled() {
		return ModerationResult{}
	}
	const system = "You are a content moderator for a student community app. " +
		"Classify the user message for hate speech, harassment, sexual content, spam, or threats. " +
		`Respond with JSON only: {"flagged": bool, "labels": [string], "reason": string}.`

	var result ModerationResult
	if err := c.completeJSON(ctx, system, content, &result); err != nil {
		logger.Log.Warn("moderation unavailable, allowing content", zap.Error(err))
		return ModerationResult{}
	}
	return result
}

// Translate renders content into the target language.
func (c *Client) Translate(ctx context.Context, content, targetLang string) (*TranslationResult, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("assist api not configured")
	}
	system := fmt.Sprintf("Translate the user message into %s. "+
		`Respond with JSON only: {"translated": string, "detected_lang": string}, `+
		"where detected_lang is the ISO 639-1 code of the source language.", targetLang)

	var result TranslationResult
	if err := c.completeJSON(ctx, system, content, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Summarize condenses content into a few sentences.
func (c *Client) Summarize(ctx context.Context, content string) (*SummaryResult, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("assist api not configured")
	}
	const system = "Summarize the user message in at most three short sentences, " +
		"keeping the original language. " +
		`Respond with JSON only: {"summary": string}.`

	var result SummaryResult
	if err := c.completeJSON(ctx, system, content, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Suggest proposes a title and hashtags for a draft.
func (c *Client) Suggest(ctx context.Context, content string) (*SuggestionResult, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("assist api not configured")
	}
	const system = "Suggest a catchy title and up to five hashtags for the user's draft post, " +
		"in the draft's language. " +
		`Respond with JSON only: {"title": string, "hashtags": [string]}.`

	var result SuggestionResult
	if err := c.completeJSON(ctx, system, content, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// completeJSON sends one system+user exchange and decodes the model's JSON
// reply into out.
func (c *Client) completeJSON(ctx context.Context, system, user string, out interface{}) error {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    0,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call assist api: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("assist api returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var cr chatResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if cr.Error != nil {
		return fmt.Errorf("assist api error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return fmt.Errorf("assist api returned no choices")
	}

	content := strings.TrimSpace(cr.Choices[0].Message.Content)
	// Some models wrap JSON in a code fence despite the response_format.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), out); err != nil {
		return fmt.Errorf("decode completion %q: %w", truncate(content, 100), err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
