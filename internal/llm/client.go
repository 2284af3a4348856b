// Package llm is a minimal client for OpenAI-compatible chat completion
// endpoints. The orchestrator only ever needs one operation: send the full
// conversation, get the assistant's text back. Everything else (plan blobs,
// action objects) is layered on top by the caller.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/parchlabs/sitesmith/internal/logger"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"` // user, assistant or system
	Content string `json:"content"`
}

// Model is the orchestrator's view of a language model. It is stateless
// between calls; all continuity has to be carried in the messages.
type Model interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Options configures a Client.
type Options struct {
	BaseURL string        // Defaults to the OpenAI endpoint
	APIKey  string
	Model   string
	Timeout time.Duration // Per-request HTTP timeout
}

// Client talks to a chat completion endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// New creates a client. Generation runs can take minutes for large files, so
// the default timeout is deliberately long.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 600 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		model:      opts.Model,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

// WithModel returns a copy of the client pointed at a different model.
// Plan and fix stages often use a different model than generation.
func (c *Client) WithModel(model string) *Client {
	if model == "" || model == c.model {
		return c
	}
	clone := *c
	clone.model = model
	return &clone
}

// ModelName returns the model this client sends requests to.
func (c *Client) ModelName() string {
	return c.model
}

// Chat sends the conversation and returns the assistant's reply text.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	logger.Debug("Sending chat request: model=%s messages=%d", c.model, len(messages))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", apiErrorFrom(resp.StatusCode, data)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	logger.Debug("Chat response: %d prompt + %d completion tokens",
		parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens)

	return parsed.Choices[0].Message.Content, nil
}

// apiErrorFrom turns a non-200 response into an error, preferring the
// provider's own error message when the payload carries one.
func apiErrorFrom(status int, body []byte) error {
	var payload struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return fmt.Errorf("API error (%d): %s", status, payload.Error.Message)
	}
	return fmt.Errorf("API error (%d): %s", status, strings.TrimSpace(string(body)))
}

// IsRateLimit reports whether an error looks like a provider rate limit.
// Providers are inconsistent about status codes, so the message text is
// checked too.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(strings.ToLower(msg), "rate limit") ||
		strings.Contains(strings.ToLower(msg), "usage limit")
}

// Wire types for the chat completions endpoint.
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
