// Package summarize asks an OpenAI-compatible chat model to summarize and
// prioritize the user's tasks.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	appLog "dayboard/internal/log"
)

const (
	systemPrompt = "You are a helpful assistant that summarizes and prioritizes daily tasks."
	maxTokens    = 150
	noSummary    = "No summary generated."

	DefaultModel = "gpt-3.5-turbo"
)

var (
	ErrEmptyText     = errors.New("summarize: text is empty")
	ErrNotConfigured = errors.New("summarize: no API key configured")
)

// Config selects the endpoint and model.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	MaxRetries int
}

// Client wraps the chat completion API.
type Client struct {
	api   *openai.Client
	model string
}

// New builds a Client. Without an API key the client is returned but every
// call fails with ErrNotConfigured, so the rest of the dashboard keeps working.
func New(cfg Config) *Client {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	c := &Client{model: model}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return c
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	api := openai.NewClient(opts...)
	c.api = &api
	return c
}

// Configured reports whether an API key was supplied.
func (c *Client) Configured() bool { return c.api != nil }

// Summarize returns the model's summary of text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if c.api == nil {
		return "", ErrNotConfigured
	}

	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               shared.ChatModel(c.model),
		MaxCompletionTokens: openai.Int(maxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			appLog.Error("summarize request rejected", err, "status", apiErr.StatusCode, "model", c.model)
		}
		return "", fmt.Errorf("summarize: completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("summarize: empty response")
	}

	summary := strings.TrimSpace(completion.Choices[0].Message.Content)
	if summary == "" {
		summary = noSummary
	}
	appLog.Debug("summarize done", "model", c.model, "chars", len(summary))
	return summary, nil
}
