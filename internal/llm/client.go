// Package llm wraps the chat-completion backend. Any OpenAI-compatible
// endpoint works; the driver only sees the Completer interface.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// Completion is a model response: the completion text plus total token
// usage when the backend reports it (zero otherwise).
type Completion struct {
	Text        string
	TotalTokens int
}

// Completer produces a completion for a prompt with the given model.
// Transport and backend failures return an error distinguishable from a
// normal empty-content response.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (Completion, error)
}

// Options configures the backend client.
type Options struct {
	// APIKey authenticates against the endpoint.
	APIKey string
	// BaseURL points at an alternative OpenAI-compatible endpoint.
	// Empty means the default OpenAI API.
	BaseURL string
	// Temperature is the fixed sampling temperature for every request.
	Temperature float32
	// MaxTokens bounds the completion length.
	MaxTokens int
}

// Client is the go-openai backed Completer.
type Client struct {
	inner       *openai.Client
	temperature float32
	maxTokens   int
}

// NewClient creates a Client for the configured endpoint.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("llm: api key is not set")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.2
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 4096
	}
	return &Client{
		inner:       openai.NewClientWithConfig(cfg),
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}, nil
}

// Complete sends the prompt as a single user message and returns the
// first choice. A response with no choices is an error; a choice with
// empty content is not.
func (c *Client) Complete(ctx context.Context, model, prompt string) (Completion, error) {
	slog.Debug("requesting completion", "model", model, "prompt_bytes", len(prompt))

	resp, err := c.inner.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("chat completion: backend returned no choices")
	}

	slog.Debug("received completion",
		"model", model,
		"finish_reason", resp.Choices[0].FinishReason,
		"total_tokens", resp.Usage.TotalTokens)

	return Completion{
		Text:        resp.Choices[0].Message.Content,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}

var _ Completer = (*Client)(nil)
