// Package genai wraps the OpenAI-compatible chat completion API used to
// generate spoken replies. The default configuration targets Groq's
// endpoint, which speaks the same wire protocol; any OpenAI-compatible
// service works by overriding the base URL.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Defaults tuned for short, consistent phone replies.
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.1-8b-instant"
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 100
	DefaultTopP        = 0.8
)

// defaultStop keeps the model from drifting into dialogue transcripts or
// restarting the greeting.
var defaultStop = []string{"\n\n", "Customer:", "Agent:", "Hi,"}

// ClientInterface defines the chat operations the reply engine needs.
// MockClient in this package implements it for tests.
type ClientInterface interface {
	// GenerateWithMessages produces a completion from a full message history.
	GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
	// Ping issues a minimal completion to verify connectivity and auth.
	Ping(ctx context.Context) error
	// Model returns the configured model identifier.
	Model() string
}

// Client is a thin wrapper around the openai-go client.
type Client struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
	topP        float64
	stop        []string
}

// Opts holds configuration collected from options.
type Opts struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int64
	TopP        float64
	Stop        []string
}

// Option configures the client.
type Option func(*Opts)

// WithAPIKey sets the API key used to authenticate.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithModel overrides the completion model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Opts) { o.Temperature = t }
}

// WithMaxTokens overrides the completion token budget.
func WithMaxTokens(n int64) Option {
	return func(o *Opts) { o.MaxTokens = n }
}

// NewClient creates a chat client. An API key is required.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		TopP:        DefaultTopP,
		Stop:        defaultStop,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("genai.NewClient: API key not set")
	}
	cli := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
	)
	slog.Debug("genai.NewClient: created client", "baseURL", cfg.BaseURL, "model", cfg.Model)
	return &Client{
		client:      cli,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		topP:        cfg.TopP,
		stop:        cfg.Stop,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// GenerateWithMessages sends the message history to the chat model and
// returns the trimmed completion text. It makes exactly one attempt.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("genai.GenerateWithMessages: no messages provided")
	}
	params := openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       shared.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(c.maxTokens),
		TopP:        openai.Float(c.topP),
	}
	if len(c.stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: c.stop}
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		slog.Error("genai.GenerateWithMessages: completion failed", "error", err, "model", c.model)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chat completion returned empty content")
	}
	slog.Debug("genai.GenerateWithMessages: completion ok", "model", c.model, "length", len(text))
	return text, nil
}

// Ping sends a one-word prompt with a tiny token budget to confirm the
// endpoint is reachable and the key is valid.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage("Hello")},
		Model:     shared.ChatModel(c.model),
		MaxTokens: openai.Int(10),
	})
	if err != nil {
		return fmt.Errorf("genai ping failed: %w", err)
	}
	return nil
}
