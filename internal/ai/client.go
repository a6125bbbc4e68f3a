// Package ai writes celebration messages for completed rounds with a chat completion model.
package ai

import (
	"context"
	"fmt"
	"github.com/myrjola/heartcollector/internal/errors"
	"github.com/sashabaranov/go-openai"
	"log/slog"
	"strings"
)

// Celebrator writes the message shown on the completion screen.
type Celebrator interface {
	Celebrate(ctx context.Context, collected int, elapsed string) (string, error)
}

// Static always celebrates with the same message.
type Static string

func (s Static) Celebrate(_ context.Context, _ int, _ string) (string, error) {
	return string(s), nil
}

type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a client for the OpenAI API. A non-empty baseURL overrides the API endpoint.
func NewClient(apiKey string, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.GPT3Dot5Turbo,
	}
}

const maxTokens = 60

func (c *Client) Celebrate(ctx context.Context, collected int, elapsed string) (string, error) {
	prompt := fmt.Sprintf("Someone just collected all %d hidden hearts in a little clicking game in %s "+
		"(minutes:seconds). Write one warm, playful sentence congratulating them. No hashtags, no quotes.",
		collected, elapsed)
	completion, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:     c.model,
			MaxTokens: maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt}, //nolint:exhaustruct // plain text message
			},
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "create chat completion")
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat completion without choices", slog.String("id", completion.ID))
	}
	return strings.Trim(strings.TrimSpace(completion.Choices[0].Message.Content), `"`), nil
}

// WithFallback celebrates with primary and falls back to fallback when primary fails.
func WithFallback(primary Celebrator, fallback Celebrator, logger *slog.Logger) Celebrator {
	return fallbackCelebrator{primary: primary, fallback: fallback, logger: logger}
}

type fallbackCelebrator struct {
	primary  Celebrator
	fallback Celebrator
	logger   *slog.Logger
}

func (f fallbackCelebrator) Celebrate(ctx context.Context, collected int, elapsed string) (string, error) {
	msg, err := f.primary.Celebrate(ctx, collected, elapsed)
	if err == nil && msg != "" {
		return msg, nil
	}
	if err != nil {
		f.logger.LogAttrs(ctx, slog.LevelWarn, "falling back to static celebration", errors.SlogError(err))
	}
	return f.fallback.Celebrate(ctx, collected, elapsed)
}
