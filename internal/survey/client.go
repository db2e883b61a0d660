// Package survey orchestrates the LLM survey loop: templated category
// questions, repeated runs per model, mention extraction, and pacing.
package survey

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/som-monitor/internal/config"
	"github.com/sells-group/som-monitor/pkg/anthropic"
	"github.com/sells-group/som-monitor/pkg/openai"
)

// Client issues one prompt to one model and returns the raw response
// text. Implementations are registered per provider name.
type Client interface {
	Query(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (string, error)
	Provider() string
}

// openaiClient adapts the OpenAI chat completion API to the survey
// Client contract.
type openaiClient struct {
	api openai.Client
}

// NewOpenAIClient creates a survey client backed by the OpenAI API.
func NewOpenAIClient(cfg config.OpenAIConfig) Client {
	var opts []openai.Option
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return &openaiClient{api: openai.NewClient(cfg.Key, opts...)}
}

func (c *openaiClient) Provider() string { return "openai" }

func (c *openaiClient) Query(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (string, error) {
	resp, err := c.api.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    []openai.Message{{Role: "user", Content: prompt}},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("survey: openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// anthropicClient adapts the Anthropic Messages API to the survey
// Client contract.
type anthropicClient struct {
	api anthropic.Client
}

// NewAnthropicClient creates a survey client backed by the Anthropic API.
func NewAnthropicClient(cfg config.AnthropicConfig) Client {
	return &anthropicClient{api: anthropic.NewClient(cfg.Key)}
}

func (c *anthropicClient) Provider() string { return "anthropic" }

func (c *anthropicClient) Query(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (string, error) {
	resp, err := c.api.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       model,
		MaxTokens:   int64(maxTokens),
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
