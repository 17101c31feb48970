// Package llm adapts an OpenAI-compatible chat model to the ports.Generator
// interface using the eino model stack.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Defaults mirroring the service configuration. DefaultBaseURL empty means
// the official OpenAI endpoint.
const (
	DefaultModel       = "gpt-4.1-nano"
	DefaultTemperature = float32(0.7)
	DefaultTimeout     = 60 * time.Second
)

// Config holds the connection settings for the chat model.
type Config struct {
	// BaseURL points at any OpenAI-compatible endpoint. Empty means the
	// official API.
	BaseURL string

	// APIKey authenticates the calls. Required.
	APIKey string

	// Model names the chat model. Empty falls back to DefaultModel.
	Model string

	// Temperature tunes sampling. Nil falls back to DefaultTemperature.
	Temperature *float32

	// Timeout bounds one completion call. Zero falls back to DefaultTimeout.
	Timeout time.Duration
}

// Generator implements ports.Generator on top of an eino chat model.
type Generator struct {
	chat model.BaseChatModel
}

// New builds a Generator connected to an OpenAI-compatible API.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("llm: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == nil {
		temp := DefaultTemperature
		cfg.Temperature = &temp
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: init chat model: %w", err)
	}
	return &Generator{chat: chat}, nil
}

// NewFromModel wraps an existing chat model. Used by tests and by callers
// that configure their own eino stack.
func NewFromModel(chat model.BaseChatModel) *Generator {
	return &Generator{chat: chat}
}

// Generate sends the prompt as a single user message and returns the reply
// content. maxTokens caps the reply when positive; zero leaves the model's
// default in place.
func (g *Generator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	messages := []*schema.Message{schema.UserMessage(prompt)}

	var opts []model.Option
	if maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(maxTokens))
	}

	reply, err := g.chat.Generate(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("llm: generate: %w", err)
	}
	if reply == nil || reply.Content == "" {
		return "", fmt.Errorf("llm: model returned an empty reply")
	}
	return reply.Content, nil
}
