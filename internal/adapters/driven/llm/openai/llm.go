// Package openai generates text through an OpenAI-compatible
// /chat/completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/httpx"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig configures the service. APIKey is required.
type LLMConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// LLMService answers prompts with chat completions. Generate is a single
// user turn.
type LLMService struct {
	api   *httpx.Endpoint
	model string
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
	Stop        []string  `json:"stop,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService validates cfg and fills in defaults.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	api := httpx.NewEndpoint("openai", cfg.BaseURL, cfg.Timeout, cfg.MaxRetries)
	api.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	return &LLMService{api: api, model: cfg.Model}, nil
}

// Generate sends prompt as one user message.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.complete(ctx, []message{{Role: "user", Content: prompt}},
		opts.MaxTokens, opts.Temperature, opts.StopWords)
}

// Chat sends the conversation as is.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	msgs := make([]message, len(messages))
	for i, m := range messages {
		msgs[i] = message{Role: m.Role, Content: m.Content}
	}
	return s.complete(ctx, msgs, opts.MaxTokens, opts.Temperature, opts.StopWords)
}

func (s *LLMService) complete(
	ctx context.Context, msgs []message, maxTokens int, temperature float64, stop []string,
) (string, error) {
	req := completionRequest{
		Model:       s.model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stop:        stop,
	}

	var resp completionResponse
	if err := s.api.PostJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("openai: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *LLMService) ModelName() string { return s.model }

// Ping checks the key against /models without running the model.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Probe(ctx, "/models")
}

func (s *LLMService) Close() error { return s.api.Close() }
