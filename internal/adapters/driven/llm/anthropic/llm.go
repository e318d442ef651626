// Package anthropic answers prompts with the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/httpx"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024

	apiVersion = "2023-06-01"
)

// Config configures the service. APIKey is required.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// LLMService posts to /v1/messages. System turns are lifted into the
// request's system field since the API accepts only user and assistant
// messages.
type LLMService struct {
	api   *httpx.Endpoint
	model string
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesRequest always carries max_tokens, which the API requires, and
// temperature, so 0 stays deterministic instead of the API default of 1.
type messagesRequest struct {
	Model         string    `json:"model"`
	System        string    `json:"system,omitempty"`
	Messages      []message `json:"messages"`
	MaxTokens     int       `json:"max_tokens"`
	Temperature   float64   `json:"temperature"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService validates cfg and fills in defaults.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	api := httpx.NewEndpoint("anthropic", cfg.BaseURL, cfg.Timeout, cfg.MaxRetries)
	api.Header.Set("x-api-key", cfg.APIKey)
	api.Header.Set("anthropic-version", apiVersion)
	return &LLMService{api: api, model: cfg.Model}, nil
}

func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return s.send(ctx, messagesRequest{
		Messages:      []message{{Role: "user", Content: prompt}},
		MaxTokens:     opts.MaxTokens,
		Temperature:   opts.Temperature,
		StopSequences: opts.StopWords,
	})
}

func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := messagesRequest{
		MaxTokens:     opts.MaxTokens,
		Temperature:   opts.Temperature,
		StopSequences: opts.StopWords,
	}
	var system []string
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, message{Role: m.Role, Content: m.Content})
	}
	req.System = strings.Join(system, "\n\n")
	return s.send(ctx, req)
}

func (s *LLMService) send(ctx context.Context, req messagesRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", errors.New("anthropic: no user or assistant messages")
	}
	req.Model = s.model
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	var resp messagesResponse
	if err := s.api.PostJSON(ctx, "/v1/messages", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("anthropic: %s: %s", resp.Error.Type, resp.Error.Message)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", errors.New("anthropic: no text content returned")
	}
	return out.String(), nil
}

func (s *LLMService) ModelName() string { return s.model }

// Ping checks the key against /v1/models without running the model.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Probe(ctx, "/v1/models")
}

func (s *LLMService) Close() error { return s.api.Close() }
