// Package ollama answers prompts with a local Ollama server.
package ollama

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/httpx"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig configures the service. Zero fields take the defaults above.
type LLMConfig struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// LLMService talks to /api/generate and /api/chat with streaming off.
type LLMService struct {
	api   *httpx.Endpoint
	model string
}

// options is always sent with temperature so 0 means deterministic
// rather than the model default.
type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options options `json:"options"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  options   `json:"options"`
}

// NewLLMService fills in defaults. Nothing is contacted until the first
// call.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		api:   httpx.NewEndpoint("ollama", cfg.BaseURL, cfg.Timeout, cfg.MaxRetries),
		model: cfg.Model,
	}
}

func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := generateRequest{
		Model:   s.model,
		Prompt:  prompt,
		Options: options{opts.MaxTokens, opts.Temperature, opts.StopWords},
	}

	var resp struct {
		Response string `json:"response"`
	}
	if err := s.api.PostJSON(ctx, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := chatRequest{
		Model:    s.model,
		Messages: make([]message, len(messages)),
		Options:  options{opts.MaxTokens, opts.Temperature, opts.StopWords},
	}
	for i, m := range messages {
		req.Messages[i] = message{Role: m.Role, Content: m.Content}
	}

	var resp struct {
		Message message `json:"message"`
	}
	if err := s.api.PostJSON(ctx, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

func (s *LLMService) ModelName() string { return s.model }

// Ping checks that the server answers /api/tags.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Probe(ctx, "/api/tags")
}

func (s *LLMService) Close() error { return s.api.Close() }
