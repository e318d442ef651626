// Package ollama provides an embedding service adapter using Ollama.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/httpx"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 768 // nomic-embed-text default
)

// Config holds configuration for the Ollama embedding service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model to use (default: nomic-embed-text).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// Dimensions is the embedding vector size. When zero it is learned
	// from the first response.
	Dimensions int

	// MaxRetries bounds retries of transient failures.
	MaxRetries int
}

// EmbeddingService generates embeddings using Ollama.
// Batches go to /api/embed; servers that predate it fall back to one
// /api/embeddings call per text.
type EmbeddingService struct {
	api   *httpx.Endpoint
	model string

	mu         sync.Mutex
	dimensions int
	legacy     bool
}

// embedRequest is the /api/embed request format.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the /api/embed response format.
type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// legacyRequest is the /api/embeddings request format.
type legacyRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// legacyResponse is the /api/embeddings response format.
type legacyResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &EmbeddingService{
		api:        httpx.NewEndpoint("ollama", cfg.BaseURL, cfg.Timeout, cfg.MaxRetries),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	legacy := s.legacy
	s.mu.Unlock()

	if !legacy {
		vectors, err := s.embedBatch(ctx, texts)
		var statusErr *httpx.StatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
			return vectors, err
		}
		// Older servers answer 404 for /api/embed.
		s.mu.Lock()
		s.legacy = true
		s.mu.Unlock()
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.embedLegacy(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (s *EmbeddingService) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var resp embedResponse
	if err := s.api.PostJSON(ctx, "/api/embed", embedRequest{Model: s.model, Input: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = s.toFloat32(e)
	}
	return vectors, nil
}

func (s *EmbeddingService) embedLegacy(ctx context.Context, text string) ([]float32, error) {
	var resp legacyResponse
	if err := s.api.PostJSON(ctx, "/api/embeddings", legacyRequest{Model: s.model, Prompt: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}
	return s.toFloat32(resp.Embedding), nil
}

// toFloat32 converts a response vector and records its dimension.
func (s *EmbeddingService) toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	s.mu.Lock()
	if s.dimensions == 0 {
		s.dimensions = len(out)
	}
	s.mu.Unlock()
	return out
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimensions == 0 {
		return DefaultDimensions
	}
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping checks that the server answers /api/tags without running the
// model.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.api.Probe(ctx, "/api/tags")
}

func (s *EmbeddingService) Close() error { return s.api.Close() }
