package services

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-voice/internal/logger"
)

// Embedder wraps one embedding model for both documents and queries, so
// stored and query vectors always share a space.
type Embedder struct {
	service driven.EmbeddingService
	limiter *rate.Limiter
}

// NewEmbedder pings the model and fails fast with domain.ErrFatalInit when
// it cannot be reached. rateLimit caps requests per second; 0 disables it.
func NewEmbedder(ctx context.Context, service driven.EmbeddingService, rateLimit float64) (*Embedder, error) {
	if service == nil {
		return nil, fmt.Errorf("%w: no embedding service", domain.ErrFatalInit)
	}
	if err := service.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: embedding model %s: %w", domain.ErrFatalInit, service.ModelName(), err)
	}

	e := &Embedder{service: service}
	if rateLimit > 0 {
		burst := int(rateLimit)
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(rateLimit), burst)
	}
	return e, nil
}

// EmbedDocuments returns one vector per text, in order.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := e.wait(ctx); err != nil {
		return nil, err
	}

	vectors, err := e.service.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingUnavailable, len(vectors), len(texts))
	}

	logger.Debug("embedded %d texts with %s", len(texts), e.service.ModelName())
	return vectors, nil
}

// EmbedQuery returns the vector for a single query.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := e.wait(ctx); err != nil {
		return nil, err
	}
	vector, err := e.service.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return vector, nil
}

// ModelName returns the embedding model name.
func (e *Embedder) ModelName() string {
	return e.service.ModelName()
}

func (e *Embedder) wait(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("embedding rate limit: %w", err)
	}
	return nil
}
