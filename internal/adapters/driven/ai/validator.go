package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// probeText is embedded to check that the configured model is loaded.
// A reachable server without the model still fails this check.
const probeText = "engine fire on ground"

// ConfigValidator checks provider settings against the live services.
type ConfigValidator struct {
	// Timeout bounds each check. Zero uses PingTimeout.
	Timeout time.Duration
}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{Timeout: PingTimeout}
}

// ValidateEmbedding pings the embedding provider and embeds a probe
// query. Unconfigured settings are not an error.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if config == nil || !config.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(config)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout())
	defer cancel()
	return probeEmbedding(ctx, svc)
}

// ValidateLLM pings the LLM provider. Unconfigured settings are not an
// error.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	if config == nil || !config.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(config)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout())
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("model %s: %w", svc.ModelName(), err)
	}
	return nil
}

func (v *ConfigValidator) timeout() time.Duration {
	if v.Timeout <= 0 {
		return PingTimeout
	}
	return v.Timeout
}

// probeEmbedding checks that the service answers and returns a vector of
// the size it reports.
func probeEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("model %s: %w", svc.ModelName(), err)
	}

	vec, err := svc.Embed(ctx, probeText)
	if err != nil {
		return fmt.Errorf("model %s: probe embedding: %w", svc.ModelName(), err)
	}
	if len(vec) == 0 {
		return fmt.Errorf("model %s returned an empty embedding", svc.ModelName())
	}
	if dims := svc.Dimensions(); dims > 0 && dims != len(vec) {
		return fmt.Errorf("model %s returned %d dimensions, expected %d", svc.ModelName(), len(vec), dims)
	}
	return nil
}
