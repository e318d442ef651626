package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedRateLimit    = "embedding.rate_limit"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyVectorBackend     = "vector_store.backend"
	keyVectorPath        = "vector_store.path"
	keyVectorDSN         = "vector_store.dsn"
	keyVectorCollection  = "vector_store.collection"
	keyVectorDistance    = "vector_store.distance"
	keyIngestDir         = "ingestion.dir"
	keyIngestExtensions  = "ingestion.extensions"
	keyChunkerMaxTokens  = "chunker.max_tokens"
	keyTokenizerEncoding = "tokenizer.encoding"
	keyRAGTopK           = "rag.top_k"
	keyRAGNoContext      = "rag.no_context_message"
	keyRAGMismatch       = "rag.mismatch_message"
	keyAgentMaxSteps     = "agent.max_steps"
	keyRAGTimeout        = "orchestrator.rag_timeout"
	keyAgentTimeout      = "orchestrator.agent_timeout"
	keyTranscribeURL     = "transcription.url"
	keyTranscribeTimeout = "transcription.timeout"
	keyLogBackend        = "interaction_log.backend"
	keyLogRedisAddr      = "interaction_log.redis_addr"
	keyLogKey            = "interaction_log.key"
	keyHTTPAddr          = "http.addr"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindStrings
)

// settingKinds lists every key accepted by Set with the type it is stored as.
var settingKinds = map[string]valueKind{
	keyEmbedProvider:     kindString,
	keyEmbedModel:        kindString,
	keyEmbedBaseURL:      kindString,
	keyEmbedAPIKey:       kindString,
	keyEmbedRateLimit:    kindFloat,
	keyLLMProvider:       kindString,
	keyLLMModel:          kindString,
	keyLLMBaseURL:        kindString,
	keyLLMAPIKey:         kindString,
	keyVectorBackend:     kindString,
	keyVectorPath:        kindString,
	keyVectorDSN:         kindString,
	keyVectorCollection:  kindString,
	keyVectorDistance:    kindString,
	keyIngestDir:         kindString,
	keyIngestExtensions:  kindStrings,
	keyChunkerMaxTokens:  kindInt,
	keyTokenizerEncoding: kindString,
	keyRAGTopK:           kindInt,
	keyRAGNoContext:      kindString,
	keyRAGMismatch:       kindString,
	keyAgentMaxSteps:     kindInt,
	keyRAGTimeout:        kindInt,
	keyAgentTimeout:      kindInt,
	keyTranscribeURL:     kindString,
	keyTranscribeTimeout: kindInt,
	keyLogBackend:        kindString,
	keyLogRedisAddr:      kindString,
	keyLogKey:            kindString,
	keyHTTPAddr:          kindString,
}

// SettingKeys returns every configurable key, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings. Missing or invalid values
// fall back to the defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:  s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:     s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:   s.configStore.GetString(keyEmbedBaseURL),
			APIKey:    s.configStore.GetString(keyEmbedAPIKey),
			RateLimit: s.configStore.GetFloat(keyEmbedRateLimit),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:    s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		VectorStore: domain.VectorStoreSettings{
			Backend:    domain.VectorBackendType(s.getString(keyVectorBackend, string(d.VectorStore.Backend))),
			Path:       s.configStore.GetString(keyVectorPath),
			DSN:        s.configStore.GetString(keyVectorDSN),
			Collection: s.getString(keyVectorCollection, d.VectorStore.Collection),
			Distance:   domain.DistanceMetric(s.getString(keyVectorDistance, string(d.VectorStore.Distance))),
		},
		Ingestion: domain.IngestionSettings{
			Dir:        s.getString(keyIngestDir, d.Ingestion.Dir),
			Extensions: s.getExtensions(d.Ingestion.Extensions),
		},
		Chunker: domain.ChunkerSettings{
			MaxTokens: s.getInt(keyChunkerMaxTokens, d.Chunker.MaxTokens),
			Encoding:  s.getString(keyTokenizerEncoding, d.Chunker.Encoding),
		},
		RAG: domain.RAGSettings{
			TopK:             s.getInt(keyRAGTopK, d.RAG.TopK),
			NoContextMessage: s.getString(keyRAGNoContext, d.RAG.NoContextMessage),
			MismatchMessage:  s.getString(keyRAGMismatch, d.RAG.MismatchMessage),
		},
		Agent: domain.AgentSettings{
			MaxSteps: s.getInt(keyAgentMaxSteps, d.Agent.MaxSteps),
		},
		Orchestrator: domain.OrchestratorSettings{
			RAGTimeout:   s.getSeconds(keyRAGTimeout, d.Orchestrator.RAGTimeout),
			AgentTimeout: s.getSeconds(keyAgentTimeout, d.Orchestrator.AgentTimeout),
		},
		Transcription: domain.TranscriptionSettings{
			URL:     s.getString(keyTranscribeURL, d.Transcription.URL),
			Timeout: s.getSeconds(keyTranscribeTimeout, d.Transcription.Timeout),
		},
		InteractionLog: domain.InteractionLogSettings{
			Backend:   s.getString(keyLogBackend, d.InteractionLog.Backend),
			RedisAddr: s.getString(keyLogRedisAddr, d.InteractionLog.RedisAddr),
			Key:       s.getString(keyLogKey, d.InteractionLog.Key),
		},
		HTTP: domain.HTTPSettings{
			Addr: s.getString(keyHTTPAddr, d.HTTP.Addr),
		},
	}

	return settings, nil
}

// Set updates a single key. String values, as typed on the command line,
// are converted to the key's type before being stored.
func (s *SettingsService) Set(key string, value any) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrValidation, key)
	}

	converted, err := convertSetting(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrValidation, key, err)
	}

	if err := s.configStore.Set(key, converted); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func convertSetting(kind valueKind, value any) (any, error) {
	str, isString := value.(string)
	switch kind {
	case kindInt:
		if !isString {
			if n, ok := value.(int); ok {
				return n, nil
			}
			return nil, fmt.Errorf("expected an integer, got %T", value)
		}
		return strconv.Atoi(strings.TrimSpace(str))
	case kindFloat:
		if !isString {
			switch v := value.(type) {
			case float64:
				return v, nil
			case int:
				return float64(v), nil
			}
			return nil, fmt.Errorf("expected a number, got %T", value)
		}
		return strconv.ParseFloat(strings.TrimSpace(str), 64)
	case kindStrings:
		if list, ok := value.([]string); ok {
			return list, nil
		}
		if !isString {
			return nil, fmt.Errorf("expected a list, got %T", value)
		}
		var out []string
		for _, part := range strings.Split(str, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		if !isString {
			return fmt.Sprint(value), nil
		}
		return str, nil
	}
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	baseURL := ""
	if provider.IsLocal() {
		baseURL = s.getString(keyEmbedBaseURL, "http://localhost:11434")
	}

	return s.setAll(map[string]any{
		keyEmbedProvider: provider.String(),
		keyEmbedModel:    model,
		keyEmbedBaseURL:  baseURL,
		keyEmbedAPIKey:   apiKey,
	})
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	baseURL := ""
	if provider.IsLocal() {
		baseURL = s.getString(keyLLMBaseURL, "http://localhost:11434")
	}

	return s.setAll(map[string]any{
		keyLLMProvider: provider.String(),
		keyLLMModel:    model,
		keyLLMBaseURL:  baseURL,
		keyLLMAPIKey:   apiKey,
	})
}

func (s *SettingsService) setAll(values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.configStore.Set(k, values[k]); err != nil {
			return fmt.Errorf("save %s: %w", k, err)
		}
	}
	return nil
}

// Validate checks the current settings for inconsistent values.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider)
	}
	if !settings.VectorStore.Backend.IsValid() {
		return fmt.Errorf("%w: vector store backend %q", domain.ErrUnsupportedType, settings.VectorStore.Backend)
	}
	if settings.VectorStore.Backend == domain.VectorBackendPgvector && settings.VectorStore.DSN == "" {
		return fmt.Errorf("vector store backend pgvector requires %s", keyVectorDSN)
	}
	if !settings.VectorStore.Distance.IsValid() {
		return fmt.Errorf("%w: distance metric %q", domain.ErrUnsupportedType, settings.VectorStore.Distance)
	}
	switch settings.InteractionLog.Backend {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("%w: interaction log backend %q", domain.ErrUnsupportedType, settings.InteractionLog.Backend)
	}
	if settings.RAG.TopK < 1 || settings.Agent.MaxSteps < 1 || settings.Chunker.MaxTokens < 1 {
		return fmt.Errorf("%w: rag.top_k, agent.max_steps and chunker.max_tokens must be positive", domain.ErrValidation)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// GetPipelineConfig returns the chunking pipeline configuration with the
// token budget from chunker.max_tokens.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	cfg := domain.DefaultPipelineConfig()

	if processors := s.configStore.GetStringSlice("pipeline.processors"); len(processors) > 0 {
		cfg.Processors = processors
	}

	maxTokens := s.getInt(keyChunkerMaxTokens, domain.DefaultMaxTokens)
	for _, name := range []string{"chunker", "tokencap"} {
		if cfg.ProcessorConfigs[name] == nil {
			cfg.ProcessorConfigs[name] = make(map[string]any)
		}
		cfg.ProcessorConfigs[name]["max_tokens"] = maxTokens
	}

	return cfg
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetFloat(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val * float64(time.Second))
}

func (s *SettingsService) getExtensions(defaultVal []string) []string {
	raw := s.configStore.GetStringSlice(keyIngestExtensions)
	if len(raw) == 0 {
		return defaultVal
	}
	exts := make([]string, 0, len(raw))
	for _, e := range raw {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
