package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI or any OpenAI-compatible API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic Messages API. It has no
	// embedding endpoint.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// SupportsEmbeddings reports whether the provider can embed text.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// RateLimit caps embedding requests per second. Zero means unlimited.
	RateLimit float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (OpenAI or Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorBackendType selects the vector store implementation.
type VectorBackendType string

// Available vector backends.
const (
	// VectorBackendSQLite is a local sqlite database with brute-force search.
	VectorBackendSQLite VectorBackendType = "sqlite"

	// VectorBackendPgvector is PostgreSQL with the pgvector extension.
	VectorBackendPgvector VectorBackendType = "pgvector"

	// VectorBackendMemory keeps everything in process memory.
	VectorBackendMemory VectorBackendType = "memory"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackendType) IsValid() bool {
	switch b {
	case VectorBackendSQLite, VectorBackendPgvector, VectorBackendMemory:
		return true
	default:
		return false
	}
}

// VectorStoreSettings configures the collection backend.
type VectorStoreSettings struct {
	Backend    VectorBackendType
	Path       string
	DSN        string
	Collection string
	Distance   DistanceMetric
}

// IngestionSettings configures document discovery.
type IngestionSettings struct {
	// Dir is the watched document directory.
	Dir string

	// Extensions are the accepted file extensions, with leading dot.
	Extensions []string
}

// ChunkerSettings configures the chunking pipeline.
type ChunkerSettings struct {
	// MaxTokens is the hard cap on chunk size in model tokens.
	MaxTokens int

	// Encoding is the tokenizer encoding name.
	Encoding string
}

// RAGSettings configures the retrieval-synthesis engine.
type RAGSettings struct {
	TopK             int
	NoContextMessage string
	MismatchMessage  string
}

// AgentSettings configures the tool-calling engine.
type AgentSettings struct {
	MaxSteps int
}

// OrchestratorSettings holds the per-branch timeouts.
type OrchestratorSettings struct {
	RAGTimeout   time.Duration
	AgentTimeout time.Duration
}

// TranscriptionSettings configures the speech-to-text collaborator.
type TranscriptionSettings struct {
	URL     string
	Timeout time.Duration
}

// InteractionLogSettings configures where branch outcomes are recorded.
type InteractionLogSettings struct {
	// Backend is "memory" or "redis".
	Backend   string
	RedisAddr string
	Key       string
}

// HTTPSettings configures the HTTP API.
type HTTPSettings struct {
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding      EmbeddingSettings
	LLM            LLMSettings
	VectorStore    VectorStoreSettings
	Ingestion      IngestionSettings
	Chunker        ChunkerSettings
	RAG            RAGSettings
	Agent          AgentSettings
	Orchestrator   OrchestratorSettings
	Transcription  TranscriptionSettings
	InteractionLog InteractionLogSettings
	HTTP           HTTPSettings
}

// Default setting values.
const (
	DefaultMaxTokens        = 512
	DefaultEncoding         = "cl100k_base"
	DefaultCollection       = "procedures"
	DefaultNoContextMessage = "No relevant documents found."
	DefaultMismatchMessage  = "The retrieved documents do not answer this question."
	DefaultBranchTimeout    = 60 * time.Second
	DefaultTranscriptionURL = "http://localhost:8000"
	DefaultInteractionKey   = "sercha-voice:interactions"
	DefaultHTTPAddr         = ":8080"
)

// DefaultExtensions are the document types ingested when none are configured.
func DefaultExtensions() []string {
	return []string{".pdf", ".md", ".txt"}
}

// DefaultAppSettings returns settings with sensible defaults.
// Both model providers default to a local Ollama.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
		},
		VectorStore: VectorStoreSettings{
			Backend:    VectorBackendSQLite,
			Collection: DefaultCollection,
			Distance:   DistanceL2,
		},
		Ingestion: IngestionSettings{
			Dir:        "./docs",
			Extensions: DefaultExtensions(),
		},
		Chunker: ChunkerSettings{
			MaxTokens: DefaultMaxTokens,
			Encoding:  DefaultEncoding,
		},
		RAG: RAGSettings{
			TopK:             DefaultTopK,
			NoContextMessage: DefaultNoContextMessage,
			MismatchMessage:  DefaultMismatchMessage,
		},
		Agent: AgentSettings{MaxSteps: DefaultAgentMaxSteps},
		Orchestrator: OrchestratorSettings{
			RAGTimeout:   DefaultBranchTimeout,
			AgentTimeout: DefaultBranchTimeout,
		},
		Transcription: TranscriptionSettings{
			URL:     DefaultTranscriptionURL,
			Timeout: 300 * time.Second,
		},
		InteractionLog: InteractionLogSettings{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
			Key:       DefaultInteractionKey,
		},
		HTTP: HTTPSettings{Addr: DefaultHTTPAddr},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// New processors can be added without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig returns the chunking pipeline: structure-aware
// split, heading enrichment, then the token cap.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker", "enrich", "tokencap"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker":  {"max_tokens": DefaultMaxTokens},
			"tokencap": {"max_tokens": DefaultMaxTokens},
		},
	}
}
