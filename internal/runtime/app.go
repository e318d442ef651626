// Package runtime builds the application's services from configuration.
//
// Construction is lazy: a command that only reads settings never dials
// the embedding model, and one that only searches never builds an LLM
// client. Every constructed dependency is memoised and released by Close.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/interactionlog/redis"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/storage/pgvector"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/tokenizer"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/transcription/whisper"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/watcher"
	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-voice/internal/core/services"
	"github.com/custodia-labs/sercha-voice/internal/logger"
	"github.com/custodia-labs/sercha-voice/internal/normalisers"
	"github.com/custodia-labs/sercha-voice/internal/postprocessors"
)

// dialTimeout bounds every network check made while constructing a
// dependency.
const dialTimeout = 15 * time.Second

// Options configures where the App reads its configuration.
type Options struct {
	// ConfigPath is a config file or directory. Empty selects the default.
	ConfigPath string

	// PromptDir holds prompt overrides. Empty selects the default.
	PromptDir string

	// ConfigStore replaces the file-backed store when set.
	ConfigStore driven.ConfigStore

	// NewEmbedding and NewLLM replace the provider factories when set.
	NewEmbedding func(ctx context.Context, s *domain.EmbeddingSettings) (driven.EmbeddingService, error)
	NewLLM       func(ctx context.Context, s *domain.LLMSettings) (driven.LLMService, error)
}

// App owns every service the driving adapters use.
// It is safe for concurrent use.
type App struct {
	mu sync.Mutex

	settings *services.SettingsService
	prompts  driven.PromptStore

	newEmbedding func(ctx context.Context, s *domain.EmbeddingSettings) (driven.EmbeddingService, error)
	newLLM       func(ctx context.Context, s *domain.LLMSettings) (driven.LLMService, error)

	embedding    driven.EmbeddingService
	llm          driven.LLMService
	sqliteStore  *sqlite.Store
	backend      driven.VectorBackend
	gateway      *services.VectorStoreGateway
	interactions driven.InteractionLog
	watcher      *watcher.Watcher

	ingestion     *services.IngestionCoordinator
	rag           *services.RAGEngine
	agent         *services.AgentEngine
	orchestrator  *services.Orchestrator
	transcription *services.TranscriptionService

	closed bool
}

// New creates an App reading configuration from configPath.
func New(configPath string) (*App, error) {
	return NewWithOptions(Options{ConfigPath: configPath})
}

// NewWithOptions creates an App. Only the configuration and prompt stores
// are opened here; everything else is built on first use.
func NewWithOptions(opts Options) (*App, error) {
	store := opts.ConfigStore
	if store == nil {
		fs, err := file.NewConfigStore(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("%w: config store: %w", domain.ErrFatalInit, err)
		}
		store = fs
	}

	prompts, err := file.NewPromptStore(opts.PromptDir)
	if err != nil {
		return nil, fmt.Errorf("%w: prompt store: %w", domain.ErrFatalInit, err)
	}

	a := &App{
		settings:     services.NewSettingsService(store, ai.NewConfigValidator()),
		prompts:      prompts,
		newEmbedding: opts.NewEmbedding,
		newLLM:       opts.NewLLM,
	}
	if a.newEmbedding == nil {
		a.newEmbedding = ai.CreateAndValidateEmbeddingService
	}
	if a.newLLM == nil {
		a.newLLM = ai.CreateAndValidateLLMService
	}
	return a, nil
}

// Settings returns the settings service.
func (a *App) Settings() (driving.SettingsService, error) {
	return a.settings, nil
}

// Documents returns the document service.
func (a *App) Documents() (driving.DocumentService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	gw, err := a.gatewayLocked()
	if err != nil {
		return nil, err
	}
	return services.NewDocumentService(gw), nil
}

// Search returns the search service.
func (a *App) Search() (driving.SearchService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	gw, err := a.gatewayLocked()
	if err != nil {
		return nil, err
	}
	return services.NewSearchService(gw), nil
}

// Ingestion returns the ingestion coordinator.
func (a *App) Ingestion() (driving.IngestionService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ingestion != nil {
		return a.ingestion, nil
	}

	gw, err := a.gatewayLocked()
	if err != nil {
		return nil, err
	}
	settings, err := a.settings.Get()
	if err != nil {
		return nil, fatal("settings", err)
	}

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry, tokenizer.New(settings.Chunker.Encoding))
	pipeline, err := postprocessors.Build(registry, a.settings.GetPipelineConfig())
	if err != nil {
		return nil, fatal("chunking pipeline", err)
	}

	a.ingestion = services.NewIngestionCoordinator(
		gw, normalisers.NewDefaultRegistry(), pipeline, settings.Ingestion.Extensions)
	return a.ingestion, nil
}

// Watcher returns the document directory watcher.
func (a *App) Watcher() (driven.FileWatcher, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.watcher == nil {
		a.watcher = watcher.New()
	}
	return a.watcher, nil
}

// RAG returns the retrieval-synthesis engine.
func (a *App) RAG() (driving.RAGEngine, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ragLocked()
}

// Agent returns the tool-calling engine.
func (a *App) Agent() (driving.AgentEngine, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.agentLocked()
}

// Orchestrator returns the orchestrator running both engines.
func (a *App) Orchestrator() (driving.Orchestrator, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.orchestrator != nil {
		return a.orchestrator, nil
	}

	rag, err := a.ragLocked()
	if err != nil {
		return nil, err
	}
	agent, err := a.agentLocked()
	if err != nil {
		return nil, err
	}
	log, err := a.interactionLogLocked()
	if err != nil {
		return nil, err
	}
	settings, err := a.settings.Get()
	if err != nil {
		return nil, fatal("settings", err)
	}

	a.orchestrator = services.NewOrchestrator(rag, agent, log, settings.Orchestrator)
	return a.orchestrator, nil
}

// Transcription returns the speech-to-text service.
func (a *App) Transcription() (driving.TranscriptionService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.transcription != nil {
		return a.transcription, nil
	}
	settings, err := a.settings.Get()
	if err != nil {
		return nil, fatal("settings", err)
	}

	client := whisper.New(whisper.Config{
		BaseURL: settings.Transcription.URL,
		Timeout: settings.Transcription.Timeout,
	})
	a.transcription = services.NewTranscriptionService(client)
	return a.transcription, nil
}

// Close releases every constructed dependency. It is safe to call more
// than once.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	// Fields are checked individually: a nil pointer in an io.Closer is
	// not a nil interface.
	closeIf := func(c io.Closer) {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if a.watcher != nil {
		closeIf(a.watcher)
	}
	if a.interactions != nil {
		closeIf(a.interactions)
	}
	if a.backend != nil {
		closeIf(a.backend)
	}
	if a.sqliteStore != nil {
		closeIf(a.sqliteStore)
	}
	if a.embedding != nil {
		closeIf(a.embedding)
	}
	if a.llm != nil {
		closeIf(a.llm)
	}
	return errors.Join(errs...)
}

func (a *App) ragLocked() (*services.RAGEngine, error) {
	if a.rag != nil {
		return a.rag, nil
	}

	gw, err := a.gatewayLocked()
	if err != nil {
		return nil, err
	}
	llm, err := a.llmLocked()
	if err != nil {
		return nil, err
	}
	settings, err := a.settings.Get()
	if err != nil {
		return nil, fatal("settings", err)
	}

	a.rag = services.NewRAGEngine(gw, llm, a.prompts, settings.RAG)
	return a.rag, nil
}

func (a *App) agentLocked() (*services.AgentEngine, error) {
	if a.agent != nil {
		return a.agent, nil
	}

	gw, err := a.gatewayLocked()
	if err != nil {
		return nil, err
	}
	llm, err := a.llmLocked()
	if err != nil {
		return nil, err
	}
	settings, err := a.settings.Get()
	if err != nil {
		return nil, fatal("settings", err)
	}

	a.agent = services.NewAgentEngine(llm, a.prompts, gw, settings.Agent.MaxSteps)
	return a.agent, nil
}

func (a *App) llmLocked() (driven.LLMService, error) {
	if a.llm != nil {
		return a.llm, nil
	}
	settings, err := a.settings.Get()
	if err != nil {
		return nil, fatal("settings", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	llm, err := a.newLLM(ctx, &settings.LLM)
	if err != nil {
		return nil, fatal("LLM service", err)
	}
	logger.Debug("LLM ready: %s", llm.ModelName())
	a.llm = llm
	return llm, nil
}

func (a *App) gatewayLocked() (*services.VectorStoreGateway, error) {
	if a.gateway != nil {
		return a.gateway, nil
	}
	settings, err := a.settings.Get()
	if err != nil {
		return nil, fatal("settings", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if a.embedding == nil {
		svc, err := a.newEmbedding(ctx, &settings.Embedding)
		if err != nil {
			return nil, fatal("embedding service", err)
		}
		a.embedding = svc
	}
	embedder, err := services.NewEmbedder(ctx, a.embedding, settings.Embedding.RateLimit)
	if err != nil {
		return nil, fatal("embedder", err)
	}

	backend, err := a.openBackendLocked(ctx, settings.VectorStore)
	if err != nil {
		return nil, err
	}
	a.backend = backend
	logger.Debug("vector store ready: %s/%s", settings.VectorStore.Backend, settings.VectorStore.Collection)

	a.gateway = services.NewVectorStoreGateway(backend, embedder)
	return a.gateway, nil
}

func (a *App) openBackendLocked(ctx context.Context, vs domain.VectorStoreSettings) (driven.VectorBackend, error) {
	switch vs.Backend {
	case domain.VectorBackendSQLite, "":
		store, err := a.sqliteLocked(vs.Path)
		if err != nil {
			return nil, err
		}
		backend, err := store.Collection(vs.Collection, vs.Distance)
		if err != nil {
			return nil, fatal("sqlite collection", err)
		}
		return backend, nil

	case domain.VectorBackendPgvector:
		store, err := pgvector.Connect(ctx, pgvector.Config{
			DSN:        vs.DSN,
			Collection: vs.Collection,
			Distance:   vs.Distance,
		})
		if err != nil {
			return nil, fatal("pgvector", err)
		}
		return store, nil

	case domain.VectorBackendMemory:
		store, err := memory.NewVectorStore(vs.Distance)
		if err != nil {
			return nil, fatal("memory vector store", err)
		}
		return store, nil
	}
	return nil, fatal("vector store", fmt.Errorf("%w: backend %q", domain.ErrUnsupportedType, vs.Backend))
}

func (a *App) sqliteLocked(path string) (*sqlite.Store, error) {
	if a.sqliteStore != nil {
		return a.sqliteStore, nil
	}
	store, err := sqlite.NewStore(path)
	if err != nil {
		return nil, fatal("sqlite", err)
	}
	a.sqliteStore = store
	return store, nil
}

func (a *App) interactionLogLocked() (driven.InteractionLog, error) {
	if a.interactions != nil {
		return a.interactions, nil
	}
	settings, err := a.settings.Get()
	if err != nil {
		return nil, fatal("settings", err)
	}

	cfg := settings.InteractionLog
	switch cfg.Backend {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()
		log, err := redis.Dial(ctx, cfg.RedisAddr, redis.Config{Key: cfg.Key})
		if err != nil {
			return nil, fatal("interaction log", err)
		}
		a.interactions = log

	case "sqlite":
		store, err := a.sqliteLocked(settings.VectorStore.Path)
		if err != nil {
			return nil, err
		}
		a.interactions = store.InteractionLog()

	default:
		a.interactions = memory.NewInteractionLog()
	}
	return a.interactions, nil
}

func fatal(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrFatalInit, what, err)
}
