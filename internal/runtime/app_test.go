package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

type fakeEmbedding struct {
	closed bool
}

func (f *fakeEmbedding) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *fakeEmbedding) Dimensions() int            { return 3 }
func (f *fakeEmbedding) ModelName() string          { return "fake-embed" }
func (f *fakeEmbedding) Ping(context.Context) error { return nil }
func (f *fakeEmbedding) Close() error               { f.closed = true; return nil }

type fakeLLM struct {
	closed bool
}

func (f *fakeLLM) Generate(context.Context, string, driven.GenerateOptions) (string, error) {
	return "Final Answer: Throttle idle.", nil
}

func (f *fakeLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	return "Final Answer: Throttle idle.", nil
}

func (f *fakeLLM) ModelName() string          { return "fake-llm" }
func (f *fakeLLM) Ping(context.Context) error { return nil }
func (f *fakeLLM) Close() error               { f.closed = true; return nil }

type fixture struct {
	app   *App
	embed *fakeEmbedding
	llm   *fakeLLM
	calls map[string]int
}

func newTestApp(t *testing.T, config map[string]any) *fixture {
	t.Helper()
	f := &fixture{embed: &fakeEmbedding{}, llm: &fakeLLM{}, calls: map[string]int{}}

	seed := map[string]any{"vector_store.backend": "memory"}
	for k, v := range config {
		seed[k] = v
	}

	app, err := NewWithOptions(Options{
		PromptDir:   t.TempDir(),
		ConfigStore: memory.NewConfigStore(seed),
		NewEmbedding: func(context.Context, *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
			f.calls["embedding"]++
			return f.embed, nil
		},
		NewLLM: func(context.Context, *domain.LLMSettings) (driven.LLMService, error) {
			f.calls["llm"]++
			return f.llm, nil
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	f.app = app
	return f
}

func TestNew_FileConfig(t *testing.T) {
	app, err := NewWithOptions(Options{ConfigPath: t.TempDir(), PromptDir: t.TempDir()})
	require.NoError(t, err)
	defer app.Close()

	settings, err := app.Settings()
	require.NoError(t, err)
	got, err := settings.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.VectorBackendSQLite, got.VectorStore.Backend)
}

func TestApp_SettingsNeedNoModels(t *testing.T) {
	f := newTestApp(t, nil)

	_, err := f.app.Settings()
	require.NoError(t, err)
	_, err = f.app.Transcription()
	require.NoError(t, err)
	_, err = f.app.Watcher()
	require.NoError(t, err)

	assert.Empty(t, f.calls)
}

func TestApp_SearchBuildsEmbeddingOnly(t *testing.T) {
	f := newTestApp(t, nil)

	search, err := f.app.Search()
	require.NoError(t, err)
	results, err := search.Search(context.Background(), domain.SearchRequest{Text: "engine fire", TopK: 3})
	require.NoError(t, err)

	assert.Empty(t, results)
	assert.Equal(t, 1, f.calls["embedding"])
	assert.Zero(t, f.calls["llm"])
}

func TestApp_DependenciesAreMemoised(t *testing.T) {
	f := newTestApp(t, nil)

	_, err := f.app.Documents()
	require.NoError(t, err)
	ing1, err := f.app.Ingestion()
	require.NoError(t, err)
	ing2, err := f.app.Ingestion()
	require.NoError(t, err)
	rag1, err := f.app.RAG()
	require.NoError(t, err)
	rag2, err := f.app.RAG()
	require.NoError(t, err)
	_, err = f.app.Agent()
	require.NoError(t, err)
	orch1, err := f.app.Orchestrator()
	require.NoError(t, err)
	orch2, err := f.app.Orchestrator()
	require.NoError(t, err)

	assert.Same(t, ing1, ing2)
	assert.Same(t, rag1, rag2)
	assert.Same(t, orch1, orch2)
	assert.Equal(t, 1, f.calls["embedding"])
	assert.Equal(t, 1, f.calls["llm"])
}

func TestApp_OrchestratorRecordsInMemory(t *testing.T) {
	f := newTestApp(t, nil)

	orch, err := f.app.Orchestrator()
	require.NoError(t, err)
	res, err := orch.Ask(context.Background(), "engine fire on ground", nil)
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 2)

	recs, err := orch.Interactions(context.Background(), res.QueryID)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestApp_RedisInteractionLog(t *testing.T) {
	mr := miniredis.RunT(t)
	f := newTestApp(t, map[string]any{
		"interaction_log.backend":    "redis",
		"interaction_log.redis_addr": mr.Addr(),
		"interaction_log.key":        "test:interactions",
	})

	orch, err := f.app.Orchestrator()
	require.NoError(t, err)
	_, err = orch.Ask(context.Background(), "cabin smoke", nil)
	require.NoError(t, err)

	assert.True(t, mr.Exists("test:interactions"))
	recent, err := orch.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestApp_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	f := newTestApp(t, map[string]any{
		"interaction_log.backend":    "redis",
		"interaction_log.redis_addr": addr,
	})

	_, err := f.app.Orchestrator()

	assert.ErrorIs(t, err, domain.ErrFatalInit)
}

func TestApp_SQLiteBackendAndLog(t *testing.T) {
	dir := t.TempDir()
	f := newTestApp(t, map[string]any{
		"vector_store.backend":    "sqlite",
		"vector_store.path":       dir,
		"interaction_log.backend": "sqlite",
	})

	orch, err := f.app.Orchestrator()
	require.NoError(t, err)
	_, err = orch.Ask(context.Background(), "manual landing", nil)
	require.NoError(t, err)

	recent, err := orch.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
	require.NotNil(t, f.app.sqliteStore)
}

func TestApp_FatalInit(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
		embed  error
	}{
		{name: "embedding unavailable", embed: errors.New("connection refused")},
		{name: "unknown backend", config: map[string]any{"vector_store.backend": "chroma"}},
		{name: "pgvector without dsn", config: map[string]any{"vector_store.backend": "pgvector"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestApp(t, tt.config)
			if tt.embed != nil {
				f.app.newEmbedding = func(context.Context, *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
					return nil, tt.embed
				}
			}

			_, err := f.app.Search()

			assert.ErrorIs(t, err, domain.ErrFatalInit)
		})
	}
}

func TestApp_LLMUnavailable(t *testing.T) {
	f := newTestApp(t, nil)
	f.app.newLLM = func(context.Context, *domain.LLMSettings) (driven.LLMService, error) {
		return nil, domain.ErrLLMUnavailable
	}

	_, err := f.app.Orchestrator()

	assert.ErrorIs(t, err, domain.ErrFatalInit)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestApp_Close(t *testing.T) {
	f := newTestApp(t, nil)
	_, err := f.app.Orchestrator()
	require.NoError(t, err)

	require.NoError(t, f.app.Close())
	require.NoError(t, f.app.Close())

	assert.True(t, f.embed.closed)
	assert.True(t, f.llm.closed)
}
