package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService maps texts to vectors by keyword so distances are
// predictable. Unknown texts embed to the origin.
type mockEmbeddingService struct {
	mu       sync.Mutex
	keywords map[string][]float32
	pingErr  error
	embedErr error
	calls    int
}

func newMockEmbedding() *mockEmbeddingService {
	return &mockEmbeddingService{keywords: map[string][]float32{
		"fire":  {1, 0, 0},
		"smoke": {0, 1, 0},
		"fuel":  {0, 0, 1},
	}}
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	v := []float32{0, 0, 0}
	lower := strings.ToLower(text)
	for kw, kv := range m.keywords {
		if strings.Contains(lower, kw) {
			for i := range v {
				v[i] += kv[i]
			}
		}
	}
	return v
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int            { return 3 }
func (m *mockEmbeddingService) ModelName() string          { return "mock-embed" }
func (m *mockEmbeddingService) Ping(context.Context) error { return m.pingErr }
func (m *mockEmbeddingService) Close() error               { return nil }

// mockLLM answers prompts with a scripted function and records them.
type mockLLM struct {
	mu      sync.Mutex
	respond func(prompt string) (string, error)
	prompts []string
	opts    []driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	respond := m.respond
	m.mu.Unlock()
	if respond == nil {
		return "", nil
	}
	return respond(prompt)
}

func (m *mockLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var last string
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	return m.Generate(ctx, last, driven.GenerateOptions(opts))
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

func (m *mockLLM) promptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// mockPromptStore serves templates from a map.
type mockPromptStore map[string]string

func (m mockPromptStore) Load(name string) (string, error) {
	p, ok := m[name]
	if !ok {
		return "", errors.New("no such prompt")
	}
	return p, nil
}

func (m mockPromptStore) Reload() {}

func testPrompts() mockPromptStore {
	return mockPromptStore{
		driven.PromptRAGAnswer:      "CONTEXT:\n{context}\nQUESTION: {input}",
		driven.PromptExtractHeading: "HEADING FOR: {query}",
		driven.PromptAgentReAct:     "TOOLS: {tools}\nNAMES: {tool_names}\nQ: {input}\n{agent_scratchpad}",
	}
}

// faultyBackend wraps the in-memory store and injects errors.
type faultyBackend struct {
	*memory.VectorStore
	insertErr error
	queryErr  error
	scanErr   error
	deleteErr error
	lastQuery domain.VectorQuery
}

func (f *faultyBackend) Insert(ctx context.Context, records []driven.VectorRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.VectorStore.Insert(ctx, records)
}

func (f *faultyBackend) Query(ctx context.Context, q domain.VectorQuery) ([]driven.VectorHit, error) {
	f.lastQuery = q
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.VectorStore.Query(ctx, q)
}

func (f *faultyBackend) ScanMetadata(ctx context.Context, fn func(string, map[string]any) error) error {
	if f.scanErr != nil {
		return f.scanErr
	}
	return f.VectorStore.ScanMetadata(ctx, fn)
}

func (f *faultyBackend) Delete(ctx context.Context, ids []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.VectorStore.Delete(ctx, ids)
}

func newFaultyBackend() *faultyBackend {
	store, err := memory.NewVectorStore(domain.DistanceL2)
	if err != nil {
		panic(err)
	}
	return &faultyBackend{VectorStore: store}
}

// newTestGateway returns a gateway over an in-memory collection.
func newTestGateway() (*VectorStoreGateway, *faultyBackend, *mockEmbeddingService) {
	svc := newMockEmbedding()
	backend := newFaultyBackend()
	embedder := &Embedder{service: svc}
	return NewVectorStoreGateway(backend, embedder), backend, svc
}

// seedChunk stores a chunk of the named document through the gateway.
func seedChunk(g *VectorStoreGateway, doc, heading, text string) string {
	meta, _ := domain.ChunkMetadata{DocumentName: doc, DocumentID: doc + "_0", Heading: heading, PageNumber: 1}.Flatten()
	ids, err := g.AddChunks(context.Background(), []string{text}, []map[string]any{meta})
	if err != nil {
		panic(err)
	}
	return ids[0]
}
