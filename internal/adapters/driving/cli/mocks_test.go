package cli

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
)

// fakeServices hands out the mocks below. A nil mock makes its accessor fail.
type fakeServices struct {
	settings      *mockSettingsService
	documents     *mockDocumentService
	search        *mockSearchService
	ingestion     *mockIngestionService
	rag           *mockRAGEngine
	agent         *mockAgentEngine
	orchestrator  *mockOrchestrator
	transcription *mockTranscriptionService
	closed        bool
}

var errNoLLM = errors.New("LLM service unavailable: connection refused")

func (f *fakeServices) Settings() (driving.SettingsService, error) {
	if f.settings == nil {
		return nil, errNoLLM
	}
	return f.settings, nil
}

func (f *fakeServices) Documents() (driving.DocumentService, error) {
	if f.documents == nil {
		return nil, errNoLLM
	}
	return f.documents, nil
}

func (f *fakeServices) Search() (driving.SearchService, error) {
	if f.search == nil {
		return nil, errNoLLM
	}
	return f.search, nil
}

func (f *fakeServices) Ingestion() (driving.IngestionService, error) {
	if f.ingestion == nil {
		return nil, errNoLLM
	}
	return f.ingestion, nil
}

func (f *fakeServices) Watcher() (driven.FileWatcher, error) {
	return nil, nil
}

func (f *fakeServices) RAG() (driving.RAGEngine, error) {
	if f.rag == nil {
		return nil, errNoLLM
	}
	return f.rag, nil
}

func (f *fakeServices) Agent() (driving.AgentEngine, error) {
	if f.agent == nil {
		return nil, errNoLLM
	}
	return f.agent, nil
}

func (f *fakeServices) Orchestrator() (driving.Orchestrator, error) {
	if f.orchestrator == nil {
		return nil, errNoLLM
	}
	return f.orchestrator, nil
}

func (f *fakeServices) Transcription() (driving.TranscriptionService, error) {
	if f.transcription == nil {
		return nil, errNoLLM
	}
	return f.transcription, nil
}

func (f *fakeServices) Close() error {
	f.closed = true
	return nil
}

// setupTestServices installs fully populated mocks and returns a cleanup
// function that removes them and resets command flags.
func setupTestServices() (*fakeServices, func()) {
	f := &fakeServices{
		settings:      newMockSettingsService(),
		documents:     &mockDocumentService{names: []string{"fire.pdf", "smoke.md"}},
		search:        &mockSearchService{},
		ingestion:     &mockIngestionService{},
		rag:           &mockRAGEngine{},
		agent:         &mockAgentEngine{},
		orchestrator:  &mockOrchestrator{},
		transcription: &mockTranscriptionService{},
	}
	services = f
	return f, func() {
		services = nil
		resetFlags()
	}
}

func resetFlags() {
	searchLimit = domain.DefaultTopK
	searchHeading = ""
	searchFilters = nil
	searchJSON = false
	documentsJSON = false
	queryJSON = false
	agentShowSteps = false
	transcribeLanguage = ""
	transcribeAsk = false
	interactionsLimit = 10
	interactionsJSON = false
	serveAddr = ""
	verbose = false
	configPath = ""
}

// mockSettingsService implements driving.SettingsService over a map.
type mockSettingsService struct {
	settings domain.AppSettings
	values   map[string]any
	setErr   error
	llmErr   error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), values: map[string]any{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) Validate() error { return nil }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.llmErr }

// mockDocumentService implements driving.DocumentService.
type mockDocumentService struct {
	names   []string
	deleted []string
}

func (m *mockDocumentService) List(context.Context) ([]string, error) { return m.names, nil }

func (m *mockDocumentService) Count(context.Context) (int, error) { return 2 * len(m.names), nil }

func (m *mockDocumentService) Delete(_ context.Context, name string) (int, error) {
	for _, n := range m.names {
		if n == name {
			m.deleted = append(m.deleted, name)
			return 2, nil
		}
	}
	return 0, domain.ErrNotFound
}

// mockSearchService implements driving.SearchService and records the request.
type mockSearchService struct {
	lastReq domain.SearchRequest
	err     error
}

func (m *mockSearchService) Search(_ context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return []domain.SearchResult{{
		Chunk: domain.Chunk{
			Content: "ENGINE FIRE ON GROUND\nThrottle idle.   Fuel control switch cutoff.",
			Metadata: domain.ChunkMetadata{
				DocumentName: "qrh.pdf",
				PageNumber:   3,
				Heading:      "ENGINE FIRE ON GROUND",
			},
		},
		Score: 0.81,
	}}, nil
}

// mockIngestionService implements driving.IngestionService.
type mockIngestionService struct {
	scannedDir string
	watchedDir string
	reingested string
}

func (m *mockIngestionService) Scan(_ context.Context, dir string) (domain.IngestSummary, error) {
	m.scannedDir = dir
	var s domain.IngestSummary
	s.Add(domain.IngestReport{Name: "fire.pdf", State: domain.StateIndexed, Chunks: 4})
	s.Add(domain.IngestReport{Name: "smoke.md", State: domain.StateSkipped})
	s.Add(domain.IngestReport{Name: "broken.pdf", State: domain.StateFailed, Err: domain.ErrChunking})
	return s, nil
}

func (m *mockIngestionService) Watch(
	_ context.Context, dir string, _ driven.FileWatcher, onReport func(domain.IngestReport),
) error {
	m.watchedDir = dir
	if onReport != nil {
		onReport(domain.IngestReport{Name: "new.pdf", State: domain.StateIndexed, Chunks: 2})
	}
	return nil
}

func (m *mockIngestionService) IngestFile(_ context.Context, path string) domain.IngestReport {
	return domain.IngestReport{Path: path, State: domain.StateIndexed}
}

func (m *mockIngestionService) Reingest(_ context.Context, path string) domain.IngestReport {
	m.reingested = path
	if path == "missing.pdf" {
		return domain.IngestReport{Path: path, Name: path, State: domain.StateFailed, Err: errors.New("no such file")}
	}
	return domain.IngestReport{Path: path, Name: "fire.pdf", State: domain.StateIndexed, Chunks: 3}
}

// mockRAGEngine implements driving.RAGEngine.
type mockRAGEngine struct {
	lastQuery string
	outcome   domain.RAGOutcome
}

func (m *mockRAGEngine) Execute(_ context.Context, query string) (*domain.RAGResult, error) {
	m.lastQuery = query
	if m.outcome == domain.OutcomeNoContext {
		return &domain.RAGResult{
			Input:   query,
			Answer:  domain.TextAnswer(domain.DefaultNoContextMessage),
			Outcome: domain.OutcomeNoContext,
		}, nil
	}
	return &domain.RAGResult{
		Input:   query,
		Heading: "ENGINE FIRE ON GROUND",
		Context: []domain.ContextItem{{Content: "ENGINE FIRE ON GROUND\nThrottle idle.", Score: 0.8}},
		Answer:  domain.StructuredAnswer("Engine fire on ground", []string{"Throttle idle", "Fuel cutoff"}, ""),
		Outcome: domain.OutcomeAnswered,
	}, nil
}

// mockAgentEngine implements driving.AgentEngine.
type mockAgentEngine struct {
	lastQuery string
}

func (m *mockAgentEngine) Execute(_ context.Context, query string) (*domain.AgentResult, error) {
	m.lastQuery = query
	return &domain.AgentResult{
		Input:  query,
		Output: "Set the throttle to idle.",
		Steps: []domain.AgentStep{{
			Thought:     "I need the procedure.",
			Action:      "search",
			ActionInput: `{"query": "engine fire"}`,
			Observation: `[{"document_name": "qrh.pdf"}]`,
		}},
	}, nil
}

// mockOrchestrator implements driving.Orchestrator.
type mockOrchestrator struct {
	lastQuery string
	records   []domain.InteractionRecord
}

func (m *mockOrchestrator) Ask(
	_ context.Context, query string, onOutcome func(domain.BranchOutcome),
) (*domain.OrchestratedResult, error) {
	m.lastQuery = query
	outcomes := []domain.BranchOutcome{
		{QueryID: "q-42", Branch: domain.BranchAgent, Status: domain.StatusSuccess, StatusCode: 200,
			Answer: "Set the throttle to idle.", Elapsed: 1500 * time.Millisecond},
		{QueryID: "q-42", Branch: domain.BranchRAG, Status: domain.StatusTimeout, StatusCode: 500,
			Message: "request to rag timed out", Elapsed: 60 * time.Second},
	}
	for _, o := range outcomes {
		if onOutcome != nil {
			onOutcome(o)
		}
	}
	return &domain.OrchestratedResult{QueryID: "q-42", Query: query, Outcomes: outcomes}, nil
}

func (m *mockOrchestrator) Interactions(_ context.Context, id string) ([]domain.InteractionRecord, error) {
	var out []domain.InteractionRecord
	for _, r := range m.records {
		if r.QueryID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockOrchestrator) Recent(_ context.Context, n int) ([]domain.InteractionRecord, error) {
	if n > len(m.records) {
		n = len(m.records)
	}
	return m.records[:n], nil
}

// mockTranscriptionService implements driving.TranscriptionService.
type mockTranscriptionService struct {
	last domain.Audio
}

func (m *mockTranscriptionService) Transcribe(_ context.Context, audio domain.Audio) (*domain.Transcription, error) {
	if audio.IsEmpty() {
		return nil, domain.ErrEmptyAudio
	}
	m.last = audio
	return &domain.Transcription{Text: "engine fire on ground", Language: audio.Language}, nil
}

func (m *mockTranscriptionService) Languages(context.Context) (map[string]string, error) {
	return map[string]string{"es": "spanish", "en": "english"}, nil
}
