package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	lastReq domain.SearchRequest
}

func (m *mockSearchService) Search(_ context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	m.lastReq = req
	return m.results, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	names []string
	err   error
}

func (m *mockDocumentService) List(_ context.Context) ([]string, error) {
	return m.names, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

func (m *mockDocumentService) Count(_ context.Context) (int, error) {
	return len(m.names), m.err
}

// mockOrchestrator is a mock implementation of driving.Orchestrator.
type mockOrchestrator struct {
	result  *domain.OrchestratedResult
	records []domain.InteractionRecord
	err     error
}

func (m *mockOrchestrator) Ask(
	_ context.Context, _ string, _ func(domain.BranchOutcome),
) (*domain.OrchestratedResult, error) {
	return m.result, m.err
}

func (m *mockOrchestrator) Interactions(_ context.Context, _ string) ([]domain.InteractionRecord, error) {
	return m.records, m.err
}

func (m *mockOrchestrator) Recent(_ context.Context, _ int) ([]domain.InteractionRecord, error) {
	return m.records, m.err
}

// mockRAG is a mock implementation of driving.RAGEngine.
type mockRAG struct {
	result *domain.RAGResult
	err    error
}

func (m *mockRAG) Execute(_ context.Context, _ string) (*domain.RAGResult, error) {
	return m.result, m.err
}

// mockAgent is a mock implementation of driving.AgentEngine.
type mockAgent struct {
	result *domain.AgentResult
	err    error
}

func (m *mockAgent) Execute(_ context.Context, _ string) (*domain.AgentResult, error) {
	return m.result, m.err
}
