package mcp

import (
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides similarity search over the chunk collection.
	Search driving.SearchService

	// Orchestrator answers questions with both strategies.
	Orchestrator driving.Orchestrator

	// RAG answers questions by retrieval and synthesis.
	RAG driving.RAGEngine

	// Agent answers questions with the tool-calling loop.
	Agent driving.AgentEngine

	// Document lists indexed documents.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Answering and documents are optional: a search-only server needs no LLM.
	return nil
}
