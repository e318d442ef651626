package driving

import (
	"context"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// RAGEngine answers a query by retrieving context and synthesising an answer.
type RAGEngine interface {
	// Execute runs retrieval and synthesis for one query.
	// A blank query fails with domain.ErrValidation before any network call.
	Execute(ctx context.Context, query string) (*domain.RAGResult, error)
}

// AgentEngine answers a query with a tool-calling reasoning loop.
type AgentEngine interface {
	// Execute runs the reasoning loop for one query.
	Execute(ctx context.Context, query string) (*domain.AgentResult, error)
}

// Orchestrator runs both answer strategies concurrently.
type Orchestrator interface {
	// Ask runs both branches and returns their outcomes in arrival order.
	// onOutcome, if non-nil, is called as each outcome arrives.
	Ask(ctx context.Context, query string, onOutcome func(domain.BranchOutcome)) (*domain.OrchestratedResult, error)

	// Interactions returns the recorded outcomes for a query ID.
	Interactions(ctx context.Context, queryID string) ([]domain.InteractionRecord, error)

	// Recent returns up to n recorded outcomes, newest first.
	Recent(ctx context.Context, n int) ([]domain.InteractionRecord, error)
}
