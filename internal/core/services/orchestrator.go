package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-voice/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.Orchestrator = (*Orchestrator)(nil)

// Orchestrator sends each query to the RAG and agent engines concurrently.
// Each branch runs under its own deadline; outcomes are delivered in the
// order they finish and recorded in the interaction log.
type Orchestrator struct {
	rag          driving.RAGEngine
	agent        driving.AgentEngine
	log          driven.InteractionLog
	ragTimeout   time.Duration
	agentTimeout time.Duration
	newID        func() string
	now          func() time.Time
}

// NewOrchestrator creates an orchestrator. log may be nil.
// Non-positive timeouts use domain.DefaultBranchTimeout.
func NewOrchestrator(
	rag driving.RAGEngine, agent driving.AgentEngine, log driven.InteractionLog, cfg domain.OrchestratorSettings,
) *Orchestrator {
	if cfg.RAGTimeout <= 0 {
		cfg.RAGTimeout = domain.DefaultBranchTimeout
	}
	if cfg.AgentTimeout <= 0 {
		cfg.AgentTimeout = domain.DefaultBranchTimeout
	}
	return &Orchestrator{
		rag:          rag,
		agent:        agent,
		log:          log,
		ragTimeout:   cfg.RAGTimeout,
		agentTimeout: cfg.AgentTimeout,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// branchResult is what an engine produced before classification.
type branchResult struct {
	answer    string
	context   []domain.ContextItem
	noContext bool
	err       error
}

// Ask runs both branches and returns their outcomes in arrival order.
func (o *Orchestrator) Ask(
	ctx context.Context, query string, onOutcome func(domain.BranchOutcome),
) (*domain.OrchestratedResult, error) {
	start := o.now()
	queryID := o.newID()
	logger.Info("query %s: %q", queryID, query)

	// Buffered so a branch never blocks on send after Ask has returned.
	outcomes := make(chan domain.BranchOutcome, 2)
	go func() { outcomes <- o.runBranch(ctx, queryID, domain.BranchRAG, o.ragTimeout, o.execRAG, query) }()
	go func() { outcomes <- o.runBranch(ctx, queryID, domain.BranchAgent, o.agentTimeout, o.execAgent, query) }()

	result := &domain.OrchestratedResult{QueryID: queryID, Query: query}
	for i := 0; i < 2; i++ {
		out := <-outcomes
		result.Outcomes = append(result.Outcomes, out)
		o.record(ctx, query, out)
		if onOutcome != nil {
			onOutcome(out)
		}
	}
	result.Elapsed = o.now().Sub(start)

	return result, nil
}

// Interactions returns the recorded outcomes for a query ID.
func (o *Orchestrator) Interactions(ctx context.Context, queryID string) ([]domain.InteractionRecord, error) {
	if o.log == nil {
		return []domain.InteractionRecord{}, nil
	}
	recs, err := o.log.ByQuery(ctx, queryID)
	if err != nil {
		return nil, fmt.Errorf("read interactions: %w", err)
	}
	return recs, nil
}

// Recent returns up to n recorded outcomes, newest first.
func (o *Orchestrator) Recent(ctx context.Context, n int) ([]domain.InteractionRecord, error) {
	if o.log == nil {
		return []domain.InteractionRecord{}, nil
	}
	recs, err := o.log.Recent(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("read interactions: %w", err)
	}
	return recs, nil
}

func (o *Orchestrator) execRAG(ctx context.Context, query string) branchResult {
	res, err := o.rag.Execute(ctx, query)
	if err != nil {
		return branchResult{err: err}
	}
	return branchResult{
		answer:    res.Answer.String(),
		context:   res.Context,
		noContext: res.Outcome == domain.OutcomeNoContext,
	}
}

func (o *Orchestrator) execAgent(ctx context.Context, query string) branchResult {
	res, err := o.agent.Execute(ctx, query)
	if err != nil {
		return branchResult{err: err}
	}
	return branchResult{answer: res.Output, context: res.Context()}
}

// runBranch runs one engine under its own deadline. The outcome is
// produced when the deadline passes even if the engine ignores ctx.
func (o *Orchestrator) runBranch(
	parent context.Context,
	queryID string,
	branch domain.Branch,
	timeout time.Duration,
	exec func(context.Context, string) branchResult,
	query string,
) domain.BranchOutcome {
	start := o.now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	done := make(chan branchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- branchResult{err: fmt.Errorf("%s branch panicked: %v", branch, r)}
			}
		}()
		done <- exec(ctx, query)
	}()

	var res branchResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = branchResult{err: ctx.Err()}
	}

	out := classify(branch, res, ctx.Err())
	out.QueryID = queryID
	out.Elapsed = o.now().Sub(start)
	logger.Info("query %s: %s branch %s (%d) in %s", queryID, branch, out.Status, out.StatusCode, out.Elapsed.Round(time.Millisecond))
	return out
}

// classify turns an engine result into a tagged outcome.
func classify(branch domain.Branch, res branchResult, ctxErr error) domain.BranchOutcome {
	out := domain.BranchOutcome{Branch: branch}

	switch {
	case res.err == nil && res.noContext:
		out.Status = domain.StatusNoResults
		out.StatusCode = http.StatusUnprocessableEntity
		out.Message = res.answer
		out.Answer = res.answer
	case res.err == nil:
		out.Status = domain.StatusSuccess
		out.StatusCode = http.StatusOK
		out.Answer = res.answer
		out.Context = res.context
	case errors.Is(res.err, context.DeadlineExceeded) || errors.Is(res.err, domain.ErrTimeout) ||
		errors.Is(ctxErr, context.DeadlineExceeded):
		out.Status = domain.StatusTimeout
		out.StatusCode = http.StatusInternalServerError
		out.Message = fmt.Sprintf("request to %s timed out", branch)
	case errors.Is(res.err, domain.ErrValidation):
		out.Status = domain.StatusUnknownError
		out.StatusCode = http.StatusBadRequest
		out.Message = res.err.Error()
	default:
		out.Status = domain.StatusUnknownError
		out.StatusCode = http.StatusInternalServerError
		out.Message = res.err.Error()
	}

	if out.Context == nil {
		out.Context = []domain.ContextItem{}
	}
	return out
}

// record appends one outcome to the interaction log. Logging failures are
// reported but never fail the query.
func (o *Orchestrator) record(ctx context.Context, query string, out domain.BranchOutcome) {
	if o.log == nil {
		return
	}
	rec := domain.NewInteractionRecord(query, out, o.now().UTC())
	if err := o.log.Append(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("record %s outcome of %s: %v", out.Branch, out.QueryID, err)
	}
}
