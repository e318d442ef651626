package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// defaultLimit is the number of search results returned when none is requested.
const defaultLimit = 5

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query    string `json:"query" jsonschema:"the text to search the procedure manuals for"`
	Heading  string `json:"heading,omitempty" jsonschema:"only return chunks containing this heading, e.g. ENGINE FIRE ON GROUND"`
	Document string `json:"document,omitempty" jsonschema:"only return chunks of this document file name"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	Document string  `json:"document"`
	Page     int     `json:"page"`
	Heading  string  `json:"heading,omitempty"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

// AskInput is the input schema for the question tools.
type AskInput struct {
	Query string `json:"query" jsonschema:"the question, typically a transcribed voice query"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	QueryID  string         `json:"query_id"`
	Outcomes []BranchOutput `json:"outcomes"`
}

// BranchOutput is one strategy's answer.
type BranchOutput struct {
	Branch  string `json:"branch"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Answer  string `json:"answer"`
}

// RAGOutput is the output schema for the rag tool.
type RAGOutput struct {
	Heading string               `json:"heading"`
	Outcome string               `json:"outcome"`
	Title   string               `json:"title,omitempty"`
	Steps   []string             `json:"steps,omitempty"`
	Answer  string               `json:"answer"`
	Context []domain.ContextItem `json:"context"`
}

// AgentOutput is the output schema for the agent tool.
type AgentOutput struct {
	Output  string `json:"output"`
	Steps   int    `json:"steps"`
	Stopped bool   `json:"stopped,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the indexed procedure manuals by similarity",
	}, s.handleSearch)

	if s.ports.Orchestrator != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question with both the retrieval and the agent strategies",
		}, s.handleAsk)
	}
	if s.ports.RAG != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "rag",
			Description: "Answer a question from the procedure excerpts matching its heading",
		}, s.handleRAG)
	}
	if s.ports.Agent != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "agent",
			Description: "Answer a question with a reasoning loop that searches the manuals",
		}, s.handleAgent)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	req := domain.SearchRequest{Text: input.Query, TopK: limit, ReturnScore: true}
	if h := strings.TrimSpace(input.Heading); h != "" {
		req.ContentFilter = domain.Contains(h)
	}
	if d := strings.TrimSpace(input.Document); d != "" {
		req.MetadataFilter = map[string]any{domain.MetaDocumentName: d}
	}

	results, err := s.ports.Search.Search(ctx, req)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		meta := results[i].Chunk.Metadata
		output.Results[i] = SearchResultOutput{
			Document: meta.DocumentName,
			Page:     meta.PageNumber,
			Heading:  meta.Heading,
			Score:    results[i].Score,
			Content:  results[i].Chunk.Content,
		}
	}

	return nil, output, nil
}

// handleAsk runs both strategies and returns their outcomes in arrival order.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Orchestrator == nil {
		return nil, AskOutput{}, errAskUnavailable
	}

	res, err := s.ports.Orchestrator.Ask(ctx, input.Query, nil)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{QueryID: res.QueryID, Outcomes: make([]BranchOutput, len(res.Outcomes))}
	for i, o := range res.Outcomes {
		output.Outcomes[i] = BranchOutput{
			Branch:  string(o.Branch),
			Status:  string(o.Status),
			Message: o.Message,
			Answer:  o.Answer,
		}
	}
	return nil, output, nil
}

// handleRAG runs the retrieval-synthesis engine.
func (s *Server) handleRAG(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, RAGOutput, error) {
	if s.ports.RAG == nil {
		return nil, RAGOutput{}, errAskUnavailable
	}

	res, err := s.ports.RAG.Execute(ctx, input.Query)
	if err != nil {
		return nil, RAGOutput{}, err
	}

	items := res.Context
	if items == nil {
		items = []domain.ContextItem{}
	}
	return nil, RAGOutput{
		Heading: res.Heading,
		Outcome: string(res.Outcome),
		Title:   res.Answer.Title,
		Steps:   res.Answer.Steps,
		Answer:  res.Answer.String(),
		Context: items,
	}, nil
}

// handleAgent runs the tool-calling engine.
func (s *Server) handleAgent(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AgentOutput, error) {
	if s.ports.Agent == nil {
		return nil, AgentOutput{}, errAskUnavailable
	}

	res, err := s.ports.Agent.Execute(ctx, input.Query)
	if err != nil {
		return nil, AgentOutput{}, err
	}

	return nil, AgentOutput{Output: res.Output, Steps: len(res.Steps), Stopped: res.Stopped}, nil
}
