package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-voice/internal/logger"
)

// Ensure RAGEngine implements the interface.
var _ driving.RAGEngine = (*RAGEngine)(nil)

// RAGEngine answers a query from retrieved procedure excerpts.
type RAGEngine struct {
	gateway  *VectorStoreGateway
	llm      driven.LLMService
	prompts  driven.PromptStore
	headings *HeadingExtractor
	cfg      domain.RAGSettings
}

// NewRAGEngine creates a retrieval-synthesis engine. Zero settings fall
// back to the defaults.
func NewRAGEngine(
	gateway *VectorStoreGateway,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cfg domain.RAGSettings,
) *RAGEngine {
	d := domain.DefaultAppSettings().RAG
	if cfg.TopK <= 0 {
		cfg.TopK = d.TopK
	}
	if cfg.NoContextMessage == "" {
		cfg.NoContextMessage = d.NoContextMessage
	}
	if cfg.MismatchMessage == "" {
		cfg.MismatchMessage = d.MismatchMessage
	}
	return &RAGEngine{
		gateway:  gateway,
		llm:      llm,
		prompts:  prompts,
		headings: NewHeadingExtractor(llm),
		cfg:      cfg,
	}
}

// Execute runs heading extraction, filtered retrieval and synthesis.
func (e *RAGEngine) Execute(ctx context.Context, query string) (*domain.RAGResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrValidation)
	}

	answerTmpl, err := e.prompts.Load(driven.PromptRAGAnswer)
	if err != nil {
		return nil, fmt.Errorf("load answer prompt: %w", err)
	}
	headingTmpl, err := e.prompts.Load(driven.PromptExtractHeading)
	if err != nil {
		return nil, fmt.Errorf("load heading prompt: %w", err)
	}

	heading := e.headings.Extract(ctx, query, headingTmpl)
	if heading == "" {
		logger.Debug("rag: no heading extracted, content filter matches all chunks")
	}

	results, err := e.gateway.Search(ctx, domain.SearchRequest{
		Text:          query,
		TopK:          e.cfg.TopK,
		ContentFilter: domain.Contains(heading),
		ReturnScore:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	items := make([]domain.ContextItem, len(results))
	for i, r := range results {
		items[i] = domain.ContextItem{Content: r.Chunk.Content, Score: r.Score}
	}
	result := &domain.RAGResult{Input: query, Heading: heading, Context: items}
	contextText := result.ContextText()

	if strings.TrimSpace(contextText) == "" {
		logger.Info("rag: no context for %q (heading %q)", query, heading)
		result.Context = nil
		result.Answer = domain.TextAnswer(e.cfg.NoContextMessage)
		result.Outcome = domain.OutcomeNoContext
		return result, nil
	}

	prompt := renderPrompt(answerTmpl, map[string]string{"context": contextText, "input": query})
	raw, err := e.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: synthesise answer: %w", domain.ErrBackendUnavailable, err)
	}

	answer := parseAnswer(raw)
	if answer.IsEmpty() {
		logger.Info("rag: model found no answer in %d chunks", len(items))
		result.Answer = domain.TextAnswer(e.cfg.MismatchMessage)
		result.Outcome = domain.OutcomeMismatch
		return result, nil
	}

	result.Answer = answer
	result.Outcome = domain.OutcomeAnswered
	return result, nil
}

// modelAnswer is the JSON shape requested by the answer prompt. Steps and
// answer are decoded loosely because models do not always honour it.
type modelAnswer struct {
	Title  string          `json:"title"`
	Steps  json.RawMessage `json:"steps"`
	Answer json.RawMessage `json:"answer"`
}

// parseAnswer decodes the model's JSON answer. Code fences and prose around
// the object are tolerated; anything else becomes a plain-text answer.
func parseAnswer(raw string) domain.Answer {
	trimmed := strings.TrimSpace(raw)

	obj, ok := extractJSONObject(trimmed)
	if !ok {
		return domain.TextAnswer(trimmed)
	}

	var m modelAnswer
	if err := json.Unmarshal([]byte(obj), &m); err != nil {
		logger.Debug("rag: %v: %v", domain.ErrParse, err)
		return domain.TextAnswer(trimmed)
	}

	return domain.StructuredAnswer(strings.TrimSpace(m.Title), decodeSteps(m.Steps), looseString(m.Answer))
}

// extractJSONObject returns the outermost {...} span of s.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// decodeSteps accepts a list of strings, a list of objects, or a single string.
func decodeSteps(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		if s := looseString(raw); s != "" {
			return []string{s}
		}
		return nil
	}

	steps := make([]string, 0, len(list))
	for _, item := range list {
		if s := looseString(item); s != "" {
			steps = append(steps, s)
		}
	}
	return steps
}

// looseString renders a JSON value as text. Objects yield their first
// descriptive field, or their JSON encoding.
func looseString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, key := range []string{"description", "text", "action", "step"} {
			if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return strings.TrimSpace(string(raw))
}
