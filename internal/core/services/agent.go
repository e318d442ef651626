package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-voice/internal/logger"
)

// Ensure AgentEngine implements the interface.
var _ driving.AgentEngine = (*AgentEngine)(nil)

// StoppedOutput is the output of a run that hit the step limit.
const StoppedOutput = "Agent stopped due to iteration limit."

const (
	searchToolName = "search"
	searchToolTopK = 5
	finalAnswerTag = "Final Answer:"
)

const searchToolDescription = `search(json_input) - Search the procedure manuals, optionally restricted to chunks containing a heading.
Input must be a JSON object: {"query": "tell me the manual landing procedure", "headings": "MANUAL LANDING"}.
"headings" is optional. Returns the matching excerpts as a JSON list, or a message when nothing matches.`

var (
	actionPattern       = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)
	actionOnlyPattern   = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)`)
	actionInputOnlyExpr = regexp.MustCompile(`(?s)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)
)

// AgentEngine answers a query with a Thought/Action/Observation loop over
// a single search tool.
type AgentEngine struct {
	llm      driven.LLMService
	prompts  driven.PromptStore
	gateway  *VectorStoreGateway
	maxSteps int
}

// NewAgentEngine creates a tool-calling engine. maxSteps <= 0 uses the default.
func NewAgentEngine(
	llm driven.LLMService, prompts driven.PromptStore, gateway *VectorStoreGateway, maxSteps int,
) *AgentEngine {
	if maxSteps <= 0 {
		maxSteps = domain.DefaultAgentMaxSteps
	}
	return &AgentEngine{llm: llm, prompts: prompts, gateway: gateway, maxSteps: maxSteps}
}

// reactTurn is one parsed model response.
type reactTurn struct {
	thought string
	action  string
	input   string
	final   string
	isFinal bool
}

// Execute runs the reasoning loop until the model gives a final answer or
// the step limit is reached.
func (e *AgentEngine) Execute(ctx context.Context, query string) (*domain.AgentResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrValidation)
	}

	template, err := e.prompts.Load(driven.PromptAgentReAct)
	if err != nil {
		return nil, fmt.Errorf("load agent prompt: %w", err)
	}

	result := &domain.AgentResult{Input: query, Steps: []domain.AgentStep{}}
	var logs []string
	var step domain.AgentStep
	var turn reactTurn

	state := domain.AgentThinking
	for state != domain.AgentDone {
		switch state {
		case domain.AgentThinking:
			if len(result.Steps) >= e.maxSteps {
				logger.Warn("agent: stopped after %d steps", len(result.Steps))
				result.Output = StoppedOutput
				result.Stopped = true
				state = domain.AgentDone
				continue
			}

			prompt := renderPrompt(template, map[string]string{
				"tools":            searchToolDescription,
				"tool_names":       searchToolName,
				"input":            query,
				"agent_scratchpad": scratchpad(logs, result.Steps),
			})
			out, err := e.llm.Generate(ctx, prompt, driven.GenerateOptions{
				Temperature: 0,
				StopWords:   []string{"\nObservation:", "\n\tObservation:"},
			})
			if err != nil {
				return nil, fmt.Errorf("%w: agent step %d: %w", domain.ErrBackendUnavailable, len(result.Steps)+1, err)
			}
			logs = append(logs, out)

			turn, err = parseReAct(out)
			switch {
			case err != nil:
				logger.Debug("agent: %v", err)
				step = domain.AgentStep{Thought: strings.TrimSpace(out), Observation: "Invalid Format: " + err.Error()}
				state = domain.AgentObserving
			case turn.isFinal:
				result.Output = turn.final
				state = domain.AgentDone
			default:
				step = domain.AgentStep{Thought: turn.thought, Action: turn.action, ActionInput: turn.input}
				state = domain.AgentToolCall
			}

		case domain.AgentToolCall:
			logger.Debug("agent: %s(%s)", step.Action, step.ActionInput)
			step.Observation = e.runTool(ctx, step.Action, step.ActionInput)
			state = domain.AgentObserving

		case domain.AgentObserving:
			result.Steps = append(result.Steps, step)
			state = domain.AgentThinking
		}
	}

	logger.Info("agent: finished after %d steps", len(result.Steps))
	return result, nil
}

// scratchpad replays previous turns as the model wrote them, each
// followed by its observation.
func scratchpad(logs []string, steps []domain.AgentStep) string {
	var b strings.Builder
	for i, s := range steps {
		if i < len(logs) {
			b.WriteString(logs[i])
		}
		b.WriteString("\nObservation: ")
		b.WriteString(s.Observation)
		b.WriteString("\nThought: ")
	}
	return b.String()
}

// parseReAct reads a final answer or a tool call from model output.
func parseReAct(text string) (reactTurn, error) {
	hasFinal := strings.Contains(text, finalAnswerTag)
	m := actionPattern.FindStringSubmatch(text)

	if m != nil {
		if hasFinal {
			return reactTurn{}, errors.New("output contains both a final answer and a parse-able action")
		}
		thought := strings.TrimSpace(text[:strings.Index(text, m[0])])
		thought = strings.TrimSpace(strings.TrimPrefix(thought, "Thought:"))
		input := m[2]
		if i := strings.Index(input, "\nObservation:"); i >= 0 {
			input = input[:i]
		}
		input = strings.Trim(strings.TrimSpace(input), "\"")
		return reactTurn{thought: thought, action: strings.TrimSpace(m[1]), input: input}, nil
	}

	if hasFinal {
		final := text[strings.LastIndex(text, finalAnswerTag)+len(finalAnswerTag):]
		return reactTurn{final: strings.TrimSpace(final), isFinal: true}, nil
	}

	if !actionOnlyPattern.MatchString(text) {
		return reactTurn{}, errors.New("missing 'Action:' after 'Thought:'")
	}
	if !actionInputOnlyExpr.MatchString(text) {
		return reactTurn{}, errors.New("missing 'Action Input:' after 'Action:'")
	}
	return reactTurn{}, fmt.Errorf("could not parse output: `%s`", strings.TrimSpace(text))
}

func (e *AgentEngine) runTool(ctx context.Context, name, input string) string {
	if name != searchToolName {
		return fmt.Sprintf("%s is not a valid tool, try one of [%s].", name, searchToolName)
	}
	return e.search(ctx, input)
}

// searchInput is the JSON argument of the search tool.
type searchInput struct {
	Query    *string `json:"query"`
	Headings any     `json:"headings"`
}

// searchHit is one excerpt returned to the model.
type searchHit struct {
	Content      string  `json:"content"`
	DocumentName string  `json:"document_name"`
	PageNumber   int     `json:"page_number"`
	Score        float64 `json:"score"`
}

// search runs the search tool. Problems are reported to the model as text.
func (e *AgentEngine) search(ctx context.Context, input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return `Error: empty input, expected JSON like {"query": "...", "headings": "..."}`
	}

	obj, ok := extractJSONObject(input)
	if !ok {
		obj = input
	}
	var in searchInput
	if err := json.Unmarshal([]byte(obj), &in); err != nil {
		return fmt.Sprintf("Error: input is not valid JSON: %v", err)
	}
	if in.Query == nil || strings.TrimSpace(*in.Query) == "" {
		return "Error: missing required field 'query'"
	}

	req := domain.SearchRequest{Text: *in.Query, TopK: searchToolTopK, ReturnScore: true}
	if h, ok := in.Headings.(string); ok && strings.TrimSpace(h) != "" {
		req.ContentFilter = domain.Contains(strings.TrimSpace(h))
	}

	results, err := e.gateway.Search(ctx, req)
	if err != nil {
		return fmt.Sprintf("Error: search failed: %v", err)
	}
	if len(results) == 0 {
		return domain.DefaultNoContextMessage
	}

	hits := make([]searchHit, len(results))
	for i, r := range results {
		hits[i] = searchHit{
			Content:      r.Chunk.Content,
			DocumentName: r.Chunk.Metadata.DocumentName,
			PageNumber:   r.Chunk.Metadata.PageNumber,
			Score:        r.Score,
		}
	}
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error: serialising results: %v", err)
	}
	return string(data)
}
