package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// scriptedLLM returns the given responses in order, repeating the last one.
func scriptedLLM(responses ...string) *mockLLM {
	m := &mockLLM{}
	m.respond = func(string) (string, error) {
		i := m.promptCount() - 1
		if i >= len(responses) {
			i = len(responses) - 1
		}
		return responses[i], nil
	}
	return m
}

func newTestAgent(llm *mockLLM, maxSteps int) *AgentEngine {
	g, _, _ := newTestGateway()
	seedChunk(g, "fire.pdf", "ENGINE FIRE", "ENGINE FIRE\nThrottle idle. Fire handle pull.")
	seedChunk(g, "smoke.pdf", "CABIN SMOKE", "CABIN SMOKE\nMasks on. Descend.")
	return NewAgentEngine(llm, testPrompts(), g, maxSteps)
}

func TestAgentEngine_Execute_SearchThenAnswer(t *testing.T) {
	llm := scriptedLLM(
		"Thought: I should look up the fire procedure.\nAction: search\nAction Input: {\"query\": \"engine fire\", \"headings\": \"ENGINE FIRE\"}",
		"Thought: I know the answer.\nFinal Answer: Set throttle to idle and pull the fire handle.",
	)
	agent := newTestAgent(llm, 0)

	res, err := agent.Execute(context.Background(), "engine fire on the ground")

	require.NoError(t, err)
	assert.Equal(t, "engine fire on the ground", res.Input)
	assert.Equal(t, "Set throttle to idle and pull the fire handle.", res.Output)
	assert.False(t, res.Stopped)
	require.Len(t, res.Steps, 1)

	step := res.Steps[0]
	assert.Equal(t, "I should look up the fire procedure.", step.Thought)
	assert.Equal(t, "search", step.Action)
	assert.Equal(t, `{"query": "engine fire", "headings": "ENGINE FIRE"}`, step.ActionInput)

	var hits []searchHit
	require.NoError(t, json.Unmarshal([]byte(step.Observation), &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "fire.pdf", hits[0].DocumentName)
	assert.Equal(t, 1, hits[0].PageNumber)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)

	require.Equal(t, 2, llm.promptCount())
	first := llm.prompts[0]
	assert.Contains(t, first, "NAMES: search")
	assert.Contains(t, first, "Q: engine fire on the ground")
	assert.Contains(t, first, "search(json_input)")
	second := llm.prompts[1]
	assert.Contains(t, second, "Action Input: {\"query\": \"engine fire\", \"headings\": \"ENGINE FIRE\"}\nObservation: [")
	assert.True(t, strings.HasSuffix(second, "\nThought: "))
	assert.Equal(t, []string{"\nObservation:", "\n\tObservation:"}, llm.opts[0].StopWords)

	ctx := res.Context()
	require.Len(t, ctx, 1)
	assert.Equal(t, step.Observation, ctx[0].Content)
}

func TestAgentEngine_Execute_ImmediateAnswer(t *testing.T) {
	agent := newTestAgent(scriptedLLM("Final Answer: Land as soon as possible."), 0)

	res, err := agent.Execute(context.Background(), "what now")

	require.NoError(t, err)
	assert.Equal(t, "Land as soon as possible.", res.Output)
	assert.Empty(t, res.Steps)
	assert.NotNil(t, res.Steps)
	assert.Empty(t, res.Context())
}

func TestAgentEngine_Execute_InvalidFormatIsObserved(t *testing.T) {
	llm := scriptedLLM(
		"I think I need to search somewhere.",
		"Final Answer: Descend.",
	)
	agent := newTestAgent(llm, 0)

	res, err := agent.Execute(context.Background(), "smoke")

	require.NoError(t, err)
	require.Len(t, res.Steps, 1)
	assert.Empty(t, res.Steps[0].Action)
	assert.Equal(t, "Invalid Format: missing 'Action:' after 'Thought:'", res.Steps[0].Observation)
	assert.Equal(t, "Descend.", res.Output)
	assert.Contains(t, llm.prompts[1], "I think I need to search somewhere.\nObservation: Invalid Format:")
}

func TestAgentEngine_Execute_UnknownTool(t *testing.T) {
	agent := newTestAgent(scriptedLLM(
		"Thought: use the web\nAction: google\nAction Input: engine fire",
		"Final Answer: done",
	), 0)

	res, err := agent.Execute(context.Background(), "fire")

	require.NoError(t, err)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, "google is not a valid tool, try one of [search].", res.Steps[0].Observation)
}

func TestAgentEngine_Execute_StepLimit(t *testing.T) {
	llm := scriptedLLM("Thought: again\nAction: search\nAction Input: {\"query\": \"fire\"}")
	agent := newTestAgent(llm, 3)

	res, err := agent.Execute(context.Background(), "fire")

	require.NoError(t, err)
	assert.True(t, res.Stopped)
	assert.Equal(t, StoppedOutput, res.Output)
	assert.Len(t, res.Steps, 3)
	assert.Equal(t, 3, llm.promptCount())
}

func TestAgentEngine_Execute_Errors(t *testing.T) {
	t.Run("blank query", func(t *testing.T) {
		llm := scriptedLLM("Final Answer: x")
		_, err := newTestAgent(llm, 0).Execute(context.Background(), "")
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Zero(t, llm.promptCount())
	})

	t.Run("model down", func(t *testing.T) {
		llm := &mockLLM{respond: func(string) (string, error) { return "", errors.New("refused") }}
		_, err := newTestAgent(llm, 0).Execute(context.Background(), "fire")
		assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	})

	t.Run("missing prompt", func(t *testing.T) {
		g, _, _ := newTestGateway()
		agent := NewAgentEngine(scriptedLLM("Final Answer: x"), mockPromptStore{}, g, 0)
		_, err := agent.Execute(context.Background(), "fire")
		assert.Error(t, err)
	})
}

func TestNewAgentEngine_DefaultSteps(t *testing.T) {
	g, _, _ := newTestGateway()
	agent := NewAgentEngine(&mockLLM{}, testPrompts(), g, -1)
	assert.Equal(t, domain.DefaultAgentMaxSteps, agent.maxSteps)
}

func TestParseReAct(t *testing.T) {
	t.Run("action", func(t *testing.T) {
		turn, err := parseReAct("Thought: look it up\nAction: search\nAction Input: \"{\\\"query\\\": \\\"x\\\"}\"\nObservation: ignored")
		require.NoError(t, err)
		assert.False(t, turn.isFinal)
		assert.Equal(t, "look it up", turn.thought)
		assert.Equal(t, "search", turn.action)
		assert.Equal(t, `{\"query\": \"x\"}`, turn.input)
	})

	t.Run("numbered action", func(t *testing.T) {
		turn, err := parseReAct("Action 1: search\nAction 1 Input: {\"query\": \"x\"}")
		require.NoError(t, err)
		assert.Equal(t, "search", turn.action)
		assert.Equal(t, `{"query": "x"}`, turn.input)
	})

	t.Run("final answer", func(t *testing.T) {
		turn, err := parseReAct("Thought: done\nFinal Answer:  Pull the handle. \n")
		require.NoError(t, err)
		assert.True(t, turn.isFinal)
		assert.Equal(t, "Pull the handle.", turn.final)
	})

	errorCases := map[string]string{
		"both":          "Action: search\nAction Input: x\nFinal Answer: y",
		"no action":     "just thinking out loud",
		"no input":      "Thought: hmm\nAction: search",
		"input no name": "Action Input: x",
	}
	wants := map[string]string{
		"both":          "output contains both a final answer and a parse-able action",
		"no action":     "missing 'Action:' after 'Thought:'",
		"no input":      "missing 'Action Input:' after 'Action:'",
		"input no name": "missing 'Action:' after 'Thought:'",
	}
	for name, text := range errorCases {
		t.Run(name, func(t *testing.T) {
			_, err := parseReAct(text)
			require.Error(t, err)
			assert.Equal(t, wants[name], err.Error())
		})
	}
}

func TestAgentEngine_SearchTool(t *testing.T) {
	agent := newTestAgent(&mockLLM{}, 0)
	ctx := context.Background()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "  ", `Error: empty input, expected JSON like {"query": "...", "headings": "..."}`},
		{"missing query", `{"headings": "ENGINE FIRE"}`, "Error: missing required field 'query'"},
		{"blank query", `{"query": " "}`, "Error: missing required field 'query'"},
		{"no match", `{"query": "fire", "headings": "DITCHING"}`, domain.DefaultNoContextMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, agent.search(ctx, tt.input))
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(agent.search(ctx, "engine fire"), "Error: input is not valid JSON"))
	})

	t.Run("without headings", func(t *testing.T) {
		var hits []searchHit
		require.NoError(t, json.Unmarshal([]byte(agent.search(ctx, `{"query": "smoke", "headings": null}`)), &hits))
		require.Len(t, hits, 2)
		assert.Equal(t, "smoke.pdf", hits[0].DocumentName)
	})

	t.Run("non-string headings ignored", func(t *testing.T) {
		var hits []searchHit
		require.NoError(t, json.Unmarshal([]byte(agent.search(ctx, `{"query": "fire", "headings": ["CABIN SMOKE"]}`)), &hits))
		assert.Len(t, hits, 2)
	})
}
