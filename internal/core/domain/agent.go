package domain

// AgentState is a state of the tool-calling reasoning loop.
type AgentState string

// Agent loop states.
const (
	// AgentThinking means the model is being asked for its next move.
	AgentThinking AgentState = "thinking"

	// AgentToolCall means the model requested a tool invocation.
	AgentToolCall AgentState = "tool_call"

	// AgentObserving means a tool result (or parse error) is being fed back.
	AgentObserving AgentState = "observing"

	// AgentDone means the model committed to a final answer or the step cap was hit.
	AgentDone AgentState = "done"
)

// DefaultAgentMaxSteps bounds the reasoning loop.
const DefaultAgentMaxSteps = 15

// AgentStep is one Thought/Action/Observation turn of the loop.
type AgentStep struct {
	Thought     string `json:"thought,omitempty"`
	Action      string `json:"action,omitempty"`
	ActionInput string `json:"action_input,omitempty"`
	Observation string `json:"observation"`
}

// AgentResult is the response of the tool-calling engine.
type AgentResult struct {
	Input  string      `json:"input"`
	Output string      `json:"output"`
	Steps  []AgentStep `json:"intermediate_steps"`

	// Stopped is true when the step cap ended the loop.
	Stopped bool `json:"stopped,omitempty"`
}

// Context returns the observations the agent collected, in order.
func (r *AgentResult) Context() []ContextItem {
	var items []ContextItem
	for _, s := range r.Steps {
		if s.Action == "" || s.Observation == "" {
			continue
		}
		items = append(items, ContextItem{Content: s.Observation})
	}
	return items
}
