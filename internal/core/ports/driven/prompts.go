package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptRAGAnswer synthesises an answer from retrieved context.
	// The template expects {context} and {input} placeholders.
	PromptRAGAnswer = "rag_answer"

	// PromptExtractHeading names the most relevant procedure heading for a query.
	// The template expects a {query} placeholder.
	PromptExtractHeading = "extract_heading"

	// PromptAgentReAct drives the tool-calling reasoning loop.
	// The template expects {tools}, {tool_names}, {input} and {agent_scratchpad}.
	PromptAgentReAct = "agent_react"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
