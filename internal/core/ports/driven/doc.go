// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Text to vector, same model for documents and queries
//   - LLMService: Text to text, used for headings, answers and the agent loop
//   - VectorBackend: Stores chunks with embeddings and metadata (sqlite, pgvector)
//   - Normaliser / NormaliserRegistry: Converts files into documents
//   - PostProcessor: One step of the chunking pipeline
//   - Tokenizer: Counts and truncates model tokens
//   - ConfigStore / PromptStore: Configuration and prompt templates
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Transcriber: Speech-to-text collaborator. Without it, audio input is disabled.
//   - InteractionLog: Records branch outcomes. Without it, outcomes are only returned.
//   - FileWatcher: Filesystem events. Without it, only one-shot scans are possible.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
