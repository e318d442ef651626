package domain

import "errors"

// Domain errors represent business logic failures.
// Adapters wrap them with fmt.Errorf("%w: %w", ...) so callers can classify
// failures with errors.Is without depending on backend-specific types.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates an empty or malformed query or request.
	// It aborts a single query only.
	ErrValidation = errors.New("validation error")

	// ErrBackendUnavailable indicates the vector store or language model
	// could not be reached or rejected the request.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrParse indicates model output was not valid structured data.
	// The RAG engine recovers from it locally and never returns it.
	ErrParse = errors.New("parse error")

	// ErrTimeout indicates a branch or collaborator exceeded its deadline.
	// The orchestrator converts it into a status tag.
	ErrTimeout = errors.New("timeout")

	// ErrFatalInit indicates dependency construction failed at startup.
	// It always aborts the process.
	ErrFatalInit = errors.New("fatal initialisation error")

	// ErrChunking indicates a document could not be split into chunks.
	ErrChunking = errors.New("chunking failed")

	// ErrUnsupportedType indicates an unknown provider, backend or file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured or failed.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or failed.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Transcription Errors.

	// ErrEmptyAudio indicates audio was missing or empty. It is returned
	// before the transcription service is called.
	ErrEmptyAudio = errors.New("audio file is empty or missing")

	// ErrTranscriptionFailed indicates the transcription service returned
	// a non-success response or an empty transcription.
	ErrTranscriptionFailed = errors.New("transcription failed")
)
