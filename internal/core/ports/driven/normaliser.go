package driven

import (
	"context"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// Normaliser converts a source file into a Document with pages.
// Each normaliser handles specific file extensions (e.g., .pdf, .md).
type Normaliser interface {
	// SupportedExtensions returns the extensions this normaliser handles,
	// lower-case with leading dot.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise converts file content into a document.
	Normalise(ctx context.Context, path string, data []byte) (*domain.Document, error)
}
