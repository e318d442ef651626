package driven

import (
	"context"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// NormaliserRegistry selects the appropriate normaliser for a file.
// It dispatches on extension and prefers higher priority normalisers.
type NormaliserRegistry interface {
	// Normalise converts a file using the best matching normaliser.
	// Returns domain.ErrUnsupportedType when no normaliser matches.
	Normalise(ctx context.Context, path string, data []byte) (*domain.Document, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedExtensions returns all extensions that can be normalised.
	SupportedExtensions() []string
}
