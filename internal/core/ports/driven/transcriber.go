package driven

import (
	"context"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// Transcriber is the speech-to-text collaborator.
type Transcriber interface {
	// Transcribe sends audio and returns the recognised text.
	Transcribe(ctx context.Context, audio domain.Audio) (*domain.Transcription, error)

	// Languages returns the supported language codes mapped to their names.
	Languages(ctx context.Context) (map[string]string, error)
}
