package driving

import (
	"context"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// TranscriptionService converts recorded questions into text.
type TranscriptionService interface {
	// Transcribe returns the text of the audio.
	// Empty audio fails with domain.ErrEmptyAudio before the collaborator is called.
	Transcribe(ctx context.Context, audio domain.Audio) (*domain.Transcription, error)

	// Languages returns the supported language codes.
	Languages(ctx context.Context) (map[string]string, error)
}
