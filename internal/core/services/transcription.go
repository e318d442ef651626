package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
)

// Ensure TranscriptionService implements the interface.
var _ driving.TranscriptionService = (*TranscriptionService)(nil)

// TranscriptionService turns recorded questions into query text.
type TranscriptionService struct {
	transcriber driven.Transcriber
}

// NewTranscriptionService creates a transcription service.
func NewTranscriptionService(transcriber driven.Transcriber) *TranscriptionService {
	return &TranscriptionService{transcriber: transcriber}
}

// Transcribe returns the text of the audio.
func (s *TranscriptionService) Transcribe(ctx context.Context, audio domain.Audio) (*domain.Transcription, error) {
	if audio.IsEmpty() {
		return nil, domain.ErrEmptyAudio
	}

	t, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", audio.Filename, err)
	}
	if t == nil || strings.TrimSpace(t.Text) == "" {
		return nil, fmt.Errorf("%w: transcription is empty", domain.ErrTranscriptionFailed)
	}

	t.Text = strings.TrimSpace(t.Text)
	return t, nil
}

// Languages returns the supported language codes mapped to their names.
func (s *TranscriptionService) Languages(ctx context.Context) (map[string]string, error) {
	return s.transcriber.Languages(ctx)
}
