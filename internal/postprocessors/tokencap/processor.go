// Package tokencap enforces the hard token limit on chunks.
package tokencap

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// DefaultMaxTokens is the hard cap applied when none is configured.
const DefaultMaxTokens = 512

// MetaTruncated is set on chunks that were cut to fit the cap.
const MetaTruncated = "truncated"

// Processor truncates chunks longer than the cap on a token boundary.
// It implements the PostProcessor interface.
type Processor struct {
	tokenizer driven.Tokenizer
	maxTokens int
}

// New creates a token cap processor.
func New(tokenizer driven.Tokenizer, maxTokens int) (*Processor, error) {
	if tokenizer == nil {
		return nil, fmt.Errorf("tokenizer is required")
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Processor{tokenizer: tokenizer, maxTokens: maxTokens}, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "tokencap"
}

// MaxTokens returns the configured cap.
func (p *Processor) MaxTokens() int {
	return p.maxTokens
}

// Process truncates oversized chunks in place.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		if p.tokenizer.Count(chunks[i].Content) <= p.maxTokens {
			continue
		}
		chunks[i].Content = dropPartialRune(p.tokenizer.Truncate(chunks[i].Content, p.maxTokens))
		if chunks[i].Metadata.Extra == nil {
			chunks[i].Metadata.Extra = make(map[string]any)
		}
		chunks[i].Metadata.Extra[MetaTruncated] = true
	}
	return chunks, nil
}

// dropPartialRune removes an incomplete UTF-8 sequence left at the end of s
// by a cut that landed inside a character.
func dropPartialRune(s string) string {
	for i := 0; i < utf8.UTFMax && s != ""; i++ {
		r, size := utf8.DecodeLastRuneInString(s)
		if r != utf8.RuneError || size != 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}
