// Package enrich prepends local context to chunk text.
package enrich

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// Processor prepends each chunk's section heading to its content so the
// heading is embedded with the text it introduces.
// It implements the PostProcessor interface.
type Processor struct{}

// New creates a new enrich processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "enrich"
}

// Process rewrites chunk content in place. Chunks without a heading, or
// whose text already starts with it, are left unchanged.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	for i := range chunks {
		heading := strings.TrimSpace(chunks[i].Metadata.Heading)
		if heading == "" || strings.HasPrefix(chunks[i].Content, heading) {
			continue
		}
		chunks[i].Content = heading + "\n" + chunks[i].Content
	}
	return chunks, nil
}
