// Package postprocessors provides the chunking pipeline.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline chains multiple PostProcessors and runs them in order.
// It implements the PostProcessorPipeline interface.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Build constructs a pipeline from configuration using the registry.
func Build(r *Registry, cfg domain.PipelineConfig) (*Pipeline, error) {
	if err := r.Check(cfg.Processors); err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	p := NewPipeline()
	for _, name := range cfg.Processors {
		proc, err := r.Build(name, cfg.GetProcessorConfig(name))
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		p.Add(proc)
	}
	return p, nil
}

// Process runs the document through all processors in order.
// The first processor receives nil chunks and should create them.
// Subsequent processors receive and may modify the chunks.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	var chunks []domain.Chunk

	for _, processor := range p.processors {
		var err error
		chunks, err = processor.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return chunks, nil
}

// Chunk runs the pipeline and returns chunk texts with their flattened
// metadata. Any failure, including a panicking processor, fails the whole
// call with domain.ErrChunking and no partial result.
func (p *Pipeline) Chunk(ctx context.Context, doc *domain.Document) (texts []string, metas []map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			texts, metas = nil, nil
			err = fmt.Errorf("%w: panic: %v", domain.ErrChunking, r)
		}
	}()

	chunks, err := p.Process(ctx, doc)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrChunking, err)
	}

	texts = make([]string, 0, len(chunks))
	metas = make([]map[string]any, 0, len(chunks))
	for _, c := range chunks {
		flat, ferr := c.Metadata.Flatten()
		if ferr != nil {
			return nil, nil, fmt.Errorf("%w: chunk %d: %w", domain.ErrChunking, c.Metadata.ChunkIndex, ferr)
		}
		texts = append(texts, c.Content)
		metas = append(metas, flat)
	}

	return texts, metas, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns the processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}
