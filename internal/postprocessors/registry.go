package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// BuilderFunc creates a PostProcessor from its settings map.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Stage is where a processor may sit in a pipeline.
type Stage int

const (
	// StageSplit turns pages into chunks. It must run first, exactly once.
	StageSplit Stage = iota

	// StageTransform rewrites chunks and may run anywhere in between.
	StageTransform

	// StageCap enforces the token limit. Nothing may run after it, so
	// stored chunks never exceed the cap.
	StageCap
)

type entry struct {
	stage   Stage
	builder BuilderFunc
}

// Registry maps processor names to their builders and stages.
type Registry struct {
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a processor. A later registration under the same name
// replaces the earlier one.
func (r *Registry) Register(name string, stage Stage, builder BuilderFunc) {
	r.entries[name] = entry{stage: stage, builder: builder}
}

// Build creates a processor by name.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: processor %q", domain.ErrUnsupportedType, name)
	}
	return e.builder(cfg)
}

// Check reports whether names form a valid pipeline: one split stage
// first and at most one cap stage, last.
func (r *Registry) Check(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: empty pipeline", domain.ErrValidation)
	}
	for i, name := range names {
		e, ok := r.entries[name]
		if !ok {
			return fmt.Errorf("%w: processor %q", domain.ErrUnsupportedType, name)
		}
		switch {
		case i == 0 && e.stage != StageSplit:
			return fmt.Errorf("%w: pipeline must start with a splitting processor, got %q", domain.ErrValidation, name)
		case i > 0 && e.stage == StageSplit:
			return fmt.Errorf("%w: splitting processor %q must come first", domain.ErrValidation, name)
		case e.stage == StageCap && i != len(names)-1:
			return fmt.Errorf("%w: token cap %q must come last", domain.ErrValidation, name)
		}
	}
	return nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// StageOf returns the stage name was registered with.
func (r *Registry) StageOf(name string) (Stage, bool) {
	e, ok := r.entries[name]
	return e.stage, ok
}

// Names returns all registered processor names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
