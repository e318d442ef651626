// Package tui provides an interactive terminal user interface for sercha-voice.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Orchestrator answers questions with both strategies. Required.
	Orchestrator driving.Orchestrator

	// Search backs the search view. Without it the view is disabled.
	Search driving.SearchService

	// TopK is the number of chunks the search view requests.
	TopK int
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Orchestrator == nil {
		return ErrMissingOrchestrator
	}
	return nil
}
