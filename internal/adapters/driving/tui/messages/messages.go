// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewAsk sends questions to both answer strategies.
	ViewAsk ViewType = iota
	// ViewSearch browses raw retrieval results.
	ViewSearch
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewAsk:
		return "ask"
	case ViewSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Next returns the view the switch key moves to.
func (v ViewType) Next() ViewType {
	if v == ViewAsk {
		return ViewSearch
	}
	return ViewAsk
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Results []domain.SearchResult
	Err     error
}

// OutcomeReceived carries one branch outcome as soon as it arrives.
type OutcomeReceived struct {
	Outcome domain.BranchOutcome
}

// AskCompleted is sent after both branches have reported.
type AskCompleted struct {
	Result *domain.OrchestratedResult
	Err    error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
