package tui

import "errors"

// ErrMissingOrchestrator is returned when the orchestrator is not provided.
var ErrMissingOrchestrator = errors.New("tui: orchestrator is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
