package ask

import "errors"

// ErrNoOrchestrator indicates that no orchestrator was provided.
var ErrNoOrchestrator = errors.New("orchestrator is required")
