package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// Ensure InteractionLog implements the interface.
var _ driven.InteractionLog = (*InteractionLog)(nil)

// InteractionLog is an in-memory implementation of driven.InteractionLog.
type InteractionLog struct {
	mu      sync.Mutex
	records []domain.InteractionRecord
}

// NewInteractionLog creates a new in-memory interaction log.
func NewInteractionLog() *InteractionLog {
	return &InteractionLog{}
}

// Append stores one record.
func (l *InteractionLog) Append(_ context.Context, rec domain.InteractionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

// ByQuery returns every record for a query ID, oldest first.
func (l *InteractionLog) ByQuery(_ context.Context, queryID string) ([]domain.InteractionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []domain.InteractionRecord
	for _, rec := range l.records {
		if rec.QueryID == queryID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Recent returns up to n most recent records, newest first.
func (l *InteractionLog) Recent(_ context.Context, n int) ([]domain.InteractionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []domain.InteractionRecord
	for i := len(l.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.records[i])
	}
	return out, nil
}

// Close is a no-op.
func (l *InteractionLog) Close() error {
	return nil
}
