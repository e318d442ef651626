package driven

import (
	"context"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// InteractionLog records branch outcomes of orchestrated queries.
// Each Append is atomic: one record per branch, never interleaved.
type InteractionLog interface {
	// Append stores one branch outcome.
	Append(ctx context.Context, rec domain.InteractionRecord) error

	// ByQuery returns every record for a query ID, oldest first.
	ByQuery(ctx context.Context, queryID string) ([]domain.InteractionRecord, error)

	// Recent returns up to n most recent records, newest first.
	Recent(ctx context.Context, n int) ([]domain.InteractionRecord, error)

	// Close releases resources.
	Close() error
}
