package driven

import (
	"context"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// VectorBackend stores chunks of one named collection together with their
// embeddings and flattened metadata.
// Backends return their own errors; the gateway service classifies them.
type VectorBackend interface {
	// Insert stores records. IDs are assigned by the caller.
	Insert(ctx context.Context, records []VectorRecord) error

	// Query returns up to q.K records closest to q.Vector, ordered by
	// ascending distance. Metadata and content filters are applied before
	// the top-k selection.
	Query(ctx context.Context, q domain.VectorQuery) ([]VectorHit, error)

	// Get returns a record by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*VectorRecord, error)

	// Delete removes records by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// ScanMetadata calls fn for every record in the collection.
	// Returning an error from fn stops the scan and is returned.
	ScanMetadata(ctx context.Context, fn func(id string, metadata map[string]any) error) error

	// Count returns the number of records in the collection.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// VectorRecord is one stored chunk.
type VectorRecord struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]any
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Record is the matched chunk.
	Record VectorRecord

	// Distance is the raw distance to the query (lower is closer).
	Distance float64
}
