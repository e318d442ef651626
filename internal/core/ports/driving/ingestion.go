package driving

import (
	"context"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// IngestionService turns document files into indexed chunks.
type IngestionService interface {
	// Scan ingests every matching file in dir once.
	Scan(ctx context.Context, dir string) (domain.IngestSummary, error)

	// Watch scans dir, then ingests files created in it until ctx is cancelled.
	// onReport is called after every processed file and may be nil.
	Watch(ctx context.Context, dir string, watcher driven.FileWatcher, onReport func(domain.IngestReport)) error

	// IngestFile ingests a single file unless a document with the same
	// name is already in the collection.
	IngestFile(ctx context.Context, path string) domain.IngestReport

	// Reingest deletes the stored chunks of a file's document and ingests it again.
	Reingest(ctx context.Context, path string) domain.IngestReport
}

// DocumentService lists and removes indexed documents.
type DocumentService interface {
	// List returns the names of all indexed documents, sorted.
	List(ctx context.Context) ([]string, error)

	// Delete removes every chunk of a document and returns how many were removed.
	Delete(ctx context.Context, name string) (int, error)

	// Count returns the total number of stored chunks.
	Count(ctx context.Context) (int, error)
}
