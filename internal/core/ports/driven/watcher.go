package driven

import (
	"context"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// FileWatcher reports filesystem changes in a directory.
type FileWatcher interface {
	// Watch starts watching dir. The returned channel is closed when ctx is
	// cancelled or the watcher is closed.
	Watch(ctx context.Context, dir string) (<-chan domain.FileEvent, error)

	// Close stops the watcher.
	Close() error
}
