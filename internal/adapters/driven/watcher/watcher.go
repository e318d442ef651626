// Package watcher reports document folder changes using fsnotify.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-voice/internal/logger"
)

// Verify interface compliance.
var _ driven.FileWatcher = (*Watcher)(nil)

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("watcher closed")

// eventBuffer is the capacity of the event channel.
const eventBuffer = 64

// Watcher watches a single directory, non-recursively.
// Hidden files are ignored.
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	closed  bool
	stopped chan struct{}
}

// New creates a watcher. Nothing is watched until Watch is called.
func New() *Watcher {
	return &Watcher{stopped: make(chan struct{})}
}

// Watch starts watching dir and returns the event channel.
// The channel is closed when ctx is cancelled or Close is called.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan domain.FileEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if w.fsw != nil {
		return nil, fmt.Errorf("watcher already started")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory: %s is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch %s: %w", dir, err)
	}
	w.fsw = fsw

	events := make(chan domain.FileEvent, eventBuffer)
	go w.loop(ctx, fsw, events)

	logger.Info("watching %s", dir)
	return events, nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- domain.FileEvent) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopped:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			fe, ok := convert(ev)
			if !ok {
				continue
			}
			select {
			case out <- fe:
			case <-ctx.Done():
				return
			case <-w.stopped:
				return
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}

// convert maps an fsnotify event to a domain event. Chmod and hidden-file
// events are dropped; renames are reported as removals of the old name.
func convert(ev fsnotify.Event) (domain.FileEvent, bool) {
	if isHidden(filepath.Base(ev.Name)) {
		return domain.FileEvent{}, false
	}

	var op domain.FileEventOp
	switch {
	case ev.Has(fsnotify.Create):
		op = domain.FileCreated
	case ev.Has(fsnotify.Write):
		op = domain.FileWritten
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		op = domain.FileRemoved
	default:
		return domain.FileEvent{}, false
	}

	fe := domain.FileEvent{Path: ev.Name, Op: op}
	if op != domain.FileRemoved {
		if info, err := os.Stat(ev.Name); err == nil {
			fe.IsDir = info.IsDir()
		}
	}
	return fe, true
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.stopped)

	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}
