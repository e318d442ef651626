package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-voice/internal/logger"
)

// Ensure IngestionCoordinator implements the interface.
var _ driving.IngestionService = (*IngestionCoordinator)(nil)

// IngestionCoordinator discovers document files and indexes the ones not
// yet in the collection. Documents are identified by base filename; a
// changed file under a known name is skipped until Reingest is called.
// Writes are single-process.
type IngestionCoordinator struct {
	gateway     *VectorStoreGateway
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	extensions  map[string]bool
	settle      time.Duration
	now         func() time.Time
}

// DefaultSettleDelay is how long a new file must go without writes before
// Watch ingests it.
const DefaultSettleDelay = 500 * time.Millisecond

// NewIngestionCoordinator creates a coordinator accepting files with the
// given extensions (leading dot, case-insensitive).
func NewIngestionCoordinator(
	gateway *VectorStoreGateway,
	normalisers driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	extensions []string,
) *IngestionCoordinator {
	if len(extensions) == 0 {
		extensions = domain.DefaultExtensions()
	}
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	return &IngestionCoordinator{
		gateway:     gateway,
		normalisers: normalisers,
		pipeline:    pipeline,
		extensions:  exts,
		settle:      DefaultSettleDelay,
		now:         time.Now,
	}
}

// SetSettleDelay changes the quiet period Watch waits for after the last
// write to a new file. Non-positive values restore the default.
func (c *IngestionCoordinator) SetSettleDelay(d time.Duration) {
	if d <= 0 {
		d = DefaultSettleDelay
	}
	c.settle = d
}

// Accepts reports whether path has an accepted extension.
func (c *IngestionCoordinator) Accepts(path string) bool {
	return c.extensions[strings.ToLower(filepath.Ext(path))]
}

// Scan ingests every accepted file directly inside dir.
// Per-file failures are recorded in the summary and do not stop the scan.
func (c *IngestionCoordinator) Scan(ctx context.Context, dir string) (domain.IngestSummary, error) {
	var summary domain.IngestSummary

	entries, err := os.ReadDir(dir)
	if err != nil {
		return summary, fmt.Errorf("read directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !c.Accepts(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	logger.Info("scanning %s: %d candidate files", dir, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Add(c.IngestFile(ctx, filepath.Join(dir, name)))
	}

	logger.Info("scan complete: %d indexed, %d skipped, %d failed, %d chunks",
		summary.Indexed, summary.Skipped, summary.Failed, summary.Chunks)
	return summary, nil
}

// Watch starts watching dir, scans it, then ingests files created in it
// until ctx is cancelled or the watcher stops. The watcher is registered
// before the scan so a file created meanwhile is not missed. A new file is
// ingested once it has gone DefaultSettleDelay without further writes, so
// a copy in progress is not read half-written. Directories and unaccepted
// files are ignored.
func (c *IngestionCoordinator) Watch(
	ctx context.Context, dir string, watcher driven.FileWatcher, onReport func(domain.IngestReport),
) error {
	report := func(r domain.IngestReport) {
		if onReport != nil {
			onReport(r)
		}
	}

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	summary, err := c.Scan(ctx, dir)
	if err != nil {
		return err
	}
	for _, r := range summary.Reports {
		report(r)
	}

	// pending maps new files to the time they are due for ingestion.
	pending := make(map[string]time.Time)
	timer := time.NewTimer(c.settle)
	timer.Stop()

	ingestDue := func(all bool) {
		now := time.Now()
		var due []string
		var next time.Duration
		for path, at := range pending {
			if all || !at.After(now) {
				due = append(due, path)
			} else if wait := at.Sub(now); next == 0 || wait < next {
				next = wait
			}
		}
		sort.Strings(due)
		for _, path := range due {
			delete(pending, path)
			logger.Info("new file detected: %s", path)
			report(c.IngestFile(ctx, path))
		}
		if next > 0 {
			timer.Reset(next)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			ingestDue(false)
		case ev, ok := <-events:
			if !ok {
				ingestDue(true)
				return nil
			}
			if ev.IsDir || !c.Accepts(ev.Path) {
				continue
			}
			if _, known := pending[ev.Path]; ev.Op == domain.FileCreated || (ev.Op == domain.FileWritten && known) {
				pending[ev.Path] = time.Now().Add(c.settle)
				timer.Reset(c.settle)
			}
		}
	}
}

// IngestFile indexes a single file unless its document is already stored.
func (c *IngestionCoordinator) IngestFile(ctx context.Context, path string) domain.IngestReport {
	start := c.now()
	r := domain.IngestReport{Path: path, Name: filepath.Base(path), State: domain.StateDiscovered}

	processed, err := c.gateway.IsDocumentProcessed(ctx, r.Name)
	if err != nil {
		return c.fail(r, start, fmt.Errorf("check document: %w", err))
	}
	if processed {
		logger.Debug("skipping %s: already indexed", r.Name)
		r.State = domain.StateSkipped
		r.Duration = c.now().Sub(start)
		return r
	}

	return c.index(ctx, r, start)
}

// Reingest deletes the stored chunks of the file's document and indexes it again.
func (c *IngestionCoordinator) Reingest(ctx context.Context, path string) domain.IngestReport {
	start := c.now()
	r := domain.IngestReport{Path: path, Name: filepath.Base(path), State: domain.StateDiscovered}

	removed, err := c.gateway.DeleteDocument(ctx, r.Name)
	if err != nil {
		return c.fail(r, start, fmt.Errorf("delete previous chunks: %w", err))
	}
	if removed > 0 {
		logger.Info("removed %d chunks of %s", removed, r.Name)
	}

	return c.index(ctx, r, start)
}

func (c *IngestionCoordinator) index(ctx context.Context, r domain.IngestReport, start time.Time) domain.IngestReport {
	r.State = domain.StateProcessing

	data, err := os.ReadFile(r.Path)
	if err != nil {
		return c.fail(r, start, fmt.Errorf("read file: %w", err))
	}

	doc, err := c.normalisers.Normalise(ctx, r.Path, data)
	if err != nil {
		return c.fail(r, start, fmt.Errorf("normalise: %w", err))
	}
	doc.Name = r.Name

	texts, metas, err := c.pipeline.Chunk(ctx, doc)
	if err != nil {
		return c.fail(r, start, err)
	}
	if len(texts) == 0 {
		return c.fail(r, start, fmt.Errorf("%w: no text extracted", domain.ErrChunking))
	}

	ids, err := c.gateway.AddChunks(ctx, texts, metas)
	if err != nil {
		return c.fail(r, start, fmt.Errorf("store chunks: %w", err))
	}

	r.State = domain.StateIndexed
	r.Chunks = len(ids)
	r.ChunkIDs = ids
	r.Duration = c.now().Sub(start)
	logger.Info("indexed %s: %d chunks in %s", r.Name, r.Chunks, r.Duration.Round(time.Millisecond))
	return r
}

func (c *IngestionCoordinator) fail(r domain.IngestReport, start time.Time, err error) domain.IngestReport {
	r.State = domain.StateFailed
	r.Err = err
	r.Duration = c.now().Sub(start)
	if errors.Is(err, context.Canceled) {
		logger.Debug("ingestion of %s cancelled", r.Name)
	} else {
		logger.Error("failed to ingest %s: %v", r.Name, err)
	}
	return r
}
