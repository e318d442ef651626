package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/normalisers"
	"github.com/custodia-labs/sercha-voice/internal/postprocessors"
	"github.com/custodia-labs/sercha-voice/internal/postprocessors/chunker"
	"github.com/custodia-labs/sercha-voice/internal/postprocessors/enrich"
)

// fakeWatcher delivers events pushed by the test.
type fakeWatcher struct {
	events  chan domain.FileEvent
	dir     string
	onWatch func()
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan domain.FileEvent, 8)}
}

func (w *fakeWatcher) Watch(_ context.Context, dir string) (<-chan domain.FileEvent, error) {
	w.dir = dir
	if w.onWatch != nil {
		w.onWatch()
	}
	return w.events, nil
}

func (w *fakeWatcher) Close() error { return nil }

func newTestCoordinator() (*IngestionCoordinator, *VectorStoreGateway, *faultyBackend) {
	g, backend, _ := newTestGateway()
	pipeline := postprocessors.NewPipeline(chunker.New(), enrich.New())
	return NewIngestionCoordinator(g, normalisers.NewDefaultRegistry(), pipeline, []string{".txt", ".MD"}), g, backend
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIngestionCoordinator_Accepts(t *testing.T) {
	c, _, _ := newTestCoordinator()

	assert.True(t, c.Accepts("/docs/manual.txt"))
	assert.True(t, c.Accepts("/docs/README.md"))
	assert.True(t, c.Accepts("notes.TXT"))
	assert.False(t, c.Accepts("/docs/manual.pdf"))
	assert.False(t, c.Accepts("/docs/Makefile"))
}

func TestIngestionCoordinator_DefaultExtensions(t *testing.T) {
	g, _, _ := newTestGateway()
	c := NewIngestionCoordinator(g, normalisers.NewDefaultRegistry(), postprocessors.NewPipeline(chunker.New()), nil)

	for _, ext := range domain.DefaultExtensions() {
		assert.True(t, c.Accepts("file"+ext), ext)
	}
}

func TestIngestionCoordinator_IngestFile(t *testing.T) {
	c, g, _ := newTestCoordinator()
	dir := t.TempDir()
	path := writeFile(t, dir, "fire.txt", "ENGINE FIRE ON GROUND\n\nThrottle to idle.\n\nCABIN SMOKE\n\nMasks on.")
	ctx := context.Background()

	r := c.IngestFile(ctx, path)

	require.NoError(t, r.Err)
	assert.Equal(t, domain.StateIndexed, r.State)
	assert.Equal(t, "fire.txt", r.Name)
	assert.Equal(t, 2, r.Chunks)
	assert.Len(t, r.ChunkIDs, 2)

	names, err := g.DocumentNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fire.txt"}, names)

	results, err := g.Search(ctx, domain.SearchRequest{Text: "smoke", TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "CABIN SMOKE", results[0].Chunk.Metadata.Heading)
	assert.Equal(t, "fire.txt", results[0].Chunk.Metadata.DocumentName)
}

func TestIngestionCoordinator_IngestFile_SkipsKnownDocument(t *testing.T) {
	c, _, backend := newTestCoordinator()
	path := writeFile(t, t.TempDir(), "fire.txt", "ENGINE FIRE\n\nThrottle to idle.")
	ctx := context.Background()

	first := c.IngestFile(ctx, path)
	require.Equal(t, domain.StateIndexed, first.State)

	// A changed file under the same name is still skipped.
	writeFile(t, filepath.Dir(path), "fire.txt", "ENGINE FIRE\n\nSomething new.")
	second := c.IngestFile(ctx, path)

	assert.Equal(t, domain.StateSkipped, second.State)
	assert.Zero(t, second.Chunks)
	n, _ := backend.Count(ctx)
	assert.Equal(t, 1, n)
}

// threePageManual is a form-feed separated document with five sections.
const threePageManual = "ENGINE FIRE ON GROUND\n\nThrottle to idle.\n\nCABIN SMOKE\n\nMasks on.\f" +
	"FUEL LEAK\n\nPumps off.\n\nBIRD STRIKE\n\nLand as soon as practical.\f" +
	"HYDRAULIC FAILURE\n\nUse alternate gear extension."

func TestIngestionCoordinator_ThreePageDocument_RerunKeepsFiveChunks(t *testing.T) {
	c, _, backend := newTestCoordinator()
	dir := t.TempDir()
	path := writeFile(t, dir, "qrh.txt", threePageManual)
	ctx := context.Background()

	first := c.IngestFile(ctx, path)
	require.NoError(t, first.Err)
	require.Equal(t, 5, first.Chunks)

	pages := map[int]int{}
	require.NoError(t, backend.ScanMetadata(ctx, func(_ string, meta map[string]any) error {
		m := domain.ParseChunkMetadata(meta)
		pages[m.PageNumber]++
		return nil
	}))
	assert.Equal(t, map[int]int{1: 2, 2: 2, 3: 1}, pages)

	again := c.IngestFile(ctx, path)
	assert.Equal(t, domain.StateSkipped, again.State)

	summary, err := c.Scan(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)

	n, err := backend.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestIngestionCoordinator_EngineFireProcedureIsRetrieved(t *testing.T) {
	c, g, _ := newTestCoordinator()
	path := writeFile(t, t.TempDir(), "qrh.txt", threePageManual)
	ctx := context.Background()
	require.Equal(t, domain.StateIndexed, c.IngestFile(ctx, path).State)

	results, err := g.Search(ctx, domain.SearchRequest{Text: "engine fire procedure", TopK: 1, ReturnScore: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ENGINE FIRE ON GROUND", results[0].Chunk.Metadata.Heading)
	assert.Greater(t, results[0].Score, 0.5)

	rag := NewRAGEngine(g, ragLLM("ENGINE FIRE ON GROUND", "Throttle to idle.", nil), testPrompts(), domain.RAGSettings{TopK: 3})
	res, err := rag.Execute(ctx, "engine fire procedure")
	require.NoError(t, err)
	require.NotEmpty(t, res.Context)
	assert.Contains(t, res.Context[0].Content, "ENGINE FIRE ON GROUND")
	assert.Greater(t, res.Context[0].Score, 0.5)
}

func TestIngestionCoordinator_IngestFile_Failures(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		c, _, _ := newTestCoordinator()
		r := c.IngestFile(context.Background(), filepath.Join(dir, "missing.txt"))
		assert.Equal(t, domain.StateFailed, r.State)
		assert.Error(t, r.Err)
	})

	t.Run("unsupported type", func(t *testing.T) {
		c, _, _ := newTestCoordinator()
		path := writeFile(t, dir, "data.csv", "a,b")
		r := c.IngestFile(context.Background(), path)
		assert.Equal(t, domain.StateFailed, r.State)
		assert.ErrorIs(t, r.Err, domain.ErrUnsupportedType)
	})

	t.Run("no text", func(t *testing.T) {
		c, _, backend := newTestCoordinator()
		path := writeFile(t, dir, "blank.txt", "  \n\n  ")
		r := c.IngestFile(context.Background(), path)
		assert.Equal(t, domain.StateFailed, r.State)
		assert.ErrorIs(t, r.Err, domain.ErrChunking)
		n, _ := backend.Count(context.Background())
		assert.Zero(t, n)
	})

	t.Run("store error", func(t *testing.T) {
		c, _, backend := newTestCoordinator()
		backend.insertErr = assert.AnError
		path := writeFile(t, dir, "fire.txt", "ENGINE FIRE\n\nThrottle to idle.")
		r := c.IngestFile(context.Background(), path)
		assert.Equal(t, domain.StateFailed, r.State)
		assert.ErrorIs(t, r.Err, domain.ErrBackendUnavailable)
	})

	t.Run("scan error", func(t *testing.T) {
		c, _, backend := newTestCoordinator()
		backend.scanErr = assert.AnError
		path := writeFile(t, dir, "fire.txt", "ENGINE FIRE\n\nThrottle to idle.")
		r := c.IngestFile(context.Background(), path)
		assert.Equal(t, domain.StateFailed, r.State)
		assert.ErrorIs(t, r.Err, assert.AnError)
	})
}

func TestIngestionCoordinator_Scan(t *testing.T) {
	c, _, _ := newTestCoordinator()
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "FUEL LEAK\n\nPumps off.")
	writeFile(t, dir, "a.md", "# Engine fire\n\nThrottle to idle.")
	writeFile(t, dir, "ignored.csv", "x")
	writeFile(t, dir, "empty.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0o700))
	writeFile(t, filepath.Join(dir, "nested.txt"), "deep.txt", "NOT SCANNED\n\ntext")

	summary, err := c.Scan(context.Background(), dir)

	require.NoError(t, err)
	require.Len(t, summary.Reports, 3)
	assert.Equal(t, "a.md", summary.Reports[0].Name)
	assert.Equal(t, "b.txt", summary.Reports[1].Name)
	assert.Equal(t, "empty.txt", summary.Reports[2].Name)
	assert.Equal(t, 2, summary.Indexed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Chunks)

	again, err := c.Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Skipped)
	assert.Zero(t, again.Indexed)
}

func TestIngestionCoordinator_Scan_MissingDir(t *testing.T) {
	c, _, _ := newTestCoordinator()

	_, err := c.Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))

	assert.Error(t, err)
}

func TestIngestionCoordinator_Scan_Cancelled(t *testing.T) {
	c, _, _ := newTestCoordinator()
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "ENGINE FIRE\n\nThrottle.")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := c.Scan(ctx, dir)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summary.Reports)
}

func TestIngestionCoordinator_Reingest(t *testing.T) {
	c, g, backend := newTestCoordinator()
	dir := t.TempDir()
	path := writeFile(t, dir, "fire.txt", "ENGINE FIRE\n\nThrottle to idle.\n\nCABIN SMOKE\n\nMasks on.")
	ctx := context.Background()
	require.Equal(t, domain.StateIndexed, c.IngestFile(ctx, path).State)

	writeFile(t, dir, "fire.txt", "ENGINE FIRE\n\nThrottle to idle and pull the handle.")
	r := c.Reingest(ctx, path)

	require.NoError(t, r.Err)
	assert.Equal(t, domain.StateIndexed, r.State)
	assert.Equal(t, 1, r.Chunks)
	n, _ := backend.Count(ctx)
	assert.Equal(t, 1, n)

	results, err := g.Search(ctx, domain.SearchRequest{Text: "fire", TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Chunk.Content, "pull the handle")
}

func TestIngestionCoordinator_Watch(t *testing.T) {
	c, g, _ := newTestCoordinator()
	c.SetSettleDelay(20 * time.Millisecond)
	dir := t.TempDir()
	writeFile(t, dir, "existing.txt", "ENGINE FIRE\n\nThrottle to idle.")
	w := newFakeWatcher()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reports := make(chan domain.IngestReport, 8)
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, dir, w, func(r domain.IngestReport) { reports <- r })
	}()

	first := <-reports
	assert.Equal(t, "existing.txt", first.Name)
	assert.Equal(t, domain.StateIndexed, first.State)

	created := writeFile(t, dir, "smoke.txt", "CABIN SMOKE\n\nMasks on.")
	ignored := writeFile(t, dir, "image.png", "x")
	w.events <- domain.FileEvent{Path: ignored, Op: domain.FileCreated}
	w.events <- domain.FileEvent{Path: filepath.Join(dir, "sub"), Op: domain.FileCreated, IsDir: true}
	w.events <- domain.FileEvent{Path: created, Op: domain.FileWritten}
	w.events <- domain.FileEvent{Path: created, Op: domain.FileCreated}

	select {
	case r := <-reports:
		assert.Equal(t, "smoke.txt", r.Name)
		assert.Equal(t, domain.StateIndexed, r.State)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watched file")
	}

	close(w.events)
	require.NoError(t, <-done)
	assert.Equal(t, dir, w.dir)

	names, err := g.DocumentNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"existing.txt", "smoke.txt"}, names)
	assert.Empty(t, reports)
}

func TestIngestionCoordinator_Watch_ScansAfterRegistering(t *testing.T) {
	c, _, _ := newTestCoordinator()
	dir := t.TempDir()
	w := newFakeWatcher()
	// A file landing while the watcher registers produces no event.
	w.onWatch = func() { writeFile(t, dir, "late.txt", "ENGINE FIRE\n\nThrottle to idle.") }

	var reports []domain.IngestReport
	close(w.events)
	require.NoError(t, c.Watch(context.Background(), dir, w, func(r domain.IngestReport) {
		reports = append(reports, r)
	}))

	require.Len(t, reports, 1)
	assert.Equal(t, "late.txt", reports[0].Name)
	assert.Equal(t, domain.StateIndexed, reports[0].State)
}

func TestIngestionCoordinator_Watch_WaitsForWritesToSettle(t *testing.T) {
	c, _, backend := newTestCoordinator()
	c.SetSettleDelay(100 * time.Millisecond)
	dir := t.TempDir()
	writeFile(t, dir, "existing.txt", "CABIN SMOKE\n\nMasks on.")
	w := newFakeWatcher()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reports := make(chan domain.IngestReport, 8)
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, dir, w, func(r domain.IngestReport) { reports <- r })
	}()

	require.Equal(t, "existing.txt", (<-reports).Name)

	// The copy starts empty and is completed by a later write.
	path := writeFile(t, dir, "qrh.txt", "")
	w.events <- domain.FileEvent{Path: path, Op: domain.FileCreated}
	writeFile(t, dir, "qrh.txt", threePageManual)
	w.events <- domain.FileEvent{Path: path, Op: domain.FileWritten}

	select {
	case r := <-reports:
		require.NoError(t, r.Err)
		assert.Equal(t, domain.StateIndexed, r.State)
		assert.Equal(t, 5, r.Chunks)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watched file")
	}

	// Later writes to an indexed file are not new files.
	w.events <- domain.FileEvent{Path: path, Op: domain.FileWritten}
	close(w.events)
	require.NoError(t, <-done)
	assert.Empty(t, reports)
	n, _ := backend.Count(context.Background())
	assert.Equal(t, 6, n)
}

func TestIngestionCoordinator_Watch_StopsOnCancel(t *testing.T) {
	c, _, _ := newTestCoordinator()
	w := newFakeWatcher()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx, t.TempDir(), w, nil) }()
	cancel()

	select {
	case err := <-done:
		// Cancellation may land during the initial scan or the event loop.
		if err != nil {
			assert.ErrorIs(t, err, context.Canceled)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
