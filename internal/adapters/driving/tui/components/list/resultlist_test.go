package list

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

func result(doc string, page int, heading, content string, score float64) domain.SearchResult {
	return domain.SearchResult{
		Chunk: domain.Chunk{
			Content: content,
			Metadata: domain.ChunkMetadata{
				DocumentName: doc,
				PageNumber:   page,
				Heading:      heading,
			},
		},
		Score: score,
	}
}

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		result("qrh.pdf", 3, "ENGINE FIRE ON GROUND", "Throttle idle.\nFuel cutoff.", 0.95),
		result("qrh.pdf", 7, "CABIN SMOKE", "Masks on.", 0.85),
		result("notes.md", 0, "", "Untitled notes", 0.75),
	}
}

func TestNewResultList_NilStyles(t *testing.T) {
	l := NewResultList(nil)

	assert.NotNil(t, l.styles)
	assert.Empty(t, l.Results())
	assert.Equal(t, 0, l.Selected())
}

func TestResultList_SetResultsResetsCursor(t *testing.T) {
	l := NewResultList(nil)
	l.SetResults(sampleResults())
	l.MoveDown()
	l.MoveDown()

	l.SetResults(sampleResults()[:2])

	assert.Len(t, l.Results(), 2)
	assert.Equal(t, 0, l.Selected())
}

func TestResultList_CursorStaysInRange(t *testing.T) {
	l := NewResultList(nil)
	l.SetResults(sampleResults())

	l.MoveUp()
	assert.Equal(t, 0, l.Selected())

	for range 5 {
		l.MoveDown()
	}
	assert.Equal(t, 2, l.Selected())

	l.MoveUp()
	assert.Equal(t, 1, l.Selected())
}

func TestResultList_ViewEmpty(t *testing.T) {
	assert.Contains(t, NewResultList(nil).View(), "No results")
}

func TestResultList_View(t *testing.T) {
	l := NewResultList(nil)
	l.SetDimensions(100, 40)
	l.SetResults(sampleResults())

	view := l.View()

	assert.Contains(t, view, "Results (3)")
	assert.Contains(t, view, "> [1] qrh.pdf p.3")
	assert.Contains(t, view, "[2] qrh.pdf p.7")
	assert.Contains(t, view, "0.95")
	assert.Contains(t, view, "ENGINE FIRE ON GROUND")
	assert.Contains(t, view, "Throttle idle. Fuel cutoff.")
	assert.Contains(t, view, "[3] notes.md")
	assert.NotContains(t, view, "notes.md p.")
}

func TestResultList_ViewFollowsCursor(t *testing.T) {
	l := NewResultList(nil)
	l.SetDimensions(80, 7) // one entry fits
	l.SetResults(sampleResults())
	l.MoveDown()
	l.MoveDown()

	view := l.View()

	assert.Contains(t, view, "notes.md")
	assert.NotContains(t, view, "qrh.pdf")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcdefg...", clip(strings.Repeat("abcdefghij", 2), 10))
}
