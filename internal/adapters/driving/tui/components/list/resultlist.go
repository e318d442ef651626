// Package list renders retrieved chunks for the search view.
package list

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// linesPerResult is the height of one rendered entry: citation, heading
// and preview.
const linesPerResult = 3

// ResultList shows search results as numbered citations with a cursor.
type ResultList struct {
	styles  *styles.Styles
	results []domain.SearchResult
	cursor  int
	width   int
	height  int
}

// NewResultList creates an empty list. Nil styles use the defaults.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{styles: s, width: 80, height: 10}
}

// SetResults replaces the results and moves the cursor to the top.
func (r *ResultList) SetResults(results []domain.SearchResult) {
	r.results = results
	r.cursor = 0
}

// Results returns the current results.
func (r *ResultList) Results() []domain.SearchResult { return r.results }

// Selected returns the cursor index.
func (r *ResultList) Selected() int { return r.cursor }

// MoveUp moves the cursor up one result.
func (r *ResultList) MoveUp() {
	if r.cursor > 0 {
		r.cursor--
	}
}

// MoveDown moves the cursor down one result.
func (r *ResultList) MoveDown() {
	if r.cursor < len(r.results)-1 {
		r.cursor++
	}
}

// SetDimensions sets the area the list renders into.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// View renders the visible window of results.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	out := []string{r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))), ""}
	first, last := r.window()
	for i := first; i < last; i++ {
		out = append(out, r.entry(i))
	}
	return strings.Join(out, "\n")
}

// window returns the half-open range of results that fit, keeping the
// cursor visible.
func (r *ResultList) window() (int, int) {
	fit := (r.height - 4) / linesPerResult
	if fit < 1 {
		fit = 1
	}
	first := 0
	if r.cursor >= fit {
		first = r.cursor - fit + 1
	}
	return first, min(first+fit, len(r.results))
}

func (r *ResultList) entry(i int) string {
	res := r.results[i]
	meta := res.Chunk.Metadata

	source := meta.DocumentName
	if source == "" {
		source = "(unknown document)"
	}
	if meta.PageNumber > 0 {
		source += fmt.Sprintf(" p.%d", meta.PageNumber)
	}
	marker := "  "
	if i == r.cursor {
		marker = "> "
	}
	cite := fmt.Sprintf("%s[%d] %s", marker, i+1, clip(source, max(r.width-24, 10)))
	score := fmt.Sprintf("%.2f", res.Score)

	var head string
	if i == r.cursor {
		head = r.styles.Selected.Render(cite + "  " + score)
	} else {
		head = r.styles.Normal.Render(cite+"  ") + r.styles.Muted.Render(score)
	}

	heading := ""
	if meta.Heading != "" {
		heading = "\n" + r.styles.Subtitle.Render("      "+meta.Heading)
	}
	preview := clip(strings.Join(strings.Fields(res.Chunk.Content), " "), max(r.width-8, 20))
	return head + heading + "\n" + r.styles.Muted.Render("      "+preview)
}

// clip shortens s to n runes, ending in an ellipsis when cut.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
