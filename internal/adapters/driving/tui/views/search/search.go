// Package search provides the retrieval browsing view for the TUI.
package search

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
)

// mode is what keys act on.
type mode int

const (
	typing   mode = iota // keys edit the query
	browsing             // keys move through results
	reading              // the selected chunk is shown in full
)

// View lets the user run a raw retrieval and inspect the chunks that RAG
// would see.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar

	searchService driving.SearchService
	topK          int
	ctx           context.Context

	mode   mode
	err    error
	width  int
	height int
	ready  bool
}

// NewView creates a search view returning up to topK chunks per query.
// Nil styles or keymap use the defaults.
func NewView(s *styles.Styles, km *keymap.KeyMap, searchService driving.SearchService, topK int) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQueryInput(s, "Search", "Search the indexed procedures..."),
		list:          list.NewResultList(s),
		statusbar:     status.NewBar(s, km),
		searchService: searchService,
		topK:          topK,
		ctx:           context.Background(),
		width:         80,
		height:        24,
	}
}

// WithContext sets the context searches run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg.String(), msg)

	case messages.SearchCompleted:
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.err = nil
		v.list.SetResults(msg.Results)
		v.statusbar.Show(status.StateResults, fmt.Sprintf("%d results", len(msg.Results)))
		v.browse()
		return v, nil

	case messages.ErrorOccurred:
		v.fail(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(k string, msg tea.KeyMsg) (*View, tea.Cmd) {
	if keymap.Matches(k, v.keymap.Clear) {
		v.Reset()
		return v, nil
	}

	switch v.mode {
	case typing:
		if !keymap.Matches(k, v.keymap.Submit) {
			var cmd tea.Cmd
			v.input, cmd = v.input.Update(msg)
			return v, cmd
		}
		query := strings.TrimSpace(v.input.Value())
		if query == "" {
			return v, nil
		}
		v.statusbar.Show(status.StateSearching, "")
		v.browse()
		return v, v.search(query)

	case reading:
		if keymap.Matches(k, v.keymap.Submit) {
			v.mode = browsing
		}
		return v, nil
	}

	switch {
	case keymap.Matches(k, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(k, v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(k, v.keymap.Submit):
		if len(v.list.Results()) > 0 {
			v.mode = reading
		}
	case keymap.Matches(k, v.keymap.NewQuery):
		v.input.SetValue("")
		return v, v.Focus()
	}
	return v, nil
}

func (v *View) browse() {
	v.mode = browsing
	v.input.Blur()
}

func (v *View) fail(err error) {
	v.err = err
	v.statusbar.Show(status.StateError, err.Error())
}

// search runs the query off the update loop. Scores are always requested
// so the list can show them.
func (v *View) search(query string) tea.Cmd {
	svc, ctx, topK := v.searchService, v.ctx, v.topK
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoSearchService}
		}
		results, err := svc.Search(ctx, domain.SearchRequest{Text: query, TopK: topK, ReturnScore: true})
		return messages.SearchCompleted{Results: results, Err: err}
	}
}

func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{v.styles.Title.Render("Sercha Voice"), "", v.input.View(), ""}
	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	if v.mode == reading {
		sections = append(sections, v.renderChunk())
	} else {
		sections = append(sections, v.list.View())
	}
	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderChunk shows the selected chunk as the generator would receive it.
func (v *View) renderChunk() string {
	r := v.list.Results()[v.list.Selected()]
	meta := r.Chunk.Metadata

	source := meta.DocumentName
	if meta.PageNumber > 0 {
		source += fmt.Sprintf(", page %d", meta.PageNumber)
	}
	lines := []string{v.styles.Subtitle.Render(source)}
	if meta.Heading != "" {
		lines = append(lines, v.styles.Muted.Render(meta.Heading))
	}
	lines = append(lines, "",
		v.styles.Normal.Width(max(v.width-4, 20)).Render(r.Chunk.Content), "",
		v.styles.Muted.Render(fmt.Sprintf("score %.3f  ·  enter to go back", r.Score)))
	return v.styles.Panel.Render(strings.Join(lines, "\n"))
}

// SetDimensions sizes the view. The list gets what is left after the
// header, input and status bar.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10)
	v.statusbar.SetWidth(width)
}

func (v *View) Ready() bool                    { return v.ready }
func (v *View) Query() string                  { return v.input.Value() }
func (v *View) SetQuery(query string)          { v.input.SetValue(query) }
func (v *View) Results() []domain.SearchResult { return v.list.Results() }
func (v *View) SelectedIndex() int             { return v.list.Selected() }
func (v *View) Err() error                     { return v.err }
func (v *View) InputFocused() bool             { return v.mode == typing }
func (v *View) Reading() bool                  { return v.mode == reading }

// Focus returns to typing.
func (v *View) Focus() tea.Cmd {
	v.mode = typing
	return v.input.Focus()
}

// Reset clears the query and results and returns to typing.
func (v *View) Reset() {
	_ = v.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.err = nil
	v.statusbar.Clear()
}
