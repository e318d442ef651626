// Package ask provides the view that answers a question with both strategies.
package ask

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
)

// branches lists the strategies in the order pending panels are drawn.
var branches = []domain.Branch{domain.BranchRAG, domain.BranchAgent}

// sideBySideWidth is the terminal width from which panels share a row.
const sideBySideWidth = 110

// View is the ask screen: an input and one panel per branch.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	spinner   spinner.Model
	statusbar *status.Bar

	orchestrator driving.Orchestrator
	ctx          context.Context

	// events carries outcomes of the query in flight.
	events chan tea.Msg

	query    string
	queryID  string
	outcomes []domain.BranchOutcome
	asking   bool
	err      error

	width  int
	height int
	ready  bool
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, orchestrator driving.Orchestrator) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = s.Subtitle

	return &View{
		styles:       s,
		keymap:       km,
		input:        input.NewQueryInput(s, "Ask", "What should I do if..."),
		spinner:      sp,
		statusbar:    status.NewBar(s, km),
		orchestrator: orchestrator,
		ctx:          context.Background(),
		width:        80,
		height:       24,
	}
}

// WithContext sets the context queries run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.OutcomeReceived:
		v.outcomes = append(v.outcomes, msg.Outcome)
		v.queryID = msg.Outcome.QueryID
		v.statusbar.Show(status.StateAsking, fmt.Sprintf("%d/%d answers", len(v.outcomes), len(branches)))
		return v, v.listen()

	case messages.AskCompleted:
		v.handleCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.asking = false
		v.err = msg.Err
		v.statusbar.Show(status.StateError, msg.Err.Error())
		return v, nil

	case spinner.TickMsg:
		if !v.asking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Clear):
		if !v.asking {
			v.Reset()
		}
		return v, nil

	case keymap.Matches(msg.String(), v.keymap.Submit) && v.input.Focused():
		query := strings.TrimSpace(v.input.Value())
		if query == "" || v.asking {
			return v, nil
		}
		return v, v.ask(query)

	case keymap.Matches(msg.String(), v.keymap.NewQuery) && !v.input.Focused() && !v.asking:
		v.input.SetValue("")
		return v, v.input.Focus()
	}

	if !v.input.Focused() {
		return v, nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// ask starts the orchestrator in the background. Outcomes are delivered
// through events one at a time so each panel fills in on arrival.
func (v *View) ask(query string) tea.Cmd {
	if v.orchestrator == nil {
		return func() tea.Msg { return messages.ErrorOccurred{Err: ErrNoOrchestrator} }
	}

	v.query = query
	v.queryID = ""
	v.outcomes = nil
	v.err = nil
	v.asking = true
	v.input.Blur()
	v.statusbar.Show(status.StateAsking, "")

	// Buffered for every outcome plus completion so the sender never blocks
	// after the program has quit.
	events := make(chan tea.Msg, len(branches)+1)
	v.events = events
	ctx, orch := v.ctx, v.orchestrator
	go func() {
		defer close(events)
		res, err := orch.Ask(ctx, query, func(o domain.BranchOutcome) {
			events <- messages.OutcomeReceived{Outcome: o}
		})
		events <- messages.AskCompleted{Result: res, Err: err}
	}()

	return tea.Batch(v.listen(), v.spinner.Tick)
}

// listen waits for the next event of the query in flight.
func (v *View) listen() tea.Cmd {
	events := v.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (v *View) handleCompleted(msg messages.AskCompleted) {
	v.asking = false
	v.events = nil
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.Show(status.StateError, msg.Err.Error())
		return
	}
	summary := ""
	if msg.Result != nil {
		v.queryID = msg.Result.QueryID
		// Outcomes may be missing if the callback was not invoked.
		if len(v.outcomes) < len(msg.Result.Outcomes) {
			v.outcomes = msg.Result.Outcomes
		}
		summary = fmt.Sprintf("%d answers in %s",
			len(v.outcomes), msg.Result.Elapsed.Round(100*time.Millisecond))
	}
	v.statusbar.Show(status.StateResults, summary)
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{v.styles.Title.Render("Sercha Voice"), "", v.input.View(), ""}

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	if v.query != "" {
		header := "Question: " + v.query
		if v.queryID != "" {
			header += v.styles.Muted.Render("  (" + v.queryID + ")")
		}
		sections = append(sections, v.styles.Normal.Render(header), "", v.renderPanels())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderPanels draws arrived outcomes first, in arrival order, followed by
// a waiting panel for every branch still running.
func (v *View) renderPanels() string {
	panels := make([]string, 0, len(branches))
	seen := make(map[domain.Branch]bool, len(branches))
	for _, o := range v.outcomes {
		seen[o.Branch] = true
		panels = append(panels, v.renderOutcome(o))
	}
	if v.asking {
		for _, b := range branches {
			if !seen[b] {
				panels = append(panels, v.renderPending(b))
			}
		}
	}
	if len(panels) == 0 {
		return ""
	}

	if v.width >= sideBySideWidth {
		return lipgloss.JoinHorizontal(lipgloss.Top, panels...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

func (v *View) panelWidth() int {
	w := v.width - 4
	if v.width >= sideBySideWidth {
		w = v.width/len(branches) - 4
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (v *View) renderOutcome(o domain.BranchOutcome) string {
	header := fmt.Sprintf("%s  %s  %s",
		v.styles.Subtitle.Render(strings.ToUpper(string(o.Branch))),
		v.styles.ForStatus(o.Status).Render(string(o.Status)),
		v.styles.Muted.Render(o.Elapsed.Round(time.Millisecond).String()))

	body := o.Answer
	if body == "" {
		body = o.Message
	}
	lines := []string{header, "", v.styles.Normal.Render(body)}
	if n := len(o.Context); n > 0 {
		lines = append(lines, "", v.styles.Muted.Render(fmt.Sprintf("%d chunks retrieved", n)))
	}
	return v.styles.PanelFor(o.Status).Width(v.panelWidth()).Render(strings.Join(lines, "\n"))
}

func (v *View) renderPending(b domain.Branch) string {
	content := fmt.Sprintf("%s  %s %s",
		v.styles.Subtitle.Render(strings.ToUpper(string(b))),
		v.spinner.View(),
		v.styles.Muted.Render("waiting for answer"))
	return v.styles.Panel.Width(v.panelWidth()).Render(content)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
}

// Reset clears the question and answers and focuses the input.
func (v *View) Reset() {
	v.input.SetValue("")
	v.input.Focus()
	v.query = ""
	v.queryID = ""
	v.outcomes = nil
	v.err = nil
	v.statusbar.Clear()
}

// Focus gives the input focus unless a query is running.
func (v *View) Focus() tea.Cmd {
	if v.asking {
		return nil
	}
	return v.input.Focus()
}

// Asking reports whether a query is in flight.
func (v *View) Asking() bool {
	return v.asking
}

// Query returns the question last asked.
func (v *View) Query() string {
	return v.query
}

// QueryID returns the identifier of the last query.
func (v *View) QueryID() string {
	return v.queryID
}

// Outcomes returns the outcomes received so far in arrival order.
func (v *View) Outcomes() []domain.BranchOutcome {
	return v.outcomes
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.input.Focused()
}

// SetQuery sets the input value.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}
