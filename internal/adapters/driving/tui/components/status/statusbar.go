// Package status renders the one-line status bar under each view.
package status

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/styles"
)

// State is what the view is doing.
type State string

const (
	StateReady     State = "ready"
	StateAsking    State = "asking"
	StateSearching State = "searching"
	StateError     State = "error"
	StateResults   State = "results"
)

// fallback is shown when a state has no text of its own.
var fallback = map[State]string{
	StateReady:     "Ready",
	StateAsking:    "Asking...",
	StateSearching: "Searching...",
	StateError:     "Error",
	StateResults:   "Done",
}

// Bar shows the current state on the left and key hints on the right.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	state  State
	text   string
	width  int
}

// NewBar creates a status bar. Nil arguments use the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

// Show switches to state with text. Empty text shows the state's default
// label.
func (b *Bar) Show(state State, text string) {
	b.state = state
	b.text = text
}

// Clear returns the bar to ready.
func (b *Bar) Clear() { b.Show(StateReady, "") }

// State returns the current state.
func (b *Bar) State() State { return b.state }

// SetWidth sets the rendered width.
func (b *Bar) SetWidth(width int) { b.width = width }

// View renders the bar.
func (b *Bar) View() string {
	left := b.label()
	right := b.styles.Muted.Render(hints(b.bindings()))

	gap := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) label() string {
	text := b.text
	if text == "" {
		text = fallback[b.state]
	}
	switch b.state {
	case StateError:
		if b.text != "" {
			text = "Error: " + text
		}
		return b.styles.Error.Render(text)
	case StateResults:
		return b.styles.Normal.Render(text)
	default:
		return b.styles.Muted.Render(text)
	}
}

func (b *Bar) bindings() []key.Binding {
	if b.state == StateResults {
		return b.keymap.ResultsHelp()
	}
	return b.keymap.ShortHelp()
}

func hints(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, " | ")
}
