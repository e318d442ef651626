package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui/views/search"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	askView    *ask.View
	searchView *search.View

	currentView messages.ViewType

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	app := &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		askView:     ask.NewView(s, km, ports.Orchestrator),
		currentView: messages.ViewAsk,
	}
	if ports.Search != nil {
		app.searchView = search.NewView(s, km, ports.Search, ports.TopK)
	}
	return app, nil
}

// WithContext sets the context queries and searches run under.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.askView.WithContext(ctx)
	if a.searchView != nil {
		a.searchView.WithContext(ctx)
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("sercha-voice"),
		a.askView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			return a, tea.Quit
		}
		if keymap.Matches(msg.String(), a.keymap.Switch) {
			return a, a.switchView(a.currentView.Next())
		}

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.Quit:
		return a, tea.Quit

	// Query events belong to the ask view whichever view is showing.
	case messages.OutcomeReceived, messages.AskCompleted:
		a.askView, cmd = a.askView.Update(msg)
		return a, cmd

	case messages.SearchCompleted:
		if a.searchView != nil {
			a.searchView, cmd = a.searchView.Update(msg)
		}
		return a, cmd
	}

	if a.currentView == messages.ViewSearch && a.searchView != nil {
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd
	}
	a.askView, cmd = a.askView.Update(msg)
	return a, cmd
}

// switchView activates a view. The search view is skipped when search is
// not wired.
func (a *App) switchView(v messages.ViewType) tea.Cmd {
	if v == messages.ViewSearch && a.searchView == nil {
		return nil
	}
	a.currentView = v
	if v == messages.ViewSearch {
		return a.searchView.Focus()
	}
	return a.askView.Focus()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if a.currentView == messages.ViewSearch && a.searchView != nil {
		return a.searchView.View()
	}
	return a.askView.View()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.askView.SetDimensions(width, height)
	if a.searchView != nil {
		a.searchView.SetDimensions(width, height)
	}
}

// AskView returns the ask view.
func (a *App) AskView() *ask.View {
	return a.askView
}

// SearchView returns the search view, or nil when search is not wired.
func (a *App) SearchView() *search.View {
	return a.searchView
}
