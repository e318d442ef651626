package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/tui"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for sercha-voice.

Type a question and press Enter. Both strategies run side by side and each
panel fills in as soon as its answer arrives.

Controls:
  Enter    - Ask
  Tab      - Switch between ask and search
  Esc      - Clear
  Ctrl+C   - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports, err := tuiPorts()
	if err != nil {
		return err
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

func tuiPorts() (*tui.Ports, error) {
	orch, err := orchestrator()
	if err != nil {
		return nil, err
	}
	search, err := searchService()
	if err != nil {
		return nil, err
	}
	ports := &tui.Ports{Orchestrator: orch, Search: search}
	if svc, err := settingsService(); err == nil {
		if settings, err := svc.Get(); err == nil {
			ports.TopK = settings.RAG.TopK
		}
	}
	return ports, nil
}
