package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

var (
	queryJSON      bool
	agentShowSteps bool
)

var ragCmd = &cobra.Command{
	Use:   "rag [query]",
	Short: "Answer a question with retrieval and one synthesis call",
	Long: `Extracts a heading from the question, retrieves matching chunks and asks
the language model for a structured answer.

The query is read from stdin when omitted.`,
	RunE: runRAG,
}

var agentCmd = &cobra.Command{
	Use:   "agent [query]",
	Short: "Answer a question with the tool-calling agent",
	Long: `Runs a Thought/Action/Observation loop in which the model searches the
collection as often as it needs before committing to an answer.

The query is read from stdin when omitted.`,
	RunE: runAgent,
}

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Answer a question with both strategies concurrently",
	Long: `Runs the retrieval engine and the agent side by side and prints each
answer as soon as it arrives. A branch that exceeds its timeout is reported
as timed out without delaying the other.

The query is read from stdin when omitted.`,
	RunE: runAsk,
}

func init() {
	for _, c := range []*cobra.Command{ragCmd, agentCmd, askCmd} {
		c.Flags().BoolVar(&queryJSON, "json", false, "output the full result as JSON")
		rootCmd.AddCommand(c)
	}
	agentCmd.Flags().BoolVar(&agentShowSteps, "steps", false, "print intermediate steps")
}

// readQuery joins the arguments or, when there are none, reads stdin unless
// it is an interactive terminal.
func readQuery(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errors.New("no query given: pass it as an argument or pipe it on stdin")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read query from stdin: %w", err)
	}
	query := strings.TrimSpace(string(data))
	if query == "" {
		return "", errors.New("no query given: pass it as an argument or pipe it on stdin")
	}
	return query, nil
}

func runRAG(cmd *cobra.Command, args []string) error {
	query, err := readQuery(cmd, args)
	if err != nil {
		return err
	}
	rag, err := ragEngine()
	if err != nil {
		return err
	}

	res, err := rag.Execute(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("rag failed: %w", err)
	}
	if queryJSON {
		return printJSON(cmd, res)
	}

	if res.Heading != "" {
		cmd.Printf("Heading: %s\n", res.Heading)
	}
	switch res.Outcome {
	case domain.OutcomeNoContext:
		cmd.Println(res.Answer.String())
		return nil
	case domain.OutcomeMismatch:
		cmd.Printf("%s (%d chunks retrieved)\n", res.Answer.String(), len(res.Context))
		return nil
	}
	cmd.Println()
	cmd.Println(res.Answer.String())
	cmd.Printf("\n(%d chunks retrieved)\n", len(res.Context))
	return nil
}

func runAgent(cmd *cobra.Command, args []string) error {
	query, err := readQuery(cmd, args)
	if err != nil {
		return err
	}
	agent, err := agentEngine()
	if err != nil {
		return err
	}

	res, err := agent.Execute(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("agent failed: %w", err)
	}
	if queryJSON {
		return printJSON(cmd, res)
	}

	if agentShowSteps {
		for i, step := range res.Steps {
			cmd.Printf("Step %d\n", i+1)
			if step.Thought != "" {
				cmd.Printf("  Thought: %s\n", step.Thought)
			}
			if step.Action != "" {
				cmd.Printf("  Action: %s %s\n", step.Action, step.ActionInput)
			}
			cmd.Printf("  Observation: %s\n", snippet(step.Observation, 200))
		}
		cmd.Println()
	}
	cmd.Println(res.Output)
	if res.Stopped {
		cmd.Printf("(stopped after %d steps)\n", len(res.Steps))
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	query, err := readQuery(cmd, args)
	if err != nil {
		return err
	}
	orch, err := orchestrator()
	if err != nil {
		return err
	}

	var onOutcome func(domain.BranchOutcome)
	if !queryJSON {
		out := cmd.OutOrStdout()
		onOutcome = func(o domain.BranchOutcome) { printOutcome(out, o) }
	}

	res, err := orch.Ask(cmd.Context(), query, onOutcome)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	if queryJSON {
		return printJSON(cmd, res)
	}
	cmd.Printf("query id: %s\n", res.QueryID)
	return nil
}

func printOutcome(w io.Writer, o domain.BranchOutcome) {
	fmt.Fprintf(w, "== %s [%s, %s]\n", strings.ToUpper(string(o.Branch)), o.Status, o.Elapsed.Round(time.Millisecond))
	if o.Answer != "" {
		fmt.Fprintln(w, o.Answer)
	} else {
		fmt.Fprintln(w, o.Message)
	}
	fmt.Fprintln(w)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
