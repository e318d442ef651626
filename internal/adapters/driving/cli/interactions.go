package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

var (
	interactionsLimit int
	interactionsJSON  bool
)

var interactionsCmd = &cobra.Command{
	Use:   "interactions [query-id]",
	Short: "Show recorded answers",
	Long: `Shows the branch outcomes recorded in the interaction log.

With a query ID, shows both outcomes of that query. Without one, shows the
most recent outcomes. The memory log only holds outcomes of the current
process; configure interaction_log.backend=redis to keep them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInteractions,
}

func init() {
	interactionsCmd.Flags().IntVarP(&interactionsLimit, "limit", "n", 10, "number of recent outcomes")
	interactionsCmd.Flags().BoolVar(&interactionsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(interactionsCmd)
}

func runInteractions(cmd *cobra.Command, args []string) error {
	orch, err := orchestrator()
	if err != nil {
		return err
	}

	var recs []domain.InteractionRecord
	if len(args) == 1 {
		recs, err = orch.Interactions(cmd.Context(), args[0])
	} else {
		recs, err = orch.Recent(cmd.Context(), interactionsLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to read interactions: %w", err)
	}

	if interactionsJSON {
		return printJSON(cmd, recs)
	}
	if len(recs) == 0 {
		cmd.Println("No interactions recorded.")
		return nil
	}
	for _, r := range recs {
		printRecord(cmd.OutOrStdout(), r)
	}
	return nil
}

func printRecord(w io.Writer, r domain.InteractionRecord) {
	fmt.Fprintf(w, "%s  %s  %-5s %-13s %4dms  %s\n",
		r.RecordedAt.Format("2006-01-02 15:04:05"), r.QueryID, r.Branch, r.Status, r.ElapsedMS, r.Query)
	text := r.Answer
	if text == "" {
		text = r.Message
	}
	if text != "" {
		fmt.Fprintf(w, "    %s\n", snippet(text, 200))
	}
}
