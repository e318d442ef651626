package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Index documents in a directory",
	Long: `Chunks, embeds and stores every supported document in the directory.
Documents whose name is already in the collection are skipped, so running
ingest twice does not duplicate chunks.

The directory defaults to the ingestion.dir setting.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Index a directory and keep watching it",
	Long: `Ingests the directory once, then indexes new documents as they are
created until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var reingestCmd = &cobra.Command{
	Use:   "reingest <file>",
	Short: "Replace the stored chunks of a document",
	Long: `Deletes every chunk stored for the file's document name and ingests
the file again. Use it after editing a document that was already indexed.`,
	Args: cobra.ExactArgs(1),
	RunE: runReingest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(reingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	dir, err := ingestionDir(args)
	if err != nil {
		return err
	}
	ingestion, err := ingestionService()
	if err != nil {
		return err
	}

	cmd.Printf("Ingesting %s\n", dir)
	summary, err := ingestion.Scan(cmd.Context(), dir)
	for _, r := range summary.Reports {
		printReport(cmd.OutOrStdout(), r)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("\n%d indexed (%d chunks), %d skipped, %d failed\n",
		summary.Indexed, summary.Chunks, summary.Skipped, summary.Failed)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir, err := ingestionDir(args)
	if err != nil {
		return err
	}
	ingestion, err := ingestionService()
	if err != nil {
		return err
	}
	s, err := requireServices()
	if err != nil {
		return err
	}
	watcher, err := s.Watcher()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	if err := ingestion.Watch(cmd.Context(), dir, watcher, func(r domain.IngestReport) {
		printReport(out, r)
	}); err != nil && cmd.Context().Err() == nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

func runReingest(cmd *cobra.Command, args []string) error {
	ingestion, err := ingestionService()
	if err != nil {
		return err
	}

	r := ingestion.Reingest(cmd.Context(), args[0])
	printReport(cmd.OutOrStdout(), r)
	if r.Err != nil {
		return fmt.Errorf("reingest failed: %w", r.Err)
	}
	return nil
}

func printReport(w io.Writer, r domain.IngestReport) {
	switch r.State {
	case domain.StateIndexed:
		fmt.Fprintf(w, "  indexed  %s (%d chunks)\n", r.Name, r.Chunks)
	case domain.StateSkipped:
		fmt.Fprintf(w, "  skipped  %s (already indexed)\n", r.Name)
	case domain.StateFailed:
		fmt.Fprintf(w, "  failed   %s: %v\n", r.Name, r.Err)
	default:
		fmt.Fprintf(w, "  %-8s %s\n", r.State, r.Name)
	}
}
