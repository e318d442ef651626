package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

var (
	transcribeLanguage string
	transcribeAsk      bool
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Transcribe a recorded question",
	Long: `Sends the audio file to the transcription service and prints the text.

With --ask the transcription is answered right away by both strategies,
which is the full voice query flow.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List languages supported by the transcription service",
	Args:  cobra.NoArgs,
	RunE:  runLanguages,
}

func init() {
	transcribeCmd.Flags().StringVarP(&transcribeLanguage, "language", "l", "", "language code hint (e.g. es, en)")
	transcribeCmd.Flags().BoolVar(&transcribeAsk, "ask", false, "answer the transcribed question")
	transcribeCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read audio: %w", err)
	}

	svc, err := transcriptionService()
	if err != nil {
		return err
	}
	t, err := svc.Transcribe(cmd.Context(), domain.Audio{
		Filename: filepath.Base(path),
		Data:     data,
		Language: transcribeLanguage,
	})
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}
	cmd.Printf("Transcription: %s\n", t.Text)

	if !transcribeAsk {
		return nil
	}
	orch, err := orchestrator()
	if err != nil {
		return err
	}
	cmd.Println()
	out := cmd.OutOrStdout()
	res, err := orch.Ask(cmd.Context(), t.Text, func(o domain.BranchOutcome) { printOutcome(out, o) })
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	cmd.Printf("query id: %s\n", res.QueryID)
	return nil
}

func runLanguages(cmd *cobra.Command, _ []string) error {
	svc, err := transcriptionService()
	if err != nil {
		return err
	}
	langs, err := svc.Languages(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list languages: %w", err)
	}
	codes := make([]string, 0, len(langs))
	for code := range langs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		cmd.Printf("  %-6s %s\n", code, langs[code])
	}
	return nil
}
