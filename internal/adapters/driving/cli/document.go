package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var documentsJSON bool

var documentCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"document", "docs"},
	Short:   "Manage indexed documents",
	Long:    `List indexed documents or remove a document's chunks from the collection.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete every chunk of a document",
	Long: `Removes all chunks whose document name matches. The name is the
file name shown by 'documents list', not a path.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentDelete,
}

func init() {
	documentListCmd.Flags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	docs, err := documentService()
	if err != nil {
		return err
	}

	names, err := docs.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	chunks, err := docs.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}

	if documentsJSON {
		if names == nil {
			names = []string{}
		}
		data, err := json.MarshalIndent(map[string]any{"documents": names, "chunks": chunks}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(names) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}
	cmd.Printf("Documents (%d, %d chunks):\n", len(names), chunks)
	for _, name := range names {
		cmd.Printf("  %s\n", name)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	docs, err := documentService()
	if err != nil {
		return err
	}

	n, err := docs.Delete(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Deleted %s (%d chunks)\n", args[0], n)
	return nil
}
