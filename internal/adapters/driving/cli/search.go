package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

var (
	searchLimit   int
	searchHeading string
	searchFilters []string
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed chunks",
	Long: `Embeds the query and returns the nearest chunks from the collection.

--heading keeps only chunks whose text contains the heading, the same
filter the answer engines use. --filter requires equality on a metadata
key and may be repeated, for example --filter document_name=qrh.pdf.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultTopK, "maximum number of results")
	searchCmd.Flags().StringVar(&searchHeading, "heading", "", "only return chunks containing this heading")
	searchCmd.Flags().StringArrayVar(&searchFilters, "filter", nil, "metadata filter key=value (repeatable)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchOutput is the JSON form of a result.
type searchOutput struct {
	Document string  `json:"document"`
	Page     int     `json:"page"`
	Heading  string  `json:"heading"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	search, err := searchService()
	if err != nil {
		return err
	}

	filter, err := parseFilters(searchFilters)
	if err != nil {
		return err
	}
	req := domain.SearchRequest{
		Text:           args[0],
		TopK:           searchLimit,
		MetadataFilter: filter,
		ReturnScore:    true,
	}
	if h := strings.TrimSpace(searchHeading); h != "" {
		req.ContentFilter = domain.Contains(h)
	}

	results, err := search.Search(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

// parseFilters turns key=value pairs into a metadata filter. Integer values
// are matched as numbers so page_number=3 works.
func parseFilters(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filter := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: expected key=value", pair)
		}
		if n, err := strconv.Atoi(value); err == nil {
			filter[key] = n
			continue
		}
		filter[key] = value
	}
	return filter, nil
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchOutput, 0, len(results))
	for _, r := range results {
		out = append(out, searchOutput{
			Document: r.Chunk.Metadata.DocumentName,
			Page:     r.Chunk.Metadata.PageNumber,
			Heading:  r.Chunk.Metadata.Heading,
			Score:    r.Score,
			Content:  r.Chunk.Content,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		meta := r.Chunk.Metadata
		cmd.Printf("  [%d] %s p.%d (%.2f)\n", i+1, meta.DocumentName, meta.PageNumber, r.Score)
		if meta.Heading != "" {
			cmd.Printf("      %s\n", meta.Heading)
		}
		cmd.Printf("      %s\n", snippet(r.Chunk.Content, 160))
		cmd.Println()
	}
	return nil
}

// snippet collapses whitespace and truncates to n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
