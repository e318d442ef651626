package plaintext

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".txt"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise converts a text file to a document. Form feeds separate pages;
// a file without them is a single page.
func (n *Normaliser) Normalise(_ context.Context, path string, data []byte) (*domain.Document, error) {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")

	doc := &domain.Document{
		Name:  filepath.Base(path),
		Path:  path,
		Pages: SplitPages(content),
		Metadata: map[string]any{
			"format": "text",
			"title":  extractTitle(path),
		},
	}

	return doc, nil
}

// SplitPages splits text on form feeds into numbered pages, dropping
// blank pages but keeping the original numbering.
func SplitPages(content string) []domain.Page {
	var pages []domain.Page
	for i, text := range strings.Split(content, "\f") {
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, domain.Page{Number: i + 1, Text: text})
	}
	return pages
}

// extractTitle extracts a human-readable title from a path.
func extractTitle(path string) string {
	filename := filepath.Base(path)

	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}

	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return filename
}
