package markdown

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	codeFence   = regexp.MustCompile("(?m)^```.*$")
	inlineCode  = regexp.MustCompile("`([^`]+)`")
	images      = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	blockquote  = regexp.MustCompile(`(?m)^>\s*`)
	hr          = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkers = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	emphasis    = regexp.MustCompile(`(\*\*|__|\*)([^*_\n]+)(\*\*|__|\*)`)
	multiBlank  = regexp.MustCompile(`\n{3,}`)
)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Format normaliser, higher than plaintext
}

// Normalise converts a markdown file to a single-page document.
// Heading markers are kept so the chunker can split on them.
func (n *Normaliser) Normalise(_ context.Context, path string, data []byte) (*domain.Document, error) {
	raw := strings.ReplaceAll(string(data), "\r\n", "\n")

	doc := &domain.Document{
		Name: filepath.Base(path),
		Path: path,
		Metadata: map[string]any{
			"format": "markdown",
			"title":  extractMarkdownTitle(raw, path),
		},
	}

	if content := simplify(raw); content != "" {
		doc.Pages = []domain.Page{{Number: 1, Text: content}}
	}

	return doc, nil
}

// extractMarkdownTitle extracts a title from the first H1 or falls back to filename.
func extractMarkdownTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}

	filename := filepath.Base(path)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

// simplify removes inline markdown formatting while keeping headings,
// numbered steps and code block contents.
func simplify(content string) string {
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = blockquote.ReplaceAllString(content, "")
	content = hr.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = multiBlank.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
