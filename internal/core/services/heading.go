package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-voice/internal/logger"
)

// maxHeadingLen bounds an extracted heading; longer model output is treated
// as a failed extraction.
const maxHeadingLen = 120

// HeadingExtractor asks the model for the procedure heading a query is about.
type HeadingExtractor struct {
	llm driven.LLMService
}

// NewHeadingExtractor creates a heading extractor.
func NewHeadingExtractor(llm driven.LLMService) *HeadingExtractor {
	return &HeadingExtractor{llm: llm}
}

// Extract fills {query} in template and returns the model's heading.
// It never fails: errors are logged and yield "".
func (h *HeadingExtractor) Extract(ctx context.Context, query, template string) string {
	prompt := renderPrompt(template, map[string]string{"query": query})

	out, err := h.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0, MaxTokens: 32})
	if err != nil {
		logger.Warn("heading extraction failed: %v", err)
		return ""
	}

	heading := cleanHeading(out)
	if len(heading) > maxHeadingLen {
		logger.Warn("heading extraction returned %d characters, ignoring", len(heading))
		return ""
	}
	logger.Debug("extracted heading %q", heading)
	return heading
}

// cleanHeading keeps the first non-empty line and strips a "Heading:"
// label, surrounding quotes and trailing punctuation.
func cleanHeading(s string) string {
	line := ""
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	if i := strings.Index(line, ":"); i >= 0 && strings.EqualFold(strings.TrimSpace(line[:i]), "heading") {
		line = strings.TrimSpace(line[i+1:])
	}
	return strings.TrimSpace(strings.Trim(line, "\"'`“”‘’ *.,;:!?"))
}

// renderPrompt replaces {name} placeholders with their values. Unknown
// placeholders are left as they are.
func renderPrompt(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
