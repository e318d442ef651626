// Package chunker provides a structure-aware, token-bounded chunking processor.
package chunker

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// DefaultMaxTokens is the default token budget per chunk.
const DefaultMaxTokens = 512

// maxHeadingLen bounds the length of a line treated as a heading.
const maxHeadingLen = 80

var (
	markdownHeading = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*#*$`)
	labelHeading    = regexp.MustCompile(`(?i)^(procedure|procedimiento|section|secci[oó]n|chapter|cap[ií]tulo|checklist)\s*:\s*\S`)
	numberedHeading = regexp.MustCompile(`^\d+\.\d+(\.\d+)*\s+\S`)
)

// Processor splits each page into sections at detected headings and packs
// the paragraphs of a section into chunks that fit the token budget.
// It implements the PostProcessor interface.
type Processor struct {
	maxTokens int
	count     func(string) int
	now       func() time.Time
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxTokens sets the token budget per chunk.
func WithMaxTokens(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithTokenizer measures chunks with the given tokenizer instead of
// counting whitespace-separated words.
func WithTokenizer(t driven.Tokenizer) Option {
	return func(p *Processor) {
		if t != nil {
			p.count = t.Count
		}
	}
}

// WithClock overrides the ingest timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxTokens: DefaultMaxTokens,
		count:     func(s string) int { return len(strings.Fields(s)) },
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document pages into chunks.
// Input chunks are ignored; this processor creates new chunks from document pages.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Name == "" {
		return nil, fmt.Errorf("document has no name")
	}

	ingested := p.now().UTC()
	var chunks []domain.Chunk
	heading := ""

	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var sections []section
		sections, heading = splitSections(page.Text, heading)

		for _, sec := range sections {
			for _, text := range p.pack(sec) {
				idx := len(chunks)
				chunks = append(chunks, domain.Chunk{
					Content: text,
					Metadata: domain.ChunkMetadata{
						DocumentID:   fmt.Sprintf("%s_%d", doc.Name, idx),
						DocumentName: doc.Name,
						ChunkIndex:   idx,
						PageNumber:   page.Number,
						Heading:      sec.heading,
						IngestTime:   ingested,
					},
				})
			}
		}
	}

	return chunks, nil
}

// section is a run of paragraphs under one heading.
type section struct {
	heading    string
	paragraphs []string
}

// splitSections groups the paragraphs of a page by heading. The heading in
// effect at the end of the page carries over to the next page.
func splitSections(text, heading string) ([]section, string) {
	var sections []section
	cur := section{heading: heading}
	var para []string

	flushPara := func() {
		if len(para) > 0 {
			cur.paragraphs = append(cur.paragraphs, strings.Join(para, "\n"))
			para = nil
		}
	}
	flushSection := func() {
		flushPara()
		if len(cur.paragraphs) > 0 {
			sections = append(sections, cur)
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			flushPara()
			continue
		}
		if h, ok := detectHeading(line); ok {
			flushSection()
			cur = section{heading: h}
			continue
		}
		para = append(para, line)
	}
	flushSection()

	return sections, cur.heading
}

// detectHeading reports whether line looks like a section heading and
// returns the heading text.
func detectHeading(line string) (string, bool) {
	if m := markdownHeading.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if len(line) > maxHeadingLen {
		return "", false
	}
	if labelHeading.MatchString(line) {
		return line, true
	}
	if numberedHeading.MatchString(line) && !strings.HasSuffix(line, ".") {
		return line, true
	}
	if isUpperLine(line) {
		return line, true
	}
	return "", false
}

// isUpperLine is true for short lines whose letters are all upper case,
// with at least three letters. Checklist items such as "THROTTLE .... IDLE"
// or "FUEL PUMP - OFF" are not headings.
func isUpperLine(line string) bool {
	if strings.HasSuffix(line, ".") || strings.Contains(line, "..") ||
		strings.Contains(line, " - ") || strings.Contains(line, ":") {
		return false
	}
	letters := 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 3
}

// pack merges paragraphs into chunks up to the budget left after the
// heading is prepended. Oversized paragraphs are split on line boundaries;
// a single oversized line is emitted whole and left to the token cap.
func (p *Processor) pack(sec section) []string {
	budget := p.maxTokens
	if sec.heading != "" {
		budget -= p.count(sec.heading) + 1
	}
	if budget < 1 {
		budget = 1
	}

	var out []string
	var cur []string
	curTokens := 0

	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, "\n\n"))
			cur = nil
			curTokens = 0
		}
	}

	for _, para := range sec.paragraphs {
		n := p.count(para)
		if n > budget {
			flush()
			out = append(out, p.splitLines(para, budget)...)
			continue
		}
		if curTokens+n > budget {
			flush()
		}
		cur = append(cur, para)
		curTokens += n
	}
	flush()

	return out
}

func (p *Processor) splitLines(para string, budget int) []string {
	var out []string
	var cur []string
	curTokens := 0
	for _, line := range strings.Split(para, "\n") {
		n := p.count(line)
		if curTokens+n > budget && len(cur) > 0 {
			out = append(out, strings.Join(cur, "\n"))
			cur = nil
			curTokens = 0
		}
		cur = append(cur, line)
		curTokens += n
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, "\n"))
	}
	return out
}
