// Package tokenizer provides token counting for chunk budgets.
package tokenizer

import (
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-voice/internal/logger"
)

// Ensure implementations satisfy the interface.
var (
	_ driven.Tokenizer = (*Tiktoken)(nil)
	_ driven.Tokenizer = (*Whitespace)(nil)
)

// Tiktoken counts BPE tokens with a tiktoken encoding.
type Tiktoken struct {
	name string
	enc  *tiktoken.Tiktoken
}

// NewTiktoken loads the named encoding (default cl100k_base).
// Loading may fetch the BPE ranks on first use; set TIKTOKEN_CACHE_DIR to
// keep them on disk.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = domain.DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &Tiktoken{name: encoding, enc: enc}, nil
}

// Name returns the encoding name.
func (t *Tiktoken) Name() string { return t.name }

// Count returns the number of tokens in text.
func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Truncate returns text cut to at most max tokens. A character whose
// bytes span the cut is dropped whole so the result stays valid UTF-8.
func (t *Tiktoken) Truncate(text string, max int) string {
	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= max {
		return text
	}
	valid := utf8.ValidString(text)
	for n := max; n > 0; n-- {
		out := t.enc.Decode(tokens[:n])
		if !valid || utf8.ValidString(out) {
			return out
		}
	}
	return ""
}

// Whitespace treats each whitespace-separated word as one token.
type Whitespace struct{}

// Name returns "whitespace".
func (Whitespace) Name() string { return "whitespace" }

// Count returns the number of words in text.
func (Whitespace) Count(text string) int {
	return len(strings.Fields(text))
}

// Truncate keeps the first max words, joined by single spaces.
func (Whitespace) Truncate(text string, max int) string {
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	if max <= 0 {
		return ""
	}
	return strings.Join(words[:max], " ")
}

// New returns a tiktoken tokenizer for the encoding, or the whitespace
// tokenizer when the encoding cannot be loaded.
func New(encoding string) driven.Tokenizer {
	t, err := NewTiktoken(encoding)
	if err != nil {
		logger.Warn("tokenizer: %s unavailable (%v), counting words instead", encoding, err)
		return Whitespace{}
	}
	return t
}
