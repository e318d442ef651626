package tokencap

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// wordTokenizer counts whitespace-separated words.
type wordTokenizer struct{}

func (wordTokenizer) Name() string          { return "words" }
func (wordTokenizer) Count(text string) int { return len(strings.Fields(text)) }
func (wordTokenizer) Truncate(text string, max int) string {
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ")
}

// byteTokenizer counts bytes, so its cuts can land inside a character.
type byteTokenizer struct{}

func (byteTokenizer) Name() string          { return "bytes" }
func (byteTokenizer) Count(text string) int { return len(text) }
func (byteTokenizer) Truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}

func TestNew_RequiresTokenizer(t *testing.T) {
	_, err := New(nil, 10)
	assert.Error(t, err)
}

func TestNew_DefaultCap(t *testing.T) {
	p, err := New(wordTokenizer{}, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxTokens, p.MaxTokens())
	assert.Equal(t, "tokencap", p.Name())
}

func TestProcessor_Process_Truncates(t *testing.T) {
	p, err := New(wordTokenizer{}, 5)
	require.NoError(t, err)

	long := strings.Repeat("word ", 20)
	chunks := []domain.Chunk{
		{Content: "short text"},
		{Content: long},
	}

	out, err := p.Process(context.Background(), &domain.Document{}, chunks)
	require.NoError(t, err)

	assert.Equal(t, "short text", out[0].Content)
	assert.Nil(t, out[0].Metadata.Extra)

	assert.Equal(t, 5, wordTokenizer{}.Count(out[1].Content))
	assert.True(t, strings.HasPrefix(long, out[1].Content))
	assert.Equal(t, true, out[1].Metadata.Extra[MetaTruncated])
}

func TestProcessor_Process_KeepsMultibyteCharactersWhole(t *testing.T) {
	p, err := New(byteTokenizer{}, 10)
	require.NoError(t, err)

	chunks := []domain.Chunk{
		{Content: "🔥🔥🔥🔥"},
		{Content: "incendio ñandú"},
		{Content: "火災火災火災"},
	}
	out, err := p.Process(context.Background(), &domain.Document{}, chunks)
	require.NoError(t, err)

	assert.Equal(t, "🔥🔥", out[0].Content)
	assert.Equal(t, "incendio ", out[1].Content)
	assert.Equal(t, "火災火", out[2].Content)
	for _, c := range out {
		assert.True(t, utf8.ValidString(c.Content), c.Content)
		assert.Equal(t, true, c.Metadata.Extra[MetaTruncated])
	}
}

func TestDropPartialRune(t *testing.T) {
	assert.Equal(t, "abc", dropPartialRune("abc"))
	assert.Equal(t, "a", dropPartialRune("a\xf0\x9f\x94"))
	assert.Equal(t, "", dropPartialRune("\xe7"))
	assert.Equal(t, "ñ", dropPartialRune("ñ"))
}
