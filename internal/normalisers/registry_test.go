package normalisers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

type stubNormaliser struct {
	exts     []string
	priority int
	name     string
}

func (s *stubNormaliser) SupportedExtensions() []string { return s.exts }
func (s *stubNormaliser) Priority() int                 { return s.priority }
func (s *stubNormaliser) Normalise(_ context.Context, path string, _ []byte) (*domain.Document, error) {
	return &domain.Document{Name: s.name, Path: path}, nil
}

func TestRegistry_PrefersHigherPriority(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{exts: []string{".md"}, priority: 5, name: "fallback"})
	r.Register(&stubNormaliser{exts: []string{".md"}, priority: 50, name: "markdown"})

	doc, err := r.Normalise(context.Background(), "/docs/a.MD", nil)
	require.NoError(t, err)
	assert.Equal(t, "markdown", doc.Name)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()

	_, err := r.Normalise(context.Background(), "/docs/a.docx", nil)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedType))
	assert.Nil(t, r.Get("a.docx"))
}

func TestNewDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, []string{".markdown", ".md", ".pdf", ".txt"}, r.SupportedExtensions())
	assert.NotNil(t, r.Get("x.pdf"))
	assert.NotNil(t, r.Get("x.txt"))
}
