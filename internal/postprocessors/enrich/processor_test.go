package enrich

import (
	"context"
	"testing"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

func TestProcessor_Name(t *testing.T) {
	if New().Name() != "enrich" {
		t.Errorf("unexpected name %q", New().Name())
	}
}

func TestProcessor_Process(t *testing.T) {
	chunks := []domain.Chunk{
		{Content: "Throttle idle.", Metadata: domain.ChunkMetadata{Heading: "ENGINE FIRE ON GROUND"}},
		{Content: "ENGINE FIRE ON GROUND\nAlready there.", Metadata: domain.ChunkMetadata{Heading: "ENGINE FIRE ON GROUND"}},
		{Content: "No heading."},
	}

	out, err := New().Process(context.Background(), &domain.Document{Name: "a.pdf"}, chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out[0].Content != "ENGINE FIRE ON GROUND\nThrottle idle." {
		t.Errorf("expected heading prepended, got %q", out[0].Content)
	}
	if out[1].Content != "ENGINE FIRE ON GROUND\nAlready there." {
		t.Errorf("expected content unchanged, got %q", out[1].Content)
	}
	if out[2].Content != "No heading." {
		t.Errorf("expected content unchanged, got %q", out[2].Content)
	}
}

func TestProcessor_Process_Nil(t *testing.T) {
	out, err := New().Process(context.Background(), &domain.Document{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no chunks, got %d", len(out))
	}
}
