package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

func TestDocumentService_List(t *testing.T) {
	g, _, _ := newTestGateway()
	seedChunk(g, "smoke.pdf", "CABIN SMOKE", "CABIN SMOKE masks on")
	seedChunk(g, "fire.pdf", "ENGINE FIRE", "ENGINE FIRE throttle idle")
	seedChunk(g, "fire.pdf", "ENGINE FIRE", "ENGINE FIRE handle pull")
	svc := NewDocumentService(g)

	names, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"fire.pdf", "smoke.pdf"}, names)

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDocumentService_Delete(t *testing.T) {
	g, _, _ := newTestGateway()
	seedChunk(g, "fire.pdf", "ENGINE FIRE", "ENGINE FIRE throttle idle")
	seedChunk(g, "fire.pdf", "ENGINE FIRE", "ENGINE FIRE handle pull")
	seedChunk(g, "smoke.pdf", "CABIN SMOKE", "CABIN SMOKE masks on")
	svc := NewDocumentService(g)
	ctx := context.Background()

	removed, err := svc.Delete(ctx, " fire.pdf ")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	names, _ := svc.List(ctx)
	assert.Equal(t, []string{"smoke.pdf"}, names)

	_, err = svc.Delete(ctx, "fire.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Delete(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDocumentService_BackendError(t *testing.T) {
	g, backend, _ := newTestGateway()
	backend.scanErr = assert.AnError
	svc := NewDocumentService(g)

	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)

	_, err = svc.Delete(context.Background(), "fire.pdf")
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}
