package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService lists and removes indexed documents.
type DocumentService struct {
	gateway *VectorStoreGateway
}

// NewDocumentService creates a new document service.
func NewDocumentService(gateway *VectorStoreGateway) *DocumentService {
	return &DocumentService{gateway: gateway}
}

// List returns the names of all indexed documents, sorted.
func (s *DocumentService) List(ctx context.Context) ([]string, error) {
	return s.gateway.DocumentNames(ctx)
}

// Delete removes every chunk of a document. Deleting an unknown document
// is domain.ErrNotFound.
func (s *DocumentService) Delete(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: document name must not be empty", domain.ErrValidation)
	}
	n, err := s.gateway.DeleteDocument(ctx, name)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("document %q: %w", name, domain.ErrNotFound)
	}
	return n, nil
}

// Count returns the total number of stored chunks.
func (s *DocumentService) Count(ctx context.Context) (int, error) {
	return s.gateway.Count(ctx)
}
