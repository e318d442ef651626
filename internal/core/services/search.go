package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-voice/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService exposes raw similarity search to the CLI, HTTP and MCP
// adapters. A blank text query returns no results rather than an error.
type SearchService struct {
	gateway *VectorStoreGateway
}

// NewSearchService creates a new search service.
func NewSearchService(gateway *VectorStoreGateway) *SearchService {
	return &SearchService{gateway: gateway}
}

// Search retrieves chunks matching the request.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" && len(req.Vector) == 0 {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}
	if req.TopK <= 0 {
		req.TopK = domain.DefaultTopK
	}

	logger.Debug("Query: %q, k=%d, filters: metadata=%v content=%v",
		req.Text, req.TopK, req.MetadataFilter, req.ContentFilter != nil)

	results, err := s.gateway.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	logger.Debug("Found %d results", len(results))
	return results, nil
}
