package driving

import (
	"context"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

// SearchService provides similarity search to external actors.
type SearchService interface {
	// Search retrieves chunks matching the request.
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error)
}
