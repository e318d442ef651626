package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-voice/internal/logger"
)

// errStopScan ends a metadata scan early.
var errStopScan = errors.New("stop scan")

// VectorStoreGateway stores and retrieves chunks of one collection.
// Backend failures are reported as domain.ErrBackendUnavailable.
type VectorStoreGateway struct {
	backend  driven.VectorBackend
	embedder *Embedder
	newID    func() string
}

// NewVectorStoreGateway creates a gateway over a backend collection.
func NewVectorStoreGateway(backend driven.VectorBackend, embedder *Embedder) *VectorStoreGateway {
	return &VectorStoreGateway{
		backend:  backend,
		embedder: embedder,
		newID:    uuid.NewString,
	}
}

// AddChunks embeds texts, stores them with fresh IDs and returns the IDs.
func (g *VectorStoreGateway) AddChunks(ctx context.Context, texts []string, metadatas []map[string]any) ([]string, error) {
	if len(texts) != len(metadatas) {
		return nil, fmt.Errorf("%w: %d texts but %d metadata entries", domain.ErrValidation, len(texts), len(metadatas))
	}
	if len(texts) == 0 {
		return []string{}, nil
	}

	vectors, err := g.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(texts))
	records := make([]driven.VectorRecord, len(texts))
	for i := range texts {
		ids[i] = g.newID()
		records[i] = driven.VectorRecord{
			ID:        ids[i],
			Content:   texts[i],
			Embedding: vectors[i],
			Metadata:  metadatas[i],
		}
	}

	if err := g.backend.Insert(ctx, records); err != nil {
		return nil, backendErr("insert chunks", err)
	}
	return ids, nil
}

// Search returns up to TopK chunks closest to the request. Both filters
// are applied before the top-k selection.
func (g *VectorStoreGateway) Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	vector := req.Vector
	if len(vector) == 0 {
		text := strings.TrimSpace(req.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: empty search query", domain.ErrValidation)
		}
		var err error
		vector, err = g.embedder.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
	}

	k := req.TopK
	if k <= 0 {
		k = domain.DefaultTopK
	}

	hits, err := g.backend.Query(ctx, domain.VectorQuery{
		Vector:         vector,
		K:              k,
		MetadataFilter: req.MetadataFilter,
		ContentFilter:  req.ContentFilter,
	})
	if err != nil {
		return nil, backendErr("query", err)
	}

	results := make([]domain.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = domain.SearchResult{
			Chunk: domain.Chunk{
				ID:        h.Record.ID,
				Content:   h.Record.Content,
				Embedding: h.Record.Embedding,
				Metadata:  domain.ParseChunkMetadata(h.Record.Metadata),
			},
			Distance: h.Distance,
		}
		if req.ReturnScore {
			results[i].Score = domain.Relevance(h.Distance)
		}
	}

	logger.Debug("search returned %d of k=%d", len(results), k)
	return results, nil
}

// IsDocumentProcessed reports whether any chunk belongs to the document.
// It scans the whole collection.
func (g *VectorStoreGateway) IsDocumentProcessed(ctx context.Context, name string) (bool, error) {
	found := false
	err := g.backend.ScanMetadata(ctx, func(_ string, metadata map[string]any) error {
		if metadata[domain.MetaDocumentName] == name {
			found = true
			return errStopScan
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return false, backendErr("scan metadata", err)
	}
	return found, nil
}

// DocumentNames returns the distinct document names in the collection, sorted.
func (g *VectorStoreGateway) DocumentNames(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	err := g.backend.ScanMetadata(ctx, func(_ string, metadata map[string]any) error {
		if name, ok := metadata[domain.MetaDocumentName].(string); ok && name != "" {
			seen[name] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, backendErr("scan metadata", err)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteDocument removes every chunk of a document and returns the count.
func (g *VectorStoreGateway) DeleteDocument(ctx context.Context, name string) (int, error) {
	var ids []string
	err := g.backend.ScanMetadata(ctx, func(id string, metadata map[string]any) error {
		if metadata[domain.MetaDocumentName] == name {
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return 0, backendErr("scan metadata", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := g.DeleteChunks(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// UpdateChunk re-embeds a chunk and replaces it under the same ID.
func (g *VectorStoreGateway) UpdateChunk(ctx context.Context, id, text string, metadata map[string]any) error {
	if _, err := g.backend.Get(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("chunk %s: %w", id, domain.ErrNotFound)
		}
		return backendErr("get chunk", err)
	}

	vectors, err := g.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return err
	}

	if err := g.backend.Delete(ctx, []string{id}); err != nil {
		return backendErr("delete chunk", err)
	}
	record := driven.VectorRecord{ID: id, Content: text, Embedding: vectors[0], Metadata: metadata}
	if err := g.backend.Insert(ctx, []driven.VectorRecord{record}); err != nil {
		return backendErr("insert chunk", err)
	}
	return nil
}

// DeleteChunks removes chunks by ID.
func (g *VectorStoreGateway) DeleteChunks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := g.backend.Delete(ctx, ids); err != nil {
		return backendErr("delete chunks", err)
	}
	return nil
}

// Count returns the number of stored chunks.
func (g *VectorStoreGateway) Count(ctx context.Context) (int, error) {
	n, err := g.backend.Count(ctx)
	if err != nil {
		return 0, backendErr("count", err)
	}
	return n, nil
}

func backendErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrBackendUnavailable, op, err)
}
