package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driven/storage/vecindex"
	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorBackend = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorBackend.
// Records keep insertion order so equal distances rank deterministically.
type VectorStore struct {
	mu       sync.RWMutex
	order    []string
	records  map[string]driven.VectorRecord
	distance vecindex.DistanceFunc
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore(metric domain.DistanceMetric) (*VectorStore, error) {
	distance, err := vecindex.Distance(metric)
	if err != nil {
		return nil, err
	}
	return &VectorStore{
		records:  make(map[string]driven.VectorRecord),
		distance: distance,
	}, nil
}

// Insert stores records. Duplicate IDs fail the whole batch.
func (s *VectorStore) Insert(_ context.Context, records []driven.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if _, ok := s.records[rec.ID]; ok || seen[rec.ID] {
			return domain.ErrValidation
		}
		seen[rec.ID] = true
	}

	for _, rec := range records {
		s.records[rec.ID] = copyRecord(rec)
		s.order = append(s.order, rec.ID)
	}
	return nil
}

// Query returns the closest K records that pass the filters.
func (s *VectorStore) Query(_ context.Context, q domain.VectorQuery) ([]driven.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sel := vecindex.NewSelector(q.Vector, q.K, s.distance)
	for _, id := range s.order {
		rec := s.records[id]
		if !vecindex.Matches(q, rec.Content, rec.Metadata) {
			continue
		}
		if err := sel.Offer(copyRecord(rec)); err != nil {
			return nil, err
		}
	}
	return sel.Results(), nil
}

// Get returns a record by ID.
func (s *VectorStore) Get(_ context.Context, id string) (*driven.VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyRecord(rec)
	return &out, nil
}

// Delete removes records by ID.
func (s *VectorStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.records[id]; ok {
			drop[id] = true
			delete(s.records, id)
		}
	}
	if len(drop) == 0 {
		return nil
	}

	kept := s.order[:0]
	for _, id := range s.order {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	s.order = kept
	return nil
}

// ScanMetadata calls fn for a snapshot of every record.
func (s *VectorStore) ScanMetadata(_ context.Context, fn func(id string, metadata map[string]any) error) error {
	s.mu.RLock()
	ids := append([]string(nil), s.order...)
	metas := make([]map[string]any, len(ids))
	for i, id := range ids {
		metas[i] = copyMap(s.records[id].Metadata)
	}
	s.mu.RUnlock()

	for i, id := range ids {
		if err := fn(id, metas[i]); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of records.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}

func copyRecord(rec driven.VectorRecord) driven.VectorRecord {
	rec.Embedding = append([]float32(nil), rec.Embedding...)
	rec.Metadata = copyMap(rec.Metadata)
	return rec
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
