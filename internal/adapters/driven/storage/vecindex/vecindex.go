// Package vecindex implements exact nearest-neighbour selection shared by
// the embedded vector backends.
package vecindex

import (
	"fmt"
	"sort"
	"strings"

	"github.com/viant/vec/search"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// DistanceFunc computes the distance between two vectors of equal length.
type DistanceFunc func(a, b []float32) float64

// Distance resolves the distance implementation for a metric.
// An empty metric selects l2.
func Distance(m domain.DistanceMetric) (DistanceFunc, error) {
	switch m {
	case domain.DistanceL2, "":
		return euclidean, nil
	case domain.DistanceCosine:
		return cosine, nil
	default:
		return nil, fmt.Errorf("unsupported distance metric: %s", m)
	}
}

func euclidean(a, b []float32) float64 {
	return float64(search.Float32s(a).EuclideanDistance(b))
}

// cosine returns 1 - cosine similarity. Zero vectors are at distance 1.
func cosine(a, b []float32) float64 {
	va, vb := search.Float32s(a), search.Float32s(b)
	ma, mb := va.Magnitude(), vb.Magnitude()
	if ma == 0 || mb == 0 {
		return 1
	}
	return float64(va.CosineDistance(vb))
}

// Matches reports whether a record passes the query's content and metadata
// filters.
func Matches(q domain.VectorQuery, content string, metadata map[string]any) bool {
	if q.ContentFilter != nil && !strings.Contains(content, *q.ContentFilter) {
		return false
	}
	return domain.MatchesMetadata(metadata, q.MetadataFilter)
}

// Selector accumulates candidates and keeps the k closest.
type Selector struct {
	query    []float32
	k        int
	distance DistanceFunc
	hits     []driven.VectorHit
}

// NewSelector creates a selector for the query vector.
func NewSelector(query []float32, k int, distance DistanceFunc) *Selector {
	return &Selector{query: query, k: k, distance: distance}
}

// Offer scores a record against the query.
func (s *Selector) Offer(rec driven.VectorRecord) error {
	if len(rec.Embedding) != len(s.query) {
		return fmt.Errorf("%w: query has %d dimensions, record %s has %d",
			domain.ErrValidation, len(s.query), rec.ID, len(rec.Embedding))
	}
	s.hits = append(s.hits, driven.VectorHit{Record: rec, Distance: s.distance(s.query, rec.Embedding)})
	return nil
}

// Results returns up to k hits ordered by ascending distance. Ties keep
// the order in which records were offered.
func (s *Selector) Results() []driven.VectorHit {
	sort.SliceStable(s.hits, func(i, j int) bool { return s.hits[i].Distance < s.hits[j].Distance })
	if s.k > 0 && len(s.hits) > s.k {
		return s.hits[:s.k]
	}
	return s.hits
}
