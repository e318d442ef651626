package domain

// DefaultTopK is the number of chunks retrieved when a request does not set one.
const DefaultTopK = 5

// SearchRequest configures a similarity search against the collection.
type SearchRequest struct {
	// Text is the raw query, embedded by the gateway when Vector is empty.
	Text string

	// Vector is a precomputed query embedding.
	Vector []float32

	// TopK is the maximum number of results.
	TopK int

	// MetadataFilter requires equality on flattened metadata keys.
	MetadataFilter map[string]any

	// ContentFilter requires the chunk text to contain the given substring.
	// A pointer to "" is a filter that matches every chunk.
	ContentFilter *string

	// ReturnScore fills Score on each result when true.
	ReturnScore bool
}

// Contains returns a content filter for the given substring.
func Contains(s string) *string {
	return &s
}

// SearchResult is a single retrieved chunk.
type SearchResult struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Distance is the raw backend distance (lower is closer).
	Distance float64

	// Score is the normalised relevance in (0, 1].
	Score float64
}

// Relevance maps a raw distance to a bounded relevance score.
// A distance of 0 gives 1.0 and the score approaches 0 as distance grows.
func Relevance(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

// DistanceMetric selects how backends compare vectors.
type DistanceMetric string

// Supported distance metrics.
const (
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "l2"

	// DistanceCosine is 1 - cosine similarity.
	DistanceCosine DistanceMetric = "cosine"
)

// IsValid returns true if the metric is recognised.
func (m DistanceMetric) IsValid() bool {
	return m == DistanceL2 || m == DistanceCosine
}

// VectorQuery is the backend-level form of a search, with the query
// already embedded and both filters applied before top-k selection.
type VectorQuery struct {
	// Vector is the query embedding.
	Vector []float32

	// K is the maximum number of results.
	K int

	// MetadataFilter requires equality on flattened metadata keys.
	MetadataFilter map[string]any

	// ContentFilter requires the chunk text to contain the substring when set.
	ContentFilter *string
}

// MatchesMetadata reports whether flattened metadata satisfies an equality filter.
// Numbers are compared by value regardless of their decoded type.
func MatchesMetadata(flat, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := flat[k]
		if !ok {
			return false
		}
		if !metaEqual(got, want) {
			return false
		}
	}
	return true
}

func metaEqual(a, b any) bool {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
		return false
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
