// Package domain defines the core entities of the voice query pipeline.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines the fundamental types:
//
//   - Document, Page: a source file converted to text
//   - Chunk, ChunkMetadata: a retrievable fragment and its provenance
//   - SearchRequest, SearchResult: similarity search over the collection
//   - RAGResult, AgentResult: answers from the two strategies
//   - BranchOutcome, OrchestratedResult: tagged results of a concurrent query
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
