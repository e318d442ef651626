// Package sqlite provides the embedded SQLite vector backend.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. One database file holds:
//
//   - chunks: every collection's chunk text, embedding and flattened metadata
//   - interactions: the orchestrator's per-branch interaction log
//
// # Search
//
// Content and metadata filters are pushed into SQL (instr and json_extract)
// and the surviving rows are ranked exactly in Go. This suits the corpus
// sizes of a procedures library; use the pgvector backend for larger ones.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-voice/data/vectors.db
package sqlite
