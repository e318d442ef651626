package domain

import "time"

// DocumentState is the ingestion lifecycle state of a discovered document.
type DocumentState string

// Ingestion states.
const (
	StateDiscovered DocumentState = "discovered"
	StateSkipped    DocumentState = "skipped"
	StateProcessing DocumentState = "processing"
	StateIndexed    DocumentState = "indexed"
	StateFailed     DocumentState = "failed"
)

// IsTerminal returns true for states that end a document's ingestion.
func (s DocumentState) IsTerminal() bool {
	return s == StateSkipped || s == StateIndexed || s == StateFailed
}

// IngestReport is the outcome of ingesting one file.
type IngestReport struct {
	Path     string
	Name     string
	State    DocumentState
	Chunks   int
	ChunkIDs []string
	Err      error
	Duration time.Duration
}

// IngestSummary aggregates the reports of a directory scan.
type IngestSummary struct {
	Reports []IngestReport
	Indexed int
	Skipped int
	Failed  int
	Chunks  int
}

// Add records a report in the summary.
func (s *IngestSummary) Add(r IngestReport) {
	s.Reports = append(s.Reports, r)
	switch r.State {
	case StateIndexed:
		s.Indexed++
		s.Chunks += r.Chunks
	case StateSkipped:
		s.Skipped++
	case StateFailed:
		s.Failed++
	}
}

// FileEventOp is the kind of filesystem change.
type FileEventOp int

// Filesystem event kinds.
const (
	FileCreated FileEventOp = iota + 1
	FileWritten
	FileRemoved
)

// FileEvent is a filesystem change reported by a watcher.
type FileEvent struct {
	Path  string
	Op    FileEventOp
	IsDir bool
}
