package domain

import "time"

// Branch names one of the two answer strategies.
type Branch string

// Answer strategies run by the orchestrator.
const (
	BranchRAG   Branch = "rag"
	BranchAgent Branch = "agent"
)

// Status classifies a branch outcome.
type Status string

// Branch outcome statuses.
const (
	StatusSuccess      Status = "success"
	StatusNoResults    Status = "no_results"
	StatusTimeout      Status = "timeout"
	StatusUnknownError Status = "unknown_error"
)

// BranchOutcome is the tagged result of one branch of an orchestrated query.
type BranchOutcome struct {
	QueryID    string        `json:"query_id"`
	Branch     Branch        `json:"branch"`
	Status     Status        `json:"status"`
	StatusCode int           `json:"status_code"`
	Message    string        `json:"message,omitempty"`
	Answer     string        `json:"answer"`
	Context    []ContextItem `json:"context"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// OK reports whether the branch produced an answer.
func (o BranchOutcome) OK() bool {
	return o.Status == StatusSuccess
}

// OrchestratedResult holds both branch outcomes in arrival order.
type OrchestratedResult struct {
	QueryID  string          `json:"query_id"`
	Query    string          `json:"query"`
	Outcomes []BranchOutcome `json:"outcomes"`
	Elapsed  time.Duration   `json:"elapsed_ns"`
}

// Outcome returns the outcome for a branch, if present.
func (r *OrchestratedResult) Outcome(b Branch) (BranchOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Branch == b {
			return o, true
		}
	}
	return BranchOutcome{}, false
}

// InteractionRecord is one branch outcome as appended to the interaction log.
type InteractionRecord struct {
	QueryID    string    `json:"query_id"`
	Query      string    `json:"query"`
	Branch     Branch    `json:"branch"`
	Status     Status    `json:"status"`
	StatusCode int       `json:"status_code"`
	Message    string    `json:"message,omitempty"`
	Answer     string    `json:"answer"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewInteractionRecord builds a log record from a branch outcome.
func NewInteractionRecord(query string, o BranchOutcome, at time.Time) InteractionRecord {
	return InteractionRecord{
		QueryID:    o.QueryID,
		Query:      query,
		Branch:     o.Branch,
		Status:     o.Status,
		StatusCode: o.StatusCode,
		Message:    o.Message,
		Answer:     o.Answer,
		ElapsedMS:  o.Elapsed.Milliseconds(),
		RecordedAt: at,
	}
}
