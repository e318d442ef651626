package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Query is a user question. It is never persisted on its own.
type Query struct {
	// Text is the question, typed or transcribed.
	Text string

	// Heading is the topical filter extracted from Text, if any.
	Heading string

	// Language is the optional language code of the transcription.
	Language string
}

// ContextItem is one retrieved chunk as exposed in answers.
type ContextItem struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Answer is the structured output of the synthesis model.
// When the model output is not valid JSON, only Text is set.
type Answer struct {
	// Title names the procedure the answer describes.
	Title string `json:"title,omitempty"`

	// Steps are the ordered procedure steps.
	Steps []string `json:"steps,omitempty"`

	// Text is free-form answer text.
	Text string `json:"answer,omitempty"`

	// structured is true when the answer came from parsed JSON.
	structured bool
}

// IsEmpty returns true when the answer has neither steps nor text.
func (a Answer) IsEmpty() bool {
	if strings.TrimSpace(a.Text) != "" {
		return false
	}
	for _, s := range a.Steps {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// Structured reports whether the answer was parsed from JSON.
func (a Answer) Structured() bool {
	return a.structured
}

// String renders the answer as plain text.
func (a Answer) String() string {
	if !a.structured {
		return a.Text
	}
	var b strings.Builder
	if a.Title != "" {
		b.WriteString(a.Title)
		b.WriteString("\n")
	}
	for i, s := range a.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(s))
	}
	if a.Text != "" {
		b.WriteString(a.Text)
	}
	return strings.TrimSpace(b.String())
}

// MarshalJSON encodes raw-text answers as a JSON string and structured
// answers as an object.
func (a Answer) MarshalJSON() ([]byte, error) {
	if !a.structured {
		return json.Marshal(a.Text)
	}
	type plain Answer
	return json.Marshal(plain(a))
}

// TextAnswer builds an unstructured answer.
func TextAnswer(text string) Answer {
	return Answer{Text: text}
}

// StructuredAnswer builds an answer parsed from model JSON.
func StructuredAnswer(title string, steps []string, text string) Answer {
	return Answer{Title: title, Steps: steps, Text: text, structured: true}
}

// RAGOutcome classifies how a retrieval-synthesis run ended.
type RAGOutcome string

// Retrieval-synthesis outcomes.
const (
	// OutcomeAnswered means context was found and the model produced an answer.
	OutcomeAnswered RAGOutcome = "answered"

	// OutcomeNoContext means retrieval found nothing.
	OutcomeNoContext RAGOutcome = "no_context"

	// OutcomeMismatch means context was found but the model produced no usable answer.
	OutcomeMismatch RAGOutcome = "mismatch"
)

// RAGResult is the response of the retrieval-synthesis engine.
// Context is nil (JSON null) when nothing was retrieved.
type RAGResult struct {
	Input   string        `json:"input"`
	Heading string        `json:"heading"`
	Context []ContextItem `json:"context"`
	Answer  Answer        `json:"answer"`
	Outcome RAGOutcome    `json:"outcome"`
}

// ContextText joins the retrieved context as it was given to the model.
func (r *RAGResult) ContextText() string {
	parts := make([]string, len(r.Context))
	for i, c := range r.Context {
		parts[i] = c.Content
	}
	return strings.Join(parts, "\n\n")
}
