package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/logger"
)

// Response status tags.
const (
	statusSuccess         = "success"
	statusJSONError       = "json_error"
	statusValidationError = "validation_error"
	statusNoResults       = "no_results"
	statusProcessingError = "processing_error"
	statusNotFound        = "not_found"
	statusTimeout         = "timeout"
)

const (
	// maxAudioBytes caps a /transcribe upload.
	maxAudioBytes = 50 << 20

	defaultSearchLimit       = domain.DefaultTopK
	defaultInteractionsLimit = 20
)

// statusResponse is the envelope of every pipeline endpoint.
type statusResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Response any    `json:"response"`
}

// queryRequest is the body of /rag, /agent and /ask.
type queryRequest struct {
	Transcription string `json:"transcription"`
}

// searchHit is one /search result.
type searchHit struct {
	Document string  `json:"document"`
	Page     int     `json:"page"`
	Heading  string  `json:"heading"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

// handleRAG handles POST /rag
func (s *Server) handleRAG(w http.ResponseWriter, r *http.Request) {
	query, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	res, err := s.svc.RAG.Execute(r.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeStatus(w, http.StatusBadRequest, statusValidationError, err.Error(), nil)
			return
		}
		logger.Error("rag execution failed: %v", err)
		writeStatus(w, http.StatusInternalServerError, statusProcessingError,
			fmt.Sprintf("RAG execution failed: %v", err), nil)
		return
	}

	if res.Outcome == domain.OutcomeNoContext {
		res.Context = nil
		writeStatus(w, http.StatusUnprocessableEntity, statusNoResults, res.Answer.String(), res)
		return
	}
	writeStatus(w, http.StatusOK, statusSuccess, "", res)
}

// handleAgent handles POST /agent
func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	query, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	res, err := s.svc.Agent.Execute(r.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeStatus(w, http.StatusBadRequest, statusValidationError, err.Error(), nil)
			return
		}
		logger.Error("agent execution failed: %v", err)
		writeStatus(w, http.StatusInternalServerError, statusProcessingError,
			fmt.Sprintf("Agent execution failed: %v", err), nil)
		return
	}
	if strings.TrimSpace(res.Output) == "" {
		writeStatus(w, http.StatusInternalServerError, statusProcessingError, "Agent execution failed", nil)
		return
	}
	writeStatus(w, http.StatusOK, statusSuccess, "", res)
}

// handleAsk handles POST /ask
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	query, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	res, err := s.svc.Orchestrator.Ask(r.Context(), query, nil)
	if err != nil {
		logger.Error("ask failed: %v", err)
		writeStatus(w, http.StatusInternalServerError, statusProcessingError, err.Error(), nil)
		return
	}
	writeStatus(w, http.StatusOK, statusSuccess, "", res)
}

// handleInteractions handles GET /interactions/{id}
func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	recs, err := s.svc.Orchestrator.Interactions(r.Context(), id)
	if err != nil {
		writeStatus(w, http.StatusInternalServerError, statusProcessingError, err.Error(), nil)
		return
	}
	if len(recs) == 0 {
		writeStatus(w, http.StatusNotFound, statusNotFound, "no interactions for query "+id, nil)
		return
	}
	writeStatus(w, http.StatusOK, statusSuccess, "", recs)
}

// handleRecentInteractions handles GET /interactions?limit=N
func (s *Server) handleRecentInteractions(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit", defaultInteractionsLimit)
	if !ok {
		return
	}

	recs, err := s.svc.Orchestrator.Recent(r.Context(), limit)
	if err != nil {
		writeStatus(w, http.StatusInternalServerError, statusProcessingError, err.Error(), nil)
		return
	}
	writeStatus(w, http.StatusOK, statusSuccess, "", recs)
}

// handleTranscribe handles POST /transcribe
// The audio is the multipart "file" field; "language" is an optional hint.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeStatus(w, http.StatusBadRequest, statusValidationError, "invalid multipart form: "+err.Error(), nil)
		return
	}

	audio := domain.Audio{Language: r.FormValue("language")}
	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		audio.Filename = header.Filename
		audio.Data, err = io.ReadAll(file)
		if err != nil {
			writeStatus(w, http.StatusBadRequest, statusValidationError, "read audio: "+err.Error(), nil)
			return
		}
	}

	t, err := s.svc.Transcription.Transcribe(r.Context(), audio)
	switch {
	case err == nil:
		writeStatus(w, http.StatusOK, statusSuccess, "", t)
	case errors.Is(err, domain.ErrEmptyAudio):
		writeStatus(w, http.StatusBadRequest, statusValidationError, err.Error(), nil)
	case errors.Is(err, domain.ErrTimeout):
		writeStatus(w, http.StatusGatewayTimeout, statusTimeout, err.Error(), nil)
	default:
		logger.Error("transcription failed: %v", err)
		writeStatus(w, http.StatusBadGateway, statusProcessingError, err.Error(), nil)
	}
}

// handleLanguages handles GET /languages
func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := s.svc.Transcription.Languages(r.Context())
	if err != nil {
		writeStatus(w, http.StatusBadGateway, statusProcessingError, err.Error(), nil)
		return
	}
	writeStatus(w, http.StatusOK, statusSuccess, "", langs)
}

// handleSearch handles GET /search?q=...&limit=N&heading=...&document=...
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := strings.TrimSpace(q.Get("q"))
	if text == "" {
		writeStatus(w, http.StatusBadRequest, statusValidationError, "query parameter q is required", nil)
		return
	}
	limit, ok := intParam(w, r, "limit", defaultSearchLimit)
	if !ok {
		return
	}

	req := domain.SearchRequest{Text: text, TopK: limit, ReturnScore: true}
	if h := strings.TrimSpace(q.Get("heading")); h != "" {
		req.ContentFilter = domain.Contains(h)
	}
	if d := strings.TrimSpace(q.Get("document")); d != "" {
		req.MetadataFilter = map[string]any{domain.MetaDocumentName: d}
	}

	results, err := s.svc.Search.Search(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeStatus(w, http.StatusBadRequest, statusValidationError, err.Error(), nil)
			return
		}
		writeStatus(w, http.StatusInternalServerError, statusProcessingError, err.Error(), nil)
		return
	}

	hits := make([]searchHit, 0, len(results))
	for _, res := range results {
		meta := res.Chunk.Metadata
		hits = append(hits, searchHit{
			Document: meta.DocumentName,
			Page:     meta.PageNumber,
			Heading:  meta.Heading,
			Score:    res.Score,
			Content:  res.Chunk.Content,
		})
	}
	writeStatus(w, http.StatusOK, statusSuccess, "", hits)
}

// handleListDocuments handles GET /documents
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	names, err := s.svc.Document.List(r.Context())
	if err != nil {
		writeStatus(w, http.StatusInternalServerError, statusProcessingError, err.Error(), nil)
		return
	}
	chunks, err := s.svc.Document.Count(r.Context())
	if err != nil {
		writeStatus(w, http.StatusInternalServerError, statusProcessingError, err.Error(), nil)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeStatus(w, http.StatusOK, statusSuccess, "", map[string]any{
		"documents": names,
		"chunks":    chunks,
	})
}

// handleDeleteDocument handles DELETE /documents/{name}
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	n, err := s.svc.Document.Delete(r.Context(), name)
	switch {
	case err == nil:
		writeStatus(w, http.StatusOK, statusSuccess, "", map[string]any{
			"document": name,
			"deleted":  n,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeStatus(w, http.StatusNotFound, statusNotFound, err.Error(), nil)
	case errors.Is(err, domain.ErrValidation):
		writeStatus(w, http.StatusBadRequest, statusValidationError, err.Error(), nil)
	default:
		writeStatus(w, http.StatusInternalServerError, statusProcessingError, err.Error(), nil)
	}
}

// decodeQuery reads a queryRequest body and writes the error response itself
// when the body is not usable.
func decodeQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON in request body: %v", err)
		writeStatus(w, http.StatusBadRequest, statusJSONError, "Invalid JSON in request body", nil)
		return "", false
	}
	query := strings.TrimSpace(req.Transcription)
	if query == "" {
		writeStatus(w, http.StatusBadRequest, statusValidationError, "Transcription cannot be empty", nil)
		return "", false
	}
	logger.Debug("processing transcription: %.100s", query)
	return query, true
}

// intParam parses a positive integer query parameter.
func intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeStatus(w, http.StatusBadRequest, statusValidationError, name+" must be a positive integer", nil)
		return 0, false
	}
	return n, true
}

func writeStatus(w http.ResponseWriter, code int, status, message string, response any) {
	writeJSON(w, code, statusResponse{Status: status, Message: message, Response: response})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
