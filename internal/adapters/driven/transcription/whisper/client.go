// Package whisper is a client for the speech-to-text service that fronts a
// Whisper model over HTTP.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.Transcriber = (*Client)(nil)

const (
	// DefaultBaseURL is the default transcription service address.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout bounds a single transcription request.
	DefaultTimeout = 300 * time.Second
)

// Config holds configuration for the transcription client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client sends recorded audio to the transcription service.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a transcription client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// transcribeResponse is the body of POST /transcribe for every status.
type transcribeResponse struct {
	Status        string  `json:"status"`
	Transcription *string `json:"transcription"`
	Message       string  `json:"message"`
}

// languagesResponse maps language names to codes.
type languagesResponse struct {
	Status    string            `json:"status"`
	Languages map[string]string `json:"languages"`
	Message   string            `json:"message"`
}

// Transcribe uploads audio as multipart form field "file", with an optional
// "language" field, and returns the recognised text.
func (c *Client) Transcribe(ctx context.Context, audio domain.Audio) (*domain.Transcription, error) {
	if audio.IsEmpty() {
		return nil, domain.ErrEmptyAudio
	}

	body, contentType, err := encodeAudio(audio)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	data, status, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var result transcribeResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: decode response (status %d): %w", domain.ErrTranscriptionFailed, status, err)
	}

	if status != http.StatusOK {
		msg := result.Message
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return nil, fmt.Errorf("%w: %s (status %d)", domain.ErrTranscriptionFailed, msg, status)
	}

	if result.Transcription == nil || strings.TrimSpace(*result.Transcription) == "" {
		return nil, fmt.Errorf("%w: transcription is empty", domain.ErrTranscriptionFailed)
	}

	return &domain.Transcription{
		Text:     strings.TrimSpace(*result.Transcription),
		Language: audio.Language,
	}, nil
}

// Languages returns the supported languages keyed by code.
func (c *Client) Languages(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/languages", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	data, status, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var result languagesResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode languages: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: languages: %s (status %d)", domain.ErrBackendUnavailable, result.Message, status)
	}

	byCode := make(map[string]string, len(result.Languages))
	for name, code := range result.Languages {
		byCode[code] = name
	}
	return byCode, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(req.Context(), err) {
			return nil, 0, fmt.Errorf("%w: transcription service: %w", domain.ErrTimeout, err)
		}
		return nil, 0, fmt.Errorf("%w: transcription service: %w", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return data, resp.StatusCode, nil
}

func encodeAudio(audio domain.Audio) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := audio.Filename
	if name == "" {
		name = "audio.wav"
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio.Data); err != nil {
		return nil, "", fmt.Errorf("write audio: %w", err)
	}
	if audio.Language != "" {
		if err := w.WriteField("language", audio.Language); err != nil {
			return nil, "", fmt.Errorf("write language: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
