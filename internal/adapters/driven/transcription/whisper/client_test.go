package whisper

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

func TestClient_Transcribe_SendsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(file)
		assert.Equal(t, "cockpit.wav", header.Filename)
		assert.Equal(t, "RIFF", string(data))
		assert.Equal(t, "es", r.FormValue("language"))

		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "transcription": "  engine fire  "})
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL + "/"})
	got, err := c.Transcribe(context.Background(), domain.Audio{Filename: "cockpit.wav", Data: []byte("RIFF"), Language: "es"})

	require.NoError(t, err)
	assert.Equal(t, "engine fire", got.Text)
	assert.Equal(t, "es", got.Language)
}

func TestClient_Transcribe_EmptyAudio(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1"})

	_, err := c.Transcribe(context.Background(), domain.Audio{})

	assert.ErrorIs(t, err, domain.ErrEmptyAudio)
}

func TestClient_Transcribe_ServerErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		msg    string
	}{
		{"validation", http.StatusBadRequest, `{"status":"validation_error","message":"Transcription is empty","transcription":null}`, "Transcription is empty"},
		{"processing", http.StatusInternalServerError, `{"status":"processing_error","message":"Error processing audio: boom","transcription":null}`, "boom"},
		{"blank success", http.StatusOK, `{"status":"success","transcription":"   "}`, "transcription is empty"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(Config{BaseURL: server.URL}).Transcribe(context.Background(), domain.Audio{Data: []byte("x")})

			require.ErrorIs(t, err, domain.ErrTranscriptionFailed)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestClient_Transcribe_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Transcribe(context.Background(), domain.Audio{Data: []byte("x")})

	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestClient_Languages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/languages", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","languages":{"spanish":"es","english":"en"}}`))
	}))
	defer server.Close()

	got, err := New(Config{BaseURL: server.URL}).Languages(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"es": "spanish", "en": "english"}, got)
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := New(Config{BaseURL: url}).Languages(context.Background())

	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}
