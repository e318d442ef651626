package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
)

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)

	s, err := NewLLMService(Config{APIKey: "sk-ant"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultBaseURL, s.api.BaseURL)
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))

		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, "claude-3-5-haiku-latest", raw["model"])
		assert.Equal(t, float64(DefaultMaxTokens), raw["max_tokens"])
		assert.Equal(t, float64(0), raw["temperature"])
		assert.Equal(t, []any{"\nObservation:"}, raw["stop_sequences"])
		assert.NotContains(t, raw, "system")

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Final "},{"type":"tool_use"},{"type":"text","text":"Answer: ok"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	s, err := NewLLMService(Config{APIKey: "sk-ant", BaseURL: srv.URL + "/", Model: "claude-3-5-haiku-latest"})
	require.NoError(t, err)

	out, err := s.Generate(context.Background(), "prompt", driven.GenerateOptions{StopWords: []string{"\nObservation:"}})
	require.NoError(t, err)
	assert.Equal(t, "Final Answer: ok", out)
}

func TestChat_LiftsSystemMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "be brief\n\nuse the checklist", req.System)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "assistant", req.Messages[1].Role)
		assert.Equal(t, 200, req.MaxTokens)

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Throttle idle."}]}`))
	}))
	defer srv.Close()

	s, err := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := s.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "engine fire?"},
		{Role: "system", Content: "use the checklist"},
		{Role: "assistant", Content: "On the ground?"},
	}, driven.ChatOptions{MaxTokens: 200})
	require.NoError(t, err)
	assert.Equal(t, "Throttle idle.", out)
}

func TestChat_OnlySystemMessages(t *testing.T) {
	s, err := NewLLMService(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = s.Chat(context.Background(), []driven.ChatMessage{{Role: "system", Content: "x"}}, driven.ChatOptions{})
	assert.Error(t, err)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"api error body", http.StatusOK, `{"error":{"type":"invalid_request_error","message":"bad model"}}`, "bad model"},
		{"no text", http.StatusOK, `{"content":[]}`, "no text content"},
		{"client error", http.StatusBadRequest, `{"error":{"message":"bad"}}`, "status 400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s, err := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = s.Generate(context.Background(), "x", driven.GenerateOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		if r.Header.Get("x-api-key") != "good" {
			http.Error(w, "invalid x-api-key", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	good, err := NewLLMService(Config{APIKey: "good", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, good.Ping(context.Background()))

	bad, err := NewLLMService(Config{APIKey: "bad", BaseURL: srv.URL})
	require.NoError(t, err)
	err = bad.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.NoError(t, bad.Close())
}
