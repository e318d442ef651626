package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "sk-p...mnop", maskAPIKey("sk-proj-abcdefghijklmnop"))
	assert.Equal(t, "****", maskAPIKey("12345678"))
	assert.Equal(t, "****", maskAPIKey(""))
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 1},
		{"2", 2},
		{"3", 3},
		{"0", 1},
		{"4", 1},
		{"ollama", 1},
		{" ", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseChoice(tt.in, 3, 1), "input %q", tt.in)
	}
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "postgres://voice:xxxxx@db:5432/sercha", maskDSN("postgres://voice:secret@db:5432/sercha"))
	assert.Equal(t, "postgres://db/sercha", maskDSN("postgres://db/sercha"))
	assert.Equal(t, "host=db user=voice", maskDSN("host=db user=voice"))
}

func TestSettingsShowCmd(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, nil, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "Provider: Ollama (local)")
	assert.Contains(t, out, "[Vector Store]")
	assert.Contains(t, out, "Backend: sqlite")
	assert.Contains(t, out, "Collection: procedures")
	assert.Contains(t, out, "Timeouts: rag 1m0s, agent 1m0s")
	assert.Contains(t, out, "HTTP Address: :8080")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsSetCmd(t *testing.T) {
	fake, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, nil, "settings", "set", "rag.top_k", "8")

	require.NoError(t, err)
	assert.Contains(t, out, "Set rag.top_k = 8")
	assert.Equal(t, "8", fake.settings.values["rag.top_k"])
}

func TestSettingsSetCmd_Error(t *testing.T) {
	fake, cleanup := setupTestServices()
	defer cleanup()
	fake.settings.setErr = domain.ErrValidation

	_, err := execute(t, nil, "settings", "set", "nope", "1")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSettingsEmbeddingCmd_Interactive(t *testing.T) {
	fake, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, strings.NewReader("2\n\nsk-test-key-123\n"), "settings", "embedding")

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, fake.settings.settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", fake.settings.settings.Embedding.Model)
	assert.Equal(t, "sk-test-key-123", fake.settings.settings.Embedding.APIKey)
	assert.Contains(t, out, "Embedding provider configured: OpenAI (cloud) (text-embedding-3-small)")
}

func TestSettingsWizardCmd(t *testing.T) {
	fake, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, strings.NewReader("1\nmxbai-embed-large\n1\n\n"), "settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, "mxbai-embed-large", fake.settings.settings.Embedding.Model)
	assert.Equal(t, domain.AIProviderOllama, fake.settings.settings.LLM.Provider)
	assert.Equal(t, "llama3.2", fake.settings.settings.LLM.Model)
	assert.Contains(t, out, "All settings are valid and saved.")
}

func TestSettingsLLMCmd_Anthropic(t *testing.T) {
	fake, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, strings.NewReader("3\n\nsk-ant-test-key\n"), "settings", "llm")

	require.NoError(t, err)
	assert.Contains(t, out, "3. Anthropic (cloud)")
	assert.Equal(t, domain.AIProviderAnthropic, fake.settings.settings.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", fake.settings.settings.LLM.Model)
	assert.Equal(t, "sk-ant-test-key", fake.settings.settings.LLM.APIKey)
	assert.Contains(t, out, "LLM provider configured: Anthropic (cloud) (claude-3-5-sonnet-latest)")
}

func TestSettingsShowCmd_CloudAndPgvector(t *testing.T) {
	fake, cleanup := setupTestServices()
	defer cleanup()
	fake.settings.settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOpenAI, Model: "gpt-4o-mini"}
	fake.settings.settings.VectorStore.Backend = domain.VectorBackendPgvector
	fake.settings.settings.VectorStore.DSN = "postgres://voice:secret@db/sercha"

	out, err := execute(t, nil, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "API Key: (not set)")
	assert.Contains(t, out, "DSN: postgres://voice:xxxxx@db/sercha")
	assert.NotContains(t, out, "secret")
}

func TestSettingsLLMCmd_ValidationFails(t *testing.T) {
	fake, cleanup := setupTestServices()
	defer cleanup()
	fake.settings.llmErr = domain.ErrLLMUnavailable

	out, err := execute(t, strings.NewReader("1\n\n"), "settings", "llm")

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, out, "Select LLM Provider")
	assert.Contains(t, out, "FAILED")
}

func TestSettingsEmbeddingCmd_MissingKey(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, strings.NewReader("2\n\n\n"), "settings", "embedding")

	assert.ErrorContains(t, err, "API key is required")
}
