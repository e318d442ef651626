package cli

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-voice/internal/core/domain"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure model providers, the vector store and pipeline options.

Use subcommands to change a single key or to configure a provider interactively.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single setting",
	Long: `Set a single setting and save it to the config file.

Examples:
  sercha-voice settings set vector_store.backend pgvector
  sercha-voice settings set vector_store.dsn postgres://localhost/sercha
  sercha-voice settings set rag.top_k 8
  sercha-voice settings set ingestion.extensions .pdf,.md
  sercha-voice settings set orchestrator.agent_timeout 90
  sercha-voice settings set interaction_log.backend redis`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the embedding and LLM providers.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used for ingestion and retrieval.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used for heading extraction, synthesis and the agent.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}
	st, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	showModel(cmd, "Embedding", st.Embedding.Provider, st.Embedding.Model, st.Embedding.BaseURL,
		st.Embedding.APIKey, st.Embedding.IsConfigured())
	if st.Embedding.RateLimit > 0 {
		cmd.Printf("  Rate Limit: %.1f req/s\n", st.Embedding.RateLimit)
	}
	cmd.Println()
	showModel(cmd, "LLM", st.LLM.Provider, st.LLM.Model, st.LLM.BaseURL, st.LLM.APIKey, st.LLM.IsConfigured())
	cmd.Println()

	vs := st.VectorStore
	cmd.Println("[Vector Store]")
	cmd.Printf("  Backend: %s\n", vs.Backend)
	switch vs.Backend {
	case domain.VectorBackendPgvector:
		cmd.Printf("  DSN: %s\n", orNotSet(maskDSN(vs.DSN)))
	case domain.VectorBackendSQLite:
		cmd.Printf("  Path: %s\n", vs.Path)
	}
	cmd.Printf("  Collection: %s\n", vs.Collection)
	cmd.Printf("  Distance: %s\n\n", vs.Distance)

	cmd.Println("[Pipeline]")
	cmd.Printf("  Documents: %s (%s)\n", st.Ingestion.Dir, strings.Join(st.Ingestion.Extensions, ", "))
	cmd.Printf("  Chunk Size: %d tokens (%s)\n", st.Chunker.MaxTokens, st.Chunker.Encoding)
	cmd.Printf("  Top K: %d\n", st.RAG.TopK)
	cmd.Printf("  Agent Steps: %d\n", st.Agent.MaxSteps)
	cmd.Printf("  Timeouts: rag %s, agent %s\n\n", st.Orchestrator.RAGTimeout, st.Orchestrator.AgentTimeout)

	cmd.Println("[Services]")
	cmd.Printf("  Transcription: %s (timeout %s)\n", st.Transcription.URL, st.Transcription.Timeout)
	cmd.Printf("  Interaction Log: %s\n", st.InteractionLog.Backend)
	if st.InteractionLog.Backend == "redis" {
		cmd.Printf("  Redis: %s (%s)\n", st.InteractionLog.RedisAddr, st.InteractionLog.Key)
	}
	cmd.Printf("  HTTP Address: %s\n\n", st.HTTP.Addr)

	if err := svc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'sercha-voice settings wizard' to fix configuration issues.")
		return nil
	}
	cmd.Println("Configuration is valid.")
	return nil
}

// showModel prints one provider section. Local providers show their URL,
// cloud ones their masked key.
func showModel(cmd *cobra.Command, title string, p domain.AIProvider, model, baseURL, apiKey string, ok bool) {
	cmd.Printf("[%s]\n", title)
	cmd.Printf("  Provider: %s\n", p.Description())
	cmd.Printf("  Model: %s\n", model)
	if p.IsLocal() {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if p.RequiresAPIKey() {
		key := ""
		if apiKey != "" {
			key = maskAPIKey(apiKey)
		}
		cmd.Printf("  API Key: %s\n", orNotSet(key))
	}
	status := "configured"
	if !ok {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func orNotSet(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	if err := svc.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

// providerStep is one interactive provider prompt. The wizard runs the
// embedding step then the LLM step.
type providerStep struct {
	label     string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	apply     func(p domain.AIProvider, model, apiKey string) error
	validate  func() error
}

func embeddingStep(svc driving.SettingsService) providerStep {
	return providerStep{
		label:     "Embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		apply:     svc.SetEmbeddingProvider,
		validate:  svc.ValidateEmbeddingConfig,
	}
}

func llmStep(svc driving.SettingsService) providerStep {
	return providerStep{
		label:     "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		apply:     svc.SetLLMProvider,
		validate:  svc.ValidateLLMConfig,
	}
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	cmd.Println("Sercha Voice Settings Wizard")
	cmd.Println("============================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())
	for i, step := range []providerStep{embeddingStep(svc), llmStep(svc)} {
		heading := fmt.Sprintf("Step %d: Configure %s Provider", i+1, step.label)
		cmd.Println(heading)
		cmd.Println(strings.Repeat("-", len(heading)))
		if err := step.run(cmd, reader); err != nil {
			return err
		}
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := svc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		return nil
	}
	cmd.Println("All settings are valid and saved.")
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}
	return embeddingStep(svc).run(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}
	return llmStep(svc).run(cmd, bufio.NewReader(cmd.InOrStdin()))
}

// run prompts for provider, model and key, saves them and checks the
// provider answers.
func (s providerStep) run(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Printf("Select %s Provider\n", s.label)
	for i, p := range s.providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := s.providers[parseChoice(readLine(reader), len(s.providers), 1)-1]

	model := s.models[provider]
	cmd.Printf("Enter model name [%s]: ", model)
	if in := readLine(reader); in != "" {
		model = in
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd, reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := s.apply(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", s.label, err)
	}

	cmd.Print("Validating configuration... ")
	if err := s.validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", s.label, err)
	}
	cmd.Println("OK")
	cmd.Printf("%s provider configured: %s (%s)\n\n", s.label, provider.Description(), model)
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal.
func readPassword(cmd *cobra.Command, reader *bufio.Reader) string {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password of a connection string.
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); !ok {
		return dsn
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}
