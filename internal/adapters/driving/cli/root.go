// Package cli implements the sercha-voice command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-voice/internal/logger"
)

// errServicesNotConfigured is returned when a command needs services that
// were never provided.
var errServicesNotConfigured = errors.New("services not configured")

// Services gives commands access to the application services.
// Implementations construct each service on first use, so commands that
// only need settings never contact the language model.
type Services interface {
	Settings() (driving.SettingsService, error)
	Documents() (driving.DocumentService, error)
	Search() (driving.SearchService, error)
	Ingestion() (driving.IngestionService, error)
	Watcher() (driven.FileWatcher, error)
	RAG() (driving.RAGEngine, error)
	Agent() (driving.AgentEngine, error)
	Orchestrator() (driving.Orchestrator, error)
	Transcription() (driving.TranscriptionService, error)
	Close() error
}

// ServiceFactory builds Services from the config file path.
// An empty path selects the default location.
type ServiceFactory func(configPath string) (Services, error)

var (
	version = "dev"

	verbose    bool
	configPath string

	serviceFactory ServiceFactory
	services       Services
)

var rootCmd = &cobra.Command{
	Use:   "sercha-voice",
	Short: "Voice-driven procedure lookup over your documents",
	Long: `sercha-voice answers spoken or typed questions about a collection of
procedure documents.

Documents are chunked, embedded and stored in a vector collection. Each
question runs two strategies side by side: retrieval with a single
synthesis call, and a tool-calling agent that searches on its own.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.sercha-voice/config.toml)")
}

// SetServiceFactory registers the constructor used to build services.
func SetServiceFactory(f ServiceFactory) {
	serviceFactory = f
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command until it completes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeServices()

	return rootCmd.ExecuteContext(ctx)
}

func initServices(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if services != nil || serviceFactory == nil {
		return nil
	}
	s, err := serviceFactory(configPath)
	if err != nil {
		return err
	}
	services = s
	return nil
}

func closeServices() {
	if services == nil {
		return
	}
	if err := services.Close(); err != nil {
		logger.Warn("closing services: %v", err)
	}
	services = nil
}

// requireServices returns the configured services or an error.
func requireServices() (Services, error) {
	if services == nil {
		return nil, errServicesNotConfigured
	}
	return services, nil
}

// Typed accessors keep RunE functions short.

func settingsService() (driving.SettingsService, error) {
	s, err := requireServices()
	if err != nil {
		return nil, err
	}
	return s.Settings()
}

func documentService() (driving.DocumentService, error) {
	s, err := requireServices()
	if err != nil {
		return nil, err
	}
	return s.Documents()
}

func searchService() (driving.SearchService, error) {
	s, err := requireServices()
	if err != nil {
		return nil, err
	}
	return s.Search()
}

func ingestionService() (driving.IngestionService, error) {
	s, err := requireServices()
	if err != nil {
		return nil, err
	}
	return s.Ingestion()
}

func ragEngine() (driving.RAGEngine, error) {
	s, err := requireServices()
	if err != nil {
		return nil, err
	}
	return s.RAG()
}

func agentEngine() (driving.AgentEngine, error) {
	s, err := requireServices()
	if err != nil {
		return nil, err
	}
	return s.Agent()
}

func orchestrator() (driving.Orchestrator, error) {
	s, err := requireServices()
	if err != nil {
		return nil, err
	}
	return s.Orchestrator()
}

func transcriptionService() (driving.TranscriptionService, error) {
	s, err := requireServices()
	if err != nil {
		return nil, err
	}
	return s.Transcription()
}

// ingestionDir returns the directory argument, or the configured one.
func ingestionDir(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	settings, err := settingsService()
	if err != nil {
		return "", err
	}
	cfg, err := settings.Get()
	if err != nil {
		return "", fmt.Errorf("failed to get settings: %w", err)
	}
	return cfg.Ingestion.Dir, nil
}
