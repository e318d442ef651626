package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	httpapi "github.com/custodia-labs/sercha-voice/internal/adapters/driving/http"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the query pipeline over HTTP until interrupted.

Endpoints:
  POST   /rag                {"transcription": "..."}
  POST   /agent              {"transcription": "..."}
  POST   /ask                {"transcription": "..."}
  POST   /transcribe         multipart audio in "file", optional "language"
  GET    /languages
  GET    /search?q=...&limit=N&heading=...&document=...
  GET    /documents
  DELETE /documents/{name}
  GET    /interactions?limit=N
  GET    /interactions/{query-id}
  GET    /health

The address defaults to the http.addr setting.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from http.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := settingsService()
	if err != nil {
		return err
	}
	cfg, err := settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	var svc httpapi.Services
	if svc.Orchestrator, err = orchestrator(); err != nil {
		return err
	}
	if svc.RAG, err = ragEngine(); err != nil {
		return err
	}
	if svc.Agent, err = agentEngine(); err != nil {
		return err
	}
	if svc.Search, err = searchService(); err != nil {
		return err
	}
	if svc.Document, err = documentService(); err != nil {
		return err
	}
	if svc.Transcription, err = transcriptionService(); err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.HTTP.Addr
	}
	server := httpapi.NewServer(httpapi.Config{
		Addr:         addr,
		Version:      version,
		WriteTimeout: cfg.Orchestrator.RAGTimeout + cfg.Orchestrator.AgentTimeout + httpapi.DefaultConfig().WriteTimeout,
	}, svc)

	cmd.Printf("HTTP API listening on %s\n", server.Addr())
	return server.Run(cmd.Context())
}
