package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sercha-voice/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search the
procedure collection and ask questions.

By default, the server communicates over stdio using JSON-RPC.
Use --port to serve streamable HTTP instead.

When the language model cannot be configured the server still starts with
the search tool only.

Examples:
  # Stdio mode (default)
  sercha-voice mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  sercha-voice mcp serve --port 8090`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	search, err := searchService()
	if err != nil {
		return err
	}
	ports := &mcp.Ports{Search: search}
	if ports.Document, err = documentService(); err != nil {
		return err
	}
	if ports.Orchestrator, err = orchestrator(); err != nil {
		logger.Warn("mcp: answer tools disabled: %v", err)
		ports.Orchestrator = nil
	} else {
		// Both engines were built for the orchestrator, so these cannot fail.
		ports.RAG, _ = ragEngine()
		ports.Agent, _ = agentEngine()
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
