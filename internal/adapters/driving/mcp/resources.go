package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for sercha-voice resources.
	uriScheme = "sercha-voice://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Names of all indexed documents",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "interactions/{queryId}",
		Name:        "interactions",
		Description: "Recorded branch outcomes of an asked question",
		MIMEType:    "application/json",
	}, s.handleInteractionsResource)
}

// handleDocumentsResource returns the indexed document names.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	names := []string{}
	if s.ports.Document != nil {
		list, err := s.ports.Document.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing documents: %w", err)
		}
		names = append(names, list...)
	}

	return jsonResource(req.Params.URI, names)
}

// handleInteractionsResource returns the recorded outcomes for a query ID.
func (s *Server) handleInteractionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Orchestrator == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	queryID := extractQueryID(req.Params.URI)
	if queryID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	recs, err := s.ports.Orchestrator.Interactions(ctx, queryID)
	if err != nil {
		return nil, fmt.Errorf("reading interactions: %w", err)
	}
	if len(recs) == 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return jsonResource(req.Params.URI, recs)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractQueryID extracts the query ID from a URI like sercha-voice://interactions/{queryId}.
func extractQueryID(uri string) string {
	const prefix = uriScheme + "interactions/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
