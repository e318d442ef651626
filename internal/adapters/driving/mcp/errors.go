// Package mcp provides an MCP (Model Context Protocol) server adapter for sercha-voice.
// It lets AI assistants search the procedure manuals and ask questions
// answered by the retrieval and agent pipelines.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// errAskUnavailable is returned by the ask tools when no engine is wired.
var errAskUnavailable = errors.New("question answering is not configured")
