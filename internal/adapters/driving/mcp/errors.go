// Package mcp provides an MCP (Model Context Protocol) server adapter for docsync.
// It lets AI assistants retrieve documentation context, trigger syncs and
// read component files from the synced repository.
package mcp

import "errors"

// ErrMissingRetriever is returned when the retriever is not provided.
var ErrMissingRetriever = errors.New("mcp: retriever is required")
