// Package mcp provides an MCP (Model Context Protocol) server adapter for carsweep.
// It lets AI assistants run listing searches and read stored runs.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
