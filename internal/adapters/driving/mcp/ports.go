package mcp

import (
	"github.com/custodia-labs/carsweep/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Search runs searches across sources.
	Search driving.SearchService

	// History exposes stored runs.
	History driving.RunHistoryService

	// Adapters describes the available adapter types.
	Adapters driving.AdapterRegistry
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
