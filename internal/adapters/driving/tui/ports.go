// Package tui provides an interactive terminal user interface for carsweep.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/carsweep/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search runs searches and lists the enabled sources.
	Search driving.SearchService

	// History exposes stored runs. Optional; the runs view is empty without it.
	History driving.RunHistoryService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(search driving.SearchService, history driving.RunHistoryService) *Ports {
	return &Ports{
		Search:  search,
		History: history,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
