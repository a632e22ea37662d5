package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// Ensure Catalogue implements the interface.
var _ driven.SourceCatalogue = (*Catalogue)(nil)

// Catalogue is an in-memory driven.SourceCatalogue that keeps insertion order.
type Catalogue struct {
	mu      sync.RWMutex
	sources []domain.SourceDescriptor
}

// NewCatalogue creates a catalogue holding sources in the given order.
func NewCatalogue(sources ...domain.SourceDescriptor) *Catalogue {
	c := &Catalogue{}
	c.Replace(sources)
	return c
}

// Replace swaps the whole catalogue. Snapshots taken earlier are unaffected.
func (c *Catalogue) Replace(sources []domain.SourceDescriptor) {
	next := make([]domain.SourceDescriptor, len(sources))
	for i, src := range sources {
		next[i] = cloneDescriptor(src)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = next
}

// List returns a snapshot of every source in catalogue order.
func (c *Catalogue) List(_ context.Context) ([]domain.SourceDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]domain.SourceDescriptor, len(c.sources))
	for i, src := range c.sources {
		result[i] = cloneDescriptor(src)
	}
	return result, nil
}

func cloneDescriptor(src domain.SourceDescriptor) domain.SourceDescriptor {
	if src.Options != nil {
		opts := make(map[string]string, len(src.Options))
		for k, v := range src.Options {
			opts[k] = v
		}
		src.Options = opts
	}
	return src
}
