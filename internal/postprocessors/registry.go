package postprocessors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// BuilderFunc builds a processor from its settings. settings is nil when
// the user configured nothing for it.
type BuilderFunc func(settings map[string]any) (driven.ListingProcessor, error)

// SettingsFunc returns the settings for the named processor.
type SettingsFunc func(name string) map[string]any

// Registry maps processor names, as written in search.postprocessors, to
// builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register adds or replaces the builder for name.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build constructs one processor.
func (r *Registry) Build(name string, settings map[string]any) (driven.ListingProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown listing processor %q (available: %s)",
			domain.ErrInvalidInput, name, strings.Join(r.Names(), ", "))
	}
	proc, err := builder(settings)
	if err != nil {
		return nil, fmt.Errorf("processor %s: %w", name, err)
	}
	return proc, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pipeline builds the named processors in order. settings may be nil.
// Naming a processor twice is an error since the second copy could only
// repeat the first one's work.
func (r *Registry) Pipeline(names []string, settings SettingsFunc) (*Pipeline, error) {
	p := NewPipeline()
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("%w: listing processor %q named twice", domain.ErrInvalidInput, name)
		}
		seen[name] = true

		var cfg map[string]any
		if settings != nil {
			cfg = settings(name)
		}
		proc, err := r.Build(name, cfg)
		if err != nil {
			return nil, err
		}
		p.Add(proc)
	}
	return p, nil
}
