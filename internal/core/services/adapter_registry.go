package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
	"github.com/custodia-labs/carsweep/internal/core/ports/driving"
)

// Ensure AdapterRegistry implements the interfaces.
var (
	_ driven.AdapterFactory   = (*AdapterRegistry)(nil)
	_ driving.AdapterRegistry = (*AdapterRegistry)(nil)
)

// AdapterRegistry builds source adapters by type and describes the
// available adapter types.
type AdapterRegistry struct {
	mu       sync.RWMutex
	builders map[string]driven.AdapterBuilder
	types    map[string]domain.AdapterType
}

// NewAdapterRegistry creates an empty registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		builders: make(map[string]driven.AdapterBuilder),
		types:    make(map[string]domain.AdapterType),
	}
}

// Register adds an adapter builder for the given type.
func (r *AdapterRegistry) Register(adapterType string, builder driven.AdapterBuilder) {
	r.RegisterType(domain.AdapterType{ID: adapterType, Name: adapterType}, builder)
}

// RegisterType adds an adapter builder together with its description.
func (r *AdapterRegistry) RegisterType(t domain.AdapterType, builder driven.AdapterBuilder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[t.ID] = builder
	r.types[t.ID] = t
}

// Create returns a fresh adapter for the given source.
func (r *AdapterRegistry) Create(source domain.SourceDescriptor) (driven.SourceAdapter, error) {
	r.mu.RLock()
	builder, ok := r.builders[source.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: adapter %q", domain.ErrUnsupportedType, source.Type)
	}
	return builder(source)
}

// SupportedTypes returns all registered adapter types, sorted.
func (r *AdapterRegistry) SupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]string, 0, len(r.builders))
	for id := range r.builders {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// List returns the descriptions of all registered adapter types.
func (r *AdapterRegistry) List() []domain.AdapterType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.AdapterType, 0, len(r.types))
	for _, t := range r.types {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Get returns a specific adapter type by ID.
func (r *AdapterRegistry) Get(id string) (*domain.AdapterType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

// ValidateSource checks a descriptor against its adapter type:
// the type must be registered, every required option set, and
// query_by_url set when the type only works that way.
func (r *AdapterRegistry) ValidateSource(source domain.SourceDescriptor) error {
	if err := source.Validate(); err != nil {
		return err
	}
	t, err := r.Get(source.Type)
	if err != nil {
		return fmt.Errorf("%w: source %s: adapter %q", domain.ErrUnsupportedType, source.Name, source.Type)
	}
	if t.QueryByURL && !source.Capabilities.QueryByURL {
		return fmt.Errorf("%w: source %s: adapter %q needs query_by_url", domain.ErrInvalidInput, source.Name, source.Type)
	}
	for _, key := range t.Options {
		if key.Required && source.Option(key.Key, "") == "" {
			return fmt.Errorf("%w: source %s: option %q is required", domain.ErrInvalidInput, source.Name, key.Key)
		}
	}
	return nil
}
