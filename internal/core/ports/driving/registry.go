package driving

import "github.com/custodia-labs/carsweep/internal/core/domain"

// AdapterRegistry describes the available source adapter types.
type AdapterRegistry interface {
	// List returns all registered adapter types.
	List() []domain.AdapterType

	// Get returns a specific adapter type by ID.
	Get(id string) (*domain.AdapterType, error)

	// ValidateSource checks a descriptor against its adapter type.
	ValidateSource(source domain.SourceDescriptor) error
}
