package sources

import (
	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
	"github.com/custodia-labs/carsweep/internal/sources/fixture"
	"github.com/custodia-labs/carsweep/internal/sources/jsonapi"
	"github.com/custodia-labs/carsweep/internal/sources/webpage"
)

// Registrar accepts adapter builders with their descriptions.
type Registrar interface {
	RegisterType(t domain.AdapterType, builder driven.AdapterBuilder)
}

// RegisterDefaults registers all built-in adapters with the registry.
// Call this during application initialisation before any run is planned.
func RegisterDefaults(r Registrar) {
	r.RegisterType(jsonapi.Type(), jsonapi.Build)
	r.RegisterType(webpage.Type(), webpage.Build)
	r.RegisterType(fixture.Type(), fixture.Build)
}
