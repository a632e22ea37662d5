package postprocessors

import (
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
	"github.com/custodia-labs/carsweep/internal/postprocessors/clean"
	"github.com/custodia-labs/carsweep/internal/postprocessors/dedupe"
	"github.com/custodia-labs/carsweep/internal/postprocessors/urls"
)

// DefaultNames is the pipeline used when none is configured.
var DefaultNames = []string{clean.Name, urls.Name, dedupe.Name}

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register(clean.Name, buildClean)
	r.Register(urls.Name, func(map[string]any) (driven.ListingProcessor, error) {
		return urls.New(), nil
	})
	r.Register(dedupe.Name, func(map[string]any) (driven.ListingProcessor, error) {
		return dedupe.New(), nil
	})
}

// buildClean creates a clean processor from generic config.
// Supported config keys:
//   - max_length (int): rune cap per text field (default: none)
func buildClean(cfg map[string]any) (driven.ListingProcessor, error) {
	var opts []clean.Option
	if size := getIntFromConfig(cfg, "max_length"); size > 0 {
		opts = append(opts, clean.WithMaxLength(size))
	}
	return clean.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
