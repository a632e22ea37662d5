// Package dedupe drops repeated listings within one source's results.
package dedupe

import (
	"context"
	"net/url"
	"strings"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// Name is the processor identifier.
const Name = "dedupe"

// Ensure Processor implements the interface.
var _ driven.ListingProcessor = (*Processor)(nil)

// Processor keeps the first listing for each link. Sources that page with
// overlapping windows repeat listings; links are compared without fragment,
// trailing slash or host case.
type Processor struct{}

// New creates a dedupe processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor identifier.
func (p *Processor) Name() string {
	return Name
}

// Process removes later duplicates, preserving order.
func (p *Processor) Process(
	_ context.Context, _ domain.SourceDescriptor, items []domain.Listing,
) ([]domain.Listing, error) {
	seen := make(map[string]bool, len(items))
	kept := items[:0]
	for i := range items {
		key := Key(items[i].URL)
		if key != "" && seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, items[i])
	}
	return kept, nil
}

// Key returns the comparison key for a listing link.
func Key(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	u.Scheme = strings.ToLower(u.Scheme)
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
