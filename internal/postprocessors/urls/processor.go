// Package urls resolves relative listing links against the source's base.
package urls

import (
	"context"
	"net/url"
	"strings"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
	"github.com/custodia-labs/carsweep/internal/logger"
)

// Name is the processor identifier.
const Name = "urls"

// OptBaseURL overrides the base used for relative links.
const OptBaseURL = "base_url"

// baseOptions are tried in order when base_url is unset.
var baseOptions = []string{OptBaseURL, "endpoint", "landing"}

// Ensure Processor implements the interface.
var _ driven.ListingProcessor = (*Processor)(nil)

// Processor makes URL and ImageURL absolute and drops listings without a link.
type Processor struct{}

// New creates a urls processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor identifier.
func (p *Processor) Name() string {
	return Name
}

// Process resolves links in place.
func (p *Processor) Process(
	_ context.Context, source domain.SourceDescriptor, items []domain.Listing,
) ([]domain.Listing, error) {
	base := baseURL(&source)

	kept := items[:0]
	for i := range items {
		l := items[i]
		l.URL = resolve(base, l.URL)
		if l.URL == "" {
			logger.Debug("urls: %s: dropping listing %q without a link", source.Name, l.Title)
			continue
		}
		l.ImageURL = resolve(base, l.ImageURL)
		kept = append(kept, l)
	}
	return kept, nil
}

func baseURL(source *domain.SourceDescriptor) *url.URL {
	for _, key := range baseOptions {
		raw := source.Option(key, "")
		if raw == "" {
			continue
		}
		u, err := url.Parse(strings.TrimSpace(raw))
		if err == nil && u.IsAbs() {
			return u
		}
	}
	return nil
}

// resolve returns ref made absolute against base. Unparseable references
// are returned trimmed but otherwise unchanged.
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() || base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
