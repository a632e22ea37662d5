// Package clean strips markup and stray whitespace from listing text fields.
package clean

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// Name is the processor identifier.
const Name = "clean"

// Ensure Processor implements the interface.
var _ driven.ListingProcessor = (*Processor)(nil)

// Processor normalises the human-readable fields of each listing.
type Processor struct {
	maxLength int
}

// Option configures the processor.
type Option func(*Processor)

// WithMaxLength caps each text field at n runes. Zero disables the cap.
func WithMaxLength(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.maxLength = n
		}
	}
}

// New creates a clean processor.
func New(opts ...Option) *Processor {
	p := &Processor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor identifier.
func (p *Processor) Name() string {
	return Name
}

// Process cleans every text field in place. URLs are left untouched.
func (p *Processor) Process(
	_ context.Context, _ domain.SourceDescriptor, items []domain.Listing,
) ([]domain.Listing, error) {
	for i := range items {
		l := &items[i]
		for _, field := range []*string{&l.Title, &l.Price, &l.Location, &l.Registration, &l.Mileage, &l.Year} {
			*field = p.text(*field)
		}
		for k, v := range l.Extra {
			l.Extra[k] = p.text(v)
		}
	}
	return items, nil
}

// Pre-compiled regular expressions for markup stripping.
var (
	scriptTag    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag     = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	brTags       = regexp.MustCompile(`(?i)<br\s*/?>`)
	allTags      = regexp.MustCompile(`<[^>]+>`)
	whitespace   = regexp.MustCompile(`[\s\p{Zs}]+`)
)

func (p *Processor) text(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsRune(s, '<') {
		s = scriptTag.ReplaceAllString(s, "")
		s = styleTag.ReplaceAllString(s, "")
		s = htmlComments.ReplaceAllString(s, "")
		s = brTags.ReplaceAllString(s, " ")
		s = allTags.ReplaceAllString(s, "")
	}
	s = html.UnescapeString(s)

	// Listing fields are single-line
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))

	if p.maxLength > 0 {
		if r := []rune(s); len(r) > p.maxLength {
			s = strings.TrimSpace(string(r[:p.maxLength]))
		}
	}
	return s
}
