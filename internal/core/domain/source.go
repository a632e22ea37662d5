package domain

import (
	"fmt"
	"strings"
)

// ContextKind selects which execution context pool serves a source.
type ContextKind string

// Supported execution context kinds.
const (
	// ContextHTTP is a cookie-isolated HTTP session.
	ContextHTTP ContextKind = "http"

	// ContextBrowser is an isolated headless browser tab.
	ContextBrowser ContextKind = "browser"
)

// IsValid returns true if the kind is recognised.
func (k ContextKind) IsValid() bool {
	return k == ContextHTTP || k == ContextBrowser
}

// SourceCapabilities describes how a source is driven.
type SourceCapabilities struct {
	// QueryByURL indicates the adapter can build a navigable query locator
	// from the criteria. When false the adapter refines through its UI.
	QueryByURL bool
}

// SourceDescriptor is the static configuration of one listing source.
// Descriptors are loaded once per run and never mutated during it.
type SourceDescriptor struct {
	// Name is the unique key of the source.
	Name string

	// Type identifies the adapter implementation (e.g. "jsonapi", "webpage").
	Type string

	// Credential references the secret used to authenticate, e.g. "env:AUTOS_TOKEN".
	// Empty for sources that need no authentication.
	Credential string

	// Context selects the execution context pool. Defaults to ContextHTTP.
	Context ContextKind

	// Capabilities describes how the adapter is driven.
	Capabilities SourceCapabilities

	// Options contains adapter-specific configuration.
	Options map[string]string

	// Disabled excludes the source from runs without removing it from the catalogue.
	Disabled bool
}

// Option returns an adapter option or fallback when unset.
func (s *SourceDescriptor) Option(key, fallback string) string {
	if v, ok := s.Options[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// ContextKind returns the configured execution context kind, defaulting to HTTP.
func (s *SourceDescriptor) ContextKind() ContextKind {
	if s.Context == "" {
		return ContextHTTP
	}
	return s.Context
}

// Validate checks the descriptor is usable.
func (s *SourceDescriptor) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: source name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(s.Type) == "" {
		return fmt.Errorf("%w: source %s: type is required", ErrInvalidInput, s.Name)
	}
	if !s.ContextKind().IsValid() {
		return fmt.Errorf("%w: source %s: unknown context %q", ErrInvalidInput, s.Name, s.Context)
	}
	return nil
}

// Credentials is the resolved, read-only secret material for one source.
// Credentials may be shared freely between concurrent jobs.
type Credentials struct {
	// Username for form logins. Empty for token authentication.
	Username string

	// Secret is the password or token.
	Secret string
}

// IsEmpty returns true if no credential material is present.
func (c Credentials) IsEmpty() bool {
	return c.Username == "" && c.Secret == ""
}

// AdapterType describes an available adapter implementation.
type AdapterType struct {
	// ID is the value used in SourceDescriptor.Type.
	ID string

	// Name is a human-readable name.
	Name string

	// Description explains what the adapter reads.
	Description string

	// Context is the execution context kind the adapter expects.
	Context ContextKind

	// QueryByURL is set when sources of this type must set query_by_url.
	QueryByURL bool

	// Options lists the adapter-specific options.
	Options []OptionKey
}

// OptionKey describes one adapter option.
type OptionKey struct {
	Key         string
	Label       string
	Description string
	Default     string
	Required    bool
}
