package jsonapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// Option keys read from the source descriptor.
const (
	OptEndpoint      = "endpoint"
	OptItemsPath     = "items_path"
	OptMakes         = "makes"
	OptModels        = "models"
	OptStrict        = "strict"
	OptLowercase     = "lowercase"
	OptExtraFields   = "extra_fields"
	OptTokenParam    = "token_param"
	OptLoginURL      = "login_url"
	OptUsernameField = "username_field"
	OptPasswordField = "password_field"

	// fieldPrefix maps a listing field to a JSON path, e.g. "field.url" = "links.self".
	fieldPrefix = "field."
)

// Listing fields that can be mapped with a field.<name> option.
var listingFields = []string{
	"url", "title", "price", "image", "location", "registration", "mileage", "year",
}

// Config holds the parsed configuration for a JSON API source.
type Config struct {
	// Endpoint is the URL template.
	Endpoint string

	// ItemsPath is the dotted path to the results array.
	// Empty when the response body is the array itself.
	ItemsPath []string

	// Fields maps listing fields to dotted JSON paths.
	Fields map[string][]string

	// ExtraFields are copied into Listing.Extra when present.
	ExtraFields []string

	// Makes and Models restrict what the endpoint can serve.
	// Empty means any value is accepted.
	Makes  []string
	Models []string

	// Strict skips the job when the criteria set a field the template cannot express.
	Strict bool

	// Lowercase sends make and model in lower case.
	Lowercase bool

	// TokenParam is the query parameter carrying the credential secret.
	TokenParam string

	// LoginURL receives a form login before the query is sent.
	LoginURL      string
	UsernameField string
	PasswordField string
}

// ParseConfig parses a source descriptor's options into a Config.
func ParseConfig(source domain.SourceDescriptor) (*Config, error) {
	cfg := &Config{
		Endpoint:      strings.TrimSpace(source.Option(OptEndpoint, "")),
		ItemsPath:     splitPath(source.Option(OptItemsPath, "")),
		Fields:        make(map[string][]string, len(listingFields)),
		ExtraFields:   splitList(source.Option(OptExtraFields, "")),
		Makes:         upperAll(splitList(source.Option(OptMakes, ""))),
		Models:        upperAll(splitList(source.Option(OptModels, ""))),
		TokenParam:    source.Option(OptTokenParam, ""),
		LoginURL:      source.Option(OptLoginURL, ""),
		UsernameField: source.Option(OptUsernameField, "username"),
		PasswordField: source.Option(OptPasswordField, "password"),
	}

	if cfg.Endpoint == "" {
		return nil, ErrEndpointRequired
	}

	var err error
	if cfg.Strict, err = parseBool(source, OptStrict); err != nil {
		return nil, err
	}
	if cfg.Lowercase, err = parseBool(source, OptLowercase); err != nil {
		return nil, err
	}

	for _, field := range listingFields {
		cfg.Fields[field] = splitPath(source.Option(fieldPrefix+field, field))
	}
	return cfg, nil
}

// Type describes the adapter for the registry.
func Type() domain.AdapterType {
	return domain.AdapterType{
		ID:          "jsonapi",
		Name:        "JSON API",
		Description: "Queries a JSON search endpoint built from the criteria",
		Context:     domain.ContextHTTP,
		QueryByURL:  true,
		Options: []domain.OptionKey{
			{Key: OptEndpoint, Label: "Endpoint", Required: true,
				Description: "URL template with {make}, {model}, {price_min} style placeholders"},
			{Key: OptItemsPath, Label: "Items path", Description: "Dotted path to the results array"},
			{Key: OptMakes, Label: "Makes", Description: "Comma-separated makes the endpoint serves"},
			{Key: OptModels, Label: "Models", Description: "Comma-separated models the endpoint serves"},
			{Key: OptStrict, Label: "Strict", Default: "false",
				Description: "Skip when criteria set a field the endpoint cannot filter"},
			{Key: OptLowercase, Label: "Lowercase", Default: "false", Description: "Send make and model in lower case"},
			{Key: OptExtraFields, Label: "Extra fields", Description: "Comma-separated JSON keys kept as extras"},
			{Key: OptTokenParam, Label: "Token parameter", Description: "Query parameter carrying the credential secret"},
			{Key: OptLoginURL, Label: "Login URL", Description: "Form login endpoint for session cookies"},
			{Key: OptUsernameField, Label: "Username field", Default: "username"},
			{Key: OptPasswordField, Label: "Password field", Default: "password"},
		},
	}
}

// RequiresAuth reports whether the source needs credentials.
func (c *Config) RequiresAuth() bool {
	return c.TokenParam != "" || c.LoginURL != ""
}

// servesMake reports whether the manufacturer is in the allow list.
func (c *Config) servesMake(manufacturer string) bool {
	return allowed(c.Makes, manufacturer)
}

// servesModel reports whether model is in the allow list.
// An empty model is always served.
func (c *Config) servesModel(model string) bool {
	return model == "" || allowed(c.Models, model)
}

func allowed(list []string, v string) bool {
	if len(list) == 0 {
		return true
	}
	v = strings.ToUpper(v)
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func parseBool(source domain.SourceDescriptor, key string) (bool, error) {
	raw := source.Option(key, "false")
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: jsonapi: option %s: %q is not a boolean", domain.ErrInvalidInput, key, raw)
	}
	return v, nil
}

// splitList parses a comma-separated list.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitPath parses a dotted JSON path.
func splitPath(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

func upperAll(list []string) []string {
	for i := range list {
		list[i] = strings.ToUpper(list[i])
	}
	return list
}
