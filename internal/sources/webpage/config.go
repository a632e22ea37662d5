package webpage

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// Option keys read from the source descriptor.
const (
	OptLanding    = "landing"
	OptItem       = "item"
	OptResults    = "results"
	OptSubmit     = "submit"
	OptStrict     = "strict"
	OptOptionWait = "option_wait"

	OptLoginURL      = "login_url"
	OptLoginUsername = "login_username"
	OptLoginPassword = "login_password"
	OptLoginSubmit   = "login_submit"
	OptLoginSuccess  = "login_success"

	// Prefixed keys: select.<criterion>, input.<criterion>, field.<name>, extra.<name>.
	selectPrefix = "select."
	inputPrefix  = "input."
	fieldPrefix  = "field."
	extraPrefix  = "extra."
)

// DefaultOptionWait bounds how long a dependent dropdown may take to offer a value.
const DefaultOptionWait = 5 * time.Second

// Default field selectors relative to each result item.
var defaultFields = map[string]string{
	"url":      "a@href",
	"title":    "h2",
	"price":    ".price",
	"image":    "img@src",
	"location": ".location",
}

// Field locates one value inside a result item.
type Field struct {
	// Selector is relative to the item. Empty selects the item itself.
	Selector string `json:"sel,omitempty"`

	// Attr reads an attribute instead of the text content.
	Attr string `json:"attr,omitempty"`
}

// parseField parses "selector@attr".
func parseField(s string) Field {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "@"); i >= 0 {
		return Field{Selector: strings.TrimSpace(s[:i]), Attr: strings.TrimSpace(s[i+1:])}
	}
	return Field{Selector: s}
}

// Config holds the parsed configuration for a web page source.
type Config struct {
	// Landing is the search page refinements are applied on.
	Landing string

	// Selects maps criteria keys to dropdown selectors.
	Selects map[string]string

	// Inputs maps criteria keys to text input selectors.
	Inputs map[string]string

	// Submit is clicked after the refinements are set. Optional.
	Submit string

	// Results is waited for before extraction. Defaults to Item.
	Results string

	// Item selects one result card.
	Item string

	// Fields and Extra locate values inside each result card.
	Fields map[string]Field
	Extra  map[string]Field

	// Strict skips the job when a criterion has no control on the page.
	Strict bool

	// OptionWait bounds the wait for a dropdown to offer a value.
	OptionWait time.Duration

	// Login settings. LoginURL empty means no authentication.
	LoginURL      string
	LoginUsername string
	LoginPassword string
	LoginSubmit   string
	LoginSuccess  string
}

// ParseConfig parses a source descriptor's options into a Config.
func ParseConfig(source domain.SourceDescriptor) (*Config, error) {
	cfg := &Config{
		Landing:       source.Option(OptLanding, ""),
		Selects:       make(map[string]string),
		Inputs:        make(map[string]string),
		Submit:        source.Option(OptSubmit, ""),
		Item:          source.Option(OptItem, ""),
		Fields:        make(map[string]Field),
		Extra:         make(map[string]Field),
		OptionWait:    DefaultOptionWait,
		LoginURL:      source.Option(OptLoginURL, ""),
		LoginUsername: source.Option(OptLoginUsername, "input[name=username]"),
		LoginPassword: source.Option(OptLoginPassword, "input[type=password]"),
		LoginSubmit:   source.Option(OptLoginSubmit, "button[type=submit]"),
		LoginSuccess:  source.Option(OptLoginSuccess, ""),
	}
	cfg.Results = source.Option(OptResults, cfg.Item)

	if cfg.Landing == "" {
		return nil, fmt.Errorf("%w: webpage: %s is required", domain.ErrInvalidInput, OptLanding)
	}
	if cfg.Item == "" {
		return nil, fmt.Errorf("%w: webpage: %s is required", domain.ErrInvalidInput, OptItem)
	}

	for name, sel := range defaultFields {
		cfg.Fields[name] = parseField(sel)
	}
	for key, value := range source.Options {
		if strings.TrimSpace(value) == "" {
			continue
		}
		switch {
		case strings.HasPrefix(key, selectPrefix):
			cfg.Selects[strings.TrimPrefix(key, selectPrefix)] = value
		case strings.HasPrefix(key, inputPrefix):
			cfg.Inputs[strings.TrimPrefix(key, inputPrefix)] = value
		case strings.HasPrefix(key, fieldPrefix):
			cfg.Fields[strings.TrimPrefix(key, fieldPrefix)] = parseField(value)
		case strings.HasPrefix(key, extraPrefix):
			cfg.Extra[strings.TrimPrefix(key, extraPrefix)] = parseField(value)
		}
	}
	if _, ok := cfg.Selects["make"]; !ok {
		return nil, fmt.Errorf("%w: webpage: %smake is required", domain.ErrInvalidInput, selectPrefix)
	}

	if raw := source.Option(OptStrict, ""); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: webpage: option %s: %q is not a boolean", domain.ErrInvalidInput, OptStrict, raw)
		}
		cfg.Strict = v
	}
	if raw := source.Option(OptOptionWait, ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%w: webpage: option %s: %q is not a duration", domain.ErrInvalidInput, OptOptionWait, raw)
		}
		cfg.OptionWait = d
	}
	return cfg, nil
}

// Type describes the adapter for the registry.
func Type() domain.AdapterType {
	return domain.AdapterType{
		ID:          "webpage",
		Name:        "Web page",
		Description: "Drives a search form in a browser tab and reads the result cards",
		Context:     domain.ContextBrowser,
		Options: []domain.OptionKey{
			{Key: OptLanding, Label: "Landing page", Required: true, Description: "Search page URL"},
			{Key: selectPrefix + "make", Label: "Make dropdown", Required: true, Description: "Selector of the make dropdown"},
			{Key: OptItem, Label: "Result item", Required: true, Description: "Selector of one result card"},
			{Key: selectPrefix + "model", Label: "Model dropdown", Description: "Selector of the model dropdown"},
			{Key: OptSubmit, Label: "Submit", Description: "Selector clicked after refining"},
			{Key: OptResults, Label: "Results", Description: "Selector waited for before extraction"},
			{Key: OptStrict, Label: "Strict", Default: "false",
				Description: "Skip when a criterion has no control on the page"},
			{Key: OptOptionWait, Label: "Option wait", Default: DefaultOptionWait.String(),
				Description: "How long a dependent dropdown may take to load"},
			{Key: OptLoginURL, Label: "Login URL", Description: "Sign-in page; empty when the source is public"},
		},
	}
}

// selectKeys returns the dropdown criteria in the order they must be set:
// make, then model, then the rest by name.
func (c *Config) selectKeys() []string {
	keys := make([]string, 0, len(c.Selects))
	for key := range c.Selects {
		if key != "make" && key != "model" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	ordered := []string{"make"}
	if _, ok := c.Selects["model"]; ok {
		ordered = append(ordered, "model")
	}
	return append(ordered, keys...)
}
