package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Range is an inclusive numeric bound. A zero Min or Max leaves that side open.
type Range struct {
	Min int `json:"min,omitempty" toml:"min,omitempty"`
	Max int `json:"max,omitempty" toml:"max,omitempty"`
}

// IsSet returns true if either bound is present.
func (r Range) IsSet() bool {
	return r.Min != 0 || r.Max != 0
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v int) bool {
	if r.Min != 0 && v < r.Min {
		return false
	}
	if r.Max != 0 && v > r.Max {
		return false
	}
	return true
}

func (r Range) validate(field string) error {
	if r.Min < 0 || r.Max < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidCriteria, field)
	}
	if r.Min != 0 && r.Max != 0 && r.Min > r.Max {
		return fmt.Errorf("%w: %s min %d exceeds max %d", ErrInvalidCriteria, field, r.Min, r.Max)
	}
	return nil
}

// SearchCriteria describes what to look for across every source.
// It carries no source-specific fields; adapters interpret what they support
// and signal a skip for what they cannot satisfy.
type SearchCriteria struct {
	// Make is the manufacturer, e.g. "FORD". Required.
	Make string `json:"make" toml:"make"`

	// Model is the model name, e.g. "FOCUS".
	Model string `json:"model,omitempty" toml:"model,omitempty"`

	// Price bounds in whole currency units.
	Price Range `json:"price,omitempty" toml:"price,omitempty"`

	// Mileage bounds.
	Mileage Range `json:"mileage,omitempty" toml:"mileage,omitempty"`

	// Age bounds in years.
	Age Range `json:"age,omitempty" toml:"age,omitempty"`

	// Colour filters by exterior colour when a source supports it.
	Colour string `json:"colour,omitempty" toml:"colour,omitempty"`

	// Category filters by body type or listing category.
	Category string `json:"category,omitempty" toml:"category,omitempty"`
}

// Normalise returns a copy with trimmed, upper-cased make and model
// and trimmed free-text fields.
func (c SearchCriteria) Normalise() SearchCriteria {
	c.Make = strings.ToUpper(strings.TrimSpace(c.Make))
	c.Model = strings.ToUpper(strings.TrimSpace(c.Model))
	c.Colour = strings.TrimSpace(c.Colour)
	c.Category = strings.TrimSpace(c.Category)
	return c
}

// Validate rejects criteria that no source could meaningfully run.
func (c SearchCriteria) Validate() error {
	if strings.TrimSpace(c.Make) == "" {
		return fmt.Errorf("%w: make is required", ErrInvalidCriteria)
	}
	if err := c.Price.validate("price"); err != nil {
		return err
	}
	if err := c.Mileage.validate("mileage"); err != nil {
		return err
	}
	return c.Age.validate("age")
}

// Values flattens the criteria into string parameters.
// Unset fields are omitted. Adapters use these to fill query templates.
func (c SearchCriteria) Values() map[string]string {
	v := map[string]string{"make": c.Make}
	set := func(key, val string) {
		if val != "" {
			v[key] = val
		}
	}
	setInt := func(key string, n int) {
		if n != 0 {
			v[key] = strconv.Itoa(n)
		}
	}
	set("model", c.Model)
	set("colour", c.Colour)
	set("category", c.Category)
	setInt("price_min", c.Price.Min)
	setInt("price_max", c.Price.Max)
	setInt("mileage_min", c.Mileage.Min)
	setInt("mileage_max", c.Mileage.Max)
	setInt("age_min", c.Age.Min)
	setInt("age_max", c.Age.Max)
	return v
}

// String renders the criteria as "key=value" pairs in a stable order.
func (c SearchCriteria) String() string {
	values := c.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+values[k])
	}
	return strings.Join(parts, " ")
}
