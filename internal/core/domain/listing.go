package domain

import "time"

// Listing is the common envelope for one item found on a source.
// It is created by an adapter and owned by the aggregator afterwards.
type Listing struct {
	URL          string    `json:"url"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Title        string    `json:"title"`
	Price        string    `json:"price,omitempty"`
	Location     string    `json:"location,omitempty"`
	Registration string    `json:"registration,omitempty"`
	SourceName   string    `json:"sourceName"`
	Timestamp    time.Time `json:"timestamp"`

	// Mileage and Year are optional fields some adapters provide.
	Mileage string `json:"mileage,omitempty"`
	Year    string `json:"year,omitempty"`

	// Extra holds remaining adapter-specific fields.
	Extra map[string]string `json:"extra,omitempty"`
}
