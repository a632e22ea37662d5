package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoSearchService indicates that no search service was provided.
	ErrNoSearchService = errors.New("search service is required")

	// ErrMissingMake indicates a query without a make.
	ErrMissingMake = errors.New("query needs a make, e.g. ford focus")

	// ErrInvalidQuery indicates a malformed query token.
	ErrInvalidQuery = errors.New("invalid query")
)
