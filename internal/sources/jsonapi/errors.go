package jsonapi

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// JSON API adapter errors.
var (
	// ErrEndpointRequired indicates the endpoint option is missing.
	ErrEndpointRequired = errors.New("jsonapi: endpoint is required")

	// ErrInvalidEndpoint indicates the endpoint template does not expand to a URL.
	ErrInvalidEndpoint = errors.New("jsonapi: invalid endpoint")

	// ErrItemsNotFound indicates items_path does not lead to an array.
	ErrItemsNotFound = errors.New("jsonapi: items not found")

	// ErrQueryByURLRequired indicates a source configured without query_by_url.
	ErrQueryByURLRequired = fmt.Errorf("%w: jsonapi: source must set query_by_url", domain.ErrInvalidInput)

	// ErrNotHTTPContext indicates the adapter was given a non-HTTP execution context.
	ErrNotHTTPContext = errors.New("jsonapi: execution context is not an HTTP session")
)

// APIError represents a non-2xx response from the source.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jsonapi: API error %d (URL: %s)", e.StatusCode, e.URL)
}

// IsUnauthorized checks if the error indicates rejected credentials.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}
