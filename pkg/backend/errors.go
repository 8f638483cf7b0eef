package backend

import (
	"errors"
	"fmt"
)

// Sentinel errors for the backend package.
var (
	// ErrNoBaseURL is returned when the relay address is missing.
	ErrNoBaseURL = errors.New("backend: base URL required")

	// ErrEmptyQuery is returned for a search without a query.
	ErrEmptyQuery = errors.New("backend: empty query")

	// ErrEmptyURL is returned for a scrape without a URL.
	ErrEmptyURL = errors.New("backend: empty url")

	// ErrScrapeFailed is returned when the scraper reports success=false.
	ErrScrapeFailed = errors.New("backend: scrape failed")
)

// APIError is a non-2xx answer from the relay.
type APIError struct {
	// Endpoint is the relay path that was called.
	Endpoint string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Detail is the relay's error detail, or the raw body.
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend %s: HTTP %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("backend %s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Detail)
}

// IsRateLimited returns true for HTTP 429.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsServerError returns true for HTTP 5xx.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsAPIError reports whether err is an APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
