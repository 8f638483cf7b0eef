package relay

import (
	"errors"
	"fmt"
)

var (
	errInvalidBody = errors.New("invalid request body")
	errEmptyQuery  = errors.New("query is required")
	errEmptyURL    = errors.New("url is required")
)

// notConfigured is the 500 detail for a missing API key.
func notConfigured(key string) string {
	return fmt.Sprintf("%s not configured", key)
}

// UpstreamError is a non-2xx answer from Tavily, Firecrawl or Gemini. The
// relay forwards its status code.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("relay: %s returned %d: %s", e.Provider, e.StatusCode, e.Detail)
}

// IsUpstreamError reports whether err wraps an UpstreamError.
func IsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
