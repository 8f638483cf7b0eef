package live

import (
	"errors"
	"fmt"
)

var (
	ErrMissingAPIKey = errors.New("live: API key is required")
	ErrMissingURL    = errors.New("live: URL is required")
	ErrNotConnected  = errors.New("live: not connected")
	ErrEmptyAudio    = errors.New("live: empty audio chunk")
)

// CloseError reports the upstream closing the session. Reason carries the
// provider text, e.g. quota messages.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("live: upstream closed (%d): %s", e.Code, e.Reason)
}

// IsCloseError reports whether err wraps a CloseError.
func IsCloseError(err error) (*CloseError, bool) {
	var ce *CloseError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
