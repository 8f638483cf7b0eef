package transport

import (
	"errors"
	"fmt"
)

// Sentinel errors for the transport package.
var (
	// ErrNotConnected indicates a send on a channel that is not open.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrInvalidFrame indicates an outbound frame with no payload.
	ErrInvalidFrame = errors.New("transport: invalid frame")
)

// ConnectError reports a failure to open a channel.
type ConnectError struct {
	// Endpoint is the URL that was dialed.
	Endpoint string

	// StatusCode is the HTTP status of a rejected handshake, 0 otherwise.
	StatusCode int

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport: connect %s failed with status %d: %v", e.Endpoint, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("transport: connect %s failed: %v", e.Endpoint, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// IsConnectError reports whether err is a ConnectError.
func IsConnectError(err error) bool {
	var ce *ConnectError
	return errors.As(err, &ce)
}

// StatusCode extracts the handshake status from err, or 0.
func StatusCode(err error) int {
	var ce *ConnectError
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}
