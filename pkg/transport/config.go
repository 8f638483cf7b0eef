package transport

import (
	"log/slog"
	"time"
)

// Config holds websocket channel settings.
type Config struct {
	// HandshakeTimeout bounds the websocket upgrade.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration

	// ReadTimeout closes the channel when nothing arrives for this long.
	// Zero disables the deadline; realtime sessions can be silent for minutes.
	ReadTimeout time.Duration

	// EventBuffer is the capacity of the event channel.
	EventBuffer int

	// Logger for channel events.
	Logger *slog.Logger
}

// DefaultConfig returns the default channel settings.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		EventBuffer:      256,
		Logger:           slog.Default(),
	}
}

// Option configures a websocket dialer.
type Option func(*Config)

// WithHandshakeTimeout sets the upgrade timeout.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Config) { c.HandshakeTimeout = d }
}

// WithWriteTimeout sets the per-frame write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) { c.WriteTimeout = d }
}

// WithReadTimeout sets the idle read deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) { c.ReadTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
