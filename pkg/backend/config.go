package backend

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds relay client configuration.
type Config struct {
	// BaseURL is the relay HTTP root, e.g. http://localhost:8000.
	BaseURL string

	// Timeout bounds every request. Generate calls with search grounding
	// can take most of a minute.
	Timeout time.Duration

	// HTTPClient overrides the shared client.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// DefaultBaseURL is the relay address used in development.
const DefaultBaseURL = "http://localhost:8000"

// DefaultConfig returns the development defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: 90 * time.Second,
		Logger:  slog.Default(),
	}
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithBaseURL sets the relay address.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// Apply applies options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	return nil
}
