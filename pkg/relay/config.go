package relay

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-analyst/pkg/live"
)

// Upstream defaults.
const (
	DefaultTavilyURL    = "https://api.tavily.com"
	DefaultFirecrawlURL = "https://api.firecrawl.dev"
	DefaultCacheTTL     = 5 * time.Minute
	DefaultOrigin       = "*"
)

// Config configures the relay server.
type Config struct {
	TavilyAPIKey    string
	FirecrawlAPIKey string
	GoogleAPIKey    string

	TavilyURL    string
	FirecrawlURL string
	GenAIBaseURL string // empty uses the SDK default
	LiveURL      string
	LiveModel    string

	FrontendOrigin string
	CacheTTL       time.Duration

	// Generator overrides the genai-backed generator.
	Generator Generator

	// DialLive overrides how Live sessions are opened.
	DialLive LiveDialer

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		TavilyURL:      DefaultTavilyURL,
		FirecrawlURL:   DefaultFirecrawlURL,
		LiveURL:        live.DefaultURL,
		LiveModel:      live.DefaultModel,
		FrontendOrigin: DefaultOrigin,
		CacheTTL:       DefaultCacheTTL,
	}
}

// Option modifies a Config.
type Option func(*Config)

// WithKeys sets the upstream API keys.
func WithKeys(tavily, firecrawl, google string) Option {
	return func(c *Config) {
		c.TavilyAPIKey = tavily
		c.FirecrawlAPIKey = firecrawl
		c.GoogleAPIKey = google
	}
}

// WithUpstreams overrides the Tavily and Firecrawl base URLs.
func WithUpstreams(tavily, firecrawl string) Option {
	return func(c *Config) {
		c.TavilyURL = tavily
		c.FirecrawlURL = firecrawl
	}
}

// WithGenAIBaseURL overrides the Gemini API base URL.
func WithGenAIBaseURL(url string) Option {
	return func(c *Config) { c.GenAIBaseURL = url }
}

// WithLive sets the Live endpoint and model.
func WithLive(url, model string) Option {
	return func(c *Config) {
		c.LiveURL = url
		c.LiveModel = model
	}
}

// WithFrontendOrigin sets the allowed CORS origin.
func WithFrontendOrigin(origin string) Option {
	return func(c *Config) { c.FrontendOrigin = origin }
}

// WithCacheTTL sets how long search responses are cached.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Config) { c.CacheTTL = d }
}

// WithGenerator replaces the generate backend.
func WithGenerator(g Generator) Option {
	return func(c *Config) { c.Generator = g }
}

// WithLiveDialer replaces how Live sessions are opened.
func WithLiveDialer(d LiveDialer) Option {
	return func(c *Config) { c.DialLive = d }
}

// WithHTTPClient sets the client used for upstream calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
