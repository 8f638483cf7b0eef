package analysis

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-analyst/pkg/protocol"
	"github.com/teslashibe/go-analyst/pkg/timeline"
)

// Config holds pipeline configuration.
type Config struct {
	// Model is the generate model.
	Model string

	// GitHub REST API root and optional token for higher rate limits.
	GitHubURL   string
	GitHubToken string

	// SheetsAPIKey enables spreadsheet title lookup. SheetsEndpoint
	// overrides the Sheets API root.
	SheetsAPIKey    string
	SheetsEndpoint  string
	SheetsExportURL string

	// OEmbedURL resolves YouTube titles.
	OEmbedURL string

	// Extractor reads office formats. Nil rejects them as unsupported.
	Extractor Extractor

	HTTPClient *http.Client

	// Progress is simulated: it climbs to 95% over ProgressEstimate.
	ProgressEstimate time.Duration
	ProgressInterval time.Duration

	// Observers, all optional.
	OnStatus   func(msg string)
	OnEvent    func(msg string, cat timeline.Category)
	OnProgress func(percent int)

	Logger *slog.Logger
}

// DefaultConfig returns the public endpoints and a 45 s progress estimate.
func DefaultConfig() *Config {
	return &Config{
		Model:            protocol.DefaultGenerateModel,
		GitHubURL:        DefaultGitHubURL,
		SheetsExportURL:  DefaultSheetsExportURL,
		OEmbedURL:        DefaultOEmbedURL,
		ProgressEstimate: 45 * time.Second,
		ProgressInterval: 500 * time.Millisecond,
		Logger:           slog.Default(),
	}
}

// Option is a functional option for configuring the pipeline.
type Option func(*Config)

// WithModel sets the generate model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithGitHub sets the GitHub API root and token.
func WithGitHub(baseURL, token string) Option {
	return func(c *Config) {
		c.GitHubURL = baseURL
		c.GitHubToken = token
	}
}

// WithSheetsAPIKey enables spreadsheet title lookup.
func WithSheetsAPIKey(key string) Option {
	return func(c *Config) { c.SheetsAPIKey = key }
}

// WithSheetsEndpoints overrides the Sheets API root and CSV export root.
func WithSheetsEndpoints(api, export string) Option {
	return func(c *Config) {
		c.SheetsEndpoint = api
		c.SheetsExportURL = export
	}
}

// WithOEmbedURL overrides the YouTube title endpoint.
func WithOEmbedURL(url string) Option {
	return func(c *Config) { c.OEmbedURL = url }
}

// WithExtractor sets the office format extractor.
func WithExtractor(e Extractor) Option {
	return func(c *Config) { c.Extractor = e }
}

// WithHTTPClient sets the HTTP client for GitHub, export and oEmbed calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithProgress sets the simulated progress timing.
func WithProgress(estimate, interval time.Duration) Option {
	return func(c *Config) {
		c.ProgressEstimate = estimate
		c.ProgressInterval = interval
	}
}

// WithObservers sets status, timeline and progress callbacks.
func WithObservers(status func(string), event func(string, timeline.Category), progress func(int)) Option {
	return func(c *Config) {
		c.OnStatus = status
		c.OnEvent = event
		c.OnProgress = progress
	}
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
