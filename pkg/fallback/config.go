package fallback

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-analyst/pkg/tts"
)

// Config configures the fallback adapter's text provider.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Title       string
	Temperature float32
	MaxTokens   int

	// Language is the session language, used for recognition and voice choice.
	Language string

	// SpeechBaseURL overrides the OpenAI endpoint for recognition and speech.
	SpeechBaseURL string

	// SpeechModels are tried in order for each reply.
	SpeechModels []string

	// Timeout bounds one provider request.
	Timeout time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Option configures the adapter.
type Option func(*Config)

// WithAPIKey sets the OpenRouter key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL overrides the OpenRouter endpoint.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithLanguage sets the session language.
func WithLanguage(lang string) Option {
	return func(c *Config) { c.Language = lang }
}

// WithSpeechBaseURL overrides the OpenAI endpoint used for speech.
func WithSpeechBaseURL(url string) Option {
	return func(c *Config) { c.SpeechBaseURL = url }
}

// WithSpeechModels sets the speech models tried in order.
func WithSpeechModels(models ...string) Option {
	return func(c *Config) { c.SpeechModels = models }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithHTTPClient sets the HTTP client used for provider requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns the OpenRouter defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      OpenRouterBaseURL,
		Model:        DefaultModel,
		Title:        DefaultTitle,
		Temperature:  DefaultTemperature,
		MaxTokens:    DefaultMaxTokens,
		Language:     "pt-BR",
		SpeechModels: []string{tts.ModelTTS1, tts.ModelTTS1HD},
		Timeout:      60 * time.Second,
		Logger:       slog.Default(),
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}
