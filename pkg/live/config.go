package live

import (
	"log/slog"
	"time"
)

// Defaults for the Gemini Live upstream.
const (
	DefaultURL      = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	DefaultModel    = "models/gemini-2.5-flash-preview-native-audio-dialog"
	DefaultVoice    = "Orus"
	DefaultLanguage = "pt-BR"
)

// Config configures a Live session.
type Config struct {
	URL    string
	APIKey string
	Model  string

	Voice             string
	Language          string
	SystemInstruction string

	HandshakeTimeout time.Duration
	EventBuffer      int

	Logger *slog.Logger
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		URL:              DefaultURL,
		Model:            DefaultModel,
		Voice:            DefaultVoice,
		Language:         DefaultLanguage,
		HandshakeTimeout: 10 * time.Second,
		EventBuffer:      256,
	}
}

// Option modifies a Config.
type Option func(*Config)

// WithURL overrides the upstream websocket URL.
func WithURL(url string) Option {
	return func(c *Config) { c.URL = url }
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithVoice sets the prebuilt voice.
func WithVoice(voice string) Option {
	return func(c *Config) { c.Voice = voice }
}

// WithLanguage sets the speech language code.
func WithLanguage(lang string) Option {
	return func(c *Config) { c.Language = lang }
}

// WithSystemInstruction sets the system instruction.
func WithSystemInstruction(text string) Option {
	return func(c *Config) { c.SystemInstruction = text }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.URL == "" {
		return ErrMissingURL
	}
	return nil
}
