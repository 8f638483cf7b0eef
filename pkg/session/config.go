package session

import (
	"errors"
	"log/slog"
	"time"
)

// Errors returned by the controller.
var (
	ErrNoDialer   = errors.New("session: dialer required")
	ErrNoFallback = errors.New("session: fallback provider not configured")
	ErrRunning    = errors.New("session: controller already running")
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// DefaultErrorTTL is how long an error notice stays visible.
const DefaultErrorTTL = 5 * time.Second

// Config configures a Controller.
type Config struct {
	// BaseURL is the relay websocket base, e.g. ws://localhost:8000.
	// Each session dials BaseURL/api/ws/<uuid>.
	BaseURL string

	Voice    string
	Language string

	Reconnect ReconnectPolicy
	ErrorTTL  time.Duration

	// SearchCue plays a short tone when a search starts.
	SearchCue bool

	AfterFunc AfterFunc
	Logger    *slog.Logger

	// OnChange is called on the controller goroutine after every state change.
	OnChange func(State)
}

// Option configures the controller.
type Option func(*Config)

// WithBaseURL sets the relay websocket base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithVoice sets the live voice name.
func WithVoice(voice string) Option {
	return func(c *Config) { c.Voice = voice }
}

// WithLanguage sets the session language.
func WithLanguage(lang string) Option {
	return func(c *Config) { c.Language = lang }
}

// WithReconnect sets the reconnect policy.
func WithReconnect(p ReconnectPolicy) Option {
	return func(c *Config) { c.Reconnect = p }
}

// WithErrorTTL sets how long errors stay visible.
func WithErrorTTL(d time.Duration) Option {
	return func(c *Config) { c.ErrorTTL = d }
}

// WithSearchCue enables or disables the search tone.
func WithSearchCue(on bool) Option {
	return func(c *Config) { c.SearchCue = on }
}

// WithAfterFunc replaces the timer source. Used by tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Config) { c.AfterFunc = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithOnChange registers a state observer.
func WithOnChange(fn func(State)) Option {
	return func(c *Config) { c.OnChange = fn }
}

// DefaultConfig returns defaults for a Brazilian Portuguese session.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "ws://localhost:8000",
		Voice:     DefaultVoice,
		Language:  DefaultLanguage,
		Reconnect: DefaultReconnectPolicy,
		ErrorTTL:  DefaultErrorTTL,
		SearchCue: true,
		AfterFunc: realAfterFunc,
		Logger:    slog.Default(),
	}
}
