// Package config provides configuration helpers for go-analyst commands.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/teslashibe/go-analyst/internal/log"
)

// Defaults used when the environment does not override them.
const (
	DefaultBackendURL     = "http://localhost:8000"
	DefaultPort           = "8000"
	DefaultFrontendOrigin = "*"
	DefaultLanguage       = "pt-BR"
)

// Load reads .env files into the process environment.
// Missing files are ignored; variables already set are not overwritten.
func Load(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Warn("failed to load env file", "file", f, "error", err)
		}
	}
}

// Get returns the env var or the provided default.
func Get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// BackendURL returns the relay base URL from BACKEND_URL.
func BackendURL() string {
	return strings.TrimRight(Get("BACKEND_URL", DefaultBackendURL), "/")
}

// BackendWSURL derives the websocket base from BACKEND_WS_URL or BACKEND_URL.
func BackendWSURL() string {
	if v := os.Getenv("BACKEND_WS_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	u := BackendURL()
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// GoogleAPIKey returns GOOGLE_API_KEY, falling back to GEMINI_API_KEY.
func GoogleAPIKey() string {
	if k := os.Getenv("GOOGLE_API_KEY"); k != "" {
		return k
	}
	return os.Getenv("GEMINI_API_KEY")
}

// TavilyAPIKey returns TAVILY_API_KEY.
func TavilyAPIKey() string { return os.Getenv("TAVILY_API_KEY") }

// FirecrawlAPIKey returns FIRECRAWL_API_KEY.
func FirecrawlAPIKey() string { return os.Getenv("FIRECRAWL_API_KEY") }

// OpenRouterAPIKey returns OPENROUTER_API_KEY.
func OpenRouterAPIKey() string { return os.Getenv("OPENROUTER_API_KEY") }

// OpenAIAPIKey returns OPENAI_API_KEY, used for speech recognition and synthesis.
func OpenAIAPIKey() string { return os.Getenv("OPENAI_API_KEY") }

// FrontendOrigin returns the CORS origin from FRONTEND_ORIGIN.
func FrontendOrigin() string { return Get("FRONTEND_ORIGIN", DefaultFrontendOrigin) }

// Port returns the relay listen port from PORT.
func Port() string { return Get("PORT", DefaultPort) }

// Language returns the session language from LANGUAGE.
func Language() string { return Get("LANGUAGE", DefaultLanguage) }

// Required returns the env var or exits with a usage hint.
func Required(key, usage string) string {
	v := os.Getenv(key)
	if v == "" {
		fmt.Fprintf(os.Stderr, "Error: %s environment variable is required\n", key)
		if usage != "" {
			fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		}
		os.Exit(1)
	}
	return v
}
