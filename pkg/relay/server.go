// Package relay is the backend the assistant talks to: it proxies search,
// scrape and generate calls to their providers and bridges session
// websockets to Gemini Live.
package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/patrickmn/go-cache"
)

// Server is the relay HTTP and websocket server.
type Server struct {
	app     *fiber.App
	config  Config
	logger  *slog.Logger
	metrics *Metrics

	tavily    *proxy
	firecrawl *proxy
	generator Generator
	dialLive  LiveDialer

	searches *cache.Cache
	sessions *registry
}

// New creates the relay and registers its routes.
func New(ctx context.Context, opts ...Option) (*Server, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.FrontendOrigin == "" {
		cfg.FrontendOrigin = DefaultOrigin
	}

	s := &Server{
		config:    cfg,
		logger:    cfg.Logger.With("component", "relay"),
		metrics:   NewMetrics(""),
		tavily:    newProxy("tavily", cfg.TavilyURL, cfg.TavilyAPIKey, &cfg),
		firecrawl: newProxy("firecrawl", cfg.FirecrawlURL, cfg.FirecrawlAPIKey, &cfg),
		generator: cfg.Generator,
		dialLive:  cfg.DialLive,
		searches:  cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		sessions:  newRegistry(),
	}
	if s.generator == nil && cfg.GoogleAPIKey != "" {
		g, err := NewGenAI(ctx, cfg.GoogleAPIKey, cfg.GenAIBaseURL, cfg.HTTPClient)
		if err != nil {
			return nil, err
		}
		s.generator = g
	}
	if s.dialLive == nil {
		s.dialLive = dialGeminiLive
	}

	app := fiber.New(fiber.Config{
		AppName:               "go-analyst relay",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(corsConfig(cfg.FrontendOrigin)))
	app.Use(s.metrics.Middleware())

	app.Get("/metrics", s.metrics.Handler())

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Post("/search/tavily", s.handleSearch)
	api.Post("/scrape", s.handleScrape)
	api.Post("/genai/generate", s.handleGenerate)
	api.Get("/sessions", s.handleSessions)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws/:id", websocket.New(s.handleBridge))

	s.app = app
	return s, nil
}

// corsConfig only allows credentials for a concrete origin.
func corsConfig(origin string) cors.Config {
	cfg := cors.Config{
		AllowOrigins: origin,
		AllowMethods: "GET,POST,OPTIONS",
	}
	if origin != "*" {
		cfg.AllowCredentials = true
	}
	return cfg
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("🌐 relay listening", "addr", addr)
	if err := s.app.Listen(addr); err != nil {
		return fmt.Errorf("relay: listen: %w", err)
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
