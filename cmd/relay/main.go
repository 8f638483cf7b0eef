// relay: backend for the go-analyst assistant.
// Proxies Tavily search, Firecrawl scrape and Gemini generate, and bridges
// session websockets to Gemini Live.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-analyst/internal/config"
	"github.com/teslashibe/go-analyst/internal/log"
	"github.com/teslashibe/go-analyst/pkg/relay"
)

var (
	version  = "1.0.0"
	port     = flag.String("port", "", "HTTP server port (default: PORT or 8000)")
	envFile  = flag.String("env", ".env", "Environment file")
	logLevel = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()
	config.Load(*envFile)
	log.Init(*logLevel)
	logger := log.With("app", "relay")

	addr := ":" + config.Port()
	if *port != "" {
		addr = ":" + *port
	}

	fmt.Println()
	fmt.Println("☁️  go-analyst relay v" + version)
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv, err := relay.New(ctx,
		relay.WithKeys(config.TavilyAPIKey(), config.FirecrawlAPIKey(), config.GoogleAPIKey()),
		relay.WithFrontendOrigin(config.FrontendOrigin()),
		relay.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ relay: %v\n", err)
		os.Exit(1)
	}

	for key, set := range map[string]bool{
		"TAVILY_API_KEY":    config.TavilyAPIKey() != "",
		"FIRECRAWL_API_KEY": config.FirecrawlAPIKey() != "",
		"GOOGLE_API_KEY":    config.GoogleAPIKey() != "",
	} {
		if !set {
			logger.Warn("⚠️  key not configured, endpoint will answer 500", "key", key)
		}
	}

	go func() {
		logger.Info("🚀 starting server", "addr", addr,
			"health", "/api/health", "ws", "/api/ws/:id", "metrics", "/metrics")
		if err := srv.Listen(addr); err != nil {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("👋 shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("✅ goodbye")
}
