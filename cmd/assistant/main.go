// assistant: voice content assistant for the terminal.
// Talks to the relay for the realtime session, search, scrape and generate,
// falls back to OpenRouter + Whisper + OpenAI speech when the realtime
// provider runs out of quota.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/teslashibe/go-analyst/internal/config"
	"github.com/teslashibe/go-analyst/internal/log"
	"github.com/teslashibe/go-analyst/pkg/analysis"
	"github.com/teslashibe/go-analyst/pkg/audioio"
	"github.com/teslashibe/go-analyst/pkg/backend"
	"github.com/teslashibe/go-analyst/pkg/export"
	"github.com/teslashibe/go-analyst/pkg/fallback"
	"github.com/teslashibe/go-analyst/pkg/session"
	"github.com/teslashibe/go-analyst/pkg/timeline"
	"github.com/teslashibe/go-analyst/pkg/transport"
)

var (
	version      = "1.0.0"
	backendURL   = flag.String("backend", "", "Relay base URL (default: BACKEND_URL or http://localhost:8000)")
	analyzeURL   = flag.String("url", "", "Analyze this URL on startup")
	analyzeFile  = flag.String("file", "", "Analyze this local file on startup")
	analyzeTopic = flag.String("topic", "", "Research this topic on startup")
	exportDir    = flag.String("export", ".", "Directory for Markdown exports")
	audioBackend = flag.String("backend-audio", "auto", "Audio backend: auto, malgo, mock")
	logLevel     = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()
	config.Load()
	log.Init(*logLevel)
	logger := log.With("app", "assistant")

	if *backendURL != "" {
		os.Setenv("BACKEND_URL", *backendURL)
	}

	fmt.Println()
	fmt.Println("🎙️  go-analyst assistant v" + version)
	fmt.Println("   Relay:", config.BackendURL())
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Audio
	captureCfg := audioio.DefaultCaptureConfig()
	captureCfg.Backend = audioio.Backend(*audioBackend)
	src, err := audioio.NewSource(captureCfg, logger)
	if err != nil {
		fatal("audio input", err)
	}
	capture := audioio.NewCapture(src, 0, logger)
	defer capture.Close()

	playbackCfg := audioio.DefaultConfig()
	playbackCfg.Backend = audioio.Backend(*audioBackend)
	sink, err := audioio.NewSink(playbackCfg, logger)
	if err != nil {
		fatal("audio output", err)
	}
	if err := sink.Start(ctx); err != nil {
		fatal("audio output", err)
	}
	defer sink.Close()
	player := audioio.NewPlayer(sink, logger)

	// Relay
	relay, err := backend.New(backend.WithBaseURL(config.BackendURL()), backend.WithLogger(logger))
	if err != nil {
		fatal("backend", err)
	}
	if err := relay.Health(ctx); err != nil {
		logger.Warn("relay health check failed", "error", err)
	}

	// Session
	tl := timeline.New(0)
	p := newPrinter(os.Stdout)
	ctrl, err := session.New(session.Deps{
		Dialer:   transport.NewDialer(transport.WithLogger(logger)),
		Capture:  capture,
		Player:   player,
		Searcher: relay,
		Fallback: func() (session.FallbackProvider, error) {
			fb, err := fallback.New(config.OpenAIAPIKey(),
				fallback.WithAPIKey(config.OpenRouterAPIKey()),
				fallback.WithLanguage(config.Language()),
				fallback.WithLogger(logger),
			)
			if err != nil {
				return nil, err
			}
			return fb, nil
		},
		Timeline: tl,
	},
		session.WithBaseURL(config.BackendWSURL()),
		session.WithLanguage(config.Language()),
		session.WithSearchCue(true),
		session.WithLogger(logger),
		session.WithOnChange(p.state),
	)
	if err != nil {
		fatal("session", err)
	}
	tl.OnEvent(p.event)

	// Analysis
	analyzer, err := analysis.New(relay, relay,
		analysis.WithGitHub("", os.Getenv("GITHUB_TOKEN")),
		analysis.WithSheetsAPIKey(config.GoogleAPIKey()),
		analysis.WithExtractor(analysis.NewOfficeExtractor()),
		analysis.WithObservers(ctrl.SetStatus, func(msg string, cat timeline.Category) {
			tl.Add(msg, cat)
		}, p.progress),
		analysis.WithLogger(logger),
	)
	if err != nil {
		fatal("analysis", err)
	}

	// Export
	sharer := &export.Sharer{Fallback: os.Stdout}
	docs, err := export.NewDocs(export.DocsConfig{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		TokenPath:    tokenPath(),
		Logger:       logger,
	})
	if err == nil {
		sharer.Docs = docs
	} else {
		logger.Debug("google docs disabled", "error", err)
	}

	a := &app{
		ctrl:      ctrl,
		analyzer:  analyzer,
		sharer:    sharer,
		docs:      docs,
		exportDir: *exportDir,
		out:       os.Stdout,
		logger:    logger,
	}

	runDone := make(chan error, 1)
	go func() { runDone <- ctrl.Run(ctx) }()

	switch {
	case *analyzeFile != "":
		a.analyzePath(ctx, *analyzeFile)
	case *analyzeURL != "":
		a.analyze(ctx, analysis.Input{Text: *analyzeURL})
	case *analyzeTopic != "":
		a.analyze(ctx, analysis.Input{Text: *analyzeTopic})
	}

	fmt.Println("Comandos: r (gravar), say <texto>, analyze <url|tema>, file <caminho>,")
	fmt.Println("          export, share, connect, code <código>, status, timeline, reset, quit")
	fmt.Println()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok || !a.handle(ctx, line) {
				cancel()
				break loop
			}
		}
	}

	fmt.Println("\n👋 Shutting down...")
	if err := <-runDone; err != nil && ctx.Err() == nil {
		logger.Error("session ended", "error", err)
	}
	a.wait()
	fmt.Println("✅ Goodbye!")
}

func tokenPath() string {
	if p := os.Getenv("GOOGLE_TOKEN_PATH"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".go-analyst", "google_token.json")
}

func fatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "❌ %s: %v\n", what, err)
	os.Exit(1)
}
