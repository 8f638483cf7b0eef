package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gofiber/contrib/websocket"

	"github.com/teslashibe/go-analyst/pkg/live"
	"github.com/teslashibe/go-analyst/pkg/protocol"
)

// LiveSession is the upstream half of a bridge. *live.Session implements it.
type LiveSession interface {
	SendAudio(pcm []byte) error
	SendText(text string) error
	Events() <-chan live.Event
	Close() error
}

// LiveDialer opens an upstream session.
type LiveDialer func(ctx context.Context, cfg live.Config) (LiveSession, error)

func dialGeminiLive(ctx context.Context, cfg live.Config) (LiveSession, error) {
	return live.Dial(ctx, cfg)
}

// maxCloseReason is the payload limit of a close frame reason.
const maxCloseReason = 123

// configWait bounds how long a client may take to send session_config.
const configWait = 30 * time.Second

// peer serializes writes to the client socket.
type peer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *peer) send(msg protocol.Inbound) error {
	data, err := protocol.Marshal(msg)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

func (p *peer) close(code int, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, truncateReason(reason)),
		time.Now().Add(time.Second),
	)
}

// fail reports an upstream failure and closes with 1011. The reason text is
// kept so the client can recognize quota failures.
func (p *peer) fail(reason string, code int) {
	_ = p.send(protocol.NewErrorMessage(reason, code))
	p.close(websocket.CloseInternalServerErr, reason)
}

func truncateReason(s string) string {
	if len(s) <= maxCloseReason {
		return s
	}
	s = s[:maxCloseReason]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// handleBridge carries one assistant session: it waits for session_config,
// opens the upstream and then pumps frames both ways.
func (s *Server) handleBridge(c *websocket.Conn) {
	b := s.sessions.add(c.Params("id"))
	logger := s.logger.With("session", b.ID)
	p := &peer{conn: c}
	status := "ok"

	s.metrics.RecordLiveStart()
	logger.Info("🔌 session connected", "active", s.sessions.count())
	defer func() {
		s.sessions.remove(b.ID)
		s.metrics.RecordLiveEnd(status, time.Since(b.Started))
		logger.Info("🔌 session disconnected", "status", status,
			"frames_up", b.framesUp.Load(), "frames_down", b.framesDown.Load())
	}()

	cfg, ok := s.awaitConfig(c)
	if !ok {
		status = "no_config"
		return
	}
	if s.config.GoogleAPIKey == "" {
		status = "not_configured"
		p.fail(notConfigured("GOOGLE_API_KEY"), 500)
		return
	}

	model := cfg.Model
	if model == "" {
		model = s.config.LiveModel
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	upstream, err := s.dialLive(ctx, live.Config{
		URL:               s.config.LiveURL,
		APIKey:            s.config.GoogleAPIKey,
		Model:             model,
		Voice:             cfg.Voice,
		Language:          cfg.Language,
		SystemInstruction: cfg.SystemInstruction,
		Logger:            logger,
	})
	if err != nil {
		status = "upstream_error"
		s.metrics.UpstreamErrors.WithLabelValues("gemini_live").Inc()
		logger.Error("live dial failed", "error", err)
		p.fail(err.Error(), 0)
		return
	}
	defer upstream.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if !s.pumpDown(upstream, p, b) {
			status = "upstream_error"
		}
		// Unblocks the read loop below.
		c.Close()
	}()

	s.pumpUp(c, upstream, b, logger)
	upstream.Close()
	<-done
}

// awaitConfig reads until the client sends session_config. Audio and text
// arriving before it are dropped.
func (s *Server) awaitConfig(c *websocket.Conn) (protocol.SessionConfig, bool) {
	_ = c.SetReadDeadline(time.Now().Add(configWait))
	defer c.SetReadDeadline(time.Time{})

	for {
		mt, data, err := c.ReadMessage()
		if err != nil {
			return protocol.SessionConfig{}, false
		}
		if mt != websocket.TextMessage {
			continue
		}
		typ, err := protocol.PeekType(data)
		if err != nil || typ != protocol.TypeSessionConfig {
			continue
		}
		var cfg protocol.SessionConfig
		if err := protocol.Unmarshal(data, &cfg); err != nil {
			continue
		}
		return cfg, true
	}
}

// pumpUp forwards client frames until the client goes away.
func (s *Server) pumpUp(c *websocket.Conn, upstream LiveSession, b *bridge, logger *slog.Logger) {
	for {
		mt, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		b.framesUp.Add(1)

		switch mt {
		case websocket.BinaryMessage:
			s.metrics.LiveAudioBytes.WithLabelValues("up").Add(float64(len(data)))
			err = upstream.SendAudio(data)
		case websocket.TextMessage:
			typ, perr := protocol.PeekType(data)
			if perr != nil || typ != protocol.TypeTextMessage {
				logger.Debug("ignoring client frame", "type", typ)
				continue
			}
			var msg protocol.TextMessage
			if perr := protocol.Unmarshal(data, &msg); perr != nil || msg.Text == "" {
				continue
			}
			err = upstream.SendText(msg.Text)
		}
		if err != nil {
			logger.Debug("upstream send failed", "error", err)
		}
	}
}

// pumpDown forwards upstream events as provider_response frames. It returns
// false when the upstream ended abnormally.
func (s *Server) pumpDown(upstream LiveSession, p *peer, b *bridge) bool {
	for ev := range upstream.Events() {
		if ev.Err != nil {
			if ce, ok := live.IsCloseError(ev.Err); ok {
				if ce.Code == websocket.CloseNormalClosure {
					p.close(websocket.CloseNormalClosure, ce.Reason)
					return true
				}
				p.fail(ce.Reason, ce.Code)
				return false
			}
			p.fail(ev.Err.Error(), 0)
			return false
		}
		if ev.Message == nil {
			continue
		}
		if ev.Message.HasAudio() {
			s.metrics.LiveAudioBytes.WithLabelValues("down").Add(float64(len(ev.Message.Audio) * 3 / 4))
		}
		if err := p.send(*ev.Message); err != nil {
			return true
		}
		b.framesDown.Add(1)
	}
	return true
}
