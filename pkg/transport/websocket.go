package transport

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-analyst/pkg/protocol"
)

// WSDialer opens gorilla websocket channels.
type WSDialer struct {
	config Config
}

// NewDialer creates a websocket dialer.
func NewDialer(opts ...Option) *WSDialer {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 256
	}
	return &WSDialer{config: cfg}
}

// Dial connects to endpoint, sends the session config, emits Opened and
// starts the read loop.
func (d *WSDialer) Dial(ctx context.Context, endpoint string, session protocol.SessionConfig) (Channel, error) {
	logger := d.config.Logger.With("component", "transport.websocket")

	dialer := websocket.Dialer{
		HandshakeTimeout: d.config.HandshakeTimeout,
	}

	logger.Info("connecting to relay", "endpoint", endpoint)

	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		ce := &ConnectError{Endpoint: endpoint, Cause: err}
		if resp != nil {
			ce.StatusCode = resp.StatusCode
		}
		return nil, ce
	}

	ws := &WebSocket{
		conn:     conn,
		config:   d.config,
		logger:   logger,
		endpoint: endpoint,
		events:   make(chan Event, d.config.EventBuffer),
	}
	ws.open.Store(true)

	if session.Type == "" {
		session.Type = protocol.TypeSessionConfig
	}
	if err := ws.writeJSON(session); err != nil {
		conn.Close()
		return nil, &ConnectError{Endpoint: endpoint, Cause: err}
	}

	ws.events <- Event{Kind: EventOpened}
	go ws.readLoop()

	logger.Info("connected to relay", "endpoint", endpoint)
	return ws, nil
}

// WebSocket is a Channel over a gorilla websocket connection.
type WebSocket struct {
	conn     *websocket.Conn
	config   Config
	logger   *slog.Logger
	endpoint string

	writeMu sync.Mutex
	open    atomic.Bool
	local   atomic.Bool // closed by us
	once    sync.Once

	events chan Event

	framesSent     atomic.Int64
	framesReceived atomic.Int64
}

// Send writes a frame.
func (w *WebSocket) Send(frame Frame) error {
	if !w.open.Load() {
		return ErrNotConnected
	}
	switch frame.Kind {
	case FrameAudio:
		if len(frame.Audio) == 0 {
			return ErrInvalidFrame
		}
		return w.write(websocket.BinaryMessage, frame.Audio)
	case FrameText:
		return w.writeJSON(protocol.NewTextMessage(frame.Text))
	default:
		return ErrInvalidFrame
	}
}

func (w *WebSocket) writeJSON(v any) error {
	data, err := protocol.Marshal(v)
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, data)
}

func (w *WebSocket) write(messageType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	if !w.open.Load() {
		return ErrNotConnected
	}
	if w.config.WriteTimeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.config.WriteTimeout))
	}
	if err := w.conn.WriteMessage(messageType, data); err != nil {
		return errors.Join(ErrNotConnected, err)
	}
	w.framesSent.Add(1)
	return nil
}

// Events returns the event stream.
func (w *WebSocket) Events() <-chan Event {
	return w.events
}

// IsOpen reports whether frames can be sent.
func (w *WebSocket) IsOpen() bool {
	return w.open.Load()
}

// Close sends a normal close frame and tears the connection down.
func (w *WebSocket) Close() error {
	w.once.Do(func() {
		w.local.Store(true)

		w.writeMu.Lock()
		w.open.Store(false)
		_ = w.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		w.writeMu.Unlock()

		w.conn.Close()
		w.logger.Info("channel closed", "sent", w.framesSent.Load(), "received", w.framesReceived.Load())
	})
	return nil
}

func (w *WebSocket) readLoop() {
	defer close(w.events)

	for {
		if w.config.ReadTimeout > 0 {
			_ = w.conn.SetReadDeadline(time.Now().Add(w.config.ReadTimeout))
		}

		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.open.Store(false)
			w.events <- w.closeEvent(err)
			w.conn.Close()
			return
		}
		w.framesReceived.Add(1)

		var msg *protocol.Inbound
		switch messageType {
		case websocket.BinaryMessage:
			m := protocol.NewAudioResponse(data)
			msg = &m
		default:
			msg, err = protocol.ParseInbound(data)
			if err != nil {
				w.logger.Warn("dropping malformed message", "error", err)
				continue
			}
		}
		w.events <- Event{Kind: EventMessage, Message: msg}
	}
}

// closeEvent converts a read failure into the terminal Closed event,
// preceded by an Error event when the failure was not a close handshake.
func (w *WebSocket) closeEvent(err error) Event {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		w.logger.Info("relay closed channel", "code", ce.Code, "reason", ce.Text)
		return Event{Kind: EventClosed, Code: ce.Code, Reason: ce.Text}
	}
	if w.local.Load() {
		return Event{Kind: EventClosed, Code: CloseNormal, Reason: "closed by client"}
	}
	w.logger.Error("read error", "error", err)
	w.events <- Event{Kind: EventError, Err: err}
	return Event{Kind: EventClosed, Code: CloseAbnormal, Reason: err.Error()}
}

var _ Channel = (*WebSocket)(nil)
var _ Dialer = (*WSDialer)(nil)
