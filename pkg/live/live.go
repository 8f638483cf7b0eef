// Package live is a Gemini Live (BidiGenerateContent) client used by the
// relay to carry one assistant session upstream.
package live

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-analyst/pkg/protocol"
)

// Event is one item of the session stream. A non-nil Err is terminal and
// the stream closes after it.
type Event struct {
	Message *protocol.Inbound
	Err     error
}

// Session is an open Live session.
type Session struct {
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex
	open    atomic.Bool
	once    sync.Once
	events  chan Event

	audioIn  atomic.Int64
	audioOut atomic.Int64
}

// Dial connects to the Live endpoint and sends the setup message.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	defaults := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = defaults.URL
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.Voice == "" {
		cfg.Voice = defaults.Voice
	}
	if cfg.Language == "" {
		cfg.Language = defaults.Language
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaults.EventBuffer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("live: invalid URL: %w", err)
	}
	q := endpoint.Query()
	q.Set("key", cfg.APIKey)
	endpoint.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, endpoint.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("live: connect failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("live: connect failed: %w", err)
	}

	s := &Session{
		conn:   conn,
		logger: cfg.Logger.With("component", "live", "model", cfg.Model),
		events: make(chan Event, cfg.EventBuffer),
	}
	s.open.Store(true)

	if err := s.sendJSON(newSetup(cfg)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("live: failed to configure session: %w", err)
	}

	go s.readLoop()
	s.logger.Info("🌟 Gemini Live connected")
	return s, nil
}

func newSetup(cfg Config) setupMessage {
	msg := setupMessage{Setup: setup{
		Model: cfg.Model,
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: speechConfig{
				VoiceConfig:  voiceConfig{PrebuiltVoiceConfig: prebuiltVoice{VoiceName: cfg.Voice}},
				LanguageCode: cfg.Language,
			},
		},
	}}
	if cfg.SystemInstruction != "" {
		msg.Setup.SystemInstruction = &systemInstruction{Parts: []textPart{{Text: cfg.SystemInstruction}}}
	}
	return msg
}

// Events returns the session stream.
func (s *Session) Events() <-chan Event {
	return s.events
}

// IsOpen reports whether the session accepts input.
func (s *Session) IsOpen() bool {
	return s.open.Load()
}

// SendAudio streams a PCM16 16 kHz mono chunk.
func (s *Session) SendAudio(pcm []byte) error {
	if len(pcm) == 0 {
		return ErrEmptyAudio
	}
	s.audioIn.Add(1)
	return s.sendJSON(realtimeInputMessage{RealtimeInput: realtimeInput{
		MediaChunks: []mediaChunk{{
			MimeType: fmt.Sprintf("audio/pcm;rate=%d", protocol.InputSampleRate),
			Data:     base64.StdEncoding.EncodeToString(pcm),
		}},
	}})
}

// SendText injects a complete user text turn.
func (s *Session) SendText(text string) error {
	return s.sendJSON(clientContentMessage{ClientContent: clientContent{
		Turns:        []turn{{Role: protocol.RoleUser, Parts: []textPart{{Text: text}}}},
		TurnComplete: true,
	}})
}

// Close ends the session.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.writeMu.Lock()
		s.open.Store(false)
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.writeMu.Unlock()
		s.conn.Close()
		s.logger.Info("🌟 Gemini Live closed", "audio_in", s.audioIn.Load(), "audio_out", s.audioOut.Load())
	})
	return nil
}

func (s *Session) sendJSON(v any) error {
	data, err := protocol.Marshal(v)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if !s.open.Load() {
		return ErrNotConnected
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Session) readLoop() {
	defer close(s.events)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			wasOpen := s.open.Swap(false)
			s.conn.Close()
			var ce *websocket.CloseError
			switch {
			case errors.As(err, &ce):
				s.events <- Event{Err: &CloseError{Code: ce.Code, Reason: ce.Text}}
			case wasOpen:
				s.events <- Event{Err: err}
			default:
				s.events <- Event{Err: &CloseError{Code: websocket.CloseNormalClosure, Reason: "closed by relay"}}
			}
			return
		}

		var msg serverMessage
		if err := protocol.Unmarshal(data, &msg); err != nil {
			s.logger.Debug("🌟 failed to parse message", "error", err)
			continue
		}
		s.handle(&msg)
	}
}

func (s *Session) handle(msg *serverMessage) {
	if msg.SetupComplete != nil {
		s.logger.Debug("🌟 session ready")
		return
	}
	if msg.GoAway != nil {
		s.logger.Warn("🌟 upstream going away", "time_left", msg.GoAway.TimeLeft)
		return
	}
	content := msg.ServerContent
	if content == nil {
		return
	}

	if content.ModelTurn != nil {
		for _, part := range content.ModelTurn.Parts {
			if part.Text != "" {
				out := protocol.NewTextResponse(part.Text)
				s.events <- Event{Message: &out}
			}
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			pcm, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil || len(pcm) == 0 {
				continue
			}
			s.audioOut.Add(1)
			out := protocol.NewAudioResponse(pcm)
			s.events <- Event{Message: &out}
		}
	}
	if content.Interrupted || content.TurnComplete {
		s.events <- Event{Message: &protocol.Inbound{
			Type:         protocol.TypeProviderResponse,
			Interrupted:  content.Interrupted,
			TurnComplete: content.TurnComplete,
		}}
	}
}
