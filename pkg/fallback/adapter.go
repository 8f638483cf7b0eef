// Package fallback substitutes a request/response text provider plus speech
// recognition and synthesis for the realtime channel. A turn takes recorded
// audio (or text) in and produces a spoken reply out.
package fallback

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/teslashibe/go-analyst/pkg/audioio"
	"github.com/teslashibe/go-analyst/pkg/tts"
)

// Adapter runs the stages of a fallback turn: recognize, respond, speak.
// Failures are returned to the caller as *TurnError and never retried
// through another provider.
type Adapter struct {
	recognizer Recognizer
	responder  Responder
	speaker    tts.Provider
	timeout    time.Duration
	logger     *slog.Logger

	mu          sync.RWMutex
	instruction string
}

// NewAdapter assembles an adapter. A nil recognizer is treated as
// Unavailable; a nil speaker yields text-only replies.
func NewAdapter(recognizer Recognizer, responder Responder, speaker tts.Provider, logger *slog.Logger) *Adapter {
	if recognizer == nil {
		recognizer = Unavailable
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		recognizer: recognizer,
		responder:  responder,
		speaker:    speaker,
		timeout:    60 * time.Second,
		logger:     logger.With("component", "fallback"),
	}
}

// New builds the standard adapter: OpenRouter chat, Whisper recognition and
// OpenAI speech when openAIKey is set.
func New(openAIKey string, opts ...Option) (*Adapter, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	responder, err := NewOpenRouter(cfg)
	if err != nil {
		return nil, err
	}

	recognizer := NewWhisper(openAIKey, cfg.SpeechBaseURL, cfg.Language, cfg.HTTPClient)

	var speaker tts.Provider
	if openAIKey != "" && len(cfg.SpeechModels) > 0 {
		speaker, err = newSpeaker(openAIKey, cfg)
		if err != nil {
			return nil, err
		}
	}

	a := NewAdapter(recognizer, responder, speaker, cfg.Logger)
	if cfg.Timeout > 0 {
		a.timeout = cfg.Timeout
	}
	return a, nil
}

// newSpeaker chains one OpenAI speech provider per configured model.
func newSpeaker(openAIKey string, cfg *Config) (tts.Provider, error) {
	var providers []tts.Provider
	for _, model := range cfg.SpeechModels {
		p, err := tts.NewOpenAI(
			tts.WithAPIKey(openAIKey),
			tts.WithBaseURL(cfg.SpeechBaseURL),
			tts.WithModel(model),
			tts.WithLanguage(cfg.Language),
			tts.WithSpeed(0.9),
			tts.WithLogger(cfg.Logger),
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return tts.NewChain(cfg.Logger, providers...)
}

// SetInstruction sets the system instruction sent with every turn.
func (a *Adapter) SetInstruction(instruction string) {
	a.mu.Lock()
	a.instruction = instruction
	a.mu.Unlock()
}

// Instruction returns the current system instruction.
func (a *Adapter) Instruction() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.instruction
}

// Recognize transcribes a block recording.
func (a *Adapter) Recognize(ctx context.Context, audio audioio.AudioChunk) (string, error) {
	transcript, err := a.recognizer.Recognize(ctx, audio)
	if err != nil {
		return "", &TurnError{Stage: StageRecognize, Err: err}
	}
	return transcript, nil
}

// Respond sends one text turn to the provider with the current instruction.
func (a *Adapter) Respond(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &TurnError{Stage: StageRespond, Err: ErrNoSpeech}
	}
	if a.responder == nil {
		return "", &TurnError{Stage: StageRespond, Err: ErrNoAPIKey}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	answer, err := a.responder.Respond(ctx, a.Instruction(), text)
	if err != nil {
		return "", &TurnError{Stage: StageRespond, Err: err}
	}
	a.logger.Debug("fallback reply", "chars", len(answer), "latency_ms", time.Since(start).Milliseconds())
	return answer, nil
}

// Speak synthesizes text. It returns nil audio when no speaker is configured.
func (a *Adapter) Speak(ctx context.Context, text string) (*tts.AudioResult, error) {
	if a.speaker == nil {
		return nil, nil
	}
	audio, err := a.speaker.Synthesize(ctx, text)
	if err != nil {
		return nil, &TurnError{Stage: StageSynthesize, Err: err}
	}
	return audio, nil
}

// Close releases the speaker.
func (a *Adapter) Close() error {
	if a.speaker != nil {
		return a.speaker.Close()
	}
	return nil
}
