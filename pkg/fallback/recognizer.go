package fallback

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/teslashibe/go-analyst/pkg/audioio"
)

// Recognizer turns recorded speech into text.
type Recognizer interface {
	Recognize(ctx context.Context, audio audioio.AudioChunk) (string, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, audio audioio.AudioChunk) (string, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, audio audioio.AudioChunk) (string, error) {
	return f(ctx, audio)
}

// Unavailable is the recognizer used when the host has none.
var Unavailable Recognizer = RecognizerFunc(func(context.Context, audioio.AudioChunk) (string, error) {
	return "", ErrRecognitionUnavailable
})

// Whisper recognizes speech with the OpenAI transcription endpoint.
type Whisper struct {
	client   *openai.Client
	language string
}

// NewWhisper creates a Whisper recognizer. An empty key yields a recognizer
// that always fails with ErrRecognitionUnavailable. baseURL may be empty.
func NewWhisper(apiKey, baseURL, language string, hc *http.Client) Recognizer {
	if apiKey == "" {
		return Unavailable
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if hc != nil {
		cfg.HTTPClient = hc
	}
	return &Whisper{
		client:   openai.NewClientWithConfig(cfg),
		language: primaryLanguage(language),
	}
}

// Recognize encodes audio as WAV and transcribes it.
func (w *Whisper) Recognize(ctx context.Context, audio audioio.AudioChunk) (string, error) {
	if len(audio.Samples) == 0 {
		return "", ErrNoSpeech
	}
	channels := audio.Channels
	if channels == 0 {
		channels = 1
	}
	wavData, err := audioio.WAVBytes(audio.Samples, audio.SampleRate, channels)
	if err != nil {
		return "", fmt.Errorf("encode wav: %w", err)
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "recording.wav",
		Reader:   bytes.NewReader(wavData),
		Language: w.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// primaryLanguage reduces "pt-BR" to the ISO-639-1 code Whisper expects.
func primaryLanguage(tag string) string {
	tag = strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	primary, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(primary)
}
