package fallback

import (
	"errors"
	"fmt"
)

var (
	// ErrRecognitionUnavailable is returned when no speech recognizer is
	// configured on this host.
	ErrRecognitionUnavailable = errors.New("fallback: speech recognition unavailable")

	// ErrNoSpeech is returned when a recording is empty or nothing was recognized.
	ErrNoSpeech = errors.New("fallback: no speech recognized")

	// ErrNotRecording is returned by Recorder.Stop without a matching Start.
	ErrNotRecording = errors.New("fallback: not recording")

	// ErrNoAPIKey is returned when the text provider has no API key.
	ErrNoAPIKey = errors.New("fallback: OpenRouter API key required")
)

// Stage names a step of a fallback turn.
type Stage string

const (
	StageRecognize  Stage = "recognize"
	StageRespond    Stage = "respond"
	StageSynthesize Stage = "synthesize"
)

// TurnError reports which step of a turn failed.
type TurnError struct {
	Stage Stage
	Err   error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("fallback %s: %v", e.Stage, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx reply from the text provider.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("OpenRouter API error: %d", e.StatusCode)
	}
	return fmt.Sprintf("OpenRouter API error: %d: %s", e.StatusCode, e.Message)
}
