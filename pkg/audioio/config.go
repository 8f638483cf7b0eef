// Package audioio provides audio capture and playback for the assistant.
//
// Two backends are available:
//   - malgo (miniaudio) - real microphone and speaker devices
//   - mock - CI/testing without hardware
//
// On top of the raw Source/Sink devices the package offers Capture (fixed
// block framing with a synchronous stop), Player (gapless scheduling against
// a PlaybackClock) and WAV encoding for the block recorder.
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendAuto selects malgo when a device context can be created, mock otherwise.
	BackendAuto Backend = "auto"
	// BackendMalgo uses miniaudio through malgo.
	BackendMalgo Backend = "malgo"
	// BackendMock uses a mock implementation for testing.
	BackendMock Backend = "mock"
)

// Default audio formats.
const (
	CaptureSampleRate  = 16000 // microphone → realtime model
	PlaybackSampleRate = 24000 // model audio → speaker
	CaptureBlockSize   = 256   // samples per captured frame
)

// Config holds audio configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	// Default: "auto"
	Backend Backend `json:"backend"`

	// SampleRate is the audio sample rate in Hz.
	SampleRate int `json:"sample_rate"`

	// Channels is the number of audio channels.
	// Default: 1 (mono)
	Channels int `json:"channels"`

	// BufferDuration is the size of device buffers.
	BufferDuration time.Duration `json:"buffer_duration"`

	// Device is a backend specific device name. Empty selects the default device.
	Device string `json:"device"`
}

// DefaultConfig returns the playback configuration.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     PlaybackSampleRate,
		Channels:       1,
		BufferDuration: 20 * time.Millisecond,
	}
}

// DefaultCaptureConfig returns the microphone configuration: 16kHz mono,
// one 256-sample block per buffer.
func DefaultCaptureConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     CaptureSampleRate,
		Channels:       1,
		BufferDuration: time.Duration(CaptureBlockSize) * time.Second / CaptureSampleRate,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	switch c.Backend {
	case "", BackendAuto, BackendMalgo, BackendMock:
	default:
		return fmt.Errorf("unsupported backend: %s", c.Backend)
	}
	return nil
}

// BufferSize returns the number of samples (per channel) per buffer.
func (c *Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

// BufferBytes returns the size of a buffer in bytes (int16 samples).
func (c *Config) BufferBytes() int {
	return c.BufferSize() * c.Channels * 2
}

// DurationOf returns how long n interleaved samples play at this format.
func (c *Config) DurationOf(n int) time.Duration {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(c.SampleRate*c.Channels)
}
