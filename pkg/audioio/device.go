package audioio

import (
	"context"
	"errors"
	"io"
	"time"
)

// Device errors. Backends wrap their native errors with one of these.
var (
	// ErrPermissionDenied indicates the OS refused access to the device.
	ErrPermissionDenied = errors.New("audioio: permission denied")

	// ErrDeviceUnavailable indicates no usable device could be opened.
	ErrDeviceUnavailable = errors.New("audioio: device unavailable")

	// ErrClosed indicates the device was closed.
	ErrClosed = errors.New("audioio: closed")
)

// AudioChunk is a block of interleaved PCM16 samples.
type AudioChunk struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Bytes returns the little-endian PCM16 encoding of the chunk.
func (c *AudioChunk) Bytes() []byte {
	return SamplesToBytes(c.Samples)
}

// FromBytes populates the chunk from little-endian PCM16 bytes.
func (c *AudioChunk) FromBytes(data []byte, sampleRate, channels int) {
	c.SampleRate = sampleRate
	c.Channels = channels
	c.Samples = BytesToSamples(data)
}

// Duration returns how long the chunk plays.
func (c *AudioChunk) Duration() time.Duration {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate*c.Channels)
}

// Source captures audio from a microphone.
type Source interface {
	// Start opens the device. Chunks are then delivered on Stream.
	Start(ctx context.Context) error

	// Stop halts capture. It is safe to call Stop multiple times.
	Stop() error

	// Stream returns the chunk channel of the current run.
	// It is closed when the source stops.
	Stream() <-chan AudioChunk

	Config() Config
	Name() string
	io.Closer
}

// Sink plays audio to a speaker.
type Sink interface {
	// Start opens the device.
	Start(ctx context.Context) error

	// Stop halts playback. It is safe to call Stop multiple times.
	Stop() error

	// Write queues a chunk for playback without waiting for it to play.
	Write(ctx context.Context, chunk AudioChunk) error

	// Drain waits until queued audio has played.
	Drain(ctx context.Context) error

	// Clear discards all queued audio immediately.
	Clear() error

	Config() Config
	Name() string
	io.Closer
}

// Stats is a snapshot of device counters.
type Stats struct {
	Chunks   int64  `json:"chunks"`
	Samples  int64  `json:"samples"`
	Dropped  int64  `json:"dropped"`
	Buffered int64  `json:"buffered_samples"`
	Running  bool   `json:"running"`
	Backend  string `json:"backend"`
}
