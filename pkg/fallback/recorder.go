package fallback

import (
	"sync"
	"time"

	"github.com/teslashibe/go-analyst/pkg/audioio"
)

// DefaultMaxRecording bounds a single block recording.
const DefaultMaxRecording = 2 * time.Minute

// Recorder buffers captured audio for a block-recognition turn. Write is
// safe to call from the capture goroutine.
type Recorder struct {
	max time.Duration

	mu      sync.Mutex
	active  bool
	rate    int
	samples []int16
}

// NewRecorder creates a recorder. Zero max selects DefaultMaxRecording.
func NewRecorder(max time.Duration) *Recorder {
	if max <= 0 {
		max = DefaultMaxRecording
	}
	return &Recorder{max: max}
}

// Start clears the buffer and begins accepting chunks.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = true
	r.rate = 0
	r.samples = r.samples[:0]
}

// Write appends a chunk. Chunks arriving while inactive or past the
// maximum duration are dropped.
func (r *Recorder) Write(chunk audioio.AudioChunk) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active || len(chunk.Samples) == 0 {
		return
	}
	if r.rate == 0 {
		r.rate = chunk.SampleRate
	}
	samples := chunk.Samples
	if chunk.SampleRate != r.rate {
		samples = audioio.Resample(samples, chunk.SampleRate, r.rate)
	}
	limit := int(r.max.Seconds() * float64(r.rate))
	if room := limit - len(r.samples); room < len(samples) {
		if room <= 0 {
			return
		}
		samples = samples[:room]
	}
	r.samples = append(r.samples, samples...)
}

// Active reports whether the recorder is accepting chunks.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Stop ends the recording and returns the buffered mono audio.
func (r *Recorder) Stop() (audioio.AudioChunk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return audioio.AudioChunk{}, ErrNotRecording
	}
	r.active = false
	out := make([]int16, len(r.samples))
	copy(out, r.samples)
	rate := r.rate
	if rate == 0 {
		rate = audioio.CaptureSampleRate
	}
	return audioio.AudioChunk{Samples: out, SampleRate: rate, Channels: 1}, nil
}
