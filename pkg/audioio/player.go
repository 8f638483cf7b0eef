package audioio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Player schedules decoded output audio on a PlaybackClock and hands it to
// a Sink. Times are measured from the player's creation.
type Player struct {
	sink   Sink
	logger *slog.Logger

	mu    sync.Mutex
	clock PlaybackClock
	epoch time.Time
	now   func() time.Duration
	queue []scheduled
}

type scheduled struct {
	start, end time.Duration
}

// NewPlayer creates a player writing to sink.
func NewPlayer(sink Sink, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Player{
		sink:   sink,
		logger: logger.With("component", "audioio.player"),
		epoch:  time.Now(),
	}
	p.now = func() time.Duration { return time.Since(p.epoch) }
	return p
}

// SetClock overrides the time source. Used by tests.
func (p *Player) SetClock(now func() time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Enqueue schedules PCM16 audio for playback and returns its start time.
func (p *Player) Enqueue(ctx context.Context, chunk AudioChunk) (time.Duration, error) {
	if len(chunk.Samples) == 0 {
		return 0, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	d := chunk.Duration()
	prev := p.clock
	start := p.clock.Schedule(now, d)

	if err := p.sink.Write(ctx, chunk); err != nil {
		p.clock = prev
		return 0, fmt.Errorf("playback write: %w", err)
	}

	p.prune(now)
	p.queue = append(p.queue, scheduled{start: start, end: start + d})
	return start, nil
}

// EnqueuePCM decodes little-endian PCM16 bytes at rate and enqueues them.
func (p *Player) EnqueuePCM(ctx context.Context, pcm []byte, rate int) (time.Duration, error) {
	var chunk AudioChunk
	chunk.FromBytes(pcm, rate, 1)
	return p.Enqueue(ctx, chunk)
}

// Flush discards every buffer scheduled but not yet finished and resets the
// clock to 0.
func (p *Player) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	dropped := len(p.queue)
	p.queue = nil
	p.clock.Reset()
	if dropped > 0 {
		p.logger.Debug("playback flushed", "buffers", dropped)
	}
	return p.sink.Clear()
}

// Pending returns how many buffers have not finished playing.
func (p *Player) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prune(p.now())
	return len(p.queue)
}

// Next returns the clock cursor.
func (p *Player) Next() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clock.Next()
}

func (p *Player) prune(now time.Duration) {
	i := 0
	for i < len(p.queue) && p.queue[i].end <= now {
		i++
	}
	p.queue = p.queue[i:]
}
