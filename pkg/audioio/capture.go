package audioio

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// FrameFunc receives one fixed-size block of captured audio.
// It runs on the capture goroutine and must not call Capture.Stop.
type FrameFunc func(AudioChunk)

// Capture turns a Source into a stream of fixed-size frames with a
// synchronous stop: once Stop returns, the FrameFunc is never invoked again,
// even if the device still has chunks in flight.
type Capture struct {
	src    Source
	block  int
	logger *slog.Logger

	mu      sync.Mutex // lifecycle
	running bool
	done    chan struct{}
	wg      sync.WaitGroup

	emitMu sync.Mutex // held while a frame is delivered
	live   bool
}

// NewCapture wraps src. block is the frame size in samples per channel;
// zero selects CaptureBlockSize.
func NewCapture(src Source, block int, logger *slog.Logger) *Capture {
	if block <= 0 {
		block = CaptureBlockSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Capture{
		src:    src,
		block:  block,
		logger: logger.With("component", "audioio.capture"),
	}
}

// Start acquires the device and begins delivering frames to fn.
// Device failures are reported as ErrPermissionDenied or ErrDeviceUnavailable.
// Starting a running capture is a no-op.
func (c *Capture) Start(ctx context.Context, fn FrameFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}
	if err := c.src.Start(ctx); err != nil {
		if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDeviceUnavailable) {
			return err
		}
		return errors.Join(ErrDeviceUnavailable, err)
	}

	c.emitMu.Lock()
	c.live = true
	c.emitMu.Unlock()

	c.running = true
	c.done = make(chan struct{})
	c.wg.Add(1)
	go c.pump(c.src.Stream(), c.done, fn)

	c.logger.Debug("capture started", "backend", c.src.Name(), "block", c.block)
	return nil
}

func (c *Capture) pump(in <-chan AudioChunk, done <-chan struct{}, fn FrameFunc) {
	defer c.wg.Done()

	cfg := c.src.Config()
	size := c.block * cfg.Channels
	pending := make([]int16, 0, size*2)

	for {
		select {
		case <-done:
			return
		case chunk, ok := <-in:
			if !ok {
				return
			}
			pending = append(pending, chunk.Samples...)
			for len(pending) >= size {
				frame := make([]int16, size)
				copy(frame, pending[:size])
				pending = append(pending[:0], pending[size:]...)
				if !c.emit(fn, AudioChunk{Samples: frame, SampleRate: cfg.SampleRate, Channels: cfg.Channels}) {
					return
				}
			}
		}
	}
}

// emit delivers a frame under the liveness lock and reports whether the
// capture is still live.
func (c *Capture) emit(fn FrameFunc, frame AudioChunk) bool {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if !c.live {
		return false
	}
	fn(frame)
	return true
}

// Stop detaches the frame callback and releases the device.
// It is idempotent and safe to call when capture never started.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	c.running = false

	c.emitMu.Lock()
	c.live = false
	c.emitMu.Unlock()

	close(c.done)
	err := c.src.Stop()
	c.wg.Wait()

	c.logger.Debug("capture stopped")
	return err
}

// Running reports whether frames are being delivered.
func (c *Capture) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Close stops capture and releases the source.
func (c *Capture) Close() error {
	stopErr := c.Stop()
	return errors.Join(stopErr, c.src.Close())
}
