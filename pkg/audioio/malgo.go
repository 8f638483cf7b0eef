package audioio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
)

// deviceError maps a miniaudio failure onto the package error taxonomy.
func deviceError(op string, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "denied") || strings.Contains(msg, "permission") {
		return fmt.Errorf("%w: %s: %v", ErrPermissionDenied, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, op, err)
}

func initMalgoContext(logger *slog.Logger) (*malgo.AllocatedContext, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("miniaudio", "message", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, deviceError("init context", err)
	}
	return ctx, nil
}

func freeMalgoContext(ctx *malgo.AllocatedContext) {
	if ctx == nil {
		return
	}
	_ = ctx.Uninit()
	ctx.Free()
}

func deviceConfig(kind malgo.DeviceType, cfg Config) malgo.DeviceConfig {
	dc := malgo.DefaultDeviceConfig(kind)
	dc.SampleRate = uint32(cfg.SampleRate)
	dc.Alsa.NoMMap = 1
	switch kind {
	case malgo.Capture:
		dc.Capture.Format = malgo.FormatS16
		dc.Capture.Channels = uint32(cfg.Channels)
	case malgo.Playback:
		dc.Playback.Format = malgo.FormatS16
		dc.Playback.Channels = uint32(cfg.Channels)
	}
	return dc
}

// MalgoSource captures from the default microphone through miniaudio.
type MalgoSource struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	mctx    *malgo.AllocatedContext
	device  *malgo.Device
	running bool
	closed  bool

	// cbMu orders device callbacks against closing streamCh.
	cbMu     sync.Mutex
	live     bool
	streamCh chan AudioChunk

	chunks  atomic.Int64
	samples atomic.Int64
	dropped atomic.Int64
}

func newMalgoSource(cfg Config, logger *slog.Logger) (*MalgoSource, error) {
	mctx, err := initMalgoContext(logger)
	if err != nil {
		return nil, err
	}
	return &MalgoSource{
		cfg:      cfg,
		logger:   logger,
		mctx:     mctx,
		streamCh: make(chan AudioChunk),
	}, nil
}

// Start opens the capture device.
func (s *MalgoSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.running {
		return nil
	}

	ch := make(chan AudioChunk, 64)
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			if frameCount == 0 || len(input) == 0 {
				return
			}
			s.cbMu.Lock()
			defer s.cbMu.Unlock()
			if !s.live {
				return
			}
			chunk := AudioChunk{
				Samples:    BytesToSamples(input),
				SampleRate: s.cfg.SampleRate,
				Channels:   s.cfg.Channels,
			}
			select {
			case s.streamCh <- chunk:
				s.chunks.Add(1)
				s.samples.Add(int64(len(chunk.Samples)))
			default:
				s.dropped.Add(1)
			}
		},
	}

	device, err := malgo.InitDevice(s.mctx.Context, deviceConfig(malgo.Capture, s.cfg), callbacks)
	if err != nil {
		return deviceError("init capture device", err)
	}

	s.cbMu.Lock()
	s.streamCh = ch
	s.live = true
	s.cbMu.Unlock()

	if err := device.Start(); err != nil {
		s.cbMu.Lock()
		s.live = false
		close(ch)
		s.cbMu.Unlock()
		device.Uninit()
		return deviceError("start capture device", err)
	}

	s.device = device
	s.running = true
	s.logger.Info("malgo capture started", "sample_rate", s.cfg.SampleRate, "channels", s.cfg.Channels)
	return nil
}

// Stop closes the capture device. No chunk is delivered after Stop returns.
func (s *MalgoSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	_ = s.device.Stop()

	s.cbMu.Lock()
	s.live = false
	close(s.streamCh)
	s.cbMu.Unlock()

	s.device.Uninit()
	s.device = nil
	s.logger.Info("malgo capture stopped", "chunks", s.chunks.Load(), "dropped", s.dropped.Load())
	return nil
}

// Stream returns the chunk channel of the current run.
func (s *MalgoSource) Stream() <-chan AudioChunk {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	return s.streamCh
}

// Config returns the audio configuration.
func (s *MalgoSource) Config() Config { return s.cfg }

// Name returns "malgo".
func (s *MalgoSource) Name() string { return string(BackendMalgo) }

// Close stops capture and frees the miniaudio context.
func (s *MalgoSource) Close() error {
	_ = s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	freeMalgoContext(s.mctx)
	s.mctx = nil
	return nil
}

// Stats returns capture counters.
func (s *MalgoSource) Stats() Stats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	return Stats{
		Chunks:  s.chunks.Load(),
		Samples: s.samples.Load(),
		Dropped: s.dropped.Load(),
		Running: running,
		Backend: s.Name(),
	}
}

var _ Source = (*MalgoSource)(nil)

// MalgoSink plays to the default speaker through miniaudio. Written audio is
// appended to an internal buffer that the device callback drains; gaps are
// filled with silence.
type MalgoSink struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	mctx    *malgo.AllocatedContext
	device  *malgo.Device
	running bool
	closed  bool

	bufMu   sync.Mutex
	pending []byte

	chunks    atomic.Int64
	samples   atomic.Int64
	underruns atomic.Int64
}

func newMalgoSink(cfg Config, logger *slog.Logger) (*MalgoSink, error) {
	mctx, err := initMalgoContext(logger)
	if err != nil {
		return nil, err
	}
	return &MalgoSink{cfg: cfg, logger: logger, mctx: mctx}, nil
}

// Start opens the playback device.
func (s *MalgoSink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.running {
		return nil
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, _ []byte, frameCount uint32) {
			if frameCount == 0 {
				return
			}
			s.bufMu.Lock()
			n := copy(output, s.pending)
			s.pending = s.pending[n:]
			s.bufMu.Unlock()
			if n < len(output) {
				if n > 0 {
					s.underruns.Add(1)
				}
				clear(output[n:])
			}
		},
	}

	device, err := malgo.InitDevice(s.mctx.Context, deviceConfig(malgo.Playback, s.cfg), callbacks)
	if err != nil {
		return deviceError("init playback device", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return deviceError("start playback device", err)
	}

	s.device = device
	s.running = true
	s.logger.Info("malgo playback started", "sample_rate", s.cfg.SampleRate, "channels", s.cfg.Channels)
	return nil
}

// Stop closes the playback device and drops queued audio.
func (s *MalgoSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	_ = s.device.Stop()
	s.device.Uninit()
	s.device = nil
	_ = s.Clear()
	return nil
}

// Write queues a chunk, resampling it to the device rate when needed.
func (s *MalgoSink) Write(ctx context.Context, chunk AudioChunk) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return ErrClosed
	}

	samples := chunk.Samples
	if chunk.SampleRate != 0 && chunk.SampleRate != s.cfg.SampleRate {
		samples = Resample(samples, chunk.SampleRate, s.cfg.SampleRate)
	}

	s.bufMu.Lock()
	s.pending = append(s.pending, SamplesToBytes(samples)...)
	s.bufMu.Unlock()

	s.chunks.Add(1)
	s.samples.Add(int64(len(samples)))
	return nil
}

// Drain waits until the device has consumed all queued audio.
func (s *MalgoSink) Drain(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		s.bufMu.Lock()
		left := len(s.pending)
		s.bufMu.Unlock()
		if left == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Clear discards queued audio.
func (s *MalgoSink) Clear() error {
	s.bufMu.Lock()
	s.pending = nil
	s.bufMu.Unlock()
	return nil
}

// Config returns the audio configuration.
func (s *MalgoSink) Config() Config { return s.cfg }

// Name returns "malgo".
func (s *MalgoSink) Name() string { return string(BackendMalgo) }

// Close stops playback and frees the miniaudio context.
func (s *MalgoSink) Close() error {
	_ = s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	freeMalgoContext(s.mctx)
	s.mctx = nil
	return nil
}

// Stats returns playback counters.
func (s *MalgoSink) Stats() Stats {
	s.bufMu.Lock()
	buffered := int64(len(s.pending) / 2)
	s.bufMu.Unlock()
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	return Stats{
		Chunks:   s.chunks.Load(),
		Samples:  s.samples.Load(),
		Dropped:  s.underruns.Load(),
		Buffered: buffered,
		Running:  running,
		Backend:  s.Name(),
	}
}

var _ Sink = (*MalgoSink)(nil)
