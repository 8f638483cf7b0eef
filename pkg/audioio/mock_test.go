package audioio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockSource_StartStop(t *testing.T) {
	cfg := DefaultCaptureConfig()
	src := NewMockSource(cfg, nil)
	defer src.Close()

	ctx := context.Background()
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := src.Start(ctx); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
	if src.Running() {
		t.Error("source should not be running")
	}
}

func TestMockSource_Generates(t *testing.T) {
	cfg := DefaultCaptureConfig()
	src := NewMockSource(cfg, nil, WithSineWave(440, 0.5))
	defer src.Close()

	if err := src.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case chunk := <-src.Stream():
		if len(chunk.Samples) != cfg.BufferSize() {
			t.Errorf("samples = %d, want %d", len(chunk.Samples), cfg.BufferSize())
		}
		if Level(chunk.Samples) == 0 {
			t.Error("sine wave should not be silent")
		}
	case <-time.After(time.Second):
		t.Fatal("no chunk generated")
	}
}

func TestMockSource_ManualFeed(t *testing.T) {
	src := NewMockSource(DefaultCaptureConfig(), nil, WithManualFeed())
	if src.Push(AudioChunk{Samples: []int16{1}}) {
		t.Error("Push before Start should fail")
	}
	if err := src.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !src.Push(AudioChunk{Samples: []int16{1, 2}}) {
		t.Fatal("Push after Start should succeed")
	}
	chunk := <-src.Stream()
	if len(chunk.Samples) != 2 {
		t.Errorf("samples = %d", len(chunk.Samples))
	}
	if got := src.Stats().Chunks; got != 1 {
		t.Errorf("Chunks = %d, want 1", got)
	}
}

func TestMockSource_StartError(t *testing.T) {
	src := NewMockSource(DefaultCaptureConfig(), nil, WithStartError(ErrPermissionDenied))
	if err := src.Start(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Start() error = %v, want ErrPermissionDenied", err)
	}
}

func TestMockSource_Closed(t *testing.T) {
	src := NewMockSource(DefaultCaptureConfig(), nil)
	src.Close()
	if err := src.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() after Close error = %v", err)
	}
}

func TestMockSink_WriteClear(t *testing.T) {
	sink := NewMockSink(DefaultConfig(), nil)
	ctx := context.Background()

	if err := sink.Write(ctx, AudioChunk{Samples: []int16{1}}); !errors.Is(err, ErrClosed) {
		t.Errorf("Write before Start error = %v", err)
	}
	if err := sink.Start(ctx); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := sink.Write(ctx, AudioChunk{Samples: make([]int16, 10)}); err != nil {
			t.Fatal(err)
		}
	}
	if sink.Pending() != 3 {
		t.Errorf("Pending = %d, want 3", sink.Pending())
	}
	if sink.Stats().Buffered != 30 {
		t.Errorf("Buffered = %d, want 30", sink.Stats().Buffered)
	}
	sink.Clear()
	if sink.Pending() != 0 || sink.Clears() != 1 {
		t.Errorf("after Clear: pending=%d clears=%d", sink.Pending(), sink.Clears())
	}
	if len(sink.Written()) != 3 {
		t.Errorf("Written = %d, want 3", len(sink.Written()))
	}
}

func TestAudioChunk(t *testing.T) {
	c := AudioChunk{Samples: []int16{0x0102, -1}, SampleRate: 24000, Channels: 1}
	b := c.Bytes()
	if len(b) != 4 || b[0] != 0x02 || b[1] != 0x01 {
		t.Errorf("Bytes() = %v", b)
	}

	var back AudioChunk
	back.FromBytes(b, 24000, 1)
	if back.Samples[0] != 0x0102 || back.Samples[1] != -1 {
		t.Errorf("FromBytes() = %v", back.Samples)
	}

	one := AudioChunk{Samples: make([]int16, 24000), SampleRate: 24000, Channels: 1}
	if one.Duration() != time.Second {
		t.Errorf("Duration() = %v, want 1s", one.Duration())
	}
	if (&AudioChunk{}).Duration() != 0 {
		t.Error("zero chunk duration should be 0")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultCaptureConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("capture config invalid: %v", err)
	}
	if cfg.BufferSize() != CaptureBlockSize {
		t.Errorf("BufferSize = %d, want %d", cfg.BufferSize(), CaptureBlockSize)
	}

	bad := []Config{
		{SampleRate: 0, Channels: 1, BufferDuration: time.Millisecond},
		{SampleRate: 16000, Channels: 0, BufferDuration: time.Millisecond},
		{SampleRate: 16000, Channels: 1},
		{SampleRate: 16000, Channels: 1, BufferDuration: time.Millisecond, Backend: "alsa"},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("config %d should be invalid", i)
		}
	}
}

func TestNewSourceMock(t *testing.T) {
	cfg := DefaultCaptureConfig()
	cfg.Backend = BackendMock
	src, err := NewSource(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if src.Name() != "mock" {
		t.Errorf("Name() = %q", src.Name())
	}
	sink, err := NewSink(Config{Backend: BackendMock, SampleRate: 24000, Channels: 1, BufferDuration: time.Millisecond}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if sink.Name() != "mock" {
		t.Errorf("Name() = %q", sink.Name())
	}
}
