package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/go-analyst/internal/log"
	"github.com/teslashibe/go-analyst/pkg/audioio"
	"github.com/teslashibe/go-analyst/pkg/protocol"
	"github.com/teslashibe/go-analyst/pkg/timeline"
	"github.com/teslashibe/go-analyst/pkg/transport"
	"github.com/teslashibe/go-analyst/pkg/tts"
)

// fakeTimers records scheduled callbacks and fires them on demand.
type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	owner   *fakeTimers
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (ft *fakeTimers) AfterFunc(d time.Duration, f func()) Timer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	t := &fakeTimer{owner: ft, d: d, f: f}
	ft.timers = append(ft.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// pending returns live timers whose duration is not skip.
func (ft *fakeTimers) pending(skip time.Duration) []*fakeTimer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	var out []*fakeTimer
	for _, t := range ft.timers {
		if !t.stopped && !t.fired && t.d != skip {
			out = append(out, t)
		}
	}
	return out
}

func (ft *fakeTimers) fire(t *fakeTimer) {
	ft.mu.Lock()
	t.fired = true
	ft.mu.Unlock()
	t.f()
}

// fakeFallback is a scripted FallbackProvider.
type fakeFallback struct {
	mu          sync.Mutex
	instruction string
	prompts     []string
	spoken      []string

	recognize func(audioio.AudioChunk) (string, error)
	respond   func(n int, text string) (string, error)
}

func (f *fakeFallback) SetInstruction(instruction string) {
	f.mu.Lock()
	f.instruction = instruction
	f.mu.Unlock()
}

func (f *fakeFallback) Instruction() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instruction
}

func (f *fakeFallback) Recognize(ctx context.Context, audio audioio.AudioChunk) (string, error) {
	if f.recognize != nil {
		return f.recognize(audio)
	}
	return "oi", nil
}

func (f *fakeFallback) Respond(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, text)
	n := len(f.prompts)
	f.mu.Unlock()
	if f.respond != nil {
		return f.respond(n, text)
	}
	return "Olá! Tudo bem.", nil
}

func (f *fakeFallback) Speak(ctx context.Context, text string) (*tts.AudioResult, error) {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
	return &tts.AudioResult{Audio: make([]byte, 480), Format: tts.PCM24}, nil
}

func (f *fakeFallback) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func (f *fakeFallback) Spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

// blockingSearcher answers after release is closed.
type blockingSearcher struct {
	release chan struct{}
	err     error
	calls   atomic.Int32
	mu      sync.Mutex
	queries []string
}

func newSearcher() *blockingSearcher {
	s := &blockingSearcher{release: make(chan struct{})}
	close(s.release)
	return s
}

func (s *blockingSearcher) Search(ctx context.Context, req protocol.SearchRequest) (*protocol.SearchResponse, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.queries = append(s.queries, req.Query)
	s.mu.Unlock()
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return sampleResponse(req.Query), nil
}

func (s *blockingSearcher) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func sampleResponse(query string) *protocol.SearchResponse {
	return &protocol.SearchResponse{
		Query:  query,
		Answer: "Ensolarado, 28°C.",
		Results: []protocol.SearchResult{
			{Title: "Clima SP", URL: "https://tempo.example/sp", Content: "Sol o dia todo."},
			{Title: "Previsão", URL: "https://prev.example/sp", Content: "Sem chuva."},
		},
	}
}

type setup struct {
	ttl        time.Duration
	opts       []Option
	srcOpts    []audioio.MockSourceOption
	searcher   *blockingSearcher
	dialFunc   func(ctx context.Context, endpoint string, s protocol.SessionConfig) (transport.Channel, error)
	noFallback bool
	fallback   *fakeFallback
}

type harness struct {
	t        *testing.T
	c        *Controller
	dialer   *transport.MockDialer
	src      *audioio.MockSource
	sink     *audioio.MockSink
	timers   *fakeTimers
	tl       *timeline.Log
	fb       *fakeFallback
	searcher *blockingSearcher
	builds   atomic.Int32
	ttl      time.Duration
}

func start(t *testing.T, mods ...func(*setup)) *harness {
	t.Helper()
	s := &setup{ttl: time.Hour, searcher: newSearcher(), fallback: &fakeFallback{}}
	for _, m := range mods {
		m(s)
	}

	h := &harness{
		t:        t,
		dialer:   transport.NewMockDialer(),
		timers:   &fakeTimers{},
		tl:       timeline.New(0),
		fb:       s.fallback,
		searcher: s.searcher,
		ttl:      s.ttl,
	}
	h.dialer.DialFunc = s.dialFunc

	logger := log.Discard()
	h.src = audioio.NewMockSource(audioio.DefaultCaptureConfig(), logger, append([]audioio.MockSourceOption{audioio.WithManualFeed()}, s.srcOpts...)...)
	h.sink = audioio.NewMockSink(audioio.DefaultConfig(), logger)
	if err := h.sink.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	deps := Deps{
		Dialer:   h.dialer,
		Capture:  audioio.NewCapture(h.src, 0, logger),
		Player:   audioio.NewPlayer(h.sink, logger),
		Searcher: s.searcher,
		Timeline: h.tl,
	}
	if !s.noFallback {
		deps.Fallback = func() (FallbackProvider, error) {
			h.builds.Add(1)
			return h.fb, nil
		}
	}

	opts := append([]Option{
		WithBaseURL("ws://relay/"),
		WithAfterFunc(h.timers.AfterFunc),
		WithErrorTTL(s.ttl),
		WithSearchCue(false),
		WithLogger(logger),
	}, s.opts...)

	c, err := New(deps, opts...)
	if err != nil {
		t.Fatal(err)
	}
	h.c = c

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("controller did not stop")
		}
	})
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (h *harness) state() State {
	return h.c.Snapshot()
}

func (h *harness) waitConnected() *transport.MockChannel {
	h.t.Helper()
	waitFor(h.t, "connected", func() bool {
		s := h.state()
		return s.Conn == StateConnected && h.dialer.Last() != nil
	})
	return h.dialer.Last()
}

// fireReconnect fires the single pending reconnect timer and returns its delay.
func (h *harness) fireReconnect() time.Duration {
	h.t.Helper()
	var pending []*fakeTimer
	waitFor(h.t, "reconnect timer", func() bool {
		pending = h.timers.pending(h.ttl)
		return len(pending) > 0
	})
	if len(pending) != 1 {
		h.t.Fatalf("expected one reconnect timer, got %d", len(pending))
	}
	h.timers.fire(pending[0])
	return pending[0].d
}

func (h *harness) pendingReconnects() int {
	return len(h.timers.pending(h.ttl))
}

func (h *harness) logged(msg string) bool {
	for _, ev := range h.tl.Events() {
		if ev.Message == msg {
			return true
		}
	}
	return false
}

func (h *harness) loggedPrefix(prefix string) bool {
	for _, ev := range h.tl.Events() {
		if strings.HasPrefix(ev.Message, prefix) {
			return true
		}
	}
	return false
}

func (h *harness) audioFrames(ch *transport.MockChannel) int {
	n := 0
	for _, f := range ch.Frames() {
		if f.Kind == transport.FrameAudio {
			n++
		}
	}
	return n
}

func micChunk() audioio.AudioChunk {
	return audioio.AudioChunk{Samples: make([]int16, audioio.CaptureBlockSize), SampleRate: audioio.CaptureSampleRate, Channels: 1}
}

var errRefused = errors.New("dial refused")
