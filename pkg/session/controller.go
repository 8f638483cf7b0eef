// Package session implements the lifecycle controller of a voice session:
// the connection state machine, reconnection, the one-way switch to the
// fallback provider on quota errors, and the in-band search cycle.
//
// All state lives on one goroutine started by Run. Public methods post work
// to that goroutine and return immediately; dials, searches and fallback
// turns run elsewhere and post their results back. Completions from a
// channel or search that has since been replaced are dropped.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-analyst/pkg/audioio"
	"github.com/teslashibe/go-analyst/pkg/fallback"
	"github.com/teslashibe/go-analyst/pkg/search"
	"github.com/teslashibe/go-analyst/pkg/timeline"
	"github.com/teslashibe/go-analyst/pkg/transport"
	"github.com/teslashibe/go-analyst/pkg/tts"
)

// Capture is a microphone that delivers fixed-size frames.
// *audioio.Capture satisfies it.
type Capture interface {
	Start(ctx context.Context, fn audioio.FrameFunc) error
	Stop() error
}

// Player plays model audio. *audioio.Player satisfies it.
type Player interface {
	EnqueuePCM(ctx context.Context, pcm []byte, rate int) (time.Duration, error)
	Flush() error
}

// FallbackProvider answers turns when the realtime channel is unusable.
// *fallback.Adapter satisfies it.
type FallbackProvider interface {
	SetInstruction(instruction string)
	Recognize(ctx context.Context, audio audioio.AudioChunk) (string, error)
	Respond(ctx context.Context, text string) (string, error)
	Speak(ctx context.Context, text string) (*tts.AudioResult, error)
}

// Deps are the collaborators of a Controller. Only Dialer is required.
type Deps struct {
	Dialer   transport.Dialer
	Capture  Capture
	Player   Player
	Searcher search.Searcher

	// Fallback builds the fallback provider on first quota error.
	Fallback func() (FallbackProvider, error)

	Timeline *timeline.Log
}

// Controller runs one voice session.
type Controller struct {
	cfg         Config
	dialer      transport.Dialer
	capture     Capture
	player      Player
	interceptor *search.Interceptor
	newFallback func() (FallbackProvider, error)
	timeline    *timeline.Log
	logger      *slog.Logger
	running     atomic.Bool

	qmu   sync.Mutex
	queue []func()
	wake  chan struct{}

	stateMu sync.RWMutex
	state   State

	// Owned by the Run goroutine.
	ctx          context.Context
	dirty        bool
	gen          uint64
	ch           transport.Channel
	reconnect    Timer
	reconnectSeq uint64
	searchSeq    uint64
	turnSeq      uint64
	parser       *search.Parser
	scanner      *search.Scanner
	fb           FallbackProvider
	recorder     *fallback.Recorder

	// Read by the capture goroutine.
	searching atomic.Bool
}

// New creates a controller. Call Run to start it.
func New(deps Deps, opts ...Option) (*Controller, error) {
	if deps.Dialer == nil {
		return nil, ErrNoDialer
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = realAfterFunc
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Reconnect.MaxAttempts == 0 {
		cfg.Reconnect = DefaultReconnectPolicy
	}
	if cfg.ErrorTTL <= 0 {
		cfg.ErrorTTL = DefaultErrorTTL
	}
	tl := deps.Timeline
	if tl == nil {
		tl = timeline.New(0)
	}
	logger := cfg.Logger.With("component", "session")
	parser := search.NewParser()

	return &Controller{
		cfg:         cfg,
		dialer:      deps.Dialer,
		capture:     deps.Capture,
		player:      deps.Player,
		interceptor: search.NewInterceptor(deps.Searcher, cfg.Logger),
		newFallback: deps.Fallback,
		timeline:    tl,
		logger:      logger,
		wake:        make(chan struct{}, 1),
		parser:      parser,
		scanner:     search.NewScanner(parser),
		recorder:    fallback.NewRecorder(0),
		ctx:         context.Background(),
	}, nil
}

// Run starts a session with the default instruction and processes work
// until ctx is cancelled. On return the channel is closed and capture and
// playback are stopped.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	c.ctx = ctx

	c.log("Assistente inicializado.", timeline.Info)
	c.initSession("", "")
	c.publish()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			c.publish()
			return ctx.Err()
		case <-c.wake:
		}
		for _, fn := range c.drain() {
			fn()
		}
		c.publish()
	}
}

// dispatch posts fn to the controller goroutine. It never blocks.
func (c *Controller) dispatch(fn func()) {
	c.qmu.Lock()
	c.queue = append(c.queue, fn)
	c.qmu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) drain() []func() {
	c.qmu.Lock()
	defer c.qmu.Unlock()
	q := c.queue
	c.queue = nil
	return q
}

// update mutates state under the snapshot lock.
func (c *Controller) update(fn func(*State)) {
	c.stateMu.Lock()
	fn(&c.state)
	c.stateMu.Unlock()
	c.dirty = true
}

func (c *Controller) publish() {
	if !c.dirty {
		return
	}
	c.dirty = false
	if c.cfg.OnChange != nil {
		c.cfg.OnChange(c.Snapshot())
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state.clone()
}

// Timeline returns the activity log.
func (c *Controller) Timeline() *timeline.Log {
	return c.timeline
}

// StartRecording begins capturing the microphone.
func (c *Controller) StartRecording() {
	c.dispatch(c.startRecording)
}

// StopRecording stops capture. In fallback mode this submits the recording.
func (c *Controller) StopRecording() {
	c.dispatch(c.stopRecording)
}

// ToggleRecording starts or stops recording.
func (c *Controller) ToggleRecording() {
	c.dispatch(func() {
		if c.state.Recording {
			c.stopRecording()
		} else {
			c.startRecording()
		}
	})
}

// SendText sends a typed user turn.
func (c *Controller) SendText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	c.dispatch(func() { c.sendTurn(text) })
}

// BindContent starts a new session seeded with analysed content.
func (c *Controller) BindContent(content Content) {
	c.dispatch(func() {
		if content.Instruction == "" {
			content.Instruction = DefaultInstruction
		}
		c.setStatus("Configurando assistente para o novo conteúdo...")
		c.log("Assistente configurado para: \""+content.Title+"\"", timeline.Success)
		bound := content
		c.update(func(s *State) {
			s.Content = &bound
			s.SearchResults = nil
		})
		c.initSession(content.Instruction, content.Persona)
		c.setStatus("Pronto! Pergunte sobre \"" + content.Title + "\"")
	})
}

// Reset clears bound content and search results, returns to the primary
// provider and restarts with the default instruction.
func (c *Controller) Reset() {
	c.dispatch(func() { c.initSession("", "") })
}

// AnalysisFailed resets the session and reports err.
func (c *Controller) AnalysisFailed(err error) {
	c.dispatch(func() {
		c.initSession("", "")
		c.setError("Erro na análise: " + err.Error())
	})
}

// SetStatus shows a status notice.
func (c *Controller) SetStatus(msg string) {
	c.dispatch(func() { c.setStatus(msg) })
}

// SetError shows an error notice.
func (c *Controller) SetError(msg string) {
	c.dispatch(func() { c.setError(msg) })
}

func (c *Controller) endpoint() string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/api/ws/" + uuid.NewString()
}

func (c *Controller) shutdown() {
	c.cancelReconnect()
	c.searchSeq++
	c.turnSeq++
	if c.state.Recording {
		c.update(func(s *State) { s.Recording = false })
		if c.capture != nil {
			c.capture.Stop()
		}
	}
	c.recorder.Stop()
	c.retireChannel()
	c.flushPlayback()
	if closer, ok := c.fb.(interface{ Close() error }); ok {
		closer.Close()
	}
	c.update(func(s *State) {
		s.Conn = StateDisconnected
		s.Search = nil
	})
	c.searching.Store(false)
}

var _ FallbackProvider = (*fallback.Adapter)(nil)
