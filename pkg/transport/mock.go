package transport

import (
	"context"
	"sync"

	"github.com/teslashibe/go-analyst/pkg/protocol"
)

// MockDialer is a Dialer for tests. Each Dial creates a MockChannel.
type MockDialer struct {
	mu sync.Mutex

	// DialFunc overrides Dial when set.
	DialFunc func(ctx context.Context, endpoint string, session protocol.SessionConfig) (Channel, error)

	// AutoOpen emits Opened as soon as a channel is dialed. Default true.
	AutoOpen bool

	// Captured calls for assertions
	Endpoints []string
	Sessions  []protocol.SessionConfig
	Channels  []*MockChannel
}

// NewMockDialer creates a dialer whose channels open immediately.
func NewMockDialer() *MockDialer {
	return &MockDialer{AutoOpen: true}
}

// Dial implements Dialer.
func (d *MockDialer) Dial(ctx context.Context, endpoint string, session protocol.SessionConfig) (Channel, error) {
	d.mu.Lock()
	d.Endpoints = append(d.Endpoints, endpoint)
	d.Sessions = append(d.Sessions, session)
	fn := d.DialFunc
	d.mu.Unlock()

	if fn != nil {
		return fn(ctx, endpoint, session)
	}

	ch := NewMockChannel()
	d.mu.Lock()
	d.Channels = append(d.Channels, ch)
	auto := d.AutoOpen
	d.mu.Unlock()
	if auto {
		ch.SimulateOpen()
	}
	return ch, nil
}

// Last returns the most recently dialed mock channel, or nil.
func (d *MockDialer) Last() *MockChannel {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Channels) == 0 {
		return nil
	}
	return d.Channels[len(d.Channels)-1]
}

// LastSession returns the session config of the most recent Dial.
func (d *MockDialer) LastSession() protocol.SessionConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Sessions) == 0 {
		return protocol.SessionConfig{}
	}
	return d.Sessions[len(d.Sessions)-1]
}

// LastEndpoint returns the endpoint of the most recent Dial.
func (d *MockDialer) LastEndpoint() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Endpoints) == 0 {
		return ""
	}
	return d.Endpoints[len(d.Endpoints)-1]
}

// DialCount returns the number of Dial calls.
func (d *MockDialer) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Endpoints)
}

// MockChannel is a Channel for tests.
type MockChannel struct {
	mu     sync.Mutex
	open   bool
	closed bool
	events chan Event

	// SendFunc overrides Send when set.
	SendFunc func(Frame) error

	// Captured calls for assertions
	Sent        []Frame
	CloseCalled int
}

// NewMockChannel creates an open channel with a large event buffer.
func NewMockChannel() *MockChannel {
	return &MockChannel{open: true, events: make(chan Event, 1024)}
}

// Send implements Channel.
func (m *MockChannel) Send(frame Frame) error {
	if m.SendFunc != nil {
		return m.SendFunc(frame)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return ErrNotConnected
	}
	m.Sent = append(m.Sent, frame)
	return nil
}

// Events implements Channel.
func (m *MockChannel) Events() <-chan Event {
	return m.events
}

// IsOpen implements Channel.
func (m *MockChannel) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Close implements Channel.
func (m *MockChannel) Close() error {
	m.mu.Lock()
	m.CloseCalled++
	wasOpen := m.open
	m.open = false
	m.mu.Unlock()
	if wasOpen {
		m.finish(Event{Kind: EventClosed, Code: CloseNormal, Reason: "closed by client"})
	}
	return nil
}

// Frames returns a copy of the frames sent so far.
func (m *MockChannel) Frames() []Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Frame, len(m.Sent))
	copy(out, m.Sent)
	return out
}

// Texts returns the text frames sent so far.
func (m *MockChannel) Texts() []string {
	var out []string
	for _, f := range m.Frames() {
		if f.Kind == FrameText {
			out = append(out, f.Text)
		}
	}
	return out
}

// SimulateOpen emits Opened.
func (m *MockChannel) SimulateOpen() {
	m.emit(Event{Kind: EventOpened})
}

// SimulateMessage emits a Message event.
func (m *MockChannel) SimulateMessage(msg protocol.Inbound) {
	m.emit(Event{Kind: EventMessage, Message: &msg})
}

// SimulateError emits an Error event.
func (m *MockChannel) SimulateError(err error) {
	m.emit(Event{Kind: EventError, Err: err})
}

// SimulateClose emits the terminal Closed event from the remote side.
func (m *MockChannel) SimulateClose(code int, reason string) {
	m.mu.Lock()
	m.open = false
	m.mu.Unlock()
	m.finish(Event{Kind: EventClosed, Code: code, Reason: reason})
}

func (m *MockChannel) emit(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.events <- ev
}

func (m *MockChannel) finish(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.events <- ev
	close(m.events)
}

var _ Channel = (*MockChannel)(nil)
var _ Dialer = (*MockDialer)(nil)
