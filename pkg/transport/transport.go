// Package transport provides the realtime channel between the assistant and
// the relay: one websocket per session carrying binary microphone audio up
// and JSON provider messages down.
package transport

import (
	"context"
	"fmt"

	"github.com/teslashibe/go-analyst/pkg/protocol"
)

// EventKind identifies a channel event.
type EventKind int

const (
	EventOpened EventKind = iota
	EventMessage
	EventClosed
	EventError
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventMessage:
		return "message"
	case EventClosed:
		return "closed"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Websocket close codes the controller cares about.
const (
	CloseNormal        = 1000
	CloseGoingAway     = 1001
	CloseAbnormal      = 1006
	CloseInternalError = 1011
)

// IsNormalClose reports whether code is a deliberate closure.
func IsNormalClose(code int) bool {
	return code == CloseNormal || code == CloseGoingAway
}

// Event is emitted by a Channel.
// A channel emits Opened first, then any number of Message and Error events,
// and exactly one Closed last, after which Events is closed.
type Event struct {
	Kind    EventKind
	Message *protocol.Inbound // EventMessage
	Code    int               // EventClosed
	Reason  string            // EventClosed
	Err     error             // EventError
}

// FrameKind identifies an outbound frame.
type FrameKind int

const (
	FrameAudio FrameKind = iota
	FrameText
)

// Frame is an outbound unit: a binary audio chunk or a text turn.
type Frame struct {
	Kind  FrameKind
	Audio []byte
	Text  string
}

// AudioFrame wraps PCM16 bytes.
func AudioFrame(pcm []byte) Frame { return Frame{Kind: FrameAudio, Audio: pcm} }

// TextFrame wraps a text turn.
func TextFrame(text string) Frame { return Frame{Kind: FrameText, Text: text} }

// Channel is one open session on the relay.
type Channel interface {
	// Send writes a frame. Frames are delivered in send order.
	// It fails with ErrNotConnected once the channel is closed.
	Send(frame Frame) error

	// Events returns the event stream. It must be drained.
	Events() <-chan Event

	// IsOpen reports whether frames can be sent.
	IsOpen() bool

	// Close closes the channel. It is idempotent.
	Close() error
}

// Dialer opens channels. The session config is bound to the new channel
// before Opened is emitted.
type Dialer interface {
	Dial(ctx context.Context, endpoint string, session protocol.SessionConfig) (Channel, error)
}
