// Package timeline keeps the newest-first activity log shown to the user.
package timeline

import (
	"sync"
	"time"
)

// Category classifies an event.
type Category string

const (
	Info       Category = "info"
	Success    Category = "success"
	Error      Category = "error"
	Record     Category = "record"
	Process    Category = "process"
	Connect    Category = "connect"
	Disconnect Category = "disconnect"
)

// DefaultCapacity bounds the log.
const DefaultCapacity = 200

// Event is one log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Category  Category  `json:"category"`
}

// Log is an append-only, newest-first event log. Once full, the oldest
// entries are discarded. Safe for concurrent use.
type Log struct {
	mu       sync.RWMutex
	events   []Event // oldest first
	capacity int
	now      func() time.Time
	onEvent  func(Event)
}

// New creates a log holding up to capacity events (DefaultCapacity if <= 0).
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity, now: time.Now}
}

// OnEvent registers a hook called for every added event.
func (l *Log) OnEvent(fn func(Event)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onEvent = fn
}

// Add appends an event and returns it.
func (l *Log) Add(message string, category Category) Event {
	l.mu.Lock()
	ev := Event{Timestamp: l.now(), Message: message, Category: category}
	l.events = append(l.events, ev)
	if over := len(l.events) - l.capacity; over > 0 {
		l.events = append(l.events[:0], l.events[over:]...)
	}
	hook := l.onEvent
	l.mu.Unlock()

	if hook != nil {
		hook(ev)
	}
	return ev
}

// Events returns a newest-first copy of the log.
func (l *Log) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	for i, ev := range l.events {
		out[len(l.events)-1-i] = ev
	}
	return out
}

// Len returns the number of stored events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Latest returns the newest event.
func (l *Log) Latest() (Event, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.events) == 0 {
		return Event{}, false
	}
	return l.events[len(l.events)-1], true
}
