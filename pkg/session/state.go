package session

import (
	"fmt"
	"time"
)

// ConnState is the connection state of a session.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateError
)

// String returns the state name.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Label returns the user-facing state text.
func (s ConnState) Label() string {
	switch s {
	case StateConnected:
		return "Conectado"
	case StateConnecting:
		return "Conectando..."
	case StateError:
		return "Erro de Conexão"
	default:
		return "Desconectado"
	}
}

// Provider is the active conversational backend.
type Provider int

const (
	ProviderPrimary Provider = iota
	ProviderFallback
)

// String returns the provider name.
func (p Provider) String() string {
	if p == ProviderFallback {
		return "fallback"
	}
	return "primary"
}

// Persona selects how an explicit instruction is adopted.
type Persona string

const (
	PersonaAssistant Persona = "assistant"
	PersonaAnalyst   Persona = "analyst"
)

// SearchCycle is an in-flight intercepted search. While one exists, model
// audio is dropped and microphone audio is not sent.
type SearchCycle struct {
	Query   string
	Started time.Time
}

// SearchResult is a source shown to the user after a search.
type SearchResult struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Content is knowledge bound to the session by an analysis.
type Content struct {
	Title       string
	Source      string
	Summary     string
	Instruction string
	Persona     Persona
}

// State is a snapshot of the controller.
type State struct {
	Conn     ConnState
	Provider Provider
	Attempts int

	Instruction string
	Persona     Persona
	Content     *Content

	Recording     bool
	Search        *SearchCycle
	SearchResults []SearchResult

	Status string
	Error  string
}

// Searching reports whether a search cycle is active.
func (s State) Searching() bool {
	return s.Search != nil
}

// ConnectionText is the connection label with the fallback marker.
func (s State) ConnectionText() string {
	if s.Provider == ProviderFallback {
		return s.Conn.Label() + " (Fallback)"
	}
	return s.Conn.Label()
}

func (s State) clone() State {
	out := s
	if s.Content != nil {
		c := *s.Content
		out.Content = &c
	}
	if s.Search != nil {
		sc := *s.Search
		out.Search = &sc
	}
	if s.SearchResults != nil {
		out.SearchResults = append([]SearchResult(nil), s.SearchResults...)
	}
	return out
}
