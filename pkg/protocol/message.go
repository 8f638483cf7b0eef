// Package protocol defines the wire types exchanged between the assistant and
// the relay: JSON frames on the session websocket and the REST bodies of the
// search, scrape and generate endpoints.
package protocol

import (
	"encoding/base64"
	"fmt"

	"github.com/bytedance/sonic"
)

// MessageType identifies the type of a websocket message.
type MessageType string

const (
	// Relay → assistant
	TypeProviderResponse MessageType = "provider_response" // audio and/or text from the model
	TypeError            MessageType = "error"             // provider or relay failure

	// Assistant → relay
	TypeTextMessage   MessageType = "text_message"   // text turn injected into the session
	TypeSessionConfig MessageType = "session_config" // first frame after dialing
)

// Audio format of provider_response audio.
const (
	OutputSampleRate = 24000
	InputSampleRate  = 16000
)

// Inbound is a message received from the relay.
type Inbound struct {
	Type         MessageType `json:"type"`
	Audio        string      `json:"audio,omitempty"` // base64 PCM16 mono 24kHz
	Text         string      `json:"text,omitempty"`
	Message      string      `json:"message,omitempty"`
	Code         int         `json:"code,omitempty"`
	Interrupted  bool        `json:"interrupted,omitempty"`
	TurnComplete bool        `json:"turn_complete,omitempty"`
}

// HasAudio reports whether the message carries an audio payload.
func (m *Inbound) HasAudio() bool {
	return m.Audio != ""
}

// DecodeAudio returns the raw PCM16 bytes of the audio payload.
func (m *Inbound) DecodeAudio() ([]byte, error) {
	if m.Audio == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(m.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio: %w", err)
	}
	return b, nil
}

// TextMessage is an outbound text turn.
type TextMessage struct {
	Type MessageType `json:"type"`
	Text string      `json:"text"`
}

// SessionConfig binds a system instruction and voice to a new session.
type SessionConfig struct {
	Type              MessageType `json:"type"`
	SystemInstruction string      `json:"system_instruction"`
	Voice             string      `json:"voice,omitempty"`
	Language          string      `json:"language,omitempty"`
	Model             string      `json:"model,omitempty"`
}

// NewTextMessage creates a text_message frame.
func NewTextMessage(text string) TextMessage {
	return TextMessage{Type: TypeTextMessage, Text: text}
}

// NewSessionConfig creates a session_config frame.
func NewSessionConfig(instruction, voice, language string) SessionConfig {
	return SessionConfig{
		Type:              TypeSessionConfig,
		SystemInstruction: instruction,
		Voice:             voice,
		Language:          language,
	}
}

// NewAudioResponse wraps PCM16 bytes in a provider_response frame.
func NewAudioResponse(pcm []byte) Inbound {
	return Inbound{
		Type:  TypeProviderResponse,
		Audio: base64.StdEncoding.EncodeToString(pcm),
	}
}

// NewTextResponse wraps model text in a provider_response frame.
func NewTextResponse(text string) Inbound {
	return Inbound{Type: TypeProviderResponse, Text: text}
}

// NewErrorMessage creates an error frame.
func NewErrorMessage(message string, code int) Inbound {
	return Inbound{Type: TypeError, Message: message, Code: code}
}

// Marshal encodes v as JSON.
func Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

// ParseInbound parses a relay → assistant frame.
func ParseInbound(data []byte) (*Inbound, error) {
	var msg Inbound
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// Envelope peeks at the type of an assistant → relay frame.
type Envelope struct {
	Type MessageType `json:"type"`
}

// PeekType returns the type of a JSON frame without decoding the body.
func PeekType(data []byte) (MessageType, error) {
	var env Envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("failed to parse message: %w", err)
	}
	return env.Type, nil
}
