package fallback

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenRouter defaults.
const (
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel      = "google/gemini-2.0-flash-exp:preview"
	DefaultTitle      = "Live Gemini Assistant Fallback"

	DefaultTemperature float32 = 0.7
	DefaultMaxTokens           = 1000
)

// DefaultReply is spoken when the provider answers with no content.
const DefaultReply = "Desculpe, não consegui processar sua solicitação."

// Responder produces a text reply for one user turn.
type Responder interface {
	Respond(ctx context.Context, instruction, text string) (string, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, instruction, text string) (string, error)

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, instruction, text string) (string, error) {
	return f(ctx, instruction, text)
}

// OpenRouter is a Responder backed by an OpenAI-compatible chat endpoint.
type OpenRouter struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenRouter creates a chat responder from cfg.
func NewOpenRouter(cfg *Config) (*OpenRouter, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	base := http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		base = cfg.HTTPClient.Transport
	}
	hc := &http.Client{Transport: &titleTransport{title: cfg.Title, base: base}}
	if cfg.HTTPClient != nil {
		hc.Timeout = cfg.HTTPClient.Timeout
	}
	clientCfg.HTTPClient = hc

	return &OpenRouter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Respond sends the instruction as the system message and text as the
// user message.
func (o *OpenRouter) Respond(ctx context.Context, instruction, text string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if instruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: instruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", &StatusError{StatusCode: reqErr.HTTPStatusCode}
		}
		return "", err
	}

	if len(resp.Choices) == 0 {
		return DefaultReply, nil
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return DefaultReply, nil
	}
	return content, nil
}

// titleTransport adds the OpenRouter attribution header.
type titleTransport struct {
	title string
	base  http.RoundTripper
}

func (t *titleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.title != "" {
		req = req.Clone(req.Context())
		req.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(req)
}
