package relay

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/teslashibe/go-analyst/pkg/protocol"
)

// GenerateCall is a normalized generate request.
type GenerateCall struct {
	Model             string
	Contents          []protocol.Content
	Tools             []protocol.Tool
	Config            *protocol.GenerationConfig
	SystemInstruction string
}

// Generator produces text for a generate request.
type Generator interface {
	Generate(ctx context.Context, call GenerateCall) (string, error)
}

// GenAI is a Generator backed by the Gemini API.
type GenAI struct {
	client *genai.Client
}

// NewGenAI creates a Gemini API client. baseURL may be empty.
func NewGenAI(ctx context.Context, apiKey, baseURL string, hc *http.Client) (*GenAI, error) {
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("relay: genai client: %w", err)
	}
	return &GenAI{client: client}, nil
}

// Generate implements Generator.
func (g *GenAI) Generate(ctx context.Context, call GenerateCall) (string, error) {
	contents, err := toGenAIContents(call.Contents)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{}
	for _, t := range call.Tools {
		if t.GoogleSearch != nil {
			config.Tools = append(config.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
		}
	}
	if gc := call.Config; gc != nil {
		config.Temperature = gc.Temperature
		config.MaxOutputTokens = gc.MaxOutputTokens
	}
	if call.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(call.SystemInstruction, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, call.Model, contents, config)
	if err != nil {
		return "", upstreamFromGenAI(err)
	}
	return resp.Text(), nil
}

func toGenAIContents(in []protocol.Content) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(in))
	for _, c := range in {
		content := &genai.Content{Role: c.Role}
		for _, p := range c.Parts {
			switch {
			case p.InlineData != nil:
				data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("%w: inline data is not base64", errInvalidBody)
				}
				content.Parts = append(content.Parts, &genai.Part{
					InlineData: &genai.Blob{MIMEType: p.InlineData.MimeType, Data: data},
				})
			case p.FileData != nil:
				content.Parts = append(content.Parts, &genai.Part{
					FileData: &genai.FileData{MIMEType: p.FileData.MimeType, FileURI: p.FileData.FileURI},
				})
			case p.Text != "":
				content.Parts = append(content.Parts, &genai.Part{Text: p.Text})
			}
		}
		if len(content.Parts) > 0 {
			out = append(out, content)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: contents has no parts", errInvalidBody)
	}
	return out, nil
}

func upstreamFromGenAI(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Provider: "gemini", StatusCode: apiErr.Code, Detail: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &UpstreamError{Provider: "gemini", StatusCode: apiErrPtr.Code, Detail: apiErrPtr.Message}
	}
	return fmt.Errorf("relay: gemini: %w", err)
}

var _ Generator = (*GenAI)(nil)
