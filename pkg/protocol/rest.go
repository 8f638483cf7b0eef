package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// Search (Tavily)
// =============================================================================

// Search defaults applied by the interceptor and the relay.
const (
	SearchDepthBasic   = "basic"
	SearchTopicGeneral = "general"
	SearchMaxResults   = 5
	SearchAnswerBasic  = "basic"
)

// SearchRequest is the body of POST /api/search/tavily.
type SearchRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth,omitempty"`
	Topic         string `json:"topic,omitempty"`
	MaxResults    int    `json:"max_results,omitempty"`
	IncludeAnswer string `json:"include_answer,omitempty"`
}

// WithDefaults fills unset fields with the basic search parameters.
func (r SearchRequest) WithDefaults() SearchRequest {
	if r.SearchDepth == "" {
		r.SearchDepth = SearchDepthBasic
	}
	if r.Topic == "" {
		r.Topic = SearchTopicGeneral
	}
	if r.MaxResults <= 0 {
		r.MaxResults = SearchMaxResults
	}
	if r.IncludeAnswer == "" {
		r.IncludeAnswer = SearchAnswerBasic
	}
	return r
}

// SearchResult is one hit.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchResponse is returned by the search endpoint.
type SearchResponse struct {
	Query        string         `json:"query"`
	Answer       string         `json:"answer,omitempty"`
	Results      []SearchResult `json:"results"`
	ResponseTime float64        `json:"response_time"`
}

// =============================================================================
// Scrape (Firecrawl)
// =============================================================================

// ScrapeRequest is the body of POST /api/scrape.
type ScrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats,omitempty"`
}

// ScrapeMetadata describes the scraped page.
type ScrapeMetadata struct {
	Title     string `json:"title,omitempty"`
	SourceURL string `json:"sourceURL,omitempty"`
}

// ScrapeData holds the scraped content.
type ScrapeData struct {
	Markdown string         `json:"markdown"`
	Metadata ScrapeMetadata `json:"metadata"`
}

// ScrapeResponse is returned by the scrape endpoint.
type ScrapeResponse struct {
	Success bool        `json:"success"`
	Data    *ScrapeData `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// =============================================================================
// Generate (Gemini)
// =============================================================================

// DefaultGenerateModel is used when a generate request names no model.
const DefaultGenerateModel = "gemini-2.5-flash"

// Roles of a content turn.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Blob is inline binary data (base64 encoded on the wire).
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// FileData references content by URI.
type FileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

// Part is one piece of a content turn.
type Part struct {
	Text       string    `json:"text,omitempty"`
	InlineData *Blob     `json:"inlineData,omitempty"`
	FileData   *FileData `json:"fileData,omitempty"`
}

// Content is one conversation turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Tool enables a server-side tool for the generate call.
type Tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

// GoogleSearchTool returns the grounding-with-search tool.
func GoogleSearchTool() Tool {
	return Tool{GoogleSearch: &struct{}{}}
}

// GenerationConfig tunes sampling.
type GenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	MaxOutputTokens int32    `json:"maxOutputTokens,omitempty"`
}

// GenerateRequest is the body of POST /api/genai/generate.
// Contents may be a single object with parts, or a list of contents.
type GenerateRequest struct {
	Model             string            `json:"model,omitempty"`
	Contents          json.RawMessage   `json:"contents"`
	Tools             []Tool            `json:"tools,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction string            `json:"systemInstruction,omitempty"`
}

// NewGenerateRequest builds a request with a list of contents.
func NewGenerateRequest(model string, contents []Content, tools ...Tool) (GenerateRequest, error) {
	raw, err := Marshal(contents)
	if err != nil {
		return GenerateRequest{}, fmt.Errorf("failed to marshal contents: %w", err)
	}
	return GenerateRequest{Model: model, Contents: raw, Tools: tools}, nil
}

// GenerateResponse is returned by the generate endpoint.
type GenerateResponse struct {
	Text string `json:"text"`
}

// ErrorResponse is the body of relay error responses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// NormalizeContents accepts either a single content object with parts or a
// list of contents and returns the list, defaulting missing roles to user.
func NormalizeContents(raw json.RawMessage) ([]Content, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("contents is required")
	}

	var contents []Content
	switch trimmed[0] {
	case '{':
		var c Content
		if err := Unmarshal([]byte(trimmed), &c); err != nil {
			return nil, fmt.Errorf("invalid contents: %w", err)
		}
		if len(c.Parts) == 0 {
			return nil, fmt.Errorf("contents object has no parts")
		}
		contents = []Content{c}
	case '[':
		if err := Unmarshal([]byte(trimmed), &contents); err != nil {
			return nil, fmt.Errorf("invalid contents: %w", err)
		}
	case '"':
		var text string
		if err := Unmarshal([]byte(trimmed), &text); err != nil {
			return nil, fmt.Errorf("invalid contents: %w", err)
		}
		contents = []Content{{Parts: []Part{{Text: text}}}}
	default:
		return nil, fmt.Errorf("invalid contents")
	}

	for i := range contents {
		if contents[i].Role == "" {
			contents[i].Role = RoleUser
		}
	}
	return contents, nil
}
