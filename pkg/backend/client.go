// Package backend is the REST client for the relay: web search, page
// scraping and Gemini generate calls.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/teslashibe/go-analyst/internal/httpc"
	"github.com/teslashibe/go-analyst/pkg/protocol"
	"github.com/teslashibe/go-analyst/pkg/search"
)

// Relay routes.
const (
	PathHealth   = "/api/health"
	PathSearch   = "/api/search/tavily"
	PathScrape   = "/api/scrape"
	PathGenerate = "/api/genai/generate"
)

// Client calls the relay REST endpoints.
type Client struct {
	rest   *resty.Client
	logger *slog.Logger
}

// New creates a relay client.
func New(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	rest := httpc.NewREST(strings.TrimRight(cfg.BaseURL, "/"), cfg.HTTPClient).
		SetTimeout(cfg.Timeout).
		SetJSONMarshaler(protocol.Marshal).
		SetJSONUnmarshaler(protocol.Unmarshal)

	return &Client{
		rest:   rest,
		logger: cfg.Logger.With("component", "backend.client"),
	}, nil
}

// Health pings the relay.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, PathHealth, nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("backend: unhealthy status %q", out.Status)
	}
	return nil
}

// Search runs a web search. Unset parameters get the basic defaults.
func (c *Client) Search(ctx context.Context, req protocol.SearchRequest) (*protocol.SearchResponse, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}
	req = req.WithDefaults()

	start := time.Now()
	var out protocol.SearchResponse
	if err := c.do(ctx, PathSearch, req, &out); err != nil {
		return nil, err
	}
	c.logger.Debug("search done", "query", req.Query, "results", len(out.Results), "took", time.Since(start))
	return &out, nil
}

// Scrape fetches url as markdown.
func (c *Client) Scrape(ctx context.Context, url string) (*protocol.ScrapeData, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrEmptyURL
	}
	req := protocol.ScrapeRequest{URL: url, Formats: []string{"markdown"}}

	var out protocol.ScrapeResponse
	if err := c.do(ctx, PathScrape, req, &out); err != nil {
		return nil, err
	}
	if !out.Success || out.Data == nil {
		if out.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrScrapeFailed, out.Error)
		}
		return nil, ErrScrapeFailed
	}
	return out.Data, nil
}

// Generate runs a Gemini generate call through the relay and returns its text.
func (c *Client) Generate(ctx context.Context, req protocol.GenerateRequest) (string, error) {
	if len(req.Contents) == 0 {
		return "", fmt.Errorf("backend: generate without contents")
	}

	start := time.Now()
	var out protocol.GenerateResponse
	if err := c.do(ctx, PathGenerate, req, &out); err != nil {
		return "", err
	}
	c.logger.Debug("generate done", "model", req.Model, "chars", len(out.Text), "took", time.Since(start))
	return out.Text, nil
}

// GenerateText is Generate with a single user prompt plus optional parts.
func (c *Client) GenerateText(ctx context.Context, model, prompt string, extra []protocol.Part, tools ...protocol.Tool) (string, error) {
	parts := append([]protocol.Part{{Text: prompt}}, extra...)
	req, err := protocol.NewGenerateRequest(model, []protocol.Content{{Role: protocol.RoleUser, Parts: parts}}, tools...)
	if err != nil {
		return "", err
	}
	return c.Generate(ctx, req)
}

// do issues a GET when body is nil, a JSON POST otherwise.
func (c *Client) do(ctx context.Context, path string, body, result any) error {
	r := c.rest.R().SetContext(ctx).SetResult(result)

	var (
		resp *resty.Response
		err  error
	)
	if body == nil {
		resp, err = r.Get(path)
	} else {
		resp, err = r.SetHeader("Content-Type", "application/json").SetBody(body).Post(path)
	}
	if err != nil {
		return fmt.Errorf("backend %s: %w", path, err)
	}
	if resp.IsError() {
		return parseError(path, resp)
	}
	return nil
}

func parseError(path string, resp *resty.Response) error {
	apiErr := &APIError{Endpoint: path, StatusCode: resp.StatusCode()}
	var body protocol.ErrorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Detail != "" {
		apiErr.Detail = body.Detail
	} else {
		apiErr.Detail = strings.TrimSpace(string(resp.Body()))
	}
	return apiErr
}

var _ search.Searcher = (*Client)(nil)
