package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/teslashibe/go-analyst/internal/httpc"
)

// proxy posts JSON bodies to a bearer-authenticated upstream.
type proxy struct {
	provider string
	apiKey   string
	rest     *resty.Client
}

func newProxy(provider, baseURL, apiKey string, cfg *Config) *proxy {
	return &proxy{
		provider: provider,
		apiKey:   apiKey,
		rest:     httpc.NewREST(strings.TrimRight(baseURL, "/"), cfg.HTTPClient),
	}
}

// post returns the raw upstream body on success.
func (p *proxy) post(ctx context.Context, path string, body any) ([]byte, error) {
	resp, err := p.rest.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("relay: %s request: %w", p.provider, err)
	}
	if resp.IsError() {
		return nil, &UpstreamError{
			Provider:   p.provider,
			StatusCode: resp.StatusCode(),
			Detail:     strings.TrimSpace(string(resp.Body())),
		}
	}
	return resp.Body(), nil
}
