package analysis

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
)

// DefaultOEmbedURL resolves video titles without an API key.
const DefaultOEmbedURL = "https://www.youtube.com/oembed"

// DefaultVideoTitle is used when the title lookup fails.
const DefaultVideoTitle = "Vídeo do YouTube"

type oembed struct {
	Title string `json:"title"`
}

// videoTitle returns the oEmbed title of a video URL, or DefaultVideoTitle.
func videoTitle(ctx context.Context, rest *resty.Client, endpoint, videoURL string) string {
	var out oembed
	resp, err := rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"url": videoURL, "format": "json"}).
		SetResult(&out).
		Get(endpoint)
	if err != nil || resp.IsError() || strings.TrimSpace(out.Title) == "" {
		return DefaultVideoTitle
	}
	return strings.TrimSpace(out.Title)
}
