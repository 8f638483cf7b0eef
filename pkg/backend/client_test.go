package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/teslashibe/go-analyst/pkg/protocol"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(WithBaseURL(srv.URL + "/"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(WithBaseURL("")); !errors.Is(err, ErrNoBaseURL) {
		t.Errorf("expected ErrNoBaseURL, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != PathHealth {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"ok"}`)
	})
	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Health() error = %v", err)
	}
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathSearch {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req protocol.SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Query != "previsão do tempo" {
			t.Errorf("query = %q", req.Query)
		}
		if req.SearchDepth != "basic" || req.Topic != "general" || req.MaxResults != 5 || req.IncludeAnswer != "basic" {
			t.Errorf("defaults not applied: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"query":"previsão do tempo","answer":"Sol","results":[{"title":"A","url":"https://a.example","content":"x","score":0.9}]}`)
	})

	resp, err := c.Search(context.Background(), protocol.SearchRequest{Query: "  previsão do tempo "})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if resp.Answer != "Sol" || len(resp.Results) != 1 || resp.Results[0].URL != "https://a.example" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := c.Search(context.Background(), protocol.SearchRequest{Query: " "}); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestAPIErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		detail string
	}{
		{"json detail", 500, `{"detail":"TAVILY_API_KEY not configured"}`, "TAVILY_API_KEY not configured"},
		{"raw body", 502, "bad gateway\n", "bad gateway"},
		{"rate limited", 429, `{"detail":"quota exceeded"}`, "quota exceeded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := c.Search(context.Background(), protocol.SearchRequest{Query: "x"})
			ae, ok := IsAPIError(err)
			if !ok {
				t.Fatalf("expected APIError, got %v", err)
			}
			if ae.StatusCode != tt.status || ae.Detail != tt.detail {
				t.Errorf("got %d %q", ae.StatusCode, ae.Detail)
			}
			if ae.IsRateLimited() != (tt.status == 429) {
				t.Error("IsRateLimited mismatch")
			}
		})
	}
}

func TestScrape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req protocol.ScrapeRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.URL != "https://blog.example/post" || len(req.Formats) != 1 || req.Formats[0] != "markdown" {
			t.Errorf("req = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"data":{"markdown":"# Post","metadata":{"title":"Post"}}}`)
	})

	data, err := c.Scrape(context.Background(), "https://blog.example/post")
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if data.Markdown != "# Post" || data.Metadata.Title != "Post" {
		t.Errorf("data = %+v", data)
	}
}

func TestScrapeUnsuccessful(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":false,"error":"blocked"}`)
	})
	_, err := c.Scrape(context.Background(), "https://x.example")
	if !errors.Is(err, ErrScrapeFailed) {
		t.Errorf("expected ErrScrapeFailed, got %v", err)
	}
}

func TestGenerateText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathGenerate {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req protocol.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		contents, err := protocol.NormalizeContents(req.Contents)
		if err != nil {
			t.Errorf("contents: %v", err)
			return
		}
		if len(contents) != 1 || len(contents[0].Parts) != 2 || contents[0].Parts[0].Text != "Resuma" {
			t.Errorf("contents = %+v", contents)
			return
		}
		if contents[0].Parts[1].FileData == nil || contents[0].Parts[1].FileData.FileURI != "https://youtu.be/x" {
			t.Errorf("file part = %+v", contents[0].Parts[1])
		}
		if len(req.Tools) != 1 || req.Tools[0].GoogleSearch == nil {
			t.Errorf("tools = %+v", req.Tools)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text":"Resumo pronto."}`)
	})

	extra := []protocol.Part{{FileData: &protocol.FileData{FileURI: "https://youtu.be/x"}}}
	text, err := c.GenerateText(context.Background(), "", "Resuma", extra, protocol.GoogleSearchTool())
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}
	if text != "Resumo pronto." {
		t.Errorf("text = %q", text)
	}
}
