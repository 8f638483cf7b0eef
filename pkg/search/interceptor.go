package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-analyst/pkg/protocol"
)

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("search: empty query")

// Searcher performs a web search.
type Searcher interface {
	Search(ctx context.Context, req protocol.SearchRequest) (*protocol.SearchResponse, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, req protocol.SearchRequest) (*protocol.SearchResponse, error)

// Search implements Searcher.
func (f SearcherFunc) Search(ctx context.Context, req protocol.SearchRequest) (*protocol.SearchResponse, error) {
	return f(ctx, req)
}

// Outcome is the result of one intercepted search.
type Outcome struct {
	Query    string
	Response *protocol.SearchResponse
	// Turn is the text to inject into the session; always set.
	Turn string
	Err  error
}

// Interceptor runs sentinel searches with fixed parameters.
type Interceptor struct {
	searcher Searcher
	timeout  time.Duration
	logger   *slog.Logger
}

// DefaultTimeout bounds one search.
const DefaultTimeout = 20 * time.Second

// NewInterceptor creates an interceptor backed by searcher.
func NewInterceptor(searcher Searcher, logger *slog.Logger) *Interceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interceptor{
		searcher: searcher,
		timeout:  DefaultTimeout,
		logger:   logger.With("component", "search.interceptor"),
	}
}

// Request builds the fixed search request for query.
func Request(query string) protocol.SearchRequest {
	return protocol.SearchRequest{
		Query:         query,
		SearchDepth:   protocol.SearchDepthBasic,
		Topic:         protocol.SearchTopicGeneral,
		MaxResults:    protocol.SearchMaxResults,
		IncludeAnswer: protocol.SearchAnswerBasic,
	}
}

// Run performs the search and returns the turn to inject: the formatted
// results on success, FailureTurn otherwise.
func (i *Interceptor) Run(ctx context.Context, query string) Outcome {
	out := Outcome{Query: query, Turn: FailureTurn}
	if query == "" {
		out.Err = ErrEmptyQuery
		return out
	}
	if i.searcher == nil {
		out.Err = errors.New("search: no searcher configured")
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	start := time.Now()
	resp, err := i.searcher.Search(ctx, Request(query))
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		i.logger.Warn("search failed", "query", query, "error", err)
		out.Err = fmt.Errorf("search %q: %w", query, err)
		return out
	}
	if resp.Query == "" {
		resp.Query = query
	}

	i.logger.Info("search completed", "query", query, "results", len(resp.Results), "took", time.Since(start))
	out.Response = resp
	out.Turn = SuccessTurn(FormatResults(resp))
	return out
}
