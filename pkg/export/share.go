package export

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// DocCreator creates a hosted document. *Docs implements it.
type DocCreator interface {
	IsAuthenticated() bool
	Create(ctx context.Context, title, text string) (string, error)
}

// Method says where a shared analysis went.
type Method string

const (
	MethodDocs   Method = "docs"
	MethodWriter Method = "writer"
)

// Shared describes a completed share.
type Shared struct {
	Method Method
	URL    string
}

// Sharer shares analyses to Google Docs when connected, otherwise writes
// the text to Fallback.
type Sharer struct {
	Docs     DocCreator
	Fallback io.Writer
}

// Share publishes d. A Docs failure falls through to the writer.
func (s *Sharer) Share(ctx context.Context, d Document) (*Shared, error) {
	if strings.TrimSpace(d.Body) == "" {
		return nil, ErrEmptyDocument
	}

	var docsErr error
	if s.Docs != nil && s.Docs.IsAuthenticated() {
		id, err := s.Docs.Create(ctx, d.ShareTitle(), d.Body)
		if err == nil {
			return &Shared{Method: MethodDocs, URL: DocURL(id)}, nil
		}
		docsErr = err
	}

	if s.Fallback == nil {
		if docsErr != nil {
			return nil, docsErr
		}
		return nil, ErrNotAuthenticated
	}
	if _, err := io.WriteString(s.Fallback, d.Body); err != nil {
		return nil, fmt.Errorf("export: write fallback: %w", err)
	}
	return &Shared{Method: MethodWriter}, nil
}
