// Package analysis turns a file, URL or topic into a knowledge summary and
// the session instruction derived from it.
//
// The pipeline is one-shot: every Analyze call classifies its input, fetches
// whatever the content needs (GitHub API, Sheets export, relay scrape), asks
// the model for a summary and returns a Result.
package analysis

import (
	"context"

	"github.com/teslashibe/go-analyst/pkg/protocol"
)

// Kind identifies the content family of an analysis input.
type Kind string

const (
	KindImage       Kind = "image"
	KindPDF         Kind = "pdf"
	KindSpreadsheet Kind = "spreadsheet"
	KindDocument    Kind = "document"
	KindMarkdown    Kind = "markdown"
	KindYouTube     Kind = "youtube"
	KindGitHub      Kind = "github"
	KindSheets      Kind = "sheets"
	KindWeb         Kind = "web"
	KindTopic       Kind = "topic"
)

// Persona shapes the tone of the derived instruction.
type Persona string

const (
	PersonaAssistant Persona = "assistant"
	PersonaAnalyst   Persona = "analyst"
)

// Source labels for inputs without a URL.
const (
	SourceLocalFile = "Arquivo Local"
	SourceTopic     = "Pesquisa Aprofundada na Web"
)

// Result is a finished analysis.
type Result struct {
	Title       string
	Source      string
	Summary     string
	Kind        Kind
	Persona     Persona
	Instruction string
}

// Generator produces model text for a generate request.
type Generator interface {
	Generate(ctx context.Context, req protocol.GenerateRequest) (string, error)
}

// Scraper fetches a page as markdown.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*protocol.ScrapeData, error)
}

// File is a local file submitted for analysis.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// request is the generate call an input reduces to.
type request struct {
	kind    Kind
	persona Persona
	title   string
	source  string
	parts   []protocol.Part
	search  bool
}
