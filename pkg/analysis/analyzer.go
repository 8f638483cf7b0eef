package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"

	"github.com/teslashibe/go-analyst/internal/httpc"
	"github.com/teslashibe/go-analyst/pkg/protocol"
	"github.com/teslashibe/go-analyst/pkg/timeline"
)

// ErrNoGenerator is returned by New without a Generator.
var ErrNoGenerator = errors.New("analysis: generator required")

// Analyzer runs one analysis at a time.
type Analyzer struct {
	cfg       *Config
	gen       Generator
	scraper   Scraper
	extractor Extractor
	gh        *github
	sheets    *sheetsClient
	web       *resty.Client
	logger    *slog.Logger

	busy atomic.Bool
}

// New creates an analyzer. scraper may be nil, in which case web pages and
// spreadsheet titles cannot be fetched.
func New(gen Generator, scraper Scraper, opts ...Option) (*Analyzer, error) {
	if gen == nil {
		return nil, ErrNoGenerator
	}
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = protocol.DefaultGenerateModel
	}

	ghRest := httpc.NewREST(strings.TrimRight(cfg.GitHubURL, "/"), cfg.HTTPClient).
		SetHeader("Accept", "application/vnd.github+json")
	if cfg.GitHubToken != "" {
		ghRest.SetAuthToken(cfg.GitHubToken)
	}
	web := httpc.NewREST("", cfg.HTTPClient)

	return &Analyzer{
		cfg:       cfg,
		gen:       gen,
		scraper:   scraper,
		extractor: cfg.Extractor,
		gh:        &github{rest: ghRest},
		sheets: &sheetsClient{
			apiKey:    cfg.SheetsAPIKey,
			endpoint:  cfg.SheetsEndpoint,
			exportURL: cfg.SheetsExportURL,
			rest:      web,
		},
		web:    web,
		logger: cfg.Logger.With("component", "analysis.analyzer"),
	}, nil
}

// Input is what the user submitted. A file takes precedence over text.
type Input struct {
	Text string
	File *File
}

// Analyze classifies in, fetches its content and returns the summary with
// the derived session instruction.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*Result, error) {
	text := strings.TrimSpace(in.Text)
	if in.File == nil && text == "" {
		return nil, ErrNoInput
	}

	// File type is settled before anything touches the network.
	var kind Kind
	if in.File != nil {
		k, err := FileKind(*in.File)
		if err != nil {
			return nil, err
		}
		kind = k
	}

	if !a.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer a.busy.Store(false)

	prog := startProgress(a.cfg.ProgressEstimate, a.cfg.ProgressInterval, a.cfg.OnProgress)
	defer prog.finish(false)

	a.status("Iniciando análise...")
	a.eventAs("Análise de conteúdo iniciada.", timeline.Process)

	var (
		req *request
		err error
	)
	if in.File != nil {
		req, err = a.fileRequest(ctx, *in.File, kind)
	} else {
		req, err = a.textRequest(ctx, Classify(text))
	}
	if err != nil {
		return nil, err
	}

	a.status("Gerando análise com a IA...")
	summary, err := a.generate(ctx, req)
	if err != nil {
		return nil, err
	}
	prog.finish(true)

	if strings.TrimSpace(summary) == "" {
		return nil, ErrEmptyResult
	}
	a.eventAs("Análise concluída com sucesso.", timeline.Success)
	a.logger.Info("analysis done", "kind", req.kind, "title", req.title, "chars", len(summary))

	return &Result{
		Title:       req.title,
		Source:      req.source,
		Summary:     summary,
		Kind:        req.kind,
		Persona:     req.persona,
		Instruction: Instruction(req.kind, req.persona, req.title, summary),
	}, nil
}

// AnalyzeFile analyses a local file.
func (a *Analyzer) AnalyzeFile(ctx context.Context, f File) (*Result, error) {
	return a.Analyze(ctx, Input{File: &f})
}

// AnalyzeText analyses a URL or research topic.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) (*Result, error) {
	return a.Analyze(ctx, Input{Text: text})
}

func (a *Analyzer) generate(ctx context.Context, req *request) (string, error) {
	var tools []protocol.Tool
	if req.search {
		tools = append(tools, protocol.GoogleSearchTool())
	}
	gr, err := protocol.NewGenerateRequest(a.cfg.Model, []protocol.Content{{Role: protocol.RoleUser, Parts: req.parts}}, tools...)
	if err != nil {
		return "", err
	}
	return a.gen.Generate(ctx, gr)
}

func (a *Analyzer) textRequest(ctx context.Context, t Target) (*request, error) {
	switch t.Kind {
	case KindYouTube:
		return a.youtubeRequest(ctx, t), nil
	case KindGitHub:
		return a.githubRequest(ctx, t)
	case KindSheets:
		return a.sheetsRequest(ctx, t)
	case KindWeb:
		return a.webRequest(ctx, t)
	default:
		return a.topicRequest(t), nil
	}
}

func (a *Analyzer) youtubeRequest(ctx context.Context, t Target) *request {
	a.status("Buscando informações do vídeo do YouTube...")
	title := videoTitle(ctx, a.web, a.cfg.OEmbedURL, t.Input)
	a.status("Analisando vídeo do YouTube...")
	a.event("Analisando YouTube: " + title)
	return &request{
		kind:    KindYouTube,
		persona: PersonaAssistant,
		title:   title,
		source:  t.Input,
		parts: []protocol.Part{
			{Text: promptYouTube},
			{FileData: &protocol.FileData{MimeType: "video/mp4", FileURI: t.Input}},
		},
	}
}

func (a *Analyzer) githubRequest(ctx context.Context, t Target) (*request, error) {
	if t.Owner == "" || t.Repo == "" {
		return nil, ErrInvalidGitHubURL
	}
	title := t.Owner + "/" + t.Repo
	a.status("Analisando repositório: " + title)
	a.event("Iniciando análise do repositório: " + title)

	a.status(fmt.Sprintf("Buscando README de %s...", title))
	readme, err := a.gh.Readme(ctx, t.Owner, t.Repo)
	if err != nil {
		return nil, err
	}

	a.status(fmt.Sprintf("Buscando estrutura de arquivos de %s...", title))
	branch, err := a.gh.DefaultBranch(ctx, t.Owner, t.Repo)
	if err != nil {
		return nil, err
	}
	tree, truncated, err := a.gh.Tree(ctx, t.Owner, t.Repo, branch)
	if err != nil {
		return nil, err
	}
	if truncated {
		a.eventAs("A estrutura de arquivos é muito grande e foi truncada.", timeline.Info)
	}

	a.status(fmt.Sprintf("Analisando %s com a IA...", title))
	return &request{
		kind:    KindGitHub,
		persona: PersonaAssistant,
		title:   title,
		source:  "GitHub: " + t.Input,
		parts:   []protocol.Part{{Text: fmt.Sprintf(promptGitHub, title, readme, tree)}},
		search:  true,
	}, nil
}

func (a *Analyzer) sheetsRequest(ctx context.Context, t Target) (*request, error) {
	a.status("Analisando planilha do Google Sheets...")
	a.event("Analisando Google Sheets")
	if t.SheetKey == "" {
		return nil, ErrInvalidSheetsURL
	}

	title := a.sheetTitle(ctx, t)
	a.status("Analisando: " + title)

	csv, err := a.sheets.CSV(ctx, t.SheetKey)
	if err != nil {
		return nil, err
	}
	return &request{
		kind:    KindSheets,
		persona: PersonaAnalyst,
		title:   title,
		source:  t.Input,
		parts:   []protocol.Part{{Text: fmt.Sprintf(promptSheets, csv)}},
	}, nil
}

// sheetTitle tries the Sheets API, then the scraped page title.
func (a *Analyzer) sheetTitle(ctx context.Context, t Target) string {
	title, err := a.sheets.Title(ctx, t.SheetKey)
	if err != nil {
		a.logger.Debug("sheets title lookup failed", "error", err)
	}
	if title != "" {
		return title
	}
	if a.scraper != nil {
		if data, err := a.scraper.Scrape(ctx, t.Input); err == nil && data != nil && data.Metadata.Title != "" {
			return data.Metadata.Title
		}
	}
	return DefaultSheetTitle
}

func (a *Analyzer) webRequest(ctx context.Context, t Target) (*request, error) {
	msg := "Analisando URL: " + t.Input
	if strings.Contains(t.Input, "docs.google.com/document/") {
		msg = "Analisando Google Docs"
	}
	a.status("Extraindo conteúdo com Firecrawl...")
	a.event(msg)

	if a.scraper == nil {
		return nil, ErrScrapeEmpty
	}
	data, err := a.scraper.Scrape(ctx, t.Input)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrScrapeEmpty
	}
	title := data.Metadata.Title
	if title == "" {
		title = t.Input
	}

	a.status("Analisando conteúdo da página...")
	return &request{
		kind:    KindWeb,
		persona: PersonaAssistant,
		title:   title,
		source:  t.Input,
		parts:   []protocol.Part{{Text: fmt.Sprintf(promptWeb, data.Markdown)}},
	}, nil
}

func (a *Analyzer) topicRequest(t Target) *request {
	a.status(fmt.Sprintf("Iniciando pesquisa aprofundada sobre \"%s\"...", t.Input))
	a.event(fmt.Sprintf("Iniciando pesquisa sobre: \"%s\"", t.Input))
	return &request{
		kind:    KindTopic,
		persona: PersonaAssistant,
		title:   t.Input,
		source:  SourceTopic,
		parts:   []protocol.Part{{Text: fmt.Sprintf(promptTopic, t.Input)}},
		search:  true,
	}
}

func (a *Analyzer) status(msg string) {
	if a.cfg.OnStatus != nil {
		a.cfg.OnStatus(msg)
	}
}

// event logs a process step.
func (a *Analyzer) event(msg string) {
	a.eventAs(msg, timeline.Process)
}

func (a *Analyzer) eventAs(msg string, cat timeline.Category) {
	if a.cfg.OnEvent != nil {
		a.cfg.OnEvent(msg, cat)
	}
	a.logger.Debug(msg)
}
