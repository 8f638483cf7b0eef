package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/teslashibe/go-analyst/pkg/analysis"
	"github.com/teslashibe/go-analyst/pkg/export"
	"github.com/teslashibe/go-analyst/pkg/session"
	"github.com/teslashibe/go-analyst/pkg/timeline"
)

// command is one parsed input line.
type command struct {
	name string
	arg  string
}

// parseCommand splits a line into a command name and its argument.
// Unknown words are sent to the assistant as text.
func parseCommand(line string) command {
	line = strings.TrimSpace(line)
	name, arg, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	arg = strings.TrimSpace(arg)

	switch name {
	case "r", "reset", "export", "share", "status", "timeline", "quit", "exit", "connect":
		return command{name: name}
	case "analyze", "file", "say", "code":
		return command{name: name, arg: arg}
	case "":
		return command{}
	}
	return command{name: "say", arg: line}
}

type controller interface {
	ToggleRecording()
	SendText(text string)
	BindContent(content session.Content)
	Reset()
	AnalysisFailed(err error)
	SetError(msg string)
	Snapshot() session.State
	Timeline() *timeline.Log
}

type analyzer interface {
	Analyze(ctx context.Context, in analysis.Input) (*analysis.Result, error)
}

type app struct {
	ctrl      controller
	analyzer  analyzer
	sharer    *export.Sharer
	docs      *export.Docs
	exportDir string
	out       io.Writer
	logger    *slog.Logger

	wg   sync.WaitGroup
	mu   sync.Mutex
	last *analysis.Result
}

// handle runs one input line. It returns false on quit.
func (a *app) handle(ctx context.Context, line string) bool {
	cmd := parseCommand(line)
	switch cmd.name {
	case "":
	case "quit", "exit":
		return false
	case "r":
		a.ctrl.ToggleRecording()
	case "say":
		a.ctrl.SendText(cmd.arg)
	case "reset":
		a.mu.Lock()
		a.last = nil
		a.mu.Unlock()
		a.ctrl.Reset()
	case "analyze":
		if cmd.arg == "" {
			fmt.Fprintln(a.out, "uso: analyze <url|tema>")
			break
		}
		a.analyze(ctx, analysis.Input{Text: cmd.arg})
	case "file":
		if cmd.arg == "" {
			fmt.Fprintln(a.out, "uso: file <caminho>")
			break
		}
		a.analyzePath(ctx, cmd.arg)
	case "export":
		a.exportMarkdown()
	case "share":
		a.share(ctx)
	case "connect":
		a.connect()
	case "code":
		a.exchange(ctx, cmd.arg)
	case "status":
		a.printStatus()
	case "timeline":
		a.printTimeline()
	}
	return true
}

// analyze runs the pipeline in the background and binds the result.
func (a *app) analyze(ctx context.Context, in analysis.Input) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		r, err := a.analyzer.Analyze(ctx, in)
		if err != nil {
			if errors.Is(err, analysis.ErrBusy) {
				a.ctrl.SetError(err.Error())
				return
			}
			if ctx.Err() == nil {
				a.ctrl.AnalysisFailed(err)
			}
			return
		}
		a.mu.Lock()
		a.last = r
		a.mu.Unlock()
		a.ctrl.BindContent(session.Content{
			Title:       r.Title,
			Source:      r.Source,
			Summary:     r.Summary,
			Instruction: r.Instruction,
			Persona:     session.Persona(r.Persona),
		})
	}()
}

func (a *app) analyzePath(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		a.ctrl.SetError("Não foi possível ler o arquivo: " + err.Error())
		return
	}
	a.analyze(ctx, analysis.Input{File: &analysis.File{
		Name:     filepath.Base(path),
		MimeType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Data:     data,
	}})
}

func (a *app) document() (export.Document, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return export.Document{}, false
	}
	return export.Document{Title: a.last.Title, Source: a.last.Source, Body: a.last.Summary}, true
}

func (a *app) exportMarkdown() {
	doc, ok := a.document()
	if !ok {
		fmt.Fprintln(a.out, "Nenhuma análise para exportar.")
		return
	}
	path, err := export.WriteMarkdown(a.exportDir, doc)
	if err != nil {
		a.ctrl.SetError("Falha ao exportar: " + err.Error())
		return
	}
	a.ctrl.Timeline().Add("Análise exportada para "+path, timeline.Success)
	fmt.Fprintln(a.out, "📄", path)
}

func (a *app) share(ctx context.Context) {
	doc, ok := a.document()
	if !ok {
		fmt.Fprintln(a.out, "Nenhuma análise para compartilhar.")
		return
	}
	shared, err := a.sharer.Share(ctx, doc)
	if err != nil {
		a.ctrl.SetError("Falha ao compartilhar: " + err.Error())
		return
	}
	if shared.Method == export.MethodDocs {
		a.ctrl.Timeline().Add("Documento criado no Google Docs: "+shared.URL, timeline.Success)
		fmt.Fprintln(a.out, "🔗", shared.URL)
		return
	}
	fmt.Fprintln(a.out)
	a.ctrl.Timeline().Add("Análise copiada para a saída padrão.", timeline.Info)
}

func (a *app) connect() {
	if a.docs == nil {
		fmt.Fprintln(a.out, "Google Docs não configurado (GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET).")
		return
	}
	if a.docs.IsAuthenticated() {
		fmt.Fprintln(a.out, "✅ Google Docs já conectado.")
		return
	}
	fmt.Fprintln(a.out, "Abra o link, autorize e envie: code <código>")
	fmt.Fprintln(a.out, a.docs.AuthURL("go-analyst"))
}

func (a *app) exchange(ctx context.Context, code string) {
	if a.docs == nil || code == "" {
		fmt.Fprintln(a.out, "uso: code <código>")
		return
	}
	if err := a.docs.Exchange(ctx, code); err != nil {
		a.ctrl.SetError("Falha ao conectar ao Google: " + err.Error())
		return
	}
	a.ctrl.Timeline().Add("Conectado ao Google Docs.", timeline.Connect)
}

func (a *app) printStatus() {
	s := a.ctrl.Snapshot()
	fmt.Fprintf(a.out, "Conexão: %s", s.ConnectionText())
	if s.Attempts > 0 {
		fmt.Fprintf(a.out, " (tentativa %d)", s.Attempts)
	}
	fmt.Fprintln(a.out)
	if s.Content != nil {
		fmt.Fprintf(a.out, "Conteúdo: %s (%s)\n", s.Content.Title, s.Content.Source)
	}
	if s.Recording {
		fmt.Fprintln(a.out, "🔴 Gravando")
	}
	switch {
	case s.Search != nil && s.Search.Query == "":
		fmt.Fprintln(a.out, "🔍 Preparando pesquisa...")
	case s.Search != nil:
		fmt.Fprintf(a.out, "🔍 Pesquisando: %s\n", s.Search.Query)
	}
	for _, r := range s.SearchResults {
		fmt.Fprintf(a.out, "   • %s - %s\n", r.Title, r.URI)
	}
	if s.Status != "" {
		fmt.Fprintln(a.out, "Status:", s.Status)
	}
	if s.Error != "" {
		fmt.Fprintln(a.out, "Erro:", s.Error)
	}
}

func (a *app) printTimeline() {
	for _, ev := range a.ctrl.Timeline().Events() {
		fmt.Fprintf(a.out, "%s [%s] %s\n", ev.Timestamp.Format("15:04:05"), ev.Category, ev.Message)
	}
}

// wait blocks until background analyses finish.
func (a *app) wait() {
	a.wg.Wait()
}

// printer echoes notices as they change.
type printer struct {
	out io.Writer

	mu       sync.Mutex
	status   string
	err      string
	conn     string
	lastStep int
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out, lastStep: -1}
}

func (p *printer) state(s session.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if conn := s.ConnectionText(); conn != p.conn {
		p.conn = conn
		fmt.Fprintln(p.out, "●", conn)
	}
	if s.Status != p.status {
		p.status = s.Status
		if s.Status != "" {
			fmt.Fprintln(p.out, "ℹ️ ", s.Status)
		}
	}
	if s.Error != p.err {
		p.err = s.Error
		if s.Error != "" {
			fmt.Fprintln(p.out, "⚠️ ", s.Error)
		}
	}
}

func (p *printer) event(ev timeline.Event) {
	if ev.Category != timeline.Error {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, "❌", ev.Message)
}

// progress prints in 25% steps.
func (p *printer) progress(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	step := percent / 25
	if percent == 0 {
		p.lastStep = -1
	}
	if step == p.lastStep {
		return
	}
	p.lastStep = step
	fmt.Fprintf(p.out, "⏳ %d%%\n", percent)
}
