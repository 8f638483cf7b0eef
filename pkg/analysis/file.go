package analysis

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/teslashibe/go-analyst/pkg/protocol"
)

// Extractor turns an office file (XLS, XLSX, DOC, DOCX) into text.
// Spreadsheet extractors return CSV, one section per sheet. See
// OfficeExtractor.
type Extractor interface {
	Extract(ctx context.Context, f File) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, f File) (string, error)

// Extract implements Extractor.
func (fn ExtractorFunc) Extract(ctx context.Context, f File) (string, error) {
	return fn(ctx, f)
}

// FileKind classifies a file by MIME type and name. It returns an
// UnsupportedFileTypeError for anything else.
func FileKind(f File) (Kind, error) {
	mime := strings.ToLower(f.MimeType)
	name := strings.ToLower(f.Name)
	ext := filepath.Ext(name)

	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindImage, nil
	case mime == "application/pdf":
		return KindPDF, nil
	case ext == ".csv" || mime == "text/csv" ||
		ext == ".xlsx" || ext == ".xls" || strings.Contains(mime, "spreadsheet"):
		return KindSpreadsheet, nil
	case ext == ".doc" || ext == ".docx" || strings.Contains(mime, "wordprocessingml"):
		return KindDocument, nil
	case ext == ".md" || mime == "text/markdown" || mime == "text/x-markdown":
		return KindMarkdown, nil
	}

	t := f.MimeType
	if t == "" {
		t = f.Name
	}
	return "", &UnsupportedFileTypeError{Type: t}
}

// isCSV reports whether a spreadsheet file is plain CSV.
func isCSV(f File) bool {
	return strings.EqualFold(filepath.Ext(f.Name), ".csv") || strings.EqualFold(f.MimeType, "text/csv")
}

// sheetSection wraps one sheet of CSV the way multi-sheet workbooks are sent.
func sheetSection(name, csv string) string {
	return fmt.Sprintf("--- INÍCIO DA PLANILHA: %s ---\n\n%s\n\n--- FIM DA PLANILHA: %s ---\n\n", name, csv, name)
}

func inlinePart(f File) protocol.Part {
	return protocol.Part{InlineData: &protocol.Blob{
		MimeType: f.MimeType,
		Data:     base64.StdEncoding.EncodeToString(f.Data),
	}}
}

// fileRequest builds the generate request for a local file.
func (a *Analyzer) fileRequest(ctx context.Context, f File, kind Kind) (*request, error) {
	req := &request{kind: kind, persona: PersonaAssistant, title: f.Name, source: SourceLocalFile}

	switch kind {
	case KindImage:
		a.status("Processando imagem: " + f.Name)
		a.event("Analisando imagem: " + f.Name)
		req.parts = []protocol.Part{{Text: promptImage}, inlinePart(f)}

	case KindPDF:
		a.status("Processando PDF: " + f.Name)
		a.event("Analisando PDF: " + f.Name)
		req.parts = []protocol.Part{{Text: promptPDF}, inlinePart(f)}

	case KindSpreadsheet:
		req.persona = PersonaAnalyst
		a.status("Processando planilha: " + f.Name)
		a.event("Analisando planilha: " + f.Name)
		var csv string
		if isCSV(f) {
			csv = sheetSection(strings.TrimSuffix(f.Name, filepath.Ext(f.Name)), string(f.Data))
		} else {
			text, err := a.extract(ctx, f)
			if err != nil {
				return nil, err
			}
			csv = text
		}
		req.parts = []protocol.Part{{Text: fmt.Sprintf(promptSpreadsheet, csv)}}

	case KindDocument:
		a.status("Processando documento: " + f.Name)
		a.event("Analisando documento: " + f.Name)
		text, err := a.extract(ctx, f)
		if err != nil {
			return nil, err
		}
		req.parts = []protocol.Part{{Text: fmt.Sprintf(promptDocument, text)}}

	case KindMarkdown:
		a.status("Processando arquivo Markdown: " + f.Name)
		a.event("Analisando arquivo Markdown: " + f.Name)
		req.parts = []protocol.Part{{Text: fmt.Sprintf(promptMarkdown, string(f.Data))}}
	}
	return req, nil
}

func (a *Analyzer) extract(ctx context.Context, f File) (string, error) {
	if a.extractor == nil {
		return "", &UnsupportedFileTypeError{Type: f.Name, Err: ErrNoExtractor}
	}
	text, err := a.extractor.Extract(ctx, f)
	if IsUnsupportedFileType(err) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("falha ao extrair %s: %w", f.Name, err)
	}
	return text, nil
}
