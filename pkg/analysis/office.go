package analysis

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// docxBody is the main part of a Word document.
const docxBody = "word/document.xml"

// OfficeExtractor reads XLSX workbooks and DOCX documents. Legacy binary
// formats (XLS, DOC) are rejected with an UnsupportedFileTypeError.
type OfficeExtractor struct{}

// NewOfficeExtractor returns the built-in office extractor.
func NewOfficeExtractor() *OfficeExtractor {
	return &OfficeExtractor{}
}

// Extract implements Extractor.
func (OfficeExtractor) Extract(ctx context.Context, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch ext := strings.ToLower(filepath.Ext(f.Name)); {
	case ext == ".xlsx" || ext == ".xlsm" || strings.Contains(f.MimeType, "spreadsheetml"):
		return workbookCSV(f.Data)
	case ext == ".docx" || strings.Contains(f.MimeType, "wordprocessingml"):
		return documentText(f.Data)
	default:
		t := f.MimeType
		if t == "" {
			t = f.Name
		}
		return "", &UnsupportedFileTypeError{Type: t}
	}
}

// workbookCSV renders every sheet as CSV inside a sheet section.
func workbookCSV(data []byte) (string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("planilha inválida: %w", err)
	}
	defer wb.Close()

	var b strings.Builder
	for _, name := range wb.GetSheetList() {
		rows, err := wb.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("planilha %s: %w", name, err)
		}
		var sheet bytes.Buffer
		w := csv.NewWriter(&sheet)
		if err := w.WriteAll(rows); err != nil {
			return "", err
		}
		b.WriteString(sheetSection(name, strings.TrimRight(sheet.String(), "\n")))
	}
	if b.Len() == 0 {
		return "", errors.New("planilha sem abas")
	}
	return b.String(), nil
}

// documentText concatenates the runs of a DOCX body, one line per paragraph.
func documentText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("documento inválido: %w", err)
	}
	var body *zip.File
	for _, zf := range zr.File {
		if zf.Name == docxBody {
			body = zf
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("documento inválido: %s ausente", docxBody)
	}
	rc, err := body.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var b strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("documento inválido: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(el)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

var _ Extractor = OfficeExtractor{}
