package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Google Sheets defaults.
const (
	DefaultSheetsExportURL = "https://docs.google.com/spreadsheets/d"
	DefaultSheetTitle      = "Planilha do Google"
)

// sheetsClient reads public spreadsheets: the title through the Sheets
// API and the first sheet through the CSV export.
type sheetsClient struct {
	apiKey    string
	endpoint  string
	exportURL string
	rest      *resty.Client
}

// Title looks up the spreadsheet title. It returns "" without an API key.
func (s *sheetsClient) Title(ctx context.Context, key string) (string, error) {
	if s.apiKey == "" {
		return "", nil
	}
	opts := []option.ClientOption{option.WithAPIKey(s.apiKey)}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("sheets service: %w", err)
	}
	sheet, err := srv.Spreadsheets.Get(key).Fields("properties.title").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("sheets get %s: %w", key, err)
	}
	if sheet.Properties == nil {
		return "", nil
	}
	return strings.TrimSpace(sheet.Properties.Title), nil
}

// CSV downloads the first sheet (gid 0) as CSV. Only public sheets export.
func (s *sheetsClient) CSV(ctx context.Context, key string) (string, error) {
	resp, err := s.rest.R().
		SetContext(ctx).
		SetHeader("Accept", "text/csv").
		SetQueryParam("format", "csv").
		Get(strings.TrimRight(s.exportURL, "/") + "/" + key + "/export")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSheetNotPublic, err)
	}
	if resp.IsError() {
		return "", ErrSheetNotPublic
	}
	return string(resp.Body()), nil
}
