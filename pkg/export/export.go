// Package export saves and shares finished analyses: Markdown files on disk
// and Google Docs, with a plain writer when Google is not connected.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultFilename is used when a title sanitizes to nothing.
const DefaultFilename = "analise"

// maxFilename bounds sanitized names, in runes.
const maxFilename = 100

// Document is an analysis ready for export.
type Document struct {
	Title  string
	Source string
	Body   string
}

// ShareTitle is the title of the shared copy.
func (d Document) ShareTitle() string {
	title := d.Title
	if title == "" {
		title = "Conteúdo Analisado"
	}
	return "Análise: " + title
}

var unsafeChars = regexp.MustCompile(`(?i)[^a-z0-9._-]`)

// SanitizeFilename replaces every character outside [a-z0-9._-] with '_'
// and truncates to 100 characters.
func SanitizeFilename(name string) string {
	out := unsafeChars.ReplaceAllString(name, "_")
	if r := []rune(out); len(r) > maxFilename {
		out = string(r[:maxFilename])
	}
	if out == "" {
		return DefaultFilename
	}
	return out
}

// Markdown renders d with a title heading and source line.
func Markdown(d Document) string {
	var b strings.Builder
	if d.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", d.Title)
	}
	if d.Source != "" {
		fmt.Fprintf(&b, "> Fonte: %s\n\n", d.Source)
	}
	b.WriteString(strings.TrimRight(d.Body, "\n"))
	b.WriteString("\n")
	return b.String()
}

// WriteMarkdown writes d to dir/<sanitized title>.md and returns the path.
func WriteMarkdown(dir string, d Document) (string, error) {
	if strings.TrimSpace(d.Body) == "" {
		return "", ErrEmptyDocument
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create dir: %w", err)
	}
	path := filepath.Join(dir, SanitizeFilename(d.Title)+".md")
	if err := os.WriteFile(path, []byte(Markdown(d)), 0o644); err != nil {
		return "", fmt.Errorf("export: write markdown: %w", err)
	}
	return path, nil
}
