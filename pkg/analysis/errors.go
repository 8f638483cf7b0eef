package analysis

import (
	"errors"
	"fmt"
)

// Sentinel errors for the analysis package. Messages are user facing.
var (
	// ErrNoInput is returned when neither a file nor text was supplied.
	ErrNoInput = errors.New("Forneça uma URL, um tópico ou carregue um arquivo.")

	// ErrEmptyResult is returned when the model produced no text.
	ErrEmptyResult = errors.New("A análise retornou um resultado vazio.")

	// ErrBusy is returned when an analysis is already running.
	ErrBusy = errors.New("Já existe uma análise em andamento.")

	// ErrNoExtractor is returned for an office format with no extractor.
	ErrNoExtractor = errors.New("nenhum extrator configurado para este formato")

	// ErrInvalidGitHubURL is returned for a GitHub URL without owner/repo.
	ErrInvalidGitHubURL = errors.New("URL do GitHub inválida. Use o formato https://github.com/owner/repo.")

	// ErrInvalidSheetsURL is returned for a Sheets URL without a key.
	ErrInvalidSheetsURL = errors.New("URL do Google Sheets inválida.")

	// ErrSheetNotPublic is returned when the CSV export fails.
	ErrSheetNotPublic = errors.New("Falha ao buscar dados da planilha. Verifique se ela é pública.")

	// ErrScrapeEmpty is returned when the scraper yields nothing.
	ErrScrapeEmpty = errors.New("Falha ao extrair conteúdo da URL.")
)

// UnsupportedFileTypeError rejects a file before any network call.
type UnsupportedFileTypeError struct {
	// Type is the MIME type, or the file name when the type is unknown.
	Type string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("Tipo de arquivo não suportado: %s. Por favor, use imagens, PDFs, planilhas, documentos ou arquivos Markdown.", e.Type)
}

// Unwrap returns the underlying cause.
func (e *UnsupportedFileTypeError) Unwrap() error {
	return e.Err
}

// IsUnsupportedFileType reports whether err is an UnsupportedFileTypeError.
func IsUnsupportedFileType(err error) bool {
	var ue *UnsupportedFileTypeError
	return errors.As(err, &ue)
}

// GitHubError is a failed GitHub API call.
type GitHubError struct {
	Repo       string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *GitHubError) Error() string {
	return e.Message
}

// IsNotFound reports whether the repository is missing or private.
func (e *GitHubError) IsNotFound() bool {
	return e.StatusCode == 404
}
