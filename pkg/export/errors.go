package export

import "errors"

// Sentinel errors for the export package.
var (
	// ErrEmptyDocument is returned when there is no analysis to export.
	ErrEmptyDocument = errors.New("export: empty document")

	// ErrNotAuthenticated is returned by Docs calls before OAuth completes.
	ErrNotAuthenticated = errors.New("export: not authenticated with Google")

	// ErrNoCredentials is returned when the OAuth client is not configured.
	ErrNoCredentials = errors.New("export: GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
)
