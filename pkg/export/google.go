package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

// DocsConfig configures the Google Docs exporter.
type DocsConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // default: http://localhost:8085/callback
	TokenPath    string // default: ~/.go-analyst/google_token.json

	// Endpoint overrides the Docs API root.
	Endpoint string

	Logger *slog.Logger
}

// Docs creates Google Docs through OAuth2 user credentials.
type Docs struct {
	config    *oauth2.Config
	tokenPath string
	endpoint  string
	logger    *slog.Logger

	mu      sync.RWMutex
	token   *oauth2.Token
	service *docs.Service
}

// NewDocs creates the exporter and loads a stored token if there is one.
func NewDocs(cfg DocsConfig) (*Docs, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNoCredentials
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = "http://localhost:8085/callback"
	}
	if cfg.TokenPath == "" {
		home, _ := os.UserHomeDir()
		cfg.TokenPath = filepath.Join(home, ".go-analyst", "google_token.json")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	d := &Docs{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				docs.DocumentsScope,
				docs.DriveFileScope,
			},
			Endpoint: google.Endpoint,
		},
		tokenPath: cfg.TokenPath,
		endpoint:  cfg.Endpoint,
		logger:    cfg.Logger.With("component", "export.docs"),
	}

	if tok, err := d.loadToken(); err == nil {
		if err := d.setToken(context.Background(), tok); err != nil {
			d.logger.Debug("stored token unusable", "error", err)
		}
	}
	return d, nil
}

// IsAuthenticated reports whether a usable token is loaded. Expired tokens
// with a refresh token still count.
func (d *Docs) IsAuthenticated() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.service != nil && d.token != nil && (d.token.Valid() || d.token.RefreshToken != "")
}

// AuthURL returns the consent URL for offline access.
func (d *Docs) AuthURL(state string) string {
	return d.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and stores it.
func (d *Docs) Exchange(ctx context.Context, code string) error {
	tok, err := d.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("export: exchange code: %w", err)
	}
	if err := d.setToken(ctx, tok); err != nil {
		return err
	}
	if err := d.saveToken(tok); err != nil {
		d.logger.Warn("failed to save token", "error", err)
	}
	return nil
}

// Disconnect forgets the token and removes it from disk.
func (d *Docs) Disconnect() error {
	d.mu.Lock()
	d.token = nil
	d.service = nil
	d.mu.Unlock()
	if err := os.Remove(d.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("export: remove token: %w", err)
	}
	return nil
}

// Create makes a document titled title containing text and returns its id.
func (d *Docs) Create(ctx context.Context, title, text string) (string, error) {
	d.mu.RLock()
	service := d.service
	d.mu.RUnlock()
	if service == nil {
		return "", ErrNotAuthenticated
	}

	created, err := service.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("export: create document: %w", err)
	}
	if text == "" {
		return created.DocumentId, nil
	}

	_, err = service.Documents.BatchUpdate(created.DocumentId, &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: 1},
				Text:     text,
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return created.DocumentId, fmt.Errorf("export: created document but failed to insert text: %w", err)
	}
	return created.DocumentId, nil
}

// DocURL returns the edit URL of a document.
func DocURL(id string) string {
	return fmt.Sprintf("https://docs.google.com/document/d/%s/edit", id)
}

func (d *Docs) setToken(ctx context.Context, tok *oauth2.Token) error {
	// The service outlives ctx; the token source refreshes in the background.
	hc := d.config.Client(context.WithoutCancel(ctx), tok)
	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if d.endpoint != "" {
		opts = append(opts, option.WithEndpoint(d.endpoint))
	}
	service, err := docs.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("export: docs service: %w", err)
	}
	d.mu.Lock()
	d.token = tok
	d.service = service
	d.mu.Unlock()
	return nil
}

func (d *Docs) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(d.tokenPath)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (d *Docs) saveToken(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(d.tokenPath), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(d.tokenPath, data, 0o600)
}
