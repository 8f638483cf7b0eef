package analysis

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// DefaultGitHubURL is the public GitHub REST API.
const DefaultGitHubURL = "https://api.github.com"

type githubReadme struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type githubRepo struct {
	DefaultBranch string `json:"default_branch"`
}

type githubTree struct {
	Tree []struct {
		Path string `json:"path"`
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}

// github fetches what a repository analysis needs.
type github struct {
	rest *resty.Client
}

func (g *github) get(ctx context.Context, repo, path string, out any, failure string) error {
	resp, err := g.rest.R().SetContext(ctx).SetResult(out).Get(path)
	if err != nil {
		return fmt.Errorf("%s: %w", failure, err)
	}
	if resp.StatusCode() == 404 && strings.HasSuffix(path, "/readme") {
		return &GitHubError{Repo: repo, StatusCode: 404, Message: fmt.Sprintf("Repositório não encontrado ou é privado: %s.", repo)}
	}
	if resp.IsError() {
		return &GitHubError{Repo: repo, StatusCode: resp.StatusCode(), Message: failure}
	}
	return nil
}

// Readme returns the decoded README of owner/repo.
func (g *github) Readme(ctx context.Context, owner, repo string) (string, error) {
	full := owner + "/" + repo
	var out githubReadme
	if err := g.get(ctx, full, fmt.Sprintf("/repos/%s/%s/readme", owner, repo), &out,
		fmt.Sprintf("Não foi possível buscar o README do repositório %s.", full)); err != nil {
		return "", err
	}
	// The API wraps base64 at 60 columns.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(out.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("README inválido em %s: %w", full, err)
	}
	return string(raw), nil
}

// DefaultBranch returns the repository's default branch.
func (g *github) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	full := owner + "/" + repo
	var out githubRepo
	if err := g.get(ctx, full, fmt.Sprintf("/repos/%s/%s", owner, repo), &out,
		fmt.Sprintf("Não foi possível buscar informações do repositório %s.", full)); err != nil {
		return "", err
	}
	return out.DefaultBranch, nil
}

// Tree returns every path of branch, one per line, and whether GitHub
// truncated the listing.
func (g *github) Tree(ctx context.Context, owner, repo, branch string) (string, bool, error) {
	full := owner + "/" + repo
	var out githubTree
	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1", owner, repo, branch)
	if err := g.get(ctx, full, path, &out,
		fmt.Sprintf("Não foi possível buscar a estrutura de arquivos de %s.", full)); err != nil {
		return "", false, err
	}
	paths := make([]string, 0, len(out.Tree))
	for _, entry := range out.Tree {
		paths = append(paths, entry.Path)
	}
	return strings.Join(paths, "\n"), out.Truncated, nil
}
