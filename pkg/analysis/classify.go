package analysis

import (
	"net/url"
	"regexp"
	"strings"
)

// Target is a classified text input.
type Target struct {
	Kind  Kind
	Input string

	// VideoID is set for KindYouTube.
	VideoID string

	// Owner and Repo are set for KindGitHub.
	Owner string
	Repo  string

	// SheetKey is set for KindSheets.
	SheetKey string
}

var (
	youtubeID = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|embed/|shorts/|live/|v/)|youtu\.be/)([A-Za-z0-9_-]{11})`)
	githubRe  = regexp.MustCompile(`github\.com/([^/]+/[^/]+)`)
	sheetKey  = regexp.MustCompile(`spreadsheets/d/([a-zA-Z0-9-_]+)`)
)

// IsValidURL reports whether s is an absolute http(s) URL.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// YouTubeID extracts the video id of a YouTube URL.
func YouTubeID(s string) (string, bool) {
	m := youtubeID.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Classify maps text input to its analysis target. Anything that is not a
// URL is a research topic. Malformed GitHub and Sheets URLs keep their kind
// and fail when analysed.
func Classify(input string) Target {
	input = strings.TrimSpace(input)
	t := Target{Input: input}

	if !IsValidURL(input) {
		t.Kind = KindTopic
		return t
	}

	if id, ok := YouTubeID(input); ok {
		t.Kind = KindYouTube
		t.VideoID = id
		return t
	}

	if strings.Contains(input, "github.com/") {
		t.Kind = KindGitHub
		if m := githubRe.FindStringSubmatch(input); m != nil {
			path := strings.TrimSuffix(strings.TrimSuffix(m[1], "/"), ".git")
			if owner, repo, ok := strings.Cut(path, "/"); ok && owner != "" && repo != "" {
				t.Owner, t.Repo = owner, repo
			}
		}
		return t
	}

	if strings.Contains(input, "docs.google.com/spreadsheets/") {
		t.Kind = KindSheets
		if m := sheetKey.FindStringSubmatch(input); m != nil {
			t.SheetKey = m[1]
		}
		return t
	}

	t.Kind = KindWeb
	return t
}
