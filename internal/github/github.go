package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kevinmichaelchen/repo-summary/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/unicode"
)

const DefaultAPIURL = "https://api.github.com"

const requestTimeout = 30 * time.Second

// Client is a thin wrapper around the GitHub REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient returns a client for baseURL. An empty token sends anonymous
// requests.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// DefaultBranch returns the repository's default branch name.
func (c *Client) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	var data struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := c.getJSON(ctx, repoPath(owner, repo), nil, "Repository", &data); err != nil {
		return "", err
	}
	if data.DefaultBranch == "" {
		return "", NewError(http.StatusBadRequest, "Repository is empty")
	}
	return data.DefaultBranch, nil
}

// Tree returns the full recursive tree of branch.
func (c *Client) Tree(ctx context.Context, owner, repo, branch string) ([]models.TreeEntry, error) {
	var data struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
			Size int64  `json:"size"`
		} `json:"tree"`
		Truncated bool `json:"truncated"`
	}
	p := repoPath(owner, repo) + "/git/trees/" + escapePath(branch)
	if err := c.getJSON(ctx, p, url.Values{"recursive": {"1"}}, "Repository tree", &data); err != nil {
		return nil, err
	}
	if data.Truncated {
		zerolog.Ctx(ctx).Warn().Str("repo", owner+"/"+repo).Int("entries", len(data.Tree)).Msg("GitHub truncated the recursive tree listing")
	}

	entries := make([]models.TreeEntry, 0, len(data.Tree))
	for _, e := range data.Tree {
		entries = append(entries, models.TreeEntry{
			Path: e.Path,
			Kind: models.EntryKind(e.Type),
			Size: e.Size,
		})
	}
	return entries, nil
}

// FileContent fetches and decodes a single file. Invalid UTF-8 sequences are
// replaced with U+FFFD.
func (c *Client) FileContent(ctx context.Context, owner, repo, path string) (string, error) {
	var data struct {
		Content  *string `json:"content"`
		Encoding string  `json:"encoding"`
	}
	what := fmt.Sprintf("File '%s'", path)
	if err := c.getJSON(ctx, repoPath(owner, repo)+"/contents/"+escapePath(path), nil, what, &data); err != nil {
		return "", err
	}
	if data.Encoding != "base64" || data.Content == nil {
		return "", NewError(http.StatusBadGateway, fmt.Sprintf("Unexpected content format for '%s'", path))
	}

	raw, err := base64.StdEncoding.DecodeString(*data.Content)
	if err != nil {
		return "", wrapError(http.StatusBadGateway, fmt.Sprintf("Failed to decode '%s': %v", path, err), err)
	}
	text, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return "", wrapError(http.StatusBadGateway, fmt.Sprintf("Failed to decode '%s': %v", path, err), err)
	}
	return string(text), nil
}

// --- internal ---

func repoPath(owner, repo string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, what string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return wrapError(http.StatusBadGateway, fmt.Sprintf("Failed to build GitHub request: %v", err), err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapError(http.StatusBadGateway, fmt.Sprintf("Failed to connect to GitHub: %v", err), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrapError(http.StatusBadGateway, fmt.Sprintf("Failed to read GitHub response: %v", err), err)
	}

	if err := checkStatus(resp.StatusCode, body, what); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return wrapError(http.StatusBadGateway, fmt.Sprintf("Malformed GitHub response for %s: %v", strings.ToLower(what), err), err)
	}
	return nil
}

func checkStatus(status int, body []byte, what string) error {
	switch {
	case status == http.StatusNotFound:
		return NewError(http.StatusNotFound, what+": not found (or private)")
	case status == http.StatusForbidden:
		if strings.Contains(strings.ToLower(string(body)), "rate limit") {
			return NewError(http.StatusTooManyRequests, "GitHub API rate limit exceeded")
		}
		return NewError(http.StatusForbidden, "Repository is private or access denied")
	case status >= 400:
		return NewError(http.StatusBadGateway, fmt.Sprintf("GitHub API error (%d): %s", status, excerpt(body, 200)))
	}
	return nil
}

func excerpt(body []byte, n int) string {
	r := []rune(string(body))
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
