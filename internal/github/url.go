package github

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// ParseURL extracts owner and repository name from a github.com URL.
// Extra path segments (tree/main/src, issues, ...) are ignored.
func ParseURL(raw string) (owner, repo string, err error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	raw = strings.TrimSuffix(raw, ".git")

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", NewError(http.StatusBadRequest, "Not a GitHub URL")
	}
	if host := strings.ToLower(u.Hostname()); host != "github.com" && host != "www.github.com" {
		return "", "", NewError(http.StatusBadRequest, "Not a GitHub URL")
	}

	// Split the escaped path so an encoded slash stays inside one segment.
	var parts []string
	for _, p := range strings.Split(strings.Trim(u.EscapedPath(), "/"), "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return "", "", NewError(http.StatusBadRequest, "Invalid GitHub repository URL — expected github.com/owner/repo")
	}

	owner, repo = parts[0], parts[1]
	if !namePattern.MatchString(owner) || !namePattern.MatchString(repo) {
		return "", "", NewError(http.StatusBadRequest, "Invalid owner or repo name")
	}
	return owner, repo, nil
}
