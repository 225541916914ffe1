// Package github looks up pull requests through the GitHub REST API.
package github

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// API configuration constants.
const (
	// DefaultAPIEndpoint is the GitHub REST API base URL.
	DefaultAPIEndpoint = "https://api.github.com/"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second
)

// Client provides methods to interact with the GitHub REST API.
type Client struct {
	Token      string       // GitHub personal access token; empty means anonymous
	Owner      string       // Repository owner (user or org)
	Repo       string       // Repository name
	BaseURL    string       // API base URL (default: https://api.github.com/)
	HTTPClient *http.Client // Optional custom HTTP client
}

// PullRequest is the part of a GitHub pull request jps copies into Jira.
type PullRequest struct {
	Number  int
	Title   string
	Body    string
	HTMLURL string
	State   string
	Merged  bool
	Author  string
	Head    string
	Base    string
}

// Description returns the pull request body followed by a link back to it,
// the text used for the Jira description.
func (pr *PullRequest) Description() string {
	body := strings.TrimSpace(pr.Body)
	if pr.HTMLURL == "" {
		return body
	}
	if body == "" {
		return pr.HTMLURL
	}
	return body + "\n\n" + pr.HTMLURL
}

// ParseRepo splits "owner/name" into its parts.
func ParseRepo(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q: want owner/name", s)
	}
	return owner, repo, nil
}

// ParsePRNumber accepts "42" or "#42".
func ParsePRNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid pull request number %q", s)
	}
	return n, nil
}
