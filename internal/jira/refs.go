package jira

import (
	"net/url"
	"regexp"
	"strings"
)

var issueKeyRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*-[0-9]+$`)

// IsIssueKey reports whether s has the shape of a Jira issue key (PROJ-123).
func IsIssueKey(s string) bool {
	return issueKeyRe.MatchString(s)
}

// NormalizeIssueKey lets commands take an issue as a bare key or as a link
// copied from the browser: a /browse/KEY page or a board URL carrying
// ?selectedIssue=KEY. Anything else is returned trimmed but unchanged, and
// Jira decides whether it names an issue.
func NormalizeIssueKey(arg string) string {
	arg = strings.TrimSpace(arg)
	if key, ok := keyFromURL(arg); ok {
		return key
	}
	return arg
}

func keyFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	if _, rest, found := strings.Cut(u.Path, "/browse/"); found {
		key, _, _ := strings.Cut(rest, "/")
		if IsIssueKey(key) {
			return key, true
		}
	}
	if key := u.Query().Get("selectedIssue"); IsIssueKey(key) {
		return key, true
	}
	return "", false
}
