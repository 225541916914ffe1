// Package jira provides a client, types, and utilities for the Jira Cloud REST API.
package jira

import (
	"encoding/json"
	"fmt"
)

// Issue represents a Jira issue from the REST API.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// IssueFields contains the fields of a Jira issue. Only the fields jps
// reads are declared; requests ask for a subset via the fields parameter.
type IssueFields struct {
	Summary     string           `json:"summary"`
	Description json.RawMessage  `json:"description"` // ADF (Atlassian Document Format)
	Status      *StatusField     `json:"status"`
	IssueType   *IssueTypeField  `json:"issuetype"`
	Parent      *ParentField     `json:"parent"`
	Labels      []string         `json:"labels"`
	Resolution  *ResolutionField `json:"resolution"`
}

// StatusField represents a Jira issue status.
type StatusField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueTypeField represents a Jira issue type.
type IssueTypeField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ParentField is the parent (epic) reference of an issue.
type ParentField struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// ResolutionField represents a Jira resolution.
type ResolutionField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Transition is a legal workflow move from an issue's current status.
type Transition struct {
	ID   string           `json:"id"`
	Name string           `json:"name"`
	To   TransitionTarget `json:"to"`
}

// TransitionTarget is the status a transition leads to.
type TransitionTarget struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// String formats the transition the way diagnostics list it: "id: name -> to".
func (t Transition) String() string {
	return fmt.Sprintf("%s: %s -> %s", t.ID, t.Name, t.To.Name)
}

// TransitionsResponse is the body of GET /issue/{key}/transitions.
type TransitionsResponse struct {
	Transitions []Transition `json:"transitions"`
}

// CreatedIssue is the body of a successful POST /issue.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// SearchRequest is the POST body for the search/jql endpoint.
type SearchRequest struct {
	JQL        string   `json:"jql"`
	Fields     []string `json:"fields"`
	MaxResults int      `json:"maxResults"`
}

// SearchResult represents a Jira JQL search response.
type SearchResult struct {
	Issues        []Issue `json:"issues"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
	IsLast        bool    `json:"isLast,omitempty"`
}

// ParseSearchResult decodes a raw search/jql response body.
func ParseSearchResult(raw []byte) (*SearchResult, error) {
	var result SearchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	return &result, nil
}
