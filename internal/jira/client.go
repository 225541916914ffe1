package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultTimeout bounds a single HTTP exchange with Jira.
const DefaultTimeout = 30 * time.Second

// Retries of one GET stop after retryMaxElapsed so a Jira outage fails a
// command within seconds.
const (
	retryMaxElapsed  = 5 * time.Second
	retryMaxInterval = 2 * time.Second
)

// Doer sends one HTTP request and returns its response. *http.Client
// satisfies it; tests and instrumentation substitute their own.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides HTTP access to a Jira Cloud instance.
type Client struct {
	URL        string
	Email      string
	APIToken   string
	UserAgent  string
	HTTPClient Doer

	// NewBackOff returns the retry policy for idempotent requests.
	// A nil value means exponential backoff bounded at 30s.
	NewBackOff func() backoff.BackOff
}

// NewClient creates a new Jira client.
func NewClient(url, email, apiToken string) *Client {
	return &Client{
		URL:       strings.TrimSuffix(url, "/"),
		Email:     email,
		APIToken:  apiToken,
		UserAgent: "jps",
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithHTTPClient returns a copy of the client that sends requests through d.
func (c *Client) WithHTTPClient(d Doer) *Client {
	cp := *c
	cp.HTTPClient = d
	return &cp
}

func (c *Client) apiURL(format string, args ...interface{}) string {
	return c.URL + "/rest/api/3" + fmt.Sprintf(format, args...)
}

// GetTransitionsRaw returns the undecoded body of GET /issue/{key}/transitions.
func (c *Client) GetTransitionsRaw(ctx context.Context, key string) ([]byte, error) {
	body, err := c.doRequest(ctx, http.MethodGet, c.apiURL("/issue/%s/transitions", url.PathEscape(key)), nil)
	if err != nil {
		return nil, fmt.Errorf("get transitions for %s: %w", key, err)
	}
	return body, nil
}

// GetTransitions lists the transitions currently legal for an issue, in the
// order Jira returns them.
func (c *Client) GetTransitions(ctx context.Context, key string) ([]Transition, error) {
	body, err := c.GetTransitionsRaw(ctx, key)
	if err != nil {
		return nil, err
	}
	var resp TransitionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse transitions response: %w", err)
	}
	return resp.Transitions, nil
}

// DoTransition executes the transition with the given id.
func (c *Client) DoTransition(ctx context.Context, key, transitionID string) error {
	payload := map[string]interface{}{
		"transition": map[string]string{"id": transitionID},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal transition request: %w", err)
	}
	if _, err := c.doRequest(ctx, http.MethodPost, c.apiURL("/issue/%s/transitions", url.PathEscape(key)), data); err != nil {
		return fmt.Errorf("transition %s: %w", key, err)
	}
	return nil
}

// AddComment posts text as a single-paragraph ADF comment.
func (c *Client) AddComment(ctx context.Context, key, text string) error {
	payload := map[string]interface{}{"body": ParagraphADF(text)}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal comment request: %w", err)
	}
	if _, err := c.doRequest(ctx, http.MethodPost, c.apiURL("/issue/%s/comment", url.PathEscape(key)), data); err != nil {
		return fmt.Errorf("comment on %s: %w", key, err)
	}
	return nil
}

// GetIssue fetches a single Jira issue by key (e.g., "PROJ-123"), limited to
// the named fields when any are given.
func (c *Client) GetIssue(ctx context.Context, key string, fields ...string) (*Issue, error) {
	apiURL := c.apiURL("/issue/%s", url.PathEscape(key))
	if len(fields) > 0 {
		apiURL += "?" + url.Values{"fields": {strings.Join(fields, ",")}}.Encode()
	}

	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}

	var issue Issue
	if err := json.Unmarshal(body, &issue); err != nil {
		return nil, fmt.Errorf("parse issue response: %w", err)
	}

	return &issue, nil
}

// CreateIssue creates a new issue in Jira.
// fields should include "project", "summary", "issuetype", and optionally other fields.
func (c *Client) CreateIssue(ctx context.Context, fields map[string]interface{}) (*CreatedIssue, error) {
	payload := map[string]interface{}{"fields": fields}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal create request: %w", err)
	}

	body, err := c.doRequest(ctx, http.MethodPost, c.apiURL("/issue"), data)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	var created CreatedIssue
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("parse create response: %w", err)
	}

	return &created, nil
}

// UpdateIssue updates fields of an existing Jira issue by key. A nil value
// clears the field (it is sent as JSON null).
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]interface{}) error {
	payload := map[string]interface{}{"fields": fields}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal update request: %w", err)
	}

	_, err = c.doRequest(ctx, http.MethodPut, c.apiURL("/issue/%s", url.PathEscape(key)), data)
	if err != nil {
		return fmt.Errorf("update issue %s: %w", key, err)
	}

	return nil
}

// SearchRaw runs a JQL search and returns the undecoded response body.
func (c *Client) SearchRaw(ctx context.Context, req SearchRequest) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}
	body, err := c.doRequest(ctx, http.MethodPost, c.apiURL("/search/jql"), data)
	if err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}
	return body, nil
}

// doRequest executes an authenticated HTTP request and returns the response body.
// GET requests are retried on transport errors, 429 and 5xx; other methods
// are sent exactly once.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("jira URL not configured")
	}
	if c.APIToken == "" {
		return nil, fmt.Errorf("jira API token not configured")
	}

	if method != http.MethodGet {
		return c.send(ctx, method, apiURL, body)
	}

	var respBody []byte
	err := backoff.Retry(func() error {
		var err error
		respBody, err = c.send(ctx, method, apiURL, body)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.retryable() {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(c.newBackOff(), ctx))
	return respBody, err
}

func (c *Client) newBackOff() backoff.BackOff {
	if c.NewBackOff != nil {
		return c.NewBackOff()
	}
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = retryMaxInterval
	bo.MaxElapsedTime = retryMaxElapsed
	return bo
}

func (c *Client) send(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setAuth(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Method:     method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}

	// PUT returns 204 No Content on success
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	return respBody, nil
}

// setAuth sets HTTP Basic authentication from email:apiToken.
func (c *Client) setAuth(req *http.Request) {
	auth := base64.StdEncoding.EncodeToString([]byte(c.Email + ":" + c.APIToken))
	req.Header.Set("Authorization", "Basic "+auth)
}

// StatusCode returns the HTTP status of an *APIError anywhere in err's
// chain, or 0 when err did not come from a Jira response.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
