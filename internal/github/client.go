package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v63/github"
	"golang.org/x/oauth2"
)

// NewClient creates a new GitHub client.
func NewClient(token, owner, repo string) *Client {
	return &Client{
		Token:   token,
		Owner:   owner,
		Repo:    repo,
		BaseURL: DefaultAPIEndpoint,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithHTTPClient returns a new client with a custom HTTP client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	cp := *c
	cp.HTTPClient = httpClient
	return &cp
}

// WithBaseURL returns a new client with a custom base URL (for testing or GitHub Enterprise).
func (c *Client) WithBaseURL(baseURL string) *Client {
	cp := *c
	cp.BaseURL = baseURL
	return &cp
}

// api builds the go-github client. A token is sent as an OAuth2 bearer token.
func (c *Client) api(ctx context.Context) (*gh.Client, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.Token != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.Token}))
		authed.Timeout = httpClient.Timeout
		httpClient = authed
	}

	client := gh.NewClient(httpClient)
	if c.BaseURL != "" && c.BaseURL != DefaultAPIEndpoint {
		base := c.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", c.BaseURL, err)
		}
		client.BaseURL = u
	}
	return client, nil
}

// GetPullRequest fetches pull request number from the client's repository.
func (c *Client) GetPullRequest(ctx context.Context, number int) (*PullRequest, error) {
	client, err := c.api(ctx)
	if err != nil {
		return nil, err
	}
	pr, _, err := client.PullRequests.Get(ctx, c.Owner, c.Repo, number)
	if err != nil {
		return nil, fmt.Errorf("get pull request %s/%s#%d: %w", c.Owner, c.Repo, number, err)
	}
	return &PullRequest{
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		Body:    pr.GetBody(),
		HTMLURL: pr.GetHTMLURL(),
		State:   pr.GetState(),
		Merged:  pr.GetMerged(),
		Author:  pr.GetUser().GetLogin(),
		Head:    pr.GetHead().GetRef(),
		Base:    pr.GetBase().GetRef(),
	}, nil
}
