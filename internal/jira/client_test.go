package jira

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL+"/", "dev@example.com", "secret")
	c.NewBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 3)
	}
	return c
}

func TestNewClientTrimsSlash(t *testing.T) {
	c := NewClient("https://company.atlassian.net/", "a@b.c", "tok")
	assert.Equal(t, "https://company.atlassian.net", c.URL)
	assert.NotNil(t, c.HTTPClient)
}

func TestBasicAuthHeader(t *testing.T) {
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("dev@example.com:secret"))
	var got string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"transitions":[]}`)
	}))

	_, err := c.GetTransitions(context.Background(), "PROJ-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetTransitions(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/api/3/issue/PROJ-1/transitions", r.URL.Path)
		_, _ = io.WriteString(w, `{"transitions":[
			{"id":"11","name":"Start","to":{"id":"3","name":"In Progress"}},
			{"id":"31","name":"Close","to":{"id":"10001","name":"Done"}}
		]}`)
	}))

	got, err := c.GetTransitions(context.Background(), "PROJ-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "11", got[0].ID)
	assert.Equal(t, "In Progress", got[0].To.Name)
	assert.Equal(t, "31: Close -> Done", got[1].String())
}

func TestDoTransitionBody(t *testing.T) {
	var body map[string]map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.DoTransition(context.Background(), "PROJ-1", "31"))
	assert.Equal(t, "31", body["transition"]["id"])
}

func TestUpdateIssueSendsNull(t *testing.T) {
	var raw []byte
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		raw, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.UpdateIssue(context.Background(), "PROJ-1", map[string]interface{}{"resolution": nil}))
	assert.JSONEq(t, `{"fields":{"resolution":null}}`, string(raw))
}

func TestAddCommentIsADF(t *testing.T) {
	var raw []byte
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue/PROJ-1/comment", r.URL.Path)
		raw, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"100"}`)
	}))

	require.NoError(t, c.AddComment(context.Background(), "PROJ-1", "merged in #42"))
	assert.JSONEq(t, `{"body":{"type":"doc","version":1,"content":[
		{"type":"paragraph","content":[{"type":"text","text":"merged in #42"}]}
	]}}`, string(raw))
}

func TestGetIssueFields(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "summary", r.URL.Query().Get("fields"))
		_, _ = io.WriteString(w, `{"id":"1","key":"PROJ-1","fields":{"summary":"PR12: Fix login"}}`)
	}))

	issue, err := c.GetIssue(context.Background(), "PROJ-1", "summary")
	require.NoError(t, err)
	assert.Equal(t, "PR12: Fix login", issue.Fields.Summary)
}

func TestCreateIssue(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"10010","key":"PROJ-7","self":"https://x/rest/api/3/issue/10010"}`)
	}))

	created, err := c.CreateIssue(context.Background(), map[string]interface{}{"summary": "x"})
	require.NoError(t, err)
	assert.Equal(t, "PROJ-7", created.Key)
}

func TestAPIErrorDetail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"errorMessages":["Bad"],"errors":{"summary":"required","labels":"invalid"}}`)
	}))

	_, err := c.CreateIssue(context.Background(), map[string]interface{}{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.Equal(t, []string{"Bad", "labels: invalid", "summary: required"}, apiErr.Messages())
	assert.Contains(t, apiErr.Detail(), "\n  \"errorMessages\": [")
}

func TestAPIErrorRawBody(t *testing.T) {
	e := &APIError{StatusCode: 502, Body: []byte("<html>bad gateway</html>")}
	assert.Equal(t, "<html>bad gateway</html>", e.Detail())
	assert.Nil(t, e.Messages())
	assert.Equal(t, 0, StatusCode(io.EOF))
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"transitions":[{"id":"1","name":"a","to":{"name":"Done"}}]}`)
	}))

	got, err := c.GetTransitions(context.Background(), "PROJ-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.GetTransitions(context.Background(), "PROJ-404")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPostIsNeverRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	err := c.DoTransition(context.Background(), "PROJ-1", "31")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSearchRaw(t *testing.T) {
	var req SearchRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/search/jql", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_, _ = io.WriteString(w, `{"issues":[{"key":"PROJ-2","fields":{"summary":"s","status":{"name":"To Do"}}}]}`)
	}))

	raw, err := c.SearchRaw(context.Background(), SearchRequest{
		JQL:        "parent=PROJ-1",
		Fields:     []string{"summary", "status", "key"},
		MaxResults: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "parent=PROJ-1", req.JQL)
	assert.Equal(t, 100, req.MaxResults)

	result, err := ParseSearchResult(raw)
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "To Do", result.Issues[0].Fields.Status.Name)
}

func TestMissingConfiguration(t *testing.T) {
	_, err := NewClient("", "a", "b").GetTransitions(context.Background(), "X-1")
	assert.EqualError(t, err, "get transitions for X-1: jira URL not configured")

	_, err = NewClient("https://x", "a", "").GetTransitions(context.Background(), "X-1")
	assert.EqualError(t, err, "get transitions for X-1: jira API token not configured")
}

func TestPlainTextToADF(t *testing.T) {
	got := PlainTextToADF("first\r\n\nthird")
	assert.JSONEq(t, `{"type":"doc","version":1,"content":[
		{"type":"paragraph","content":[{"type":"text","text":"first"}]},
		{"type":"paragraph","content":[]},
		{"type":"paragraph","content":[{"type":"text","text":"third"}]}
	]}`, string(got))
}

func TestParagraphADFEmpty(t *testing.T) {
	assert.JSONEq(t, `{"type":"doc","version":1,"content":[{"type":"paragraph","content":[]}]}`,
		string(ParagraphADF("")))
}

func TestDefaultBackOffGivesUpQuickly(t *testing.T) {
	c := NewClient("https://acme.atlassian.net", "dev@acme.io", "secret")
	bo, ok := c.newBackOff().(*backoff.ExponentialBackOff)
	require.True(t, ok)
	assert.LessOrEqual(t, bo.MaxElapsedTime, 5*time.Second)
	assert.LessOrEqual(t, bo.MaxInterval, 2*time.Second)
}
