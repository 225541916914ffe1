package jira

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
)

// APIError is returned for any non-2xx response from Jira.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira API returned %d: %s", e.StatusCode, e.Detail())
}

// Detail returns the response body pretty-printed when it is JSON, or the
// raw body otherwise.
func (e *APIError) Detail() string {
	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimSpace(e.Body), "", "  "); err == nil {
		return out.String()
	}
	return string(e.Body)
}

// Messages extracts Jira's structured error report: every entry of
// errorMessages, then "field: message" for each entry of errors in field
// order. It returns nil when the body is not a JSON error report.
func (e *APIError) Messages() []string {
	var report struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(e.Body, &report); err != nil {
		return nil
	}
	msgs := append([]string(nil), report.ErrorMessages...)
	fields := make([]string, 0, len(report.Errors))
	for field := range report.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, report.Errors[field]))
	}
	if len(msgs) == 0 {
		return nil
	}
	return msgs
}

// retryable reports whether a GET that failed with this status may succeed
// on a later attempt.
func (e *APIError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
