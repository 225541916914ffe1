// Package workflow moves Jira issues through their workflow on behalf of
// pull-request activity: it resolves the transition that reaches a wanted
// status, applies it, and builds the close, create and summary operations on
// top of a Tracker.
package workflow

import (
	"context"
	"fmt"

	"github.com/steveyegge/jps/internal/jira"
)

// Tracker is the subset of the Jira client the workflow operations need.
// *jira.Client satisfies it.
type Tracker interface {
	GetTransitions(ctx context.Context, key string) ([]jira.Transition, error)
	DoTransition(ctx context.Context, key, transitionID string) error
	UpdateIssue(ctx context.Context, key string, fields map[string]interface{}) error
	AddComment(ctx context.Context, key, text string) error
	CreateIssue(ctx context.Context, fields map[string]interface{}) (*jira.CreatedIssue, error)
	GetIssue(ctx context.Context, key string, fields ...string) (*jira.Issue, error)
}

// DefaultActiveStatuses are the statuses that re-open an issue. Moving an
// issue into one of them clears its resolution.
var DefaultActiveStatuses = []string{"To Do", "In Progress", "Selected for Development"}

// DefaultFinishedStatuses are the labels close-subtask accepts as a
// terminal status.
var DefaultFinishedStatuses = []string{"Closed", "Cancelled", "Done"}

// Engine runs workflow operations against a Tracker.
type Engine struct {
	Tracker Tracker

	// ActiveStatuses are compared verbatim against the targeted status.
	ActiveStatuses []string
	// FinishedStatuses feed the FinishedStatus predicate used by CloseWithComment.
	FinishedStatuses []string

	// Callbacks for UI feedback (optional).
	OnMessage func(msg string)
	OnWarning func(msg string)
}

// NewEngine creates an engine with the default status sets.
func NewEngine(tracker Tracker) *Engine {
	return &Engine{
		Tracker:          tracker,
		ActiveStatuses:   DefaultActiveStatuses,
		FinishedStatuses: DefaultFinishedStatuses,
	}
}

func (e *Engine) isActive(status string) bool {
	for _, s := range e.ActiveStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (e *Engine) msg(format string, args ...interface{}) {
	if e.OnMessage != nil {
		e.OnMessage(fmt.Sprintf(format, args...))
	}
}

func (e *Engine) warn(format string, args ...interface{}) {
	if e.OnWarning != nil {
		e.OnWarning(fmt.Sprintf(format, args...))
	}
}

// warnFailed reports a best-effort call that did not succeed. Jira responses
// are reported by status code, anything else by its message.
func (e *Engine) warnFailed(what string, err error) {
	if code := jira.StatusCode(err); code != 0 {
		e.warn("Failed to %s (HTTP %d)", what, code)
		return
	}
	e.warn("Failed to %s: %v", what, err)
}
