package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/steveyegge/jps/internal/jira"
)

// DefaultIssueType is the issue type create-subtask uses unless configured.
const DefaultIssueType = "Task"

// UpdateStatus moves key to exactly the named status.
func (e *Engine) UpdateStatus(ctx context.Context, key, status string) (*ApplyResult, error) {
	tr, err := e.ResolveTransition(ctx, key, ExactStatus(status))
	if err != nil {
		return nil, err
	}
	return e.ApplyTransition(ctx, key, *tr, status)
}

// CloseWithComment detaches key from its parent, comments on it and moves
// it to a finished status. The detach and the comment are best-effort and
// happen before the transition lookup.
func (e *Engine) CloseWithComment(ctx context.Context, key, comment string) (*ApplyResult, error) {
	if err := e.Tracker.UpdateIssue(ctx, key, map[string]interface{}{"parent": nil}); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.warnFailed("remove parent link", err)
	} else {
		e.msg("Removed parent link from %s", key)
	}

	if err := e.Tracker.AddComment(ctx, key, comment); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.warnFailed("add comment", err)
	} else {
		e.msg("Added comment to %s", key)
	}

	tr, err := e.ResolveTransition(ctx, key, FinishedStatus(e.FinishedStatuses...))
	if err != nil {
		return nil, err
	}
	return e.ApplyTransition(ctx, key, *tr, tr.To.Name)
}

// SubtaskRequest describes a work item created under an epic for a pull request.
type SubtaskRequest struct {
	ProjectKey  string
	EpicKey     string
	PRNumber    string
	Title       string
	Label       string
	Description string
	// IssueType defaults to DefaultIssueType.
	IssueType string
}

// Summary returns the summary the created issue carries: "PR<number>: <title>".
func (r SubtaskRequest) Summary() string {
	return fmt.Sprintf("PR%s: %s", r.PRNumber, r.Title)
}

// Fields builds the create payload. Each line of Description becomes its own
// paragraph.
func (r SubtaskRequest) Fields() map[string]interface{} {
	issueType := r.IssueType
	if issueType == "" {
		issueType = DefaultIssueType
	}
	return map[string]interface{}{
		"project":     map[string]string{"key": r.ProjectKey},
		"parent":      map[string]string{"key": r.EpicKey},
		"summary":     r.Summary(),
		"description": jira.PlainTextToADF(r.Description),
		"issuetype":   map[string]string{"name": issueType},
		"labels":      []string{r.Label},
	}
}

// CreateSubtask creates the work item described by req.
func (e *Engine) CreateSubtask(ctx context.Context, req SubtaskRequest) (*jira.CreatedIssue, error) {
	created, err := e.Tracker.CreateIssue(ctx, req.Fields())
	if err != nil {
		return nil, err
	}
	e.msg("Created %s under %s", created.Key, req.EpicKey)
	return created, nil
}

// SummaryMismatchError reports a summary that read back differently from
// what was written.
type SummaryMismatchError struct {
	IssueKey string
	Want     string
	Got      string
}

func (e *SummaryMismatchError) Error() string {
	return fmt.Sprintf("summary of %s is %q after update, want %q", e.IssueKey, e.Got, e.Want)
}

// UpdateSummary writes summary and reads it back. The read-back decides the
// outcome: a rejected write surfaces as a mismatch, and an accepted write
// that does not stick is still a failure.
func (e *Engine) UpdateSummary(ctx context.Context, key, summary string) error {
	err := e.Tracker.UpdateIssue(ctx, key, map[string]interface{}{"summary": summary})
	if err != nil {
		var apiErr *jira.APIError
		if !errors.As(err, &apiErr) {
			return err
		}
		e.msg("Summary update for %s returned HTTP %d", key, apiErr.StatusCode)
	}

	issue, err := e.Tracker.GetIssue(ctx, key, "summary")
	if err != nil {
		return fmt.Errorf("verify update: %w", err)
	}
	if issue.Fields.Summary != summary {
		return &SummaryMismatchError{IssueKey: key, Want: summary, Got: issue.Fields.Summary}
	}
	return nil
}
