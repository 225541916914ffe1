package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/steveyegge/jps/internal/jira"
)

// StatusPredicate decides whether a transition's destination status is the
// one a caller wants.
type StatusPredicate interface {
	Match(status string) bool
	// Describe names the wanted status for diagnostics.
	Describe() string
}

// ExactStatus matches a destination status by case-sensitive equality.
type ExactStatus string

func (s ExactStatus) Match(status string) bool { return status == string(s) }
func (s ExactStatus) Describe() string         { return fmt.Sprintf("to status '%s'", string(s)) }

// StatusPattern matches a destination status against a regular expression.
type StatusPattern struct {
	re *regexp.Regexp
}

func (p StatusPattern) Match(status string) bool { return p.re.MatchString(status) }
func (p StatusPattern) Describe() string         { return "matching /" + p.re.String() + "/" }

// FinishedStatus matches any destination status containing one of labels,
// ignoring case. Blank labels are skipped; with none left it uses
// DefaultFinishedStatuses, so it matches "Done", "CLOSED" and
// "Won't Do - Cancelled" alike.
func FinishedStatus(labels ...string) StatusPattern {
	quoted := quoteLabels(labels)
	if len(quoted) == 0 {
		quoted = quoteLabels(DefaultFinishedStatuses)
	}
	return StatusPattern{re: regexp.MustCompile("(?i)" + strings.Join(quoted, "|"))}
}

func quoteLabels(labels []string) []string {
	quoted := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			quoted = append(quoted, regexp.QuoteMeta(l))
		}
	}
	return quoted
}

// NoTransitionError is returned when no legal transition leads to the wanted
// status. Available holds every transition Jira offered, in its order.
type NoTransitionError struct {
	IssueKey  string
	Want      string
	Available []jira.Transition
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("no transition found %s for %s", e.Want, e.IssueKey)
}

// Lines formats each available transition as "id: name -> to".
func (e *NoTransitionError) Lines() []string {
	lines := make([]string, 0, len(e.Available))
	for _, t := range e.Available {
		lines = append(lines, t.String())
	}
	return lines
}

// ResolveTransition fetches the transitions currently legal for key and
// returns the first whose destination satisfies want. Tracker order is kept.
func (e *Engine) ResolveTransition(ctx context.Context, key string, want StatusPredicate) (*jira.Transition, error) {
	transitions, err := e.Tracker.GetTransitions(ctx, key)
	if err != nil {
		return nil, err
	}
	for i := range transitions {
		if want.Match(transitions[i].To.Name) {
			return &transitions[i], nil
		}
	}
	return nil, &NoTransitionError{IssueKey: key, Want: want.Describe(), Available: transitions}
}

// ApplyResult describes a transition that was executed.
type ApplyResult struct {
	Transition jira.Transition
	// Status is the status the caller targeted.
	Status string
	// ResolutionCleared is set when the follow-up resolution clear succeeded.
	ResolutionCleared bool
}

// ApplyTransition executes tr on key. When status is an active status, one
// follow-up update clears the resolution field; its failure is only a
// warning because the transition itself already happened.
func (e *Engine) ApplyTransition(ctx context.Context, key string, tr jira.Transition, status string) (*ApplyResult, error) {
	if err := e.Tracker.DoTransition(ctx, key, tr.ID); err != nil {
		return nil, err
	}
	result := &ApplyResult{Transition: tr, Status: status}
	e.msg("Applied transition %s to %s", tr, key)

	if !e.isActive(status) {
		return result, nil
	}
	if err := e.Tracker.UpdateIssue(ctx, key, map[string]interface{}{"resolution": nil}); err != nil {
		e.warnFailed("clear resolution", err)
		return result, nil
	}
	result.ResolutionCleared = true
	return result, nil
}
