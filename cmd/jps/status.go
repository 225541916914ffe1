package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/steveyegge/jps/internal/debug"
	"github.com/steveyegge/jps/internal/jira"
	"github.com/steveyegge/jps/internal/ui"
	"github.com/steveyegge/jps/internal/workflow"
)

func newUpdateStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "update-status <issue-key> <target-status>",
		GroupID: "issues",
		Short:   "Move an issue to the named status",
		Long: `Move an issue to exactly the named status (case-sensitive) through the first
legal transition that reaches it. Moving into an active status ('To Do',
'In Progress', 'Selected for Development') also clears the resolution.`,
		Example: `  jps update-status PROJ-123 "In Progress"
  jps update-status https://acme.atlassian.net/browse/PROJ-123 Done`,
		Args: exactArgs(2, 2, "target-status: 'To Do', 'In Progress', or 'Done'"),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := jira.NormalizeIssueKey(args[0])
			status := args[1]

			client, err := a.jiraClient(false)
			if err != nil {
				return err
			}

			result, err := a.newEngine(client).UpdateStatus(a.ctx, key, status)
			if err != nil {
				var noTr *workflow.NoTransitionError
				if errors.As(err, &noTr) {
					_ = a.FatalError("No transition found to status '%s'", status)
					a.printTransitions(noTr.Lines())
					return errReported
				}
				return a.transitionFailed("updating status", err)
			}

			if a.jsonOutput {
				return a.outputJSON(applyResultJSON(key, result))
			}
			fmt.Fprintln(a.stdout, ui.RenderPass(fmt.Sprintf("Successfully transitioned %s to '%s'", key, status)))
			if result.ResolutionCleared {
				debug.PrintNormal("Cleared resolution for %s\n", key)
			}
			return nil
		},
	}
}

// transitionFailed distinguishes the transition lookup from the transition
// itself: a failed lookup prints its status code alone, a rejected
// transition also prints Jira's response.
func (a *app) transitionFailed(action string, err error) error {
	var apiErr *jira.APIError
	if errors.As(err, &apiErr) && apiErr.Method == http.MethodGet {
		fmt.Fprintf(a.stderr, "Error fetching transitions (HTTP %d)\n", apiErr.StatusCode)
		return errReported
	}
	return a.requestFailed(action, err)
}

type applyResultOutput struct {
	Key               string `json:"key"`
	TransitionID      string `json:"transition_id"`
	Transition        string `json:"transition"`
	Status            string `json:"status"`
	ResolutionCleared bool   `json:"resolution_cleared"`
}

func applyResultJSON(key string, r *workflow.ApplyResult) applyResultOutput {
	return applyResultOutput{
		Key:               key,
		TransitionID:      r.Transition.ID,
		Transition:        r.Transition.Name,
		Status:            r.Status,
		ResolutionCleared: r.ResolutionCleared,
	}
}
