package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/jps/internal/jira"
	"github.com/steveyegge/jps/internal/workflow"
)

func newCreateSubtaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "create-subtask <epic-key> <pr-number> <title> <label> [description]",
		GroupID: "issues",
		Short:   "Create a work item under an epic for a pull request",
		Long: `Create a work item under an epic. Its summary is "PR<number>: <title>" and
it carries the given label. The new issue key is printed on success.

Requires JIRA_PROJECT_KEY (or --project) in addition to the Jira credentials.`,
		Example: `  jps create-subtask PROJ-100 42 "Add retry to uploader" backend
  jps create-subtask PROJ-100 42 "Add retry" backend "Retries failed uploads"`,
		Args: exactArgs(4, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := workflow.SubtaskRequest{
				EpicKey:  jira.NormalizeIssueKey(args[0]),
				PRNumber: args[1],
				Title:    args[2],
				Label:    args[3],
			}
			if len(args) > 4 {
				req.Description = args[4]
			}
			return a.createSubtask(req)
		},
	}
	cmd.Flags().String("project", "", "Jira project key (overrides JIRA_PROJECT_KEY)")
	cmd.Flags().String("issue-type", "", "Issue type of the created work item (default: Task)")
	return cmd
}

// createSubtask runs the create shared by create-subtask and create-from-pr.
func (a *app) createSubtask(req workflow.SubtaskRequest) error {
	client, err := a.jiraClient(true)
	if err != nil {
		return err
	}
	req.ProjectKey = a.settings.Jira.ProjectKey
	req.IssueType = a.settings.Jira.IssueType

	created, err := a.newEngine(client).CreateSubtask(a.ctx, req)
	if err != nil {
		return a.createFailed(err)
	}

	if a.jsonOutput {
		return a.outputJSON(created)
	}
	fmt.Fprintln(a.stdout, created.Key)
	return nil
}

// createFailed prints Jira's error report for a rejected create: each
// errorMessages entry, then "field: message" per field error, or the raw
// body when it is not a JSON report.
func (a *app) createFailed(err error) error {
	var apiErr *jira.APIError
	if !errors.As(err, &apiErr) {
		return a.requestFailed("creating child work item", err)
	}
	fmt.Fprintf(a.stderr, "Error creating child work item (HTTP %d):\n", apiErr.StatusCode)
	if msgs := apiErr.Messages(); msgs != nil {
		for _, m := range msgs {
			fmt.Fprintln(a.stderr, m)
		}
	} else if len(apiErr.Body) > 0 {
		fmt.Fprintln(a.stderr, string(apiErr.Body))
	}
	return errReported
}
