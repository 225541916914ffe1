package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/jps/internal/debug"
	"github.com/steveyegge/jps/internal/jira"
	"github.com/steveyegge/jps/internal/ui"
	"github.com/steveyegge/jps/internal/workflow"
)

func newUpdateSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "update-summary <issue-key> <new-summary>",
		GroupID: "issues",
		Short:   "Rename an issue and verify the new summary stuck",
		Long: `Write a new summary and read it back. The command only succeeds when the
summary Jira returns matches the one written, character for character.`,
		Args: exactArgs(2, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := jira.NormalizeIssueKey(args[0])
			summary := args[1]

			client, err := a.jiraClient(false)
			if err != nil {
				return err
			}

			err = a.newEngine(client).UpdateSummary(a.ctx, key, summary)
			var mismatch *workflow.SummaryMismatchError
			switch {
			case err == nil:
				if a.jsonOutput {
					return a.outputJSON(map[string]string{"key": key, "summary": summary})
				}
				fmt.Fprintln(a.stdout, ui.RenderPass("Updated: "+key))
				return nil
			case errors.As(err, &mismatch):
				debug.Logf("Summary of %s reads back as %q\n", key, mismatch.Got)
				return a.FatalError("Failed to update %s", key)
			case jira.StatusCode(err) != 0:
				return a.FatalError("Failed to verify update (HTTP %d)", jira.StatusCode(err))
			default:
				return a.requestFailed("updating summary", err)
			}
		},
	}
}
