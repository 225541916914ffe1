package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/jps/internal/jira"
	"github.com/steveyegge/jps/internal/ui"
	"github.com/steveyegge/jps/internal/workflow"
)

func newCloseSubtaskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "close-subtask <issue-key> <comment>",
		GroupID: "issues",
		Short:   "Detach a sub-task from its epic, comment on it and close it",
		Long: `Close a sub-task whose pull request was dropped or merged elsewhere.

The parent link is removed and the comment is added first; both are
best-effort and only warn on failure. The issue then moves through the first
transition whose destination looks finished (Closed, Cancelled or Done,
ignoring case).`,
		Args: exactArgs(2, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := jira.NormalizeIssueKey(args[0])
			comment := args[1]

			client, err := a.jiraClient(false)
			if err != nil {
				return err
			}

			result, err := a.newEngine(client).CloseWithComment(a.ctx, key, comment)
			if err != nil {
				var noTr *workflow.NoTransitionError
				if errors.As(err, &noTr) {
					_ = a.FatalError("No close/done transition found for %s", key)
					a.printTransitions(noTr.Lines())
					return errReported
				}
				return a.transitionFailed("closing subtask", err)
			}

			if a.jsonOutput {
				return a.outputJSON(applyResultJSON(key, result))
			}
			fmt.Fprintln(a.stdout, ui.RenderPass("Successfully closed "+key))
			return nil
		},
	}
}
