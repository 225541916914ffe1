package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/jps/internal/jira"
)

func newGetTransitionsCmd(a *app) *cobra.Command {
	var table bool
	cmd := &cobra.Command{
		Use:     "get-transitions <issue-key>",
		GroupID: "query",
		Short:   "Show the transitions currently legal for an issue",
		Long: `Print Jira's transitions response for an issue unchanged. With --table,
print one "id: name -> status" line per transition instead.`,
		Args: exactArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := jira.NormalizeIssueKey(args[0])

			client, err := a.jiraClient(false)
			if err != nil {
				return err
			}

			body, err := client.GetTransitionsRaw(a.ctx, key)
			if err != nil {
				return a.requestFailed("fetching transitions", err)
			}

			if !table {
				outputRaw(a.stdout, body)
				return nil
			}
			var resp jira.TransitionsResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("parse transitions response: %w", err)
			}
			for _, t := range resp.Transitions {
				fmt.Fprintln(a.stdout, t.String())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&table, "table", false, "Print one line per transition instead of JSON")
	return cmd
}
