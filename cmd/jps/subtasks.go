package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/jps/internal/jira"
	"github.com/steveyegge/jps/internal/timeparsing"
	"github.com/steveyegge/jps/internal/ui"
)

// summaryWidth bounds the summary column of --table output.
const summaryWidth = 72

func newFetchSubtasksCmd(a *app) *cobra.Command {
	var (
		since string
		table bool
	)
	cmd := &cobra.Command{
		Use:     "fetch-subtasks <epic-key>",
		GroupID: "query",
		Short:   "List the child issues of an epic",
		Long: `Search for the child issues of an epic and print Jira's response unchanged.

--since restricts the search to issues updated on or after a date. It accepts
compact durations (-7d, -2w), dates (2025-01-15), RFC3339 timestamps and
natural language ("last monday", "yesterday").`,
		Example: `  jps fetch-subtasks PROJ-100
  jps fetch-subtasks PROJ-100 --since -7d --table`,
		Args: exactArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			epic := jira.NormalizeIssueKey(args[0])

			jql, err := subtasksJQL(epic, since, time.Now())
			if err != nil {
				return a.FatalError("%v", err)
			}

			client, err := a.jiraClient(false)
			if err != nil {
				return err
			}

			body, err := client.SearchRaw(a.ctx, jira.SearchRequest{
				JQL:        jql,
				Fields:     []string{"summary", "status", "key"},
				MaxResults: a.settings.Search.MaxResults,
			})
			if err != nil {
				return a.requestFailed("fetching subtasks", err)
			}

			if !table {
				outputRaw(a.stdout, body)
				return nil
			}
			result, err := jira.ParseSearchResult(body)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, subtasksTable(result))
			return nil
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "Only issues updated since this time (e.g. -7d, 2025-01-15, \"last monday\")")
	cmd.Flags().BoolVar(&table, "table", false, "Print key, status and summary columns instead of JSON")
	cmd.Flags().Int("max-results", 0, "Maximum number of issues to return (default 100)")
	return cmd
}

// subtasksJQL builds the child-issue query, restricted to issues updated on
// or after since when it is set.
func subtasksJQL(epic, since string, now time.Time) (string, error) {
	jql := "parent=" + epic
	if since == "" {
		return jql, nil
	}
	date, err := timeparsing.SinceDate(since, now)
	if err != nil {
		return "", fmt.Errorf("invalid --since value: %w", err)
	}
	return fmt.Sprintf("%s AND updated >= \"%s\"", jql, date), nil
}

func subtasksTable(result *jira.SearchResult) string {
	rows := make([][]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		status := ""
		if issue.Fields.Status != nil {
			status = issue.Fields.Status.Name
		}
		rows = append(rows, []string{issue.Key, status, ui.TruncateSimple(issue.Fields.Summary, summaryWidth)})
	}
	return ui.RenderTable([]string{"KEY", "STATUS", "SUMMARY"}, rows)
}
