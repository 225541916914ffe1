package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/jps/internal/debug"
	"github.com/steveyegge/jps/internal/github"
	"github.com/steveyegge/jps/internal/jira"
	"github.com/steveyegge/jps/internal/ui"
	"github.com/steveyegge/jps/internal/workflow"
)

func newCreateFromPRCmd(a *app) *cobra.Command {
	var (
		dryRun     bool
		githubBase string
	)
	cmd := &cobra.Command{
		Use:     "create-from-pr <epic-key> <pr-number> <label>",
		GroupID: "issues",
		Short:   "Create a work item from a GitHub pull request",
		Long: `Look up a pull request on GitHub and create the matching work item under an
epic, using the pull request title as the title and its body plus a link as
the description.

The repository comes from --repo, JPS_GITHUB_REPO or GITHUB_REPOSITORY. A
token from GITHUB_TOKEN or GH_TOKEN is used when set.`,
		Example: `  jps create-from-pr PROJ-100 42 backend --repo acme/widgets
  jps create-from-pr PROJ-100 '#42' backend --dry-run`,
		Args: exactArgs(3, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := github.ParsePRNumber(args[1])
			if err != nil {
				return a.FatalError("%v", err)
			}
			if a.settings.GitHub.Repo == "" {
				return a.FatalError("No GitHub repository configured (use --repo owner/name or JPS_GITHUB_REPO)")
			}
			owner, repo, err := github.ParseRepo(a.settings.GitHub.Repo)
			if err != nil {
				return a.FatalError("%v", err)
			}

			gh := github.NewClient(a.settings.GitHub.Token, owner, repo)
			if githubBase != "" {
				gh = gh.WithBaseURL(githubBase)
			}
			pr, err := gh.GetPullRequest(a.ctx, number)
			if err != nil {
				return a.FatalError("%v", err)
			}
			debug.Logf("Fetched %s/%s#%d %q by %s\n", owner, repo, pr.Number, pr.Title, pr.Author)

			req := workflow.SubtaskRequest{
				EpicKey:     jira.NormalizeIssueKey(args[0]),
				PRNumber:    strconv.Itoa(pr.Number),
				Title:       pr.Title,
				Label:       args[2],
				Description: pr.Description(),
			}
			if dryRun {
				fmt.Fprint(a.stdout, ui.RenderMarkdown(previewMarkdown(req)))
				return nil
			}
			if !a.jsonOutput && !debug.IsQuiet() {
				fmt.Fprintln(a.stderr, ui.RenderMuted(fmt.Sprintf("Creating %q from %s/%s#%d", req.Summary(), owner, repo, pr.Number)))
			}
			return a.createSubtask(req)
		},
	}
	cmd.Flags().String("repo", "", "GitHub repository as owner/name")
	cmd.Flags().String("project", "", "Jira project key (overrides JIRA_PROJECT_KEY)")
	cmd.Flags().String("issue-type", "", "Issue type of the created work item (default: Task)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the work item that would be created without creating it")
	cmd.Flags().StringVar(&githubBase, "github-api", "", "GitHub API base URL (for GitHub Enterprise)")
	return cmd
}

// previewMarkdown describes the work item create-from-pr would create.
func previewMarkdown(req workflow.SubtaskRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", req.Summary())
	fmt.Fprintf(&b, "- **Parent:** %s\n", req.EpicKey)
	fmt.Fprintf(&b, "- **Label:** %s\n\n", req.Label)
	if req.Description != "" {
		b.WriteString(req.Description)
		b.WriteString("\n")
	}
	return b.String()
}
