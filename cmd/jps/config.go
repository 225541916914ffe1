package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/jps/internal/config"
	"github.com/steveyegge/jps/internal/debug"
	"github.com/steveyegge/jps/internal/ui"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:     "config",
		GroupID: "setup",
		Short:   "Show or change jps configuration",
		Long: `Settings are read from flags, then environment variables, then the config
file, then built-in defaults.

Keys and the environment variables that set them:
  jira.url                     JIRA_URL
  jira.email                   JIRA_EMAIL
  jira.api_token               JIRA_API_TOKEN
  jira.project_key             JIRA_PROJECT_KEY
  jira.issue_type              JPS_ISSUE_TYPE
  github.token                 GITHUB_TOKEN, GH_TOKEN
  github.repo                  JPS_GITHUB_REPO, GITHUB_REPOSITORY
  timeout                      JPS_TIMEOUT
  json                         JPS_JSON
  search.max_results           JPS_MAX_RESULTS
  workflow.finished_statuses   JPS_FINISHED_STATUSES
  workflow.active_statuses     JPS_ACTIVE_STATUSES`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (secrets masked)",
		Args:  exactArgs(0, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			redacted := a.settings.Redacted()
			if a.jsonOutput {
				return a.outputJSON(redacted)
			}
			if path := config.ConfigFileUsed(); path != "" {
				fmt.Fprintln(a.stdout, ui.RenderMuted("# config file: "+path))
			} else {
				fmt.Fprintln(a.stdout, ui.RenderMuted("# no config file"))
			}
			out, err := yaml.Marshal(redacted)
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			_, _ = a.stdout.Write(out)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a key in the config file",
		Long: `Set a key in the config file that was loaded, or in the per-user config file
($XDG_CONFIG_HOME/jps/config.yaml) when none was. List keys take a
comma-separated value.`,
		Example: `  jps config set jira.url https://acme.atlassian.net
  jps config set workflow.finished_statuses "Done, Won't Do"`,
		Args: exactArgs(2, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ConfigFileUsed()
			if path == "" {
				path = config.UserConfigFile()
			}
			if err := config.SetYamlConfig(path, args[0], args[1]); err != nil {
				return a.FatalError("%v", err)
			}
			debug.PrintNormal("Set %s in %s\n", args[0], path)
			return nil
		},
	}

	configCmd.AddCommand(showCmd, setCmd)
	return configCmd
}
