package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/steveyegge/jps/internal/credential"
	"github.com/steveyegge/jps/internal/debug"
	"github.com/steveyegge/jps/internal/ui"
)

func newAuthCmd(a *app) *cobra.Command {
	authCmd := &cobra.Command{
		Use:     "auth",
		GroupID: "setup",
		Short:   "Manage the Jira API token stored in the system keyring",
		Long: `Store the Jira API token in the system keyring so it does not have to be
exported as JIRA_API_TOKEN. The token is stored under the account in
JIRA_EMAIL (or jira.email in the config file) and used whenever no token is
configured.`,
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Store a Jira API token",
		Long: `Store a Jira API token for the configured account. On a terminal the token is
prompted for without echo; otherwise it is read from the first line of stdin:

  echo "$TOKEN" | jps auth login`,
		Args: exactArgs(0, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := a.settings.Jira.Email
			if email == "" {
				return a.FatalError("Missing required environment variables (JIRA_EMAIL)")
			}
			token, err := a.readToken(email)
			if err != nil {
				return err
			}
			if token == "" {
				return a.FatalError("No token provided")
			}
			if err := a.tokens.SetToken(email, token); err != nil {
				return a.FatalError("%v", err)
			}
			debug.PrintlnNormal(ui.RenderPass("Stored API token for " + email))
			return nil
		},
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored Jira API token",
		Args:  exactArgs(0, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := a.settings.Jira.Email
			if email == "" {
				return a.FatalError("Missing required environment variables (JIRA_EMAIL)")
			}
			if err := a.tokens.DeleteToken(email); err != nil {
				return a.FatalError("%v", err)
			}
			debug.PrintlnNormal("Removed API token for " + email)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show where the Jira API token comes from",
		Args:  exactArgs(0, 0),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := a.settings.Jira.Email
			switch {
			case a.settings.Jira.APIToken != "":
				fmt.Fprintln(a.stdout, "API token: configured (environment or config file)")
			case email == "":
				fmt.Fprintln(a.stdout, "API token: not configured (JIRA_EMAIL is not set)")
			default:
				_, err := a.tokens.GetToken(email)
				switch {
				case err == nil:
					fmt.Fprintf(a.stdout, "%s stored in keyring for %s\n", ui.RenderAccent("API token:"), email)
				case errors.Is(err, credential.ErrNotFound):
					fmt.Fprintf(a.stdout, "API token: not configured (run 'jps auth login')\n")
				default:
					return a.FatalError("%v", err)
				}
			}
			return nil
		},
	}

	authCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
	return authCmd
}

// readToken prompts for the token on a terminal and reads one line of stdin
// otherwise.
func (a *app) readToken(email string) (string, error) {
	if a.stdin == os.Stdin && ui.IsStdinTerminal() {
		var token string
		err := huh.NewInput().
			Title("Jira API token for " + email).
			Description("Create one at https://id.atlassian.com/manage-profile/security/api-tokens").
			EchoMode(huh.EchoModePassword).
			Value(&token).
			Run()
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return strings.TrimSpace(token), nil
	}

	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", a.FatalError("No token provided on stdin")
	}
	return strings.TrimSpace(line), nil
}
