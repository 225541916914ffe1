package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/steveyegge/jps/internal/credential"
	"github.com/steveyegge/jps/internal/debug"
	"github.com/steveyegge/jps/internal/jira"
	"github.com/steveyegge/jps/internal/telemetry"
	"github.com/steveyegge/jps/internal/workflow"
)

// tokenStore keeps Jira API tokens outside the environment.
type tokenStore interface {
	GetToken(email string) (string, error)
	SetToken(email, token string) error
	DeleteToken(email string) error
}

// systemKeyring is the OS keyring.
type systemKeyring struct{}

func (systemKeyring) GetToken(email string) (string, error) { return credential.GetToken(email) }
func (systemKeyring) SetToken(email, token string) error    { return credential.SetToken(email, token) }
func (systemKeyring) DeleteToken(email string) error        { return credential.DeleteToken(email) }

// jiraClient builds the Jira client from the loaded settings. When no API
// token is configured the keyring is consulted for the account email.
// needProject adds JIRA_PROJECT_KEY to the required settings.
func (a *app) jiraClient(needProject bool) (*jira.Client, error) {
	s := &a.settings
	if s.Jira.APIToken == "" && s.Jira.Email != "" && a.tokens != nil {
		token, err := a.tokens.GetToken(s.Jira.Email)
		switch {
		case err == nil:
			debug.Logf("Using API token from keyring for %s\n", s.Jira.Email)
			s.Jira.APIToken = token
		case !errors.Is(err, credential.ErrNotFound):
			debug.Logf("Keyring lookup failed: %v\n", err)
		}
	}

	if missing := s.MissingJira(needProject); len(missing) > 0 {
		return nil, a.FatalError("Missing required environment variables (%s)", strings.Join(missing, ", "))
	}

	client := jira.NewClient(s.Jira.URL, s.Jira.Email, s.Jira.APIToken)
	client.UserAgent = "jps/" + Version
	return client.WithHTTPClient(telemetry.WrapDoer(&http.Client{Timeout: s.Timeout})), nil
}

// newEngine wires the workflow engine to the configured status sets and to
// jps diagnostics.
func (a *app) newEngine(tracker workflow.Tracker) *workflow.Engine {
	e := workflow.NewEngine(tracker)
	if len(a.settings.Workflow.ActiveStatuses) > 0 {
		e.ActiveStatuses = a.settings.Workflow.ActiveStatuses
	}
	if len(a.settings.Workflow.FinishedStatuses) > 0 {
		e.FinishedStatuses = a.settings.Workflow.FinishedStatuses
	}
	if debug.Enabled() {
		e.OnMessage = func(msg string) {
			debug.Logf("%s\n", msg)
		}
	}
	e.OnWarning = func(msg string) {
		a.WarnError("%s", msg)
	}
	return e
}

// printTransitions lists transitions on stderr as "id: name -> to" lines.
func (a *app) printTransitions(lines []string) {
	fmt.Fprintln(a.stderr, "Available transitions:")
	for _, l := range lines {
		fmt.Fprintln(a.stderr, l)
	}
}
