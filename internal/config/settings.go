package config

import (
	"fmt"
	"time"
)

// Settings is the configuration a command runs with, read once at startup
// and passed down explicitly.
type Settings struct {
	Jira     JiraSettings     `yaml:"jira" json:"jira"`
	GitHub   GitHubSettings   `yaml:"github" json:"github"`
	Timeout  time.Duration    `yaml:"timeout" json:"timeout"`
	JSON     bool             `yaml:"json" json:"json"`
	Search   SearchSettings   `yaml:"search" json:"search"`
	Workflow WorkflowSettings `yaml:"workflow" json:"workflow"`
}

// JiraSettings holds the Jira connection and creation defaults.
type JiraSettings struct {
	URL        string `yaml:"url" json:"url"`
	Email      string `yaml:"email" json:"email"`
	APIToken   string `yaml:"api_token" json:"api_token"`
	ProjectKey string `yaml:"project_key" json:"project_key"`
	IssueType  string `yaml:"issue_type" json:"issue_type"`
}

// GitHubSettings holds the pull-request lookup settings.
type GitHubSettings struct {
	Token string `yaml:"token" json:"token"`
	Repo  string `yaml:"repo" json:"repo"`
}

// SearchSettings bounds sub-task queries.
type SearchSettings struct {
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// WorkflowSettings names the statuses the workflow engine treats specially.
type WorkflowSettings struct {
	FinishedStatuses []string `yaml:"finished_statuses" json:"finished_statuses"`
	ActiveStatuses   []string `yaml:"active_statuses" json:"active_statuses"`
}

// Load materialises the current configuration. Initialize must have run.
func Load() (Settings, error) {
	if v == nil {
		return Settings{}, fmt.Errorf("config not initialized")
	}
	s := Settings{
		Jira: JiraSettings{
			URL:        GetString("jira.url"),
			Email:      GetString("jira.email"),
			APIToken:   GetString("jira.api_token"),
			ProjectKey: GetString("jira.project_key"),
			IssueType:  GetString("jira.issue_type"),
		},
		GitHub: GitHubSettings{
			Token: GetString("github.token"),
			Repo:  GetString("github.repo"),
		},
		Timeout: GetDuration("timeout"),
		JSON:    GetBool("json"),
		Search: SearchSettings{
			MaxResults: GetInt("search.max_results"),
		},
		Workflow: WorkflowSettings{
			FinishedStatuses: GetStringSlice("workflow.finished_statuses"),
			ActiveStatuses:   GetStringSlice("workflow.active_statuses"),
		},
	}
	if s.Timeout < 0 {
		return s, fmt.Errorf("timeout must not be negative, got %s", s.Timeout)
	}
	if s.Search.MaxResults <= 0 {
		return s, fmt.Errorf("search.max_results must be positive, got %d", s.Search.MaxResults)
	}
	return s, nil
}

// MissingJira returns the environment variable names of the required Jira
// settings that are empty, in the order they are documented. The project
// key is only required when creating issues.
func (s Settings) MissingJira(needProject bool) []string {
	var missing []string
	if s.Jira.URL == "" {
		missing = append(missing, "JIRA_URL")
	}
	if s.Jira.Email == "" {
		missing = append(missing, "JIRA_EMAIL")
	}
	if s.Jira.APIToken == "" {
		missing = append(missing, "JIRA_API_TOKEN")
	}
	if needProject && s.Jira.ProjectKey == "" {
		missing = append(missing, "JIRA_PROJECT_KEY")
	}
	return missing
}

// Redacted returns a copy safe to print: secrets are masked.
func (s Settings) Redacted() Settings {
	out := s
	out.Jira.APIToken = mask(s.Jira.APIToken)
	out.GitHub.Token = mask(s.GitHub.Token)
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
