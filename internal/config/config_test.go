package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	jpsDir := filepath.Join(dir, ".jps")
	if err := os.MkdirAll(jpsDir, 0750); err != nil {
		t.Fatalf("failed to create .jps directory: %v", err)
	}
	path := filepath.Join(jpsDir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestInitialize(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if v == nil {
		t.Fatal("viper instance is nil after Initialize()")
	}
	if got := ConfigFileUsed(); got != "" {
		t.Errorf("ConfigFileUsed() = %q, want none", got)
	}
}

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}

	tests := []struct {
		key      string
		expected interface{}
		getter   func(string) interface{}
	}{
		{"json", false, func(k string) interface{} { return GetBool(k) }},
		{"jira.url", "", func(k string) interface{} { return GetString(k) }},
		{"jira.issue_type", "Task", func(k string) interface{} { return GetString(k) }},
		{"timeout", 30 * time.Second, func(k string) interface{} { return GetDuration(k) }},
		{"search.max_results", 100, func(k string) interface{} { return GetInt(k) }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := tt.getter(tt.key)
			if got != tt.expected {
				t.Errorf("GetXXX(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}

	want := []string{"Closed", "Cancelled", "Done"}
	if got := GetStringSlice("workflow.finished_statuses"); !reflect.DeepEqual(got, want) {
		t.Errorf("finished statuses = %v, want %v", got, want)
	}
}

func TestEnvironmentBinding(t *testing.T) {
	tests := []struct {
		envVar   string
		key      string
		value    string
		expected interface{}
		getter   func(string) interface{}
	}{
		{"JIRA_URL", "jira.url", "https://acme.atlassian.net", "https://acme.atlassian.net", func(k string) interface{} { return GetString(k) }},
		{"JIRA_EMAIL", "jira.email", "dev@acme.io", "dev@acme.io", func(k string) interface{} { return GetString(k) }},
		{"JIRA_API_TOKEN", "jira.api_token", "tok", "tok", func(k string) interface{} { return GetString(k) }},
		{"JIRA_PROJECT_KEY", "jira.project_key", "ACME", "ACME", func(k string) interface{} { return GetString(k) }},
		{"GITHUB_TOKEN", "github.token", "ghp_x", "ghp_x", func(k string) interface{} { return GetString(k) }},
		{"JPS_TIMEOUT", "timeout", "10s", 10 * time.Second, func(k string) interface{} { return GetDuration(k) }},
		{"JPS_JSON", "json", "true", true, func(k string) interface{} { return GetBool(k) }},
		{"JPS_MAX_RESULTS", "search.max_results", "25", 25, func(k string) interface{} { return GetInt(k) }},
	}

	for _, tt := range tests {
		t.Run(tt.envVar, func(t *testing.T) {
			t.Setenv(tt.envVar, tt.value)

			if err := Initialize(); err != nil {
				t.Fatalf("Initialize() returned error: %v", err)
			}

			got := tt.getter(tt.key)
			if got != tt.expected {
				t.Errorf("GetXXX(%q) with %s=%s = %v, want %v", tt.key, tt.envVar, tt.value, got, tt.expected)
			}
		})
	}
}

func TestStatusListFromEnvironment(t *testing.T) {
	t.Setenv("JPS_ACTIVE_STATUSES", "To Do, In Progress ,Backlog")
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}

	want := []string{"To Do", "In Progress", "Backlog"}
	if got := GetStringSlice("workflow.active_statuses"); !reflect.DeepEqual(got, want) {
		t.Errorf("GetStringSlice() = %v, want %v", got, want)
	}
}

func TestConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `
jira:
  url: https://file.atlassian.net
  email: file@acme.io
  project_key: FILE
timeout: 15s
workflow:
  finished_statuses:
    - Resolved
    - Won't Do
`)
	t.Chdir(tmpDir)

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}

	if got := GetString("jira.url"); got != "https://file.atlassian.net" {
		t.Errorf("GetString(jira.url) = %q", got)
	}
	if got := GetString("jira.project_key"); got != "FILE" {
		t.Errorf("GetString(jira.project_key) = %q, want FILE", got)
	}
	if got := GetDuration("timeout"); got != 15*time.Second {
		t.Errorf("GetDuration(timeout) = %v, want 15s", got)
	}
	want := []string{"Resolved", "Won't Do"}
	if got := GetStringSlice("workflow.finished_statuses"); !reflect.DeepEqual(got, want) {
		t.Errorf("finished statuses = %v, want %v", got, want)
	}
	if got := ConfigFileUsed(); got != filepath.Join(".jps", "config.yaml") {
		t.Errorf("ConfigFileUsed() = %q", got)
	}
}

func TestExplicitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("jira:\n  email: custom@acme.io\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := InitializeFile(path); err != nil {
		t.Fatalf("InitializeFile() returned error: %v", err)
	}
	if got := GetString("jira.email"); got != "custom@acme.io" {
		t.Errorf("GetString(jira.email) = %q", got)
	}
}

func TestMissingExplicitConfigFile(t *testing.T) {
	if err := InitializeFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("InitializeFile() with a missing file should fail")
	}
}

func TestUserConfigFile(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(t.TempDir())

	path := filepath.Join(xdg, "jps", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("jira:\n  url: https://user.atlassian.net\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if got := GetString("jira.url"); got != "https://user.atlassian.net" {
		t.Errorf("GetString(jira.url) = %q", got)
	}
	if got := UserConfigFile(); got != path {
		t.Errorf("UserConfigFile() = %q, want %q", got, path)
	}
}

func TestConfigPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "jira:\n  url: https://file.atlassian.net\ntimeout: 5s\n")
	t.Chdir(tmpDir)

	// Config file over default
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if got := GetDuration("timeout"); got != 5*time.Second {
		t.Errorf("GetDuration(timeout) from config file = %v, want 5s", got)
	}

	// Environment over config file
	t.Setenv("JIRA_URL", "https://env.atlassian.net")
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if got := GetString("jira.url"); got != "https://env.atlassian.net" {
		t.Errorf("GetString(jira.url) with env var = %q, want env value", got)
	}

	// Flag (applied through Set) over environment
	Set("jira.url", "https://flag.atlassian.net")
	if got := GetString("jira.url"); got != "https://flag.atlassian.net" {
		t.Errorf("GetString(jira.url) after Set = %q, want flag value", got)
	}
}

func TestAllSettings(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}

	Set("custom-key", "custom-value")

	settings := AllSettings()
	if val, ok := settings["custom-key"]; !ok || val != "custom-value" {
		t.Errorf("AllSettings() missing or incorrect custom-key: got %v", val)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("JIRA_URL", "https://acme.atlassian.net")
	t.Setenv("JIRA_EMAIL", "dev@acme.io")
	t.Setenv("JIRA_API_TOKEN", "secret")
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}

	s, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if s.Jira.URL != "https://acme.atlassian.net" || s.Jira.Email != "dev@acme.io" || s.Jira.APIToken != "secret" {
		t.Errorf("Load() jira = %+v", s.Jira)
	}
	if s.Jira.IssueType != "Task" {
		t.Errorf("IssueType = %q, want Task", s.Jira.IssueType)
	}
	if s.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", s.Timeout)
	}
	if got := s.MissingJira(false); len(got) != 0 {
		t.Errorf("MissingJira(false) = %v, want none", got)
	}
	if got := s.MissingJira(true); !reflect.DeepEqual(got, []string{"JIRA_PROJECT_KEY"}) {
		t.Errorf("MissingJira(true) = %v", got)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("JPS_MAX_RESULTS", "0")
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if _, err := Load(); err == nil {
		t.Error("Load() with max_results 0 should fail")
	}
}

func TestMissingJiraNamesOnlyMissing(t *testing.T) {
	s := Settings{Jira: JiraSettings{Email: "dev@acme.io"}}
	want := []string{"JIRA_URL", "JIRA_API_TOKEN", "JIRA_PROJECT_KEY"}
	if got := s.MissingJira(true); !reflect.DeepEqual(got, want) {
		t.Errorf("MissingJira(true) = %v, want %v", got, want)
	}
}

func TestRedacted(t *testing.T) {
	s := Settings{
		Jira:   JiraSettings{Email: "dev@acme.io", APIToken: "secret"},
		GitHub: GitHubSettings{Token: ""},
	}
	r := s.Redacted()
	if r.Jira.APIToken != "********" {
		t.Errorf("Redacted().Jira.APIToken = %q", r.Jira.APIToken)
	}
	if r.GitHub.Token != "" {
		t.Errorf("Redacted().GitHub.Token = %q, want empty", r.GitHub.Token)
	}
	if s.Jira.APIToken != "secret" {
		t.Error("Redacted() modified the original")
	}
}

func TestNilViperBehavior(t *testing.T) {
	savedV := v
	v = nil
	defer func() { v = savedV }()

	// All getters should return zero values without panicking
	if got := GetString("any-key"); got != "" {
		t.Errorf("GetString with nil viper = %q, want \"\"", got)
	}
	if got := GetBool("any-key"); got != false {
		t.Errorf("GetBool with nil viper = %v, want false", got)
	}
	if got := GetInt("any-key"); got != 0 {
		t.Errorf("GetInt with nil viper = %d, want 0", got)
	}
	if got := GetDuration("any-key"); got != 0 {
		t.Errorf("GetDuration with nil viper = %v, want 0", got)
	}
	if got := GetStringSlice("any-key"); got == nil || len(got) != 0 {
		t.Errorf("GetStringSlice with nil viper = %v, want empty slice", got)
	}
	if got := AllSettings(); got == nil || len(got) != 0 {
		t.Errorf("AllSettings with nil viper = %v, want empty map", got)
	}
	if _, err := Load(); err == nil {
		t.Error("Load with nil viper should fail")
	}

	// Set should not panic
	Set("any-key", "any-value")
}
