// Package config loads jps settings from flags, environment variables and an
// optional YAML config file, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var v *viper.Viper

// configFileUsed is the config file Initialize loaded, if any.
var configFileUsed string

// envBindings maps config keys to the environment variables that set them.
// The Jira and GitHub variables keep the names the CI pipelines already export.
var envBindings = map[string][]string{
	"jira.url":                   {"JIRA_URL"},
	"jira.email":                 {"JIRA_EMAIL"},
	"jira.api_token":             {"JIRA_API_TOKEN"},
	"jira.project_key":           {"JIRA_PROJECT_KEY"},
	"jira.issue_type":            {"JPS_ISSUE_TYPE"},
	"github.token":               {"GITHUB_TOKEN", "GH_TOKEN"},
	"github.repo":                {"JPS_GITHUB_REPO", "GITHUB_REPOSITORY"},
	"timeout":                    {"JPS_TIMEOUT"},
	"json":                       {"JPS_JSON"},
	"search.max_results":         {"JPS_MAX_RESULTS"},
	"workflow.finished_statuses": {"JPS_FINISHED_STATUSES"},
	"workflow.active_statuses":   {"JPS_ACTIVE_STATUSES"},
}

// Initialize sets up a fresh viper instance, discovering the config file in
// ./.jps/config.yaml or $XDG_CONFIG_HOME/jps/config.yaml.
func Initialize() error {
	return InitializeFile("")
}

// InitializeFile is Initialize with an explicit config file. An empty path
// falls back to discovery; JPS_CONFIG names a file when no path is given.
func InitializeFile(path string) error {
	v = viper.New()
	configFileUsed = ""

	v.SetConfigType("yaml")
	if path == "" {
		path = os.Getenv("JPS_CONFIG")
	}
	if path == "" {
		path = discoverConfigFile()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", path, err)
		}
		configFileUsed = path
	}

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}

	v.SetDefault("jira.issue_type", "Task")
	v.SetDefault("timeout", "30s")
	v.SetDefault("json", false)
	v.SetDefault("search.max_results", 100)
	v.SetDefault("workflow.finished_statuses", []string{"Closed", "Cancelled", "Done"})
	v.SetDefault("workflow.active_statuses", []string{"To Do", "In Progress", "Selected for Development"})

	return nil
}

func discoverConfigFile() string {
	candidates := []string{filepath.Join(".jps", "config.yaml")}
	if dir := userConfigDir(); dir != "" {
		candidates = append(candidates, filepath.Join(dir, "jps", "config.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func userConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return dir
}

// ConfigFileUsed returns the path of the loaded config file, or "".
func ConfigFileUsed() string {
	return configFileUsed
}

// UserConfigFile returns the per-user config file path, whether or not it exists.
func UserConfigFile() string {
	dir := userConfigDir()
	if dir == "" {
		return filepath.Join(".jps", "config.yaml")
	}
	return filepath.Join(dir, "jps", "config.yaml")
}

// GetString retrieves a string configuration value
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt retrieves an integer configuration value
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDuration retrieves a duration configuration value
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// GetStringSlice retrieves a list value. Values coming from the environment
// are split on commas, so "To Do,In Progress" yields two statuses.
func GetStringSlice(key string) []string {
	if v == nil {
		return []string{}
	}
	if s, ok := v.Get(key).(string); ok {
		return splitList(s)
	}
	result := v.GetStringSlice(key)
	if result == nil {
		return []string{}
	}
	return result
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Set sets a configuration value, overriding every other source.
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// IsSet reports whether key has a value from any source, defaults included.
func IsSet(key string) bool {
	if v == nil {
		return false
	}
	return v.IsSet(key)
}

// AllSettings returns all configuration settings as a map
func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}

// ResetForTesting drops the viper instance so the next Initialize starts clean.
func ResetForTesting() {
	v = nil
	configFileUsed = ""
}
