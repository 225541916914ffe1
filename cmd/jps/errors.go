package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/jps/internal/jira"
	"github.com/steveyegge/jps/internal/ui"
)

// errReported is returned by commands whose diagnostics are already on
// stderr. main exits 1 without printing it again.
var errReported = errors.New("error already reported")

// FatalError writes an error message to stderr and returns errReported.
// Use this for failures that end the command:
//   - User input validation failures
//   - Missing configuration
//   - Jira rejecting the primary request
//
// Example:
//
//	if len(missing) > 0 {
//	    return a.FatalError("Missing required environment variables (%s)", strings.Join(missing, ", "))
//	}
func (a *app) FatalError(format string, args ...interface{}) error {
	fmt.Fprintf(a.stderr, ui.RenderFail("Error:")+" "+format+"\n", args...)
	return errReported
}

// WarnError writes a warning message to stderr and returns.
// Use this for best-effort steps whose failure does not change the outcome,
// such as detaching a parent link or clearing a resolution.
func (a *app) WarnError(format string, args ...interface{}) {
	fmt.Fprintf(a.stderr, ui.RenderWarn("Warning:")+" "+format+"\n", args...)
}

// requestFailed reports a failed Jira call. Jira responses print as
// "Error <action> (HTTP n):" followed by the response body; anything else
// is a transport failure.
func (a *app) requestFailed(action string, err error) error {
	var apiErr *jira.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(a.stderr, "Error %s (HTTP %d):\n", action, apiErr.StatusCode)
		fmt.Fprintln(a.stderr, apiErr.Detail())
		return errReported
	}
	fmt.Fprintf(a.stderr, "Request failed: %v\n", err)
	return errReported
}

// exactArgs is cobra.RangeArgs with the one-line usage message jps prints
// on a wrong argument count.
func exactArgs(min, max int, hints ...string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) >= min && len(args) <= max {
			return nil
		}
		w := cmd.ErrOrStderr()
		fmt.Fprintf(w, "Usage: %s\n", strings.TrimSuffix(cmd.UseLine(), " [flags]"))
		for _, h := range hints {
			fmt.Fprintf(w, "  %s\n", h)
		}
		return errReported
	}
}
