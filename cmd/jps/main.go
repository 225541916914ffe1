package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/jps/internal/config"
	"github.com/steveyegge/jps/internal/debug"
	"github.com/steveyegge/jps/internal/telemetry"
	"github.com/steveyegge/jps/internal/ui"
)

// app is the state one invocation of jps shares between its commands.
type app struct {
	// Signal-aware context for graceful cancellation
	ctx    context.Context
	cancel context.CancelFunc
	span   trace.Span

	settings config.Settings

	configFile  string
	jsonOutput  bool
	timeout     time.Duration
	verboseFlag bool // Enable verbose/debug output
	quietFlag   bool // Suppress non-essential output

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	tokens tokenStore
}

func newApp() *app {
	return &app{
		ctx:    context.Background(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		tokens: systemKeyring{},
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jps",
		Short: "jps - keep Jira sub-tasks in step with pull requests",
		Long: `jps creates, renames, transitions and closes Jira sub-tasks on behalf of
pull-request activity, and queries their transitions and status.

Credentials come from JIRA_URL, JIRA_EMAIL and JIRA_API_TOKEN (or 'jps auth
login'), or from a config file (see 'jps config show').`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.prerun(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file (default: ./.jps/config.yaml, then $XDG_CONFIG_HOME/jps/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 30*time.Second, "HTTP timeout for each Jira request")
	rootCmd.PersistentFlags().BoolVarP(&a.verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&a.quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")

	rootCmd.AddGroup(&cobra.Group{ID: "issues", Title: "Working With Issues:"})
	rootCmd.AddGroup(&cobra.Group{ID: "query", Title: "Queries:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Configuration:"})

	rootCmd.AddCommand(
		newCreateSubtaskCmd(a),
		newCreateFromPRCmd(a),
		newUpdateSummaryCmd(a),
		newUpdateStatusCmd(a),
		newCloseSubtaskCmd(a),
		newGetTransitionsCmd(a),
		newFetchSubtasksCmd(a),
		newAuthCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// prerun runs before every command: signal context, verbosity, config and
// telemetry, in that order.
func (a *app) prerun(cmd *cobra.Command) error {
	a.ctx, a.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	debug.SetVerbose(a.verboseFlag)
	debug.SetQuiet(a.quietFlag)
	debug.SetOutput(a.stdout, a.stderr)
	ui.InitColor()

	if err := config.InitializeFile(a.configFile); err != nil {
		return err
	}
	applyFlagOverrides(cmd)
	settings, err := config.Load()
	if err != nil {
		return err
	}
	a.settings = settings
	a.jsonOutput = settings.JSON

	if err := telemetry.Init(a.ctx, "jps", Version); err != nil {
		a.WarnError("%v", err)
	}
	a.ctx, a.span = telemetry.Tracer("jps").Start(a.ctx, "jps."+cmd.Name(),
		trace.WithAttributes(attribute.String("jps.command", cmd.CommandPath())))

	if path := config.ConfigFileUsed(); path != "" {
		debug.Logf("Using config file %s\n", path)
	}
	return nil
}

// flagOverrides maps command-line flags onto the config keys they override.
// A flag only wins when it was set explicitly.
var flagOverrides = map[string]string{
	"json":        "json",
	"timeout":     "timeout",
	"project":     "jira.project_key",
	"issue-type":  "jira.issue_type",
	"repo":        "github.repo",
	"max-results": "search.max_results",
}

func applyFlagOverrides(cmd *cobra.Command) {
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if key, ok := flagOverrides[f.Name]; ok {
			config.Set(key, f.Value.String())
		}
	})
}

// finish ends the command span and flushes telemetry.
func (a *app) finish(err error) {
	if a.span != nil {
		if err != nil {
			a.span.RecordError(err)
		}
		a.span.End()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	telemetry.Shutdown(shutdownCtx)

	// Cancel the signal context to clean up resources
	if a.cancel != nil {
		a.cancel()
	}
}

// execute runs jps with args and reports whether it succeeded.
func execute(a *app, args []string) error {
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(a.stdin)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	err := rootCmd.Execute()
	a.finish(err)
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return err
}

func main() {
	if err := execute(newApp(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
