// Package cli defines the command-line interface for prfix.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/prfix/prfix/internal/logging"
)

// version is the CLI version reported by --version.
const version = "0.1.0"

// Options stores CLI options shared between the command and its helpers.
type Options struct {
	// Directory is the target repository path; empty means the current directory.
	Directory string
	// DryRun enumerates comments without checkout or agent invocations.
	DryRun bool
	// SkipCheckout operates on the current branch instead of the PR branch.
	SkipCheckout bool
	// Verbose enables step-by-step diagnostic output.
	Verbose bool
	// LogLevel is the textual log level; --verbose overrides it to debug.
	LogLevel string
	// CheckDeps verifies external tools and exits without processing a PR.
	CheckDeps bool
}

// Execute builds the root command, runs it with the provided args and logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelInfo)
	}

	opts := &Options{}
	if err := applyEnvDefaults(opts); err != nil {
		return err
	}

	rootCmd := newRootCommand(opts, logger)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

// newRootCommand constructs the root cobra.Command with flags wired to opts.
func newRootCommand(opts *Options, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prfix <pr-url>",
		Short:   "prfix addresses PR review comments with an external coding agent",
		Long:    "prfix checks out a pull request's branch, fetches its review feedback, and invokes a coding agent once per comment to apply and commit fixes. It never pushes.",
		Example: "  prfix https://github.com/owner/repo/pull/123",
		Args:    cobra.MaximumNArgs(1),
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger = logging.NewLogger(os.Stderr, logLevel(opts))
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.CheckDeps {
				return runCheckDeps(cmd)
			}
			if len(args) == 0 {
				return cmd.Help()
			}
			return runFix(cmd, opts, args[0])
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&opts.Directory, "directory", "d", opts.Directory, "Path to the local repository (defaults to the current directory)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Enumerate comments without checking out or invoking the agent")
	cmd.Flags().BoolVar(&opts.SkipCheckout, "skip-checkout", false, "Skip branch checkout and use the current branch")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable verbose diagnostic output")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level: debug, info, warn or error")
	cmd.Flags().BoolVar(&opts.CheckDeps, "check-deps", false, "Check required external tools and exit")

	return cmd
}

// logLevel resolves the effective log level: --verbose wins, otherwise the
// configured textual level is parsed, defaulting to info.
func logLevel(opts *Options) logging.Level {
	if opts.Verbose {
		return logging.LevelDebug
	}
	return logging.ParseLevel(opts.LogLevel)
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}
