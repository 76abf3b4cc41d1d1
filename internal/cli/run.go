package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/prfix/prfix/internal/agent"
	"github.com/prfix/prfix/internal/config"
	"github.com/prfix/prfix/internal/deps"
	"github.com/prfix/prfix/internal/github"
	"github.com/prfix/prfix/internal/gitrepo"
	"github.com/prfix/prfix/internal/processor"
)

// runFix is the main run: validate preconditions, check out the PR branch,
// fetch all comments, and process them sequentially with the coding agent.
// Per-comment failures are reported but do not fail the command; only
// conditions that prevent the run from starting return an error.
func runFix(cmd *cobra.Command, opts *Options, rawURL string) error {
	ctx := cmd.Context()
	logger := LoggerFromContext(ctx)
	out := cmd.OutOrStdout()

	ref, err := github.ParsePRURL(rawURL)
	if err != nil {
		return fmt.Errorf("%w\nexpected format: https://github.com/owner/repo/pull/123", err)
	}

	if err := deps.Require(ctx); err != nil {
		return err
	}
	if err := deps.RequireGHAuth(ctx); err != nil {
		return err
	}

	dir, err := resolveDirectory(opts.Directory)
	if err != nil {
		return err
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	logger.Debug("parsed PR reference", "owner", ref.Owner, "repo", ref.Repo, "number", ref.Number, "dir", dir)
	fmt.Fprintf(out, "Processing PR: %s\n\n", ref.URL())

	repo := gitrepo.New(dir, logger)
	if err := repo.ValidateRepository(ctx, ref); err != nil {
		return err
	}

	switch {
	case opts.SkipCheckout:
		branch, branchErr := repo.CurrentBranch(ctx)
		if branchErr != nil || branch == "" {
			fmt.Fprintln(out, "Using current branch.")
		} else {
			fmt.Fprintf(out, "Using current branch: %s\n", branch)
		}
	case opts.DryRun:
		// Dry runs enumerate comments only; the branch is left untouched.
	default:
		if err := repo.RequireClean(ctx); err != nil {
			return err
		}
		branch, err := repo.ResolveBranch(ctx, ref)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Checking out branch: %s\n", branch)
		if err := repo.Checkout(ctx, branch); err != nil {
			return err
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Fetching PR comments...")
	fetcher := github.NewFetcher(logger)
	comments, err := fetcher.FetchAll(ctx, ref)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Found %d comment(s) total.\n\n", len(comments))

	if opts.DryRun {
		printDryRun(out, comments)
		return nil
	}

	if len(comments) == 0 {
		fmt.Fprintln(out, "No comments to process. Done!")
		return nil
	}

	timeout, err := cfg.AgentTimeout()
	if err != nil {
		return err
	}
	agentEnv, err := cfg.AgentEnv(dir)
	if err != nil {
		return err
	}

	invoker := agent.NewCLIInvoker(logger, agent.CLIOptions{
		Command:  cfg.AgentCommand(),
		Timeout:  timeout,
		ExtraEnv: agentEnv,
	})

	proc := processor.New(repo, invoker, logger)
	outcomes, summary := proc.ProcessAll(ctx, ref, comments, progressHooks(out, opts.Verbose))

	printSummary(out, summary, outcomes)
	return nil
}

// resolveDirectory expands and validates the target repository path.
func resolveDirectory(flag string) (string, error) {
	if flag == "" {
		dir, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		return dir, nil
	}

	dir, err := filepath.Abs(flag)
	if err != nil {
		return "", fmt.Errorf("resolve directory %q: %w", flag, err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("directory does not exist: %s", dir)
	}
	return dir, nil
}

// progressHooks builds the per-comment progress callbacks for console output.
func progressHooks(out io.Writer, verbose bool) processor.Hooks {
	return processor.Hooks{
		BeforeComment: func(index, total int, c github.Comment) {
			location := ""
			switch c.Kind {
			case github.KindInline:
				location = " on " + c.Path
				if line := c.EffectiveLine(); line > 0 {
					location = fmt.Sprintf("%s:%d", location, line)
				}
			case github.KindReview:
				location = fmt.Sprintf(" (%s)", c.State)
			}
			fmt.Fprintf(out, "Processing comment %d/%d%s...\n", index+1, total, location)
			if verbose {
				fmt.Fprintf(out, "  Author: %s\n", c.Author)
			}
		},
		AfterComment: func(_, _ int, _ github.Comment, o processor.Outcome) {
			switch {
			case o.Errored():
				fmt.Fprintf(out, "  -> Error: %v\n\n", o.Err)
			case o.Changed:
				fmt.Fprintf(out, "  -> Changes made and committed (%s)\n\n", shortCommit(o.CommitID))
			default:
				fmt.Fprint(out, "  -> No changes needed\n\n")
			}
		},
	}
}

// shortCommit abbreviates a commit identifier for console output.
func shortCommit(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// printDryRun enumerates the comments a real run would process.
func printDryRun(out io.Writer, comments []github.Comment) {
	fmt.Fprintln(out, "[Dry run] Would process the following comments:")
	fmt.Fprintln(out)
	for i, c := range comments {
		fmt.Fprintf(out, "  %d. %s\n", i+1, c.Describe())
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "[Dry run] No changes made.")
}

// printSummary reports the aggregate counts for the finished run.
func printSummary(out io.Writer, summary processor.Summary, outcomes []processor.Outcome) {
	fmt.Fprintln(out, "========================================")
	fmt.Fprintln(out, "Processing complete!")
	fmt.Fprintf(out, "  Total comments: %d\n", summary.Total)
	fmt.Fprintf(out, "  Changes made: %d\n", summary.Changed)
	fmt.Fprintf(out, "  No changes needed: %d\n", summary.Unchanged)
	if summary.Errored > 0 {
		fmt.Fprintf(out, "  Errors: %d\n", summary.Errored)
	}
	fmt.Fprintf(out, "  Elapsed: %s\n", summary.Elapsed.Round(100*time.Millisecond))

	if summary.Changed > 0 {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Created %d commit(s). Review the changes and push when ready.\n", summary.Changed)
	}
	for _, o := range outcomes {
		if o.Errored() {
			fmt.Fprintf(out, "  failed: %s: %v\n", o.Comment.Describe(), o.Err)
		}
	}
}
