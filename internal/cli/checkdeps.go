package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prfix/prfix/internal/deps"
)

// runCheckDeps probes the required external tools, prints a status report and
// exits non-zero when anything is missing or unauthenticated.
func runCheckDeps(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	statuses := deps.Check(ctx)
	fmt.Fprint(out, deps.FormatStatus(statuses))

	if !deps.AllAvailable(statuses) {
		return fmt.Errorf("some dependencies are missing; see above for install instructions")
	}

	if err := deps.RequireGHAuth(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nAll dependencies are available and GitHub CLI is authenticated.")
	return nil
}
