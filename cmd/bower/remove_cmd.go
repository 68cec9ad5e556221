package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/bower-dev/bower/internal/git"
	"github.com/bower-dev/bower/internal/output"
	"github.com/bower-dev/bower/internal/resolve"
	"github.com/bower-dev/bower/internal/ui/prompt"
	"github.com/bower-dev/bower/internal/workspace"
)

func newRemoveCmd() *cobra.Command {
	var (
		force bool
		yes   bool
	)

	cmd := &cobra.Command{
		Use:     "remove <branch>...",
		Short:   "Remove worktree(s) and release their branch names",
		Aliases: []string{"rm"},
		GroupID: GroupWorkspace,
		Args:    cobra.MinimumNArgs(1),
		Long: `Remove one or more worktrees.

Removing an already-absent branch is a no-op, so recovery scripts can
re-run safely. A worktree with uncommitted changes prompts for
confirmation on a terminal; use --force to skip the check entirely.
Removal is refused while a retarget is pending or a build holds the
branch's cache lock.`,
		Example: `  bower remove feat-auth
  bower remove feat-auth feat-billing
  bower remove feat-auth --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			m := newManager(ws)

			for _, branch := range args {
				entry, err := resolve.Branch(ws, branch)
				if err != nil {
					if errors.Is(err, workspace.ErrNotFound) {
						// Absent is fine, but surface suggestions.
						out.Printf("%s: %v\n", branch, err)
						continue
					}
					return err
				}

				removeForce := force
				if !force && !yes && git.IsDirty(ctx, entry.Path) {
					if !isatty.IsTerminal(os.Stdout.Fd()) {
						return fmt.Errorf("%s has uncommitted changes (use --force)", branch)
					}
					result, err := prompt.Confirm(fmt.Sprintf("%s has uncommitted changes. Remove anyway?", branch))
					if err != nil {
						return err
					}
					if result.Cancelled || !result.Confirmed {
						out.Printf("Skipped %s\n", branch)
						continue
					}
					removeForce = true
				}

				if err := m.Remove(ctx, branch, removeForce); err != nil {
					return err
				}
				out.Printf("Removed %s\n", branch)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Remove even with uncommitted changes")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompts")

	return cmd
}
