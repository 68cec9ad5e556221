package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/bower-dev/bower/internal/output"
	"github.com/bower-dev/bower/internal/resolve"
	"github.com/bower-dev/bower/internal/retarget"
	"github.com/bower-dev/bower/internal/workspace"
)

func newRetargetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "retarget",
		Short:   "Replay a branch's commits onto a new base",
		GroupID: GroupRetarget,
		Long: `Retarget moves a branch's unique commits onto a different base
without creating commits locally.

A successful replay leaves the changes staged in the worktree awaiting
an external signer; bower never signs and never pushes. The original
branch tip stays recoverable until the operation resolves.`,
	}

	cmd.AddCommand(newRetargetBeginCmd())
	cmd.AddCommand(newRetargetReplayCmd())
	cmd.AddCommand(newRetargetAbortCmd())
	cmd.AddCommand(newRetargetStatusCmd())

	return cmd
}

func newRetargetBeginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "begin <branch> <new-base>",
		Short: "Record the commits to replay and snapshot the branch tip",
		Args:  cobra.ExactArgs(2),
		Example: `  bower retarget begin feat-auth main
  bower retarget begin feat-auth origin/release-2.1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			if _, err := resolve.Branch(ws, args[0]); err != nil {
				return err
			}

			op, err := retarget.New(ws).Begin(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			out.Printf("Retarget of %s onto %s recorded: %d commit(s) to replay\n",
				op.Branch, op.NewBase, len(op.Commits))
			out.Println("Run 'bower retarget replay' to apply, or 'bower retarget abort' to cancel.")
			return nil
		},
	}
}

func newRetargetReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <branch>",
		Short: "Apply the recorded commits onto the new base without committing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			op, err := retarget.LoadOperation(ws, args[0])
			if err != nil {
				return err
			}

			op, err = retarget.New(ws).Replay(ctx, op)
			if errors.Is(err, workspace.ErrConflictDuringReplay) {
				out.Printf("Replay hit a conflict: %v\n", err)
				out.Println("Inspect the worktree, then 'bower retarget abort' to restore the original state.")
				return err
			}
			if err != nil {
				return err
			}

			out.Printf("Replayed %d commit(s) onto %s\n", len(op.Commits), op.NewBase)
			out.Println("Changes are staged and unsigned; hand off to your signer to finalize.")
			return nil
		},
	}
}

func newRetargetAbortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abort <branch>",
		Short: "Restore the branch to its pre-retarget state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			op, err := retarget.LoadOperation(ws, args[0])
			if err != nil {
				return err
			}

			if err := retarget.New(ws).Abort(ctx, op); err != nil {
				return err
			}

			out.Printf("Restored %s to %s\n", op.Branch, op.OriginalHead)
			return nil
		},
	}
}

func newRetargetStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <branch>",
		Short: "Show the branch's retarget operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			op, err := retarget.LoadOperation(ws, args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				return out.JSON(op)
			}

			out.Printf("Branch:   %s\n", op.Branch)
			out.Printf("Outcome:  %s\n", op.Outcome)
			out.Printf("New base: %s (%s)\n", op.NewBase, short(op.NewBaseSHA))
			out.Printf("Original: %s\n", short(op.OriginalHead))
			out.Printf("Commits:  %d\n", len(op.Commits))
			for _, c := range op.Commits {
				out.Printf("  %s %s\n", short(c.SHA), c.Subject)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func short(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
