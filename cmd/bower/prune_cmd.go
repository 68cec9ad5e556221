package main

import (
	"github.com/spf13/cobra"

	"github.com/bower-dev/bower/internal/output"
)

func newPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prune",
		Short:   "Remove orphaned worktree entries",
		GroupID: GroupWorkspace,
		Args:    cobra.NoArgs,
		Long: `Remove registry entries whose worktree directory has vanished,
releasing their branch names. Branches with an operation in flight are
skipped and picked up by the next run. Running prune twice with no
intervening changes removes nothing the second time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			pruned, err := newManager(ws).Prune(ctx)
			if err != nil {
				return err
			}

			if pruned == 0 {
				out.Println("Nothing to prune")
			} else {
				out.Printf("Pruned %d worktree(s)\n", pruned)
			}
			return nil
		},
	}

	return cmd
}
