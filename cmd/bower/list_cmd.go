package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/bower-dev/bower/internal/output"
	"github.com/bower-dev/bower/internal/ui/static"
)

func newListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List worktrees",
		Aliases: []string{"ls"},
		GroupID: GroupWorkspace,
		Args:    cobra.NoArgs,
		Long: `List the workspace's worktrees with their state, base, and the
number of commits unique to each branch. Worktrees whose directory has
vanished show as orphaned; prune removes them.`,
		Example: `  bower list
  bower list --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			worktrees, err := newManager(ws).List(ctx)
			if err != nil {
				return err
			}

			sort.Slice(worktrees, func(i, j int) bool {
				return worktrees[i].CreatedAt.After(worktrees[j].CreatedAt)
			})

			if jsonOutput {
				return out.JSON(worktrees)
			}

			if len(worktrees) == 0 {
				out.Println("No worktrees found")
				return nil
			}

			rows := make([][]string, len(worktrees))
			for i, wt := range worktrees {
				rows[i] = static.WorktreeRow(wt)
			}
			out.Print(static.RenderTable(static.WorktreeHeaders, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
