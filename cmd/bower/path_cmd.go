package main

import (
	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/bower-dev/bower/internal/log"
	"github.com/bower-dev/bower/internal/output"
	"github.com/bower-dev/bower/internal/resolve"
)

func newPathCmd() *cobra.Command {
	var copyPath bool

	cmd := &cobra.Command{
		Use:     "path <branch>",
		Short:   "Print a worktree's directory",
		GroupID: GroupUtility,
		Args:    cobra.ExactArgs(1),
		Long: `Print the directory of a worktree, for shell integration like
cd "$(bower path feat-auth)".`,
		Example: `  cd "$(bower path feat-auth)"
  bower path feat-auth --copy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			entry, err := resolve.Branch(ws, args[0])
			if err != nil {
				return err
			}

			if copyPath {
				if err := clipboard.WriteAll(entry.Path); err != nil {
					// Clipboard may be unavailable over SSH; the path on
					// stdout is still usable.
					log.FromContext(ctx).Printf("Warning: copy to clipboard failed: %v\n", err)
				}
			}

			out.Println(entry.Path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&copyPath, "copy", "c", false, "Also copy the path to the clipboard")

	return cmd
}
