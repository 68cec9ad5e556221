package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bower-dev/bower/internal/git"
	"github.com/bower-dev/bower/internal/log"
	"github.com/bower-dev/bower/internal/output"
	"github.com/bower-dev/bower/internal/workspace"
)

func newInitCmd() *cobra.Command {
	var cloneURL string

	cmd := &cobra.Command{
		Use:     "init [dir]",
		Short:   "Initialize a workspace",
		GroupID: GroupWorkspace,
		Args:    cobra.MaximumNArgs(1),
		Long: `Initialize a bower workspace at dir (default: current directory).

The workspace root must contain the shared repository at <root>/repo.
Clone one there first, or pass --clone to let init do it.`,
		Example: `  bower init                                   # current directory
  bower init ~/work/myproject                  # explicit root
  bower init --clone git@github.com:org/repo.git ~/work/myproject`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			root := workDir
			if len(args) == 1 {
				root = args[0]
			}
			if err := os.MkdirAll(root, 0o755); err != nil {
				return fmt.Errorf("create workspace root: %w", err)
			}

			repoDir := filepath.Join(root, workspace.RepoDirName)
			if cloneURL != "" {
				if _, err := os.Stat(repoDir); err == nil {
					return fmt.Errorf("%s already exists, refusing to clone over it", repoDir)
				}
				log.FromContext(ctx).Printf("Cloning %s\n", cloneURL)
				if err := git.Clone(ctx, cloneURL, repoDir); err != nil {
					return fmt.Errorf("clone shared repository: %w", err)
				}
			}

			ws, err := workspace.Init(root)
			if err != nil {
				return err
			}

			out.Printf("Initialized workspace at %s\n", ws.Root)
			return nil
		},
	}

	cmd.Flags().StringVar(&cloneURL, "clone", "", "Clone this repository into <root>/repo first")

	return cmd
}
