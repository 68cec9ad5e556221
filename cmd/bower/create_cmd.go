package main

import (
	"github.com/spf13/cobra"

	"github.com/bower-dev/bower/internal/log"
	"github.com/bower-dev/bower/internal/output"
	"github.com/bower-dev/bower/internal/preserve"
)

func newCreateCmd() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:     "create <branch>",
		Short:   "Create a worktree for a new branch",
		Aliases: []string{"c"},
		GroupID: GroupWorkspace,
		Args:    cobra.ExactArgs(1),
		Long: `Create an isolated worktree for a new branch.

The worktree shares the repository object store and is bound to the
shared build cache. The branch starts at --base (default from config,
falling back to main).`,
		Example: `  bower create feat-auth
  bower create feat-auth --base develop
  bower create feat/auth          # directory becomes feat-auth`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			if base == "" {
				base = defaultBase()
			}

			wt, err := newManager(ws).Create(ctx, args[0], base)
			if err != nil {
				return err
			}

			log.FromContext(ctx).Debug("worktree created", "branch", wt.Branch, "path", wt.Path)
			out.Printf("Created %s at %s (base %s)\n", wt.Branch, wt.Path, wt.Base)

			copied, err := preserve.Files(ctx, ws.RepoDir, wt.Path, cfg.Preserve)
			if err != nil {
				log.FromContext(ctx).Printf("Warning: could not preserve ignored files: %v\n", err)
				return nil
			}
			for _, f := range copied {
				out.Printf("Preserved %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&base, "base", "b", "", "Base reference for the new branch")

	return cmd
}
