package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/bower-dev/bower/internal/buildcache"
	"github.com/bower-dev/bower/internal/log"
	"github.com/bower-dev/bower/internal/resolve"
)

func newExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "exec <branch> -- <command>",
		Short:   "Run a command in a worktree",
		Aliases: []string{"x"},
		GroupID: GroupUtility,
		Long: `Run a command inside a worktree with the shared build cache
exported in its environment.

While the command runs, bower holds the branch's cache lock so the
worktree cannot be removed mid-build. Locks are per branch: builds in
different worktrees run in parallel.`,
		Example: `  bower exec feat-auth -- make test
  bower exec feat-auth -- go build ./...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)

			dashIdx := cmd.ArgsLenAtDash()
			if dashIdx != 1 || len(args) < 2 {
				return fmt.Errorf("usage: bower exec <branch> -- <command>")
			}
			branch := args[0]
			cmdArgs := args[1:]

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			entry, err := resolve.Branch(ws, branch)
			if err != nil {
				return err
			}

			cacheDir := ""
			if cfg != nil {
				cacheDir = cfg.CacheDir
			}
			cache := buildcache.New(ws, cacheDir)

			release, err := cache.AcquireBuildLock(branch)
			if err != nil {
				return fmt.Errorf("acquire build lock for %s: %w", branch, err)
			}
			defer release()

			l.Command(cmdArgs[0], cmdArgs[1:]...)

			c := exec.CommandContext(ctx, cmdArgs[0], cmdArgs[1:]...)
			c.Dir = entry.Path
			c.Env = append(os.Environ(), cache.Env()...)
			c.Stdin = os.Stdin
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			return c.Run()
		},
	}

	return cmd
}
