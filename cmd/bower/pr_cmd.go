package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bower-dev/bower/internal/forge"
	"github.com/bower-dev/bower/internal/git"
	"github.com/bower-dev/bower/internal/log"
	"github.com/bower-dev/bower/internal/output"
	"github.com/bower-dev/bower/internal/prcache"
	"github.com/bower-dev/bower/internal/remote"
	"github.com/bower-dev/bower/internal/resolve"
	"github.com/bower-dev/bower/internal/workspace"
)

func newPrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pr",
		Short:   "Pull request status and creation",
		GroupID: GroupRemote,
		Long: `Read and create pull requests through the forge CLI (gh or glab).

Status lookups are reads and always allowed. Creating a PR is a remote
write: it requires a read-write fork binding in the remote policy and
is denied fail-closed otherwise.`,
	}

	cmd.AddCommand(newPrStatusCmd())
	cmd.AddCommand(newPrCreateCmd())

	return cmd
}

func prForge(cmd *cobra.Command, ws *workspace.Workspace) (forge.Forge, string, error) {
	ctx := cmd.Context()

	originURL, err := git.OriginURL(ctx, ws.RepoDir)
	if err != nil {
		return nil, "", fmt.Errorf("read origin URL: %w", err)
	}

	var hosts map[string]string
	if cfg != nil {
		hosts = cfg.Hosts
	}
	f := forge.Detect(originURL, hosts)
	if cfg != nil && cfg.Forge.Type != "" && len(hosts) == 0 {
		f = forge.ByName(cfg.Forge.Type)
	}

	if err := f.Check(ctx); err != nil {
		return nil, "", err
	}
	return f, originURL, nil
}

func newPrStatusCmd() *cobra.Command {
	var (
		jsonOutput bool
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "status <branch>",
		Short: "Show the PR associated with a branch",
		Args:  cobra.ExactArgs(1),
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

			cache := prcache.Load(ws)
			pr := cache.Get(entry.Branch)
			if pr == nil || refresh {
				f, originURL, err := prForge(cmd, ws)
				if err != nil {
					return err
				}
				pr, err = f.PRForBranch(ctx, originURL, entry.Branch)
				if err != nil {
					return err
				}
				cache.Set(entry.Branch, pr)
				if err := cache.Save(ws); err != nil {
					log.FromContext(ctx).Debug("pr cache save failed", "err", err)
				}
			}

			if jsonOutput {
				return out.JSON(pr)
			}

			if !pr.Found {
				out.Printf("No PR for %s\n", entry.Branch)
				return nil
			}
			draft := ""
			if pr.IsDraft {
				draft = " (draft)"
			}
			out.Printf("#%d %s%s by %s\n%s\n", pr.Number, pr.State, draft, pr.Author, pr.URL)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&refresh, "refresh", "R", false, "Bypass the cached lookup")

	return cmd
}

func newPrCreateCmd() *cobra.Command {
	var (
		title string
		body  string
		base  string
		draft bool
	)

	cmd := &cobra.Command{
		Use:   "create <branch>",
		Short: "Create a PR for a branch (requires a writable fork binding)",
		Args:  cobra.ExactArgs(1),
		Example: `  bower pr create feat-auth --title "Add auth" --body "..."
  bower pr create feat-auth --title "Add auth" --draft`,
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

			policy, err := remote.Load(ws)
			if err != nil {
				return err
			}
			fork := policy.Fork()
			if fork == nil {
				return fmt.Errorf("%w: no read-write fork bound (see 'bower remote bind')", workspace.ErrForbiddenRemote)
			}
			if err := policy.Authorize(fork.Name, remote.OpCreatePR); err != nil {
				return err
			}

			f, originURL, err := prForge(cmd, ws)
			if err != nil {
				return err
			}

			result, err := f.CreatePR(ctx, originURL, forge.CreatePRParams{
				Title: title,
				Body:  body,
				Base:  base,
				Head:  entry.Branch,
				Draft: draft,
			})
			if err != nil {
				return err
			}

			// Invalidate the cached lookup so status sees the new PR.
			cache := prcache.Load(ws)
			cache.Drop(entry.Branch)
			if err := cache.Save(ws); err != nil {
				log.FromContext(ctx).Debug("pr cache save failed", "err", err)
			}

			out.Printf("Created #%d: %s\n", result.Number, result.URL)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "PR title")
	cmd.Flags().StringVarP(&body, "body", "b", "", "PR body")
	cmd.Flags().StringVar(&base, "base", "", "PR base branch (default: repo default)")
	cmd.Flags().BoolVar(&draft, "draft", false, "Create as draft")
	cmd.MarkFlagRequired("title")

	return cmd
}
