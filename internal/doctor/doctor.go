// Package doctor audits the workspace bookkeeping against what git and
// the filesystem actually hold, and can repair the drift. The registry
// is derived state: every fix rebuilds it from the worktree layout
// rather than trusting the stored entries.
package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bower-dev/bower/internal/buildcache"
	"github.com/bower-dev/bower/internal/git"
	"github.com/bower-dev/bower/internal/log"
	"github.com/bower-dev/bower/internal/output"
	"github.com/bower-dev/bower/internal/registry"
	"github.com/bower-dev/bower/internal/retarget"
	"github.com/bower-dev/bower/internal/workspace"
)

const backupRefPrefix = "refs/bower/backup"

// Run performs diagnostic checks and optionally fixes the issues found.
func Run(ctx context.Context, ws *workspace.Workspace, fix bool) error {
	out := output.FromContext(ctx)

	issues, stats, err := check(ctx, ws)
	if err != nil {
		return err
	}

	printSummary(ctx, stats)

	if len(issues) == 0 {
		out.Println("\nNo issues found")
		return nil
	}

	out.Printf("\nFound %d issue(s):\n", len(issues))
	for _, issue := range issues {
		out.Printf("  [%s] %s (fix: %s)\n", issue.Category, issue.Description, issue.FixAction)
	}

	if !fix {
		out.Println("\nRun 'bower doctor --fix' to repair.")
		return nil
	}
	return fixAll(ctx, ws, issues)
}

func check(ctx context.Context, ws *workspace.Workspace) ([]Issue, IssueStats, error) {
	var issues []Issue
	var stats IssueStats

	reg, err := registry.Load(ws)
	if err != nil {
		return nil, stats, err
	}

	worktrees, err := git.ListWorktrees(ctx, ws.RepoDir)
	if err != nil {
		return nil, stats, err
	}

	live := map[string]git.WorktreeInfo{} // branch -> info, main excluded
	for _, wt := range worktrees {
		if wt.Main || wt.Branch == "" {
			continue
		}
		live[wt.Branch] = wt
	}

	for _, e := range reg.Entries {
		wt, ok := live[e.Branch]
		if !ok {
			stats.RegistryGhost++
			issues = append(issues, Issue{
				Branch:      e.Branch,
				Description: fmt.Sprintf("registry entry %s has no git worktree", e.Branch),
				FixAction:   "rebuild registry",
				Category:    CategoryRegistry,
			})
			continue
		}
		stats.RegistryHealthy++

		if _, err := os.Stat(filepath.Join(wt.Path, buildcache.ConfigFileName)); os.IsNotExist(err) {
			stats.CacheUnbound++
			issues = append(issues, Issue{
				Branch:      e.Branch,
				Description: fmt.Sprintf("worktree %s lost its build-cache binding", e.Branch),
				FixAction:   "rebind cache",
				Category:    CategoryCache,
			})
		}
	}

	for branch := range live {
		if reg.Find(branch) == nil {
			stats.RegistryMissing++
			issues = append(issues, Issue{
				Branch:      branch,
				Description: fmt.Sprintf("git worktree %s is not in the registry", branch),
				FixAction:   "rebuild registry",
				Category:    CategoryRegistry,
			})
		}
	}

	// Retarget records for branches that no longer exist, or that
	// already resolved, are dead weight. A replayed-unsigned record is
	// still live while the worktree head sits on the new base: the
	// backup ref is what keeps the pre-retarget commits reachable until
	// the external signer finalizes.
	retargetDir := filepath.Join(ws.StateDir(), "retargets")
	entries, err := os.ReadDir(retargetDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, stats, err
	}
	liveRetargets := map[string]bool{}
	for _, de := range entries {
		branch := strings.TrimSuffix(de.Name(), ".json")
		op, err := retarget.LoadOperation(ws, branch)

		var stale bool
		switch {
		case err != nil:
			stale = true
		case reg.Find(op.Branch) == nil:
			stale = true
		case op.Outcome == retarget.OutcomePending, op.Outcome == retarget.OutcomeConflicted:
		case op.Outcome == retarget.OutcomeReplayed:
			head, headErr := git.HeadSHA(ctx, op.WorktreePath)
			stale = headErr == nil && head != op.NewBaseSHA
		default:
			stale = true
		}

		if stale {
			stats.RetargetStale++
			issues = append(issues, Issue{
				Branch:      branch,
				Description: fmt.Sprintf("stale retarget record for %s", branch),
				FixAction:   "remove record",
				Category:    CategoryRetarget,
			})
			continue
		}
		liveRetargets[branch] = true
	}

	refs, err := git.RefsWithPrefix(ctx, ws.RepoDir, backupRefPrefix)
	if err != nil {
		return nil, stats, err
	}
	for _, ref := range refs {
		branch := strings.TrimPrefix(ref, backupRefPrefix+"/")
		if !liveRetargets[branch] {
			stats.BackupRefStale++
			issues = append(issues, Issue{
				Branch:      branch,
				Description: fmt.Sprintf("backup ref %s has no retarget awaiting resolution", ref),
				FixAction:   "delete ref",
				Category:    CategoryRetarget,
			})
		}
	}

	return issues, stats, nil
}

func fixAll(ctx context.Context, ws *workspace.Workspace, issues []Issue) error {
	out := output.FromContext(ctx)

	var rebuild bool
	for _, issue := range issues {
		switch issue.FixAction {
		case "rebuild registry":
			rebuild = true
		case "rebind cache":
			cache := buildcache.New(ws, "")
			reg, err := registry.Load(ws)
			if err != nil {
				return err
			}
			if e := reg.Find(issue.Branch); e != nil {
				if err := cache.Bind(e.Path); err != nil {
					return fmt.Errorf("rebind cache for %s: %w", issue.Branch, err)
				}
				out.Printf("Rebound cache for %s\n", issue.Branch)
			}
		case "remove record":
			if err := os.Remove(ws.RetargetPath(issue.Branch)); err != nil && !os.IsNotExist(err) {
				return err
			}
			out.Printf("Removed stale retarget record for %s\n", issue.Branch)
		case "delete ref":
			ref := backupRefPrefix + "/" + issue.Branch
			if err := git.DeleteRef(ctx, ws.RepoDir, ref); err != nil {
				return err
			}
			out.Printf("Deleted %s\n", ref)
		}
	}

	if rebuild {
		if err := Rebuild(ctx, ws); err != nil {
			return err
		}
		out.Println("Rebuilt registry from the worktree layout")
	}
	return nil
}

// Rebuild re-derives the registry from git's worktree list, discarding
// stored entries that no longer correspond to a live worktree. Entries
// that survive keep their recorded base; recovered ones get their head
// as the base, which a later retarget can correct.
func Rebuild(ctx context.Context, ws *workspace.Workspace) error {
	worktrees, err := git.ListWorktrees(ctx, ws.RepoDir)
	if err != nil {
		return err
	}

	return registry.Mutate(ws, func(r *registry.Registry) error {
		prior := map[string]registry.Entry{}
		for _, e := range r.Entries {
			prior[e.Branch] = e
		}

		r.Entries = nil
		for _, wt := range worktrees {
			if wt.Main || wt.Branch == "" {
				continue
			}
			if old, ok := prior[wt.Branch]; ok {
				old.Path = wt.Path
				if err := r.Add(old); err != nil {
					return err
				}
				continue
			}
			head, err := git.HeadSHA(ctx, wt.Path)
			if err != nil {
				return err
			}
			if err := r.Add(registry.Entry{
				Branch:  wt.Branch,
				Path:    wt.Path,
				BaseSHA: head,
				State:   workspace.StateActive,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func printSummary(ctx context.Context, stats IssueStats) {
	out := output.FromContext(ctx)
	l := log.FromContext(ctx)

	out.Printf("Registry: %d healthy, %d ghost, %d unregistered\n",
		stats.RegistryHealthy, stats.RegistryGhost, stats.RegistryMissing)
	out.Printf("Retarget: %d stale record(s), %d stale backup ref(s)\n",
		stats.RetargetStale, stats.BackupRefStale)
	out.Printf("Cache: %d unbound worktree(s)\n", stats.CacheUnbound)

	l.Debug("doctor summary",
		"healthy", stats.RegistryHealthy,
		"ghost", stats.RegistryGhost,
		"missing", stats.RegistryMissing)
}
