// Package lifecycle creates, lists, and removes the isolated worktrees
// bound to the workspace's shared repository.
package lifecycle

import (
	"context"
	"fmt"
	"iter"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bower-dev/bower/internal/buildcache"
	"github.com/bower-dev/bower/internal/git"
	"github.com/bower-dev/bower/internal/log"
	"github.com/bower-dev/bower/internal/registry"
	"github.com/bower-dev/bower/internal/retarget"
	"github.com/bower-dev/bower/internal/workspace"
)

// Worktree is the manager's view of one registered worktree.
type Worktree struct {
	Branch        string          `json:"branch"`
	Path          string          `json:"path"`
	Base          string          `json:"base"`
	BaseSHA       string          `json:"base_sha"`
	State         workspace.State `json:"state"`
	CreatedAt     time.Time       `json:"created_at"`
	Dirty         bool            `json:"dirty"`
	UniqueCommits int             `json:"unique_commits"`
}

// Manager owns worktree lifecycle operations for one workspace.
type Manager struct {
	ws    *workspace.Workspace
	cache *buildcache.Coordinator
}

// New creates a manager for the workspace.
func New(ws *workspace.Workspace, cache *buildcache.Coordinator) *Manager {
	return &Manager{ws: ws, cache: cache}
}

func validBranchName(branch string) error {
	switch {
	case branch == "", strings.HasPrefix(branch, "-"),
		strings.Contains(branch, ".."), strings.HasSuffix(branch, "/"):
		return fmt.Errorf("invalid branch name %q", branch)
	}
	return nil
}

// Create allocates a worktree for a new branch started at base.
//
// Fails with ErrBranchInUse if the branch already maps to a worktree
// anywhere in the workspace, and with ErrInvalidBase if base does not
// resolve in the shared repository. Both are checked before anything is
// mutated. Branch-name allocation serializes through the registry lock,
// so concurrent creates for the same name resolve to exactly one winner.
func (m *Manager) Create(ctx context.Context, branch, base string) (*Worktree, error) {
	l := log.FromContext(ctx)

	if err := validBranchName(branch); err != nil {
		return nil, err
	}

	baseSHA, err := git.ResolveRef(ctx, m.ws.RepoDir, base)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", workspace.ErrInvalidBase, base)
	}

	path := m.ws.BranchDir(branch)
	entry := registry.Entry{
		Branch:    branch,
		Path:      path,
		Base:      base,
		BaseSHA:   baseSHA,
		State:     workspace.StateCreating,
		CreatedAt: time.Now(),
	}

	// Single serialization point for branch-name allocation.
	err = registry.Mutate(m.ws, func(r *registry.Registry) error {
		if r.Find(branch) != nil {
			return fmt.Errorf("%w: %s", workspace.ErrBranchInUse, branch)
		}
		// The registry is not the sole source of truth: a branch checked
		// out without an entry still blocks the name.
		if git.BranchExists(ctx, m.ws.RepoDir, branch) {
			return fmt.Errorf("%w: branch %s exists in the repository", workspace.ErrBranchInUse, branch)
		}
		if _, statErr := os.Stat(path); statErr == nil {
			return fmt.Errorf("%w: directory %s already exists", workspace.ErrBranchInUse, path)
		}
		return r.Add(entry)
	})
	if err != nil {
		return nil, err
	}

	l.Debug("creating worktree", "branch", branch, "base", base, "path", path)

	dropEntry := func() {
		_ = registry.Mutate(m.ws, func(r *registry.Registry) error {
			r.Remove(branch)
			return nil
		})
	}

	if err := git.AddWorktree(ctx, m.ws.RepoDir, path, branch, base); err != nil {
		dropEntry()
		return nil, fmt.Errorf("create worktree: %w", err)
	}

	if err := m.cache.Bind(path); err != nil {
		_ = git.RemoveWorktree(ctx, m.ws.RepoDir, path, true)
		_ = git.DeleteBranch(ctx, m.ws.RepoDir, branch)
		dropEntry()
		return nil, err
	}

	err = registry.Mutate(m.ws, func(r *registry.Registry) error {
		return r.SetState(branch, workspace.StateActive)
	})
	if err != nil {
		return nil, err
	}

	entry.State = workspace.StateActive
	return &Worktree{
		Branch:    entry.Branch,
		Path:      entry.Path,
		Base:      entry.Base,
		BaseSHA:   entry.BaseSHA,
		State:     entry.State,
		CreatedAt: entry.CreatedAt,
	}, nil
}

// All returns a lazy, restartable iterator over the registry reconciled
// against the filesystem. Each range re-scans; entries whose backing
// directory has vanished are yielded (and persisted) as Orphaned.
func (m *Manager) All(ctx context.Context) iter.Seq2[Worktree, error] {
	return func(yield func(Worktree, error) bool) {
		worktrees, err := m.List(ctx)
		if err != nil {
			yield(Worktree{}, err)
			return
		}
		for _, wt := range worktrees {
			if !yield(wt, nil) {
				return
			}
		}
	}
}

// List enumerates current registry entries with a reconciliation pass:
// vanished directories are flagged Orphaned (persisted), dirty status and
// unique-commit counts are gathered in parallel.
func (m *Manager) List(ctx context.Context) ([]Worktree, error) {
	reg, err := registry.Load(m.ws)
	if err != nil {
		return nil, err
	}

	worktrees := make([]Worktree, len(reg.Entries))
	var orphaned []string

	for i, e := range reg.Entries {
		wt := Worktree{
			Branch:    e.Branch,
			Path:      e.Path,
			Base:      e.Base,
			BaseSHA:   e.BaseSHA,
			State:     e.State,
			CreatedAt: e.CreatedAt,
		}
		if _, statErr := os.Stat(e.Path); os.IsNotExist(statErr) {
			if e.State != workspace.StateOrphaned {
				orphaned = append(orphaned, e.Branch)
			}
			wt.State = workspace.StateOrphaned
		}
		worktrees[i] = wt
	}

	// Persist newly observed orphans so prune can act on them later.
	if len(orphaned) > 0 {
		err := registry.Mutate(m.ws, func(r *registry.Registry) error {
			for _, branch := range orphaned {
				if e := r.Find(branch); e != nil && e.State != workspace.StateOrphaned {
					if err := r.SetState(branch, workspace.StateOrphaned); err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	// Gather per-worktree status in parallel, bounded.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range worktrees {
		if worktrees[i].State == workspace.StateOrphaned {
			continue
		}
		g.Go(func() error {
			wt := &worktrees[i]
			wt.Dirty = git.IsDirty(gctx, wt.Path)
			commits, err := git.UniqueCommits(gctx, m.ws.RepoDir, wt.BaseSHA, wt.Branch)
			if err == nil {
				wt.UniqueCommits = len(commits)
			}
			return nil
		})
	}
	_ = g.Wait() // status gathering is best effort

	return worktrees, nil
}

// Remove detaches the worktree and releases the branch name. Idempotent:
// removing an absent branch succeeds as a no-op so recovery scripts can
// re-run. Fails with ErrActiveOperation while a retarget is pending or a
// build holds the branch's cache lock.
func (m *Manager) Remove(ctx context.Context, branch string, force bool) error {
	unlock, err := registry.TryLockBranch(m.ws, branch)
	if err != nil {
		return err
	}
	defer unlock()

	reg, err := registry.Load(m.ws)
	if err != nil {
		return err
	}
	entry := reg.Find(branch)
	if entry == nil {
		// Already absent: idempotent cleanup.
		log.FromContext(ctx).Debug("remove of absent branch", "branch", branch)
		return nil
	}

	// Only a pending retarget blocks removal. A conflicted one is
	// abandonable: removing the worktree discards the operation.
	if op, opErr := retarget.LoadOperation(m.ws, branch); opErr == nil && op.Outcome == retarget.OutcomePending {
		return fmt.Errorf("%w: retarget pending for %s", workspace.ErrActiveOperation, branch)
	}
	if m.cache.ActiveBuild(branch) {
		return fmt.Errorf("%w: build writing to the shared cache for %s", workspace.ErrActiveOperation, branch)
	}

	if entry.State == workspace.StateOrphaned {
		return m.forget(ctx, branch)
	}

	if err := registry.Mutate(m.ws, func(r *registry.Registry) error {
		return r.SetState(branch, workspace.StateRemoving)
	}); err != nil {
		return err
	}

	if err := git.RemoveWorktree(ctx, m.ws.RepoDir, entry.Path, force); err != nil {
		// Roll the state back so the worktree stays addressable.
		_ = registry.Mutate(m.ws, func(r *registry.Registry) error {
			e := r.Find(branch)
			if e != nil {
				e.State = entry.State
			}
			return nil
		})
		return fmt.Errorf("remove worktree: %w", err)
	}

	return m.forget(ctx, branch)
}

// forget releases the branch name and drops registry bookkeeping.
func (m *Manager) forget(ctx context.Context, branch string) error {
	if git.BranchExists(ctx, m.ws.RepoDir, branch) {
		if err := git.DeleteBranch(ctx, m.ws.RepoDir, branch); err != nil {
			return fmt.Errorf("release branch %s: %w", branch, err)
		}
	}
	_ = git.PruneWorktrees(ctx, m.ws.RepoDir)
	_ = os.Remove(m.ws.RetargetPath(branch))
	_ = git.DeleteRef(ctx, m.ws.RepoDir, retarget.BackupRef(branch))

	return registry.Mutate(m.ws, func(r *registry.Registry) error {
		r.Remove(branch)
		return nil
	})
}

// Prune removes all Orphaned entries and reports the count removed.
// Running it twice with no intervening changes removes zero the second
// time.
func (m *Manager) Prune(ctx context.Context) (int, error) {
	reg, err := registry.Load(m.ws)
	if err != nil {
		return 0, err
	}

	var pruned int
	for _, e := range reg.Entries {
		if _, statErr := os.Stat(e.Path); !os.IsNotExist(statErr) {
			continue
		}
		unlock, err := registry.TryLockBranch(m.ws, e.Branch)
		if err != nil {
			continue // busy branches are left for the next run
		}
		if err := m.forget(ctx, e.Branch); err != nil {
			unlock()
			return pruned, err
		}
		unlock()
		pruned++
	}

	return pruned, nil
}
