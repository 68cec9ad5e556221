// Package retarget replays a worktree's unique commits onto a new base
// reference without finalizing them as commits.
//
// Commit finalization requires a signing capability this environment does
// not hold, so a successful replay ends in the replayed-unsigned outcome:
// content staged in the worktree, zero commits created, hand-off to the
// external signing authority. The pre-retarget branch tip is snapshotted
// into refs/bower/backup/<branch> before anything moves, so abort can
// always restore it byte for byte.
package retarget

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bower-dev/bower/internal/git"
	"github.com/bower-dev/bower/internal/log"
	"github.com/bower-dev/bower/internal/registry"
	"github.com/bower-dev/bower/internal/storage"
	"github.com/bower-dev/bower/internal/workspace"
)

// Outcome is the resolution state of a retarget operation.
type Outcome string

const (
	OutcomePending    Outcome = "pending"
	OutcomeReplayed   Outcome = "replayed-unsigned"
	OutcomeConflicted Outcome = "conflicted"
	OutcomeAborted    Outcome = "aborted"
)

// Operation is the transient record of one retarget.
type Operation struct {
	Branch       string       `json:"branch"`
	WorktreePath string       `json:"worktree_path"`
	OriginalBase string       `json:"original_base"`
	OriginalHead string       `json:"original_head"` // branch tip before the retarget
	NewBase      string       `json:"new_base"`
	NewBaseSHA   string       `json:"new_base_sha"`
	Commits      []git.Commit `json:"commits"` // oldest first
	Outcome      Outcome      `json:"outcome"`
	StartedAt    time.Time    `json:"started_at"`
}

// BackupRef returns the ref holding the pre-retarget branch tip.
func BackupRef(branch string) string {
	return "refs/bower/backup/" + workspace.SanitizeBranch(branch)
}

// Controller drives retarget operations for one workspace.
type Controller struct {
	ws *workspace.Workspace
}

// New creates a controller for the workspace.
func New(ws *workspace.Workspace) *Controller {
	return &Controller{ws: ws}
}

// LoadOperation reads the persisted operation for branch.
// Returns ErrNotFound if none exists.
func LoadOperation(ws *workspace.Workspace, branch string) (*Operation, error) {
	var op Operation
	if err := storage.LoadJSON(ws.RetargetPath(branch), &op); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no retarget operation for %s", workspace.ErrNotFound, branch)
		}
		return nil, fmt.Errorf("read retarget operation: %w", err)
	}
	return &op, nil
}

// Pending reports whether branch has an unresolved retarget operation.
func Pending(ws *workspace.Workspace, branch string) bool {
	op, err := LoadOperation(ws, branch)
	if err != nil {
		return false
	}
	return op.Outcome == OutcomePending || op.Outcome == OutcomeConflicted
}

func (c *Controller) save(op *Operation) error {
	return storage.SaveJSON(c.ws.RetargetPath(op.Branch), op)
}

// Begin computes the commits unique to the worktree relative to its
// original base and records a pending operation. Fails with ErrInvalidBase
// if newBase does not resolve and ErrActiveOperation if a retarget is
// already pending for the branch. The branch tip is snapshotted into the
// backup ref before the worktree state changes.
func (c *Controller) Begin(ctx context.Context, branch, newBase string) (*Operation, error) {
	unlock, err := registry.TryLockBranch(c.ws, branch)
	if err != nil {
		return nil, err
	}
	defer unlock()

	reg, err := registry.Load(c.ws)
	if err != nil {
		return nil, err
	}
	entry := reg.Find(branch)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", workspace.ErrNotFound, branch)
	}
	if Pending(c.ws, branch) {
		return nil, fmt.Errorf("%w: retarget already pending for %s", workspace.ErrActiveOperation, branch)
	}

	newBaseSHA, err := git.ResolveRef(ctx, c.ws.RepoDir, newBase)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", workspace.ErrInvalidBase, newBase)
	}

	if git.IsDirty(ctx, entry.Path) {
		return nil, fmt.Errorf("worktree %s has uncommitted changes; commit or discard them before retargeting", branch)
	}

	head, err := git.HeadSHA(ctx, entry.Path)
	if err != nil {
		return nil, fmt.Errorf("read worktree head: %w", err)
	}

	commits, err := git.UniqueCommits(ctx, c.ws.RepoDir, entry.BaseSHA, branch)
	if err != nil {
		return nil, err
	}

	// Snapshot before anything mutates: abort reconstructs from this ref.
	if err := git.UpdateRef(ctx, c.ws.RepoDir, BackupRef(branch), head); err != nil {
		return nil, fmt.Errorf("snapshot branch tip: %w", err)
	}

	if err := registry.Mutate(c.ws, func(r *registry.Registry) error {
		return r.SetState(branch, workspace.StateRetargeting)
	}); err != nil {
		_ = git.DeleteRef(ctx, c.ws.RepoDir, BackupRef(branch))
		return nil, err
	}

	op := &Operation{
		Branch:       branch,
		WorktreePath: entry.Path,
		OriginalBase: entry.Base,
		OriginalHead: head,
		NewBase:      newBase,
		NewBaseSHA:   newBaseSHA,
		Commits:      commits,
		Outcome:      OutcomePending,
		StartedAt:    time.Now(),
	}
	if err := c.save(op); err != nil {
		return nil, err
	}

	log.FromContext(ctx).Debug("retarget begun",
		"branch", branch, "newBase", newBase, "commits", len(commits))
	return op, nil
}

// Replay resets the worktree to the new base and applies each stored
// commit's content changes in order without committing them.
//
// On success the operation ends replayed-unsigned: changes staged, zero
// commits finalized, awaiting the external signer. On a content conflict
// the operation ends conflicted with the conflict markers left in place
// for inspection; the pre-retarget state stays recoverable via Abort.
func (c *Controller) Replay(ctx context.Context, op *Operation) (*Operation, error) {
	if op.Outcome != OutcomePending {
		return op, fmt.Errorf("cannot replay operation in state %s", op.Outcome)
	}

	unlock, err := registry.LockBranch(c.ws, op.Branch)
	if err != nil {
		return op, err
	}
	defer unlock()

	if err := git.ResetHard(ctx, op.WorktreePath, op.NewBaseSHA); err != nil {
		return op, fmt.Errorf("reset to new base: %w", err)
	}

	for _, commit := range op.Commits {
		if err := git.CherryPickNoCommit(ctx, op.WorktreePath, commit.SHA); err != nil {
			op.Outcome = OutcomeConflicted
			if saveErr := c.save(op); saveErr != nil {
				return op, saveErr
			}
			if stateErr := registry.Mutate(c.ws, func(r *registry.Registry) error {
				return r.SetState(op.Branch, workspace.StateConflicted)
			}); stateErr != nil {
				return op, stateErr
			}
			return op, fmt.Errorf("%w: %s (%s)", workspace.ErrConflictDuringReplay, commit.SHA[:min(12, len(commit.SHA))], commit.Subject)
		}
	}

	op.Outcome = OutcomeReplayed
	if err := c.save(op); err != nil {
		return op, err
	}
	if err := registry.Mutate(c.ws, func(r *registry.Registry) error {
		return r.SetState(op.Branch, workspace.StateActive)
	}); err != nil {
		return op, err
	}

	log.FromContext(ctx).Debug("retarget replayed",
		"branch", op.Branch, "commits", len(op.Commits))
	return op, nil
}

// Abort restores the worktree to its pre-retarget state from the backup
// ref and discards the operation. Valid only while the operation is
// unresolved: a finished replay holds staged changes awaiting the
// external signer, and rolling those back would destroy them.
func (c *Controller) Abort(ctx context.Context, op *Operation) error {
	if op.Outcome != OutcomePending && op.Outcome != OutcomeConflicted {
		return fmt.Errorf("cannot abort operation in state %s: staged changes await the external signer", op.Outcome)
	}

	unlock, err := registry.LockBranch(c.ws, op.Branch)
	if err != nil {
		return err
	}
	defer unlock()

	// Clear any in-flight cherry-pick bookkeeping before moving the tree.
	git.CherryPickQuit(ctx, op.WorktreePath)

	if err := git.ResetHard(ctx, op.WorktreePath, op.OriginalHead); err != nil {
		return fmt.Errorf("restore original head: %w", err)
	}

	err = registry.Mutate(c.ws, func(r *registry.Registry) error {
		e := r.Find(op.Branch)
		if e == nil {
			return nil
		}
		if e.State == workspace.StateRetargeting || e.State == workspace.StateConflicted {
			return r.SetState(op.Branch, workspace.StateActive)
		}
		return nil
	})
	if err != nil {
		return err
	}

	_ = git.DeleteRef(ctx, c.ws.RepoDir, BackupRef(op.Branch))

	op.Outcome = OutcomeAborted
	if err := os.Remove(c.ws.RetargetPath(op.Branch)); err != nil && !os.IsNotExist(err) {
		return err
	}

	log.FromContext(ctx).Debug("retarget aborted", "branch", op.Branch)
	return nil
}
