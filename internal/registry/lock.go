package registry

import (
	"fmt"

	"github.com/bower-dev/bower/internal/storage"
	"github.com/bower-dev/bower/internal/workspace"
)

// LockBranch acquires the per-branch lock, blocking until it is free.
// Destructive operations (remove, prune, entering a retarget) hold it so
// that operations on the same branch serialize while different branches
// proceed in parallel. Caller must call the returned unlock.
func LockBranch(ws *workspace.Workspace, branch string) (func(), error) {
	lock := storage.NewFileLock(ws.BranchLockPath(branch))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("acquire lock for %s: %w", branch, err)
	}
	return func() { _ = lock.Unlock() }, nil
}

// TryLockBranch acquires the per-branch lock without blocking.
// Returns ErrActiveOperation if another operation holds it.
func TryLockBranch(ws *workspace.Workspace, branch string) (func(), error) {
	lock := storage.NewFileLock(ws.BranchLockPath(branch))
	if err := lock.TryLock(); err != nil {
		if err == storage.ErrLockHeld {
			return nil, fmt.Errorf("%w: %s", workspace.ErrActiveOperation, branch)
		}
		return nil, fmt.Errorf("acquire lock for %s: %w", branch, err)
	}
	return func() { _ = lock.Unlock() }, nil
}
