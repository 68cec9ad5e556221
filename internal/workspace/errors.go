package workspace

import "errors"

// Error kinds returned by the orchestration core. All validation failures
// are detected before any mutating action is taken.
var (
	// ErrBranchInUse indicates the branch name already maps to an existing
	// worktree somewhere in the workspace.
	ErrBranchInUse = errors.New("branch already checked out in another worktree")

	// ErrInvalidBase indicates the base reference does not resolve in the
	// shared repository.
	ErrInvalidBase = errors.New("base reference does not resolve")

	// ErrNotFound indicates no worktree exists for the branch name.
	ErrNotFound = errors.New("worktree not found")

	// ErrActiveOperation indicates a retarget is pending for the worktree,
	// or a build is currently writing into its share of the build cache.
	ErrActiveOperation = errors.New("operation already in progress for this worktree")

	// ErrPathEscapesWorkspace indicates a path resolves outside the
	// workspace root. Artifacts outside the root cannot be reliably
	// cleaned up, so this is a hard failure, never a redirect.
	ErrPathEscapesWorkspace = errors.New("path resolves outside the workspace root")

	// ErrForbiddenRemote indicates a write operation targeted a remote
	// that is not the read-write fork binding.
	ErrForbiddenRemote = errors.New("remote is not writable")

	// ErrConflictDuringReplay indicates a content conflict while replaying
	// commits onto the new base. The pre-retarget state remains intact.
	ErrConflictDuringReplay = errors.New("conflict while replaying commits")

	// ErrIllegalTransition indicates a worktree state change outside the
	// documented lifecycle.
	ErrIllegalTransition = errors.New("illegal worktree state transition")
)
