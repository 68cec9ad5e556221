// Package workspace defines the workspace root layout shared by every
// bower component, the worktree lifecycle state machine, and the error
// kinds of the orchestration core.
//
// A workspace is one directory containing the single shared repository,
// the shared build-artifact cache, one subdirectory per worktree, and the
// orchestrator's own state under .bower/. The state files are a cache of
// the layout: everything in them can be re-derived by scanning the root.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// RepoDirName is the directory holding the shared repository.
	RepoDirName = "repo"

	// CacheDirName is the directory holding the shared build cache.
	CacheDirName = "cache"

	stateDirName = ".bower"
)

// Workspace is the explicit root context passed to every component.
// Exactly one exists per process; there is no ambient global.
type Workspace struct {
	// Root is the absolute workspace root directory.
	Root string

	// RepoDir is the shared repository checkout (Root/repo). All worktrees
	// reference its object store; the store is never copied.
	RepoDir string

	// CacheDir is the shared build-artifact cache (Root/cache).
	CacheDir string
}

// Init creates the workspace layout at root. The shared repository at
// Root/repo must already exist (clone it first); Init creates the cache
// and state directories around it.
func Init(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}

	repoDir := filepath.Join(abs, RepoDirName)
	if _, err := os.Stat(repoDir); err != nil {
		return nil, fmt.Errorf("shared repository missing at %s: %w", repoDir, err)
	}

	for _, dir := range []string{
		filepath.Join(abs, CacheDirName),
		filepath.Join(abs, CacheDirName, "locks"),
		filepath.Join(abs, stateDirName),
		filepath.Join(abs, stateDirName, "locks"),
		filepath.Join(abs, stateDirName, "retargets"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	return Open(abs)
}

// Open validates and returns the workspace at root.
//
// Inability to read the root is the one fatal error of the core: no
// invariant can be guaranteed without it, so callers should abort.
func Open(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}

	if _, err := os.ReadDir(abs); err != nil {
		return nil, fmt.Errorf("read workspace root: %w", err)
	}

	w := &Workspace{
		Root:     abs,
		RepoDir:  filepath.Join(abs, RepoDirName),
		CacheDir: filepath.Join(abs, CacheDirName),
	}

	if _, err := os.Stat(w.RepoDir); err != nil {
		return nil, fmt.Errorf("workspace has no shared repository at %s: %w", w.RepoDir, err)
	}

	return w, nil
}

// Find walks up from dir looking for an initialized workspace root,
// identified by the state directory next to the shared repository.
func Find(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		_, stateErr := os.Stat(filepath.Join(abs, stateDirName))
		_, repoErr := os.Stat(filepath.Join(abs, RepoDirName))
		if stateErr == nil && repoErr == nil {
			return abs, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("no workspace found above %s (run 'bower init' first)", dir)
		}
		abs = parent
	}
}

// StateDir returns the orchestrator state directory (Root/.bower).
func (w *Workspace) StateDir() string {
	return filepath.Join(w.Root, stateDirName)
}

// RegistryPath returns the path of the worktree registry file.
func (w *Workspace) RegistryPath() string {
	return filepath.Join(w.StateDir(), "registry.json")
}

// RegistryLockPath returns the lock file serializing registry mutations.
// Branch-name allocation goes through this single point.
func (w *Workspace) RegistryLockPath() string {
	return filepath.Join(w.StateDir(), "registry.lock")
}

// BranchLockPath returns the per-branch lock file. Destructive operations
// targeting the same branch serialize on it; different branches proceed in
// parallel.
func (w *Workspace) BranchLockPath(branch string) string {
	return filepath.Join(w.StateDir(), "locks", SanitizeBranch(branch)+".lock")
}

// RetargetPath returns the file persisting a branch's retarget operation.
func (w *Workspace) RetargetPath(branch string) string {
	return filepath.Join(w.StateDir(), "retargets", SanitizeBranch(branch)+".json")
}

// RemotesPath returns the file persisting remote bindings.
func (w *Workspace) RemotesPath() string {
	return filepath.Join(w.StateDir(), "remotes.json")
}

// CacheLockPath returns the lock file a build holds while writing into the
// shared cache on behalf of a branch.
func (w *Workspace) CacheLockPath(branch string) string {
	return filepath.Join(w.CacheDir, "locks", SanitizeBranch(branch)+".lock")
}

// BranchDir returns the worktree directory for a branch, always a direct
// child of the workspace root.
func (w *Workspace) BranchDir(branch string) string {
	return filepath.Join(w.Root, SanitizeBranch(branch))
}

// SanitizeBranch maps a branch name to a directory name ("/" -> "-").
func SanitizeBranch(branch string) string {
	return strings.ReplaceAll(branch, "/", "-")
}

// Contains reports whether path resolves inside the workspace root, with
// symlinks resolved on both sides. Non-existent trailing components are
// resolved against their deepest existing ancestor.
func (w *Workspace) Contains(path string) (bool, error) {
	root, err := filepath.EvalSymlinks(w.Root)
	if err != nil {
		return false, fmt.Errorf("resolve workspace root: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}

	resolved, err := resolveExisting(abs)
	if err != nil {
		return false, err
	}

	if resolved == root {
		return true, nil
	}
	return strings.HasPrefix(resolved, root+string(filepath.Separator)), nil
}

// resolveExisting resolves symlinks in the deepest existing ancestor of
// path and rejoins the non-existent remainder.
func resolveExisting(path string) (string, error) {
	var tail []string
	cur := path
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		tail = append(tail, filepath.Base(cur))
		cur = parent
	}
}
