// Package buildcache coordinates the shared build-artifact cache every
// worktree points at.
//
// The coordinator guarantees two things only: every worktree is configured
// identically, and the configured cache path never resolves outside the
// workspace root. Artifact-level write races are the build tool's own
// concern; it is assumed to lock shared artifact paths itself.
package buildcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bower-dev/bower/internal/storage"
	"github.com/bower-dev/bower/internal/workspace"
)

// ConfigFileName is the per-worktree file pointing the build tool at the
// shared cache. Build tooling sources it as environment assignments.
const ConfigFileName = ".bower-cache.env"

// EnvCacheDir is the environment variable naming the shared cache.
const EnvCacheDir = "BOWER_BUILD_CACHE"

// Coordinator binds worktrees to one shared cache directory.
type Coordinator struct {
	ws       *workspace.Workspace
	cacheDir string
}

// New creates a coordinator for the workspace. An empty cacheDir selects
// the workspace default (<root>/cache).
func New(ws *workspace.Workspace, cacheDir string) *Coordinator {
	if cacheDir == "" {
		cacheDir = ws.CacheDir
	}
	return &Coordinator{ws: ws, cacheDir: cacheDir}
}

// CacheDir returns the shared cache directory.
func (c *Coordinator) CacheDir() string {
	return c.cacheDir
}

// Bind writes the configuration pointing the worktree's build tool at the
// shared cache. Fails with ErrPathEscapesWorkspace if the resolved cache
// path is not contained within the workspace root — artifacts outside the
// root cannot be reliably cleaned up.
func (c *Coordinator) Bind(worktreePath string) error {
	inside, err := c.ws.Contains(c.cacheDir)
	if err != nil {
		return fmt.Errorf("resolve cache path: %w", err)
	}
	if !inside {
		return fmt.Errorf("%w: cache path %s", workspace.ErrPathEscapesWorkspace, c.cacheDir)
	}

	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	content := fmt.Sprintf("%s=%s\n", EnvCacheDir, c.cacheDir)
	path := filepath.Join(worktreePath, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write cache config: %w", err)
	}

	if err := c.excludeFromStatus(); err != nil {
		return fmt.Errorf("exclude cache config from status: %w", err)
	}
	return nil
}

// excludeFromStatus registers the binding file in the repository's
// shared exclude list (info/exclude lives in the common git dir, so one
// entry covers every worktree). Without it a freshly bound worktree
// would read as dirty forever.
func (c *Coordinator) excludeFromStatus() error {
	infoDir := filepath.Join(c.ws.RepoDir, ".git", "info")
	excludePath := filepath.Join(infoDir, "exclude")
	pattern := "/" + ConfigFileName

	data, err := os.ReadFile(excludePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == pattern {
			return nil
		}
	}

	if err := os.MkdirAll(infoDir, 0o755); err != nil {
		return err
	}
	entry := pattern + "\n"
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		entry = "\n" + entry
	}
	f, err := os.OpenFile(excludePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(entry); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Env returns the environment assignments a build launched in a bound
// worktree should inherit.
func (c *Coordinator) Env() []string {
	return []string{EnvCacheDir + "=" + c.cacheDir}
}

// AcquireBuildLock takes the branch's cache lock for the duration of a
// build. Remove refuses to interrupt a build holding this lock.
func (c *Coordinator) AcquireBuildLock(branch string) (func(), error) {
	lock := storage.NewFileLock(c.ws.CacheLockPath(branch))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("acquire build lock for %s: %w", branch, err)
	}
	return func() { _ = lock.Unlock() }, nil
}

// ActiveBuild reports whether a build currently holds the branch's cache
// lock. The probe never blocks.
func (c *Coordinator) ActiveBuild(branch string) bool {
	lock := storage.NewFileLock(c.ws.CacheLockPath(branch))
	if err := lock.TryLock(); err != nil {
		return errors.Is(err, storage.ErrLockHeld)
	}
	lock.Unlock()
	return false
}

// BoundCacheDir reads the cache directory a worktree is configured with,
// or "" if the worktree has no binding yet.
func BoundCacheDir(worktreePath string) string {
	data, err := os.ReadFile(filepath.Join(worktreePath, ConfigFileName))
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if rest, ok := strings.CutPrefix(line, EnvCacheDir+"="); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
