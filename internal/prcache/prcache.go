// Package prcache caches PR lookups per workspace so repeated status
// checks don't hit the forge CLI every time. Entries are keyed by
// branch and stored under the workspace state directory.
package prcache

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/bower-dev/bower/internal/forge"
	"github.com/bower-dev/bower/internal/storage"
	"github.com/bower-dev/bower/internal/workspace"
)

// MaxAge is how long a cached PR lookup stays fresh.
const MaxAge = time.Hour

// Cache stores PR info keyed by branch.
type Cache struct {
	PRs map[string]*forge.PRInfo `json:"prs"`
}

// Path returns the cache file for the workspace.
func Path(ws *workspace.Workspace) string {
	return filepath.Join(ws.StateDir(), "prs.json")
}

// Load reads the workspace's PR cache. A missing or corrupted file
// yields an empty cache.
func Load(ws *workspace.Workspace) *Cache {
	var c Cache
	if err := storage.LoadJSON(Path(ws), &c); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &Cache{PRs: map[string]*forge.PRInfo{}}
	}
	if c.PRs == nil {
		c.PRs = map[string]*forge.PRInfo{}
	}
	return &c
}

// Save persists the cache atomically.
func (c *Cache) Save(ws *workspace.Workspace) error {
	return storage.SaveJSON(Path(ws), c)
}

// Get returns the fresh cached entry for branch, or nil if absent or
// stale.
func (c *Cache) Get(branch string) *forge.PRInfo {
	pr := c.PRs[branch]
	if pr == nil || time.Since(pr.FetchedAt) > MaxAge {
		return nil
	}
	return pr
}

// Set stores PR info for branch.
func (c *Cache) Set(branch string, pr *forge.PRInfo) {
	c.PRs[branch] = pr
}

// Drop removes the entry for branch.
func (c *Cache) Drop(branch string) {
	delete(c.PRs, branch)
}
