// Package registry manages the worktree inventory persisted at
// <root>/.bower/registry.json.
//
// The registry is a cache of the workspace layout, never the sole source
// of truth: doctor can rebuild it from the filesystem and the repository's
// own worktree metadata. All mutations go through Mutate, which serializes
// on a single flock — this is the one place branch-name allocation needs
// true mutual exclusion.
package registry

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bower-dev/bower/internal/storage"
	"github.com/bower-dev/bower/internal/workspace"
)

// Entry is one registered worktree.
type Entry struct {
	Branch    string          `json:"branch"`
	Path      string          `json:"path"`
	Base      string          `json:"base"`     // base reference at creation time
	BaseSHA   string          `json:"base_sha"` // resolved at creation time
	State     workspace.State `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
}

// Registry holds all registered worktrees.
type Registry struct {
	Entries []Entry `json:"worktrees"`
}

// Load reads the registry for the workspace.
// Returns an empty registry if the file doesn't exist.
func Load(ws *workspace.Workspace) (*Registry, error) {
	var reg Registry
	if err := storage.LoadJSON(ws.RegistryPath(), &reg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Registry{}, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return &reg, nil
}

// Save writes the registry atomically.
func (r *Registry) Save(ws *workspace.Workspace) error {
	if err := storage.SaveJSON(ws.RegistryPath(), r); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}

// Mutate loads the registry under the registry flock, applies fn, and
// saves the result if fn succeeds. Concurrent mutations serialize here,
// so two creates for the same branch resolve deterministically: one wins,
// the other observes the winner's entry.
func Mutate(ws *workspace.Workspace, fn func(*Registry) error) error {
	lock := storage.NewFileLock(ws.RegistryLockPath())
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire registry lock: %w", err)
	}
	defer lock.Unlock()

	reg, err := Load(ws)
	if err != nil {
		return err
	}
	if err := fn(reg); err != nil {
		return err
	}
	return reg.Save(ws)
}

// Find returns the entry for branch, or nil.
func (r *Registry) Find(branch string) *Entry {
	for i := range r.Entries {
		if r.Entries[i].Branch == branch {
			return &r.Entries[i]
		}
	}
	return nil
}

// Add registers a new worktree entry. Returns ErrBranchInUse if the branch
// already has an entry.
func (r *Registry) Add(e Entry) error {
	if r.Find(e.Branch) != nil {
		return fmt.Errorf("%w: %s", workspace.ErrBranchInUse, e.Branch)
	}
	r.Entries = append(r.Entries, e)
	return nil
}

// Remove drops the entry for branch. Removing an absent entry is a no-op.
func (r *Registry) Remove(branch string) {
	for i := range r.Entries {
		if r.Entries[i].Branch == branch {
			r.Entries = append(r.Entries[:i], r.Entries[i+1:]...)
			return
		}
	}
}

// SetState validates and applies a lifecycle transition for branch.
func (r *Registry) SetState(branch string, to workspace.State) error {
	e := r.Find(branch)
	if e == nil {
		return fmt.Errorf("%w: %s", workspace.ErrNotFound, branch)
	}
	next, err := workspace.Transition(e.State, to)
	if err != nil {
		return fmt.Errorf("%s: %w", branch, err)
	}
	e.State = next
	return nil
}

// Branches returns all registered branch names.
func (r *Registry) Branches() []string {
	names := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		names[i] = e.Branch
	}
	return names
}
