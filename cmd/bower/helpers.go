package main

import (
	"github.com/bower-dev/bower/internal/buildcache"
	"github.com/bower-dev/bower/internal/lifecycle"
	"github.com/bower-dev/bower/internal/workspace"
)

// openWorkspace resolves the workspace root and opens it. Resolution
// order: --workspace flag, config workspace_root, walking up from the
// working directory.
func openWorkspace() (*workspace.Workspace, error) {
	if workspaceFlag != "" {
		return workspace.Open(workspaceFlag)
	}
	if cfg != nil && cfg.WorkspaceRoot != "" {
		if ws, err := workspace.Open(cfg.WorkspaceRoot); err == nil {
			return ws, nil
		}
	}

	root, err := workspace.Find(workDir)
	if err != nil {
		return nil, err
	}
	return workspace.Open(root)
}

// newManager builds the lifecycle manager with the configured cache dir.
func newManager(ws *workspace.Workspace) *lifecycle.Manager {
	cacheDir := ""
	if cfg != nil {
		cacheDir = cfg.CacheDir
	}
	return lifecycle.New(ws, buildcache.New(ws, cacheDir))
}

// defaultBase returns the configured base ref for new worktrees.
func defaultBase() string {
	if cfg != nil && cfg.DefaultBase != "" {
		return cfg.DefaultBase
	}
	return "main"
}
