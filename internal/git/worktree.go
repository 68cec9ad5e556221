package git

import (
	"context"
	"strings"
)

// WorktreeInfo is one entry of `git worktree list --porcelain`.
type WorktreeInfo struct {
	Path   string
	Head   string
	Branch string // empty for the main checkout in detached state
	Main   bool
}

// AddWorktree creates a worktree at path with a new branch started at base.
// The branch must not exist yet; the worktree shares the repo's object store.
func AddWorktree(ctx context.Context, repoPath, path, branch, base string) error {
	return runGit(ctx, repoPath, "worktree", "add", path, "-b", branch, base)
}

// RemoveWorktree detaches the working directory at path from the repo.
func RemoveWorktree(ctx context.Context, repoPath, path string, force bool) error {
	args := []string{"worktree", "remove", path}
	if force {
		args = append(args, "--force")
	}
	return runGit(ctx, repoPath, args...)
}

// ListWorktrees returns all worktrees registered with the repo, the main
// checkout first.
func ListWorktrees(ctx context.Context, repoPath string) ([]WorktreeInfo, error) {
	out, err := outputGit(ctx, repoPath, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}

	var infos []WorktreeInfo
	var cur WorktreeInfo
	flush := func() {
		if cur.Path != "" {
			cur.Main = len(infos) == 0
			infos = append(infos, cur)
		}
		cur = WorktreeInfo{}
	}

	for _, line := range strings.Split(string(out), "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			flush()
			cur.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "HEAD "):
			cur.Head = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch refs/heads/"):
			cur.Branch = strings.TrimPrefix(line, "branch refs/heads/")
		}
	}
	flush()

	return infos, nil
}

// WorktreeForBranch returns the worktree checked out on branch, or nil.
func WorktreeForBranch(ctx context.Context, repoPath, branch string) (*WorktreeInfo, error) {
	infos, err := ListWorktrees(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	for i := range infos {
		if infos[i].Branch == branch {
			return &infos[i], nil
		}
	}
	return nil, nil
}

// PruneWorktrees drops stale worktree metadata for vanished directories.
func PruneWorktrees(ctx context.Context, repoPath string) error {
	return runGit(ctx, repoPath, "worktree", "prune")
}
