package git

import (
	"context"
	"fmt"
	"strings"
)

// ResolveRef resolves a reference to a commit SHA in the repo at repoPath.
// Returns an error if the reference does not name a commit.
func ResolveRef(ctx context.Context, repoPath, ref string) (string, error) {
	out, err := outputGit(ctx, repoPath, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("cannot resolve %q: %w", ref, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// HeadSHA returns the commit SHA of HEAD in the given directory.
func HeadSHA(ctx context.Context, dir string) (string, error) {
	return ResolveRef(ctx, dir, "HEAD")
}

// CurrentBranch returns the current branch name.
// Returns "(detached)" for detached HEAD state.
func CurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := outputGit(ctx, dir, "branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("failed to get branch: %v", err)
	}
	branch := strings.TrimSpace(string(out))
	if branch == "" {
		return "(detached)", nil
	}
	return branch, nil
}

// BranchExists reports whether a local branch exists in the repo.
func BranchExists(ctx context.Context, repoPath, branch string) bool {
	return runGit(ctx, repoPath, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch) == nil
}

// DeleteBranch force-deletes a local branch.
func DeleteBranch(ctx context.Context, repoPath, branch string) error {
	return runGit(ctx, repoPath, "branch", "-D", branch)
}

// IsDirty returns true if the working tree at dir has uncommitted or
// untracked changes.
func IsDirty(ctx context.Context, dir string) bool {
	out, err := outputGit(ctx, dir, "status", "--porcelain")
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(out))) > 0
}

// UpdateRef sets ref to sha, creating it if needed.
func UpdateRef(ctx context.Context, repoPath, ref, sha string) error {
	return runGit(ctx, repoPath, "update-ref", ref, sha)
}

// DeleteRef removes ref. Removing an absent ref is not an error.
func DeleteRef(ctx context.Context, repoPath, ref string) error {
	if _, err := ResolveRef(ctx, repoPath, ref); err != nil {
		return nil
	}
	return runGit(ctx, repoPath, "update-ref", "-d", ref)
}

// Clone clones url into dir.
func Clone(ctx context.Context, url, dir string) error {
	return runGit(ctx, "", "clone", "--", url, dir)
}

// RefsWithPrefix lists full ref names under prefix, e.g.
// "refs/bower/backup".
func RefsWithPrefix(ctx context.Context, repoPath, prefix string) ([]string, error) {
	out, err := outputGit(ctx, repoPath, "for-each-ref", "--format=%(refname)", prefix)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, nil
	}
	return strings.Split(trimmed, "\n"), nil
}

// OriginURL returns the origin remote URL, or an error if none is set.
func OriginURL(ctx context.Context, repoPath string) (string, error) {
	out, err := outputGit(ctx, repoPath, "remote", "get-url", "origin")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Fetch updates the given remote. Read operations are unrestricted.
func Fetch(ctx context.Context, repoPath, remote string) error {
	return runGit(ctx, repoPath, "fetch", remote)
}

// ResetHard resets the working tree at dir to ref, discarding local state.
func ResetHard(ctx context.Context, dir, ref string) error {
	return runGit(ctx, dir, "reset", "--hard", ref)
}

// StagedPaths returns the paths with staged (uncommitted) changes at dir.
func StagedPaths(ctx context.Context, dir string) ([]string, error) {
	out, err := outputGit(ctx, dir, "diff", "--cached", "--name-only")
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, nil
	}
	return strings.Split(trimmed, "\n"), nil
}

// ConflictedPaths returns paths with unresolved merge conflicts at dir.
func ConflictedPaths(ctx context.Context, dir string) ([]string, error) {
	out, err := outputGit(ctx, dir, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, nil
	}
	return strings.Split(trimmed, "\n"), nil
}
