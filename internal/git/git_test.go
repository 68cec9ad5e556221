package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveRef(t *testing.T) {
	t.Parallel()

	repoPath := setupTestRepo(t)
	ctx := context.Background()

	sha, err := ResolveRef(ctx, repoPath, "main")
	if err != nil {
		t.Fatalf("ResolveRef failed: %v", err)
	}
	if len(sha) != 40 {
		t.Errorf("sha = %q, want 40-char commit id", sha)
	}

	if _, err := ResolveRef(ctx, repoPath, "no-such-ref"); err == nil {
		t.Error("ResolveRef should fail for an unknown ref")
	}
}

func TestAddListRemoveWorktree(t *testing.T) {
	t.Parallel()

	repoPath := setupTestRepo(t)
	ctx := context.Background()
	wtPath := filepath.Join(filepath.Dir(repoPath), "feat-x")

	if err := AddWorktree(ctx, repoPath, wtPath, "feat-x", "main"); err != nil {
		t.Fatalf("AddWorktree failed: %v", err)
	}

	infos, err := ListWorktrees(ctx, repoPath)
	if err != nil {
		t.Fatalf("ListWorktrees failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("got %d worktrees, want 2", len(infos))
	}
	if !infos[0].Main {
		t.Error("first entry should be the main checkout")
	}
	if infos[1].Branch != "feat-x" || infos[1].Path != wtPath {
		t.Errorf("worktree entry = %+v", infos[1])
	}

	wt, err := WorktreeForBranch(ctx, repoPath, "feat-x")
	if err != nil || wt == nil {
		t.Fatalf("WorktreeForBranch failed: wt=%v err=%v", wt, err)
	}

	if err := RemoveWorktree(ctx, repoPath, wtPath, false); err != nil {
		t.Fatalf("RemoveWorktree failed: %v", err)
	}
	if _, err := os.Stat(wtPath); !os.IsNotExist(err) {
		t.Error("worktree dir should be gone after remove")
	}
}

func TestUniqueCommits(t *testing.T) {
	t.Parallel()

	repoPath := setupTestRepo(t)
	ctx := context.Background()

	gitCmd(t, repoPath, "checkout", "-b", "feat-y")
	commitFile(t, repoPath, "a.txt", "one\n", "first unique")
	commitFile(t, repoPath, "b.txt", "two\n", "second unique")

	commits, err := UniqueCommits(ctx, repoPath, "main", "feat-y")
	if err != nil {
		t.Fatalf("UniqueCommits failed: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("got %d commits, want 2", len(commits))
	}
	// Oldest first.
	if commits[0].Subject != "first unique" || commits[1].Subject != "second unique" {
		t.Errorf("commit order = %q, %q", commits[0].Subject, commits[1].Subject)
	}

	none, err := UniqueCommits(ctx, repoPath, "feat-y", "feat-y")
	if err != nil {
		t.Fatalf("UniqueCommits failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d commits for identical refs, want 0", len(none))
	}
}

func TestCherryPickNoCommitStagesWithoutCommitting(t *testing.T) {
	t.Parallel()

	repoPath := setupTestRepo(t)
	ctx := context.Background()

	gitCmd(t, repoPath, "checkout", "-b", "source")
	commitFile(t, repoPath, "change.txt", "payload\n", "source change")
	sha, err := HeadSHA(ctx, repoPath)
	if err != nil {
		t.Fatalf("HeadSHA failed: %v", err)
	}
	gitCmd(t, repoPath, "checkout", "main")

	before, err := HeadSHA(ctx, repoPath)
	if err != nil {
		t.Fatalf("HeadSHA failed: %v", err)
	}

	if err := CherryPickNoCommit(ctx, repoPath, sha); err != nil {
		t.Fatalf("CherryPickNoCommit failed: %v", err)
	}

	staged, err := StagedPaths(ctx, repoPath)
	if err != nil {
		t.Fatalf("StagedPaths failed: %v", err)
	}
	if len(staged) != 1 || staged[0] != "change.txt" {
		t.Errorf("staged = %v, want [change.txt]", staged)
	}

	after, err := HeadSHA(ctx, repoPath)
	if err != nil {
		t.Fatalf("HeadSHA failed: %v", err)
	}
	if after != before {
		t.Error("cherry-pick --no-commit must not create a commit")
	}
}

func TestCherryPickConflictLeavesMarkers(t *testing.T) {
	t.Parallel()

	repoPath := setupTestRepo(t)
	ctx := context.Background()

	// Both branches edit the same line of the same file.
	commitFile(t, repoPath, "shared.txt", "base\n", "add shared")
	gitCmd(t, repoPath, "checkout", "-b", "side")
	commitFile(t, repoPath, "shared.txt", "side version\n", "side edit")
	sha, err := HeadSHA(ctx, repoPath)
	if err != nil {
		t.Fatalf("HeadSHA failed: %v", err)
	}
	gitCmd(t, repoPath, "checkout", "main")
	commitFile(t, repoPath, "shared.txt", "main version\n", "main edit")

	if err := CherryPickNoCommit(ctx, repoPath, sha); err == nil {
		t.Fatal("expected conflict error")
	}

	conflicted, err := ConflictedPaths(ctx, repoPath)
	if err != nil {
		t.Fatalf("ConflictedPaths failed: %v", err)
	}
	if len(conflicted) != 1 || conflicted[0] != "shared.txt" {
		t.Errorf("conflicted = %v, want [shared.txt]", conflicted)
	}

	// Recovery: quit the pick and reset.
	CherryPickQuit(ctx, repoPath)
	if err := ResetHard(ctx, repoPath, "HEAD"); err != nil {
		t.Fatalf("ResetHard failed: %v", err)
	}
	if IsDirty(ctx, repoPath) {
		t.Error("working tree should be clean after recovery")
	}
}

func TestUpdateAndDeleteRef(t *testing.T) {
	t.Parallel()

	repoPath := setupTestRepo(t)
	ctx := context.Background()

	sha, err := ResolveRef(ctx, repoPath, "main")
	if err != nil {
		t.Fatalf("ResolveRef failed: %v", err)
	}

	ref := "refs/bower/backup/feat-z"
	if err := UpdateRef(ctx, repoPath, ref, sha); err != nil {
		t.Fatalf("UpdateRef failed: %v", err)
	}
	got, err := ResolveRef(ctx, repoPath, ref)
	if err != nil || got != sha {
		t.Fatalf("backup ref = %q (%v), want %q", got, err, sha)
	}

	if err := DeleteRef(ctx, repoPath, ref); err != nil {
		t.Fatalf("DeleteRef failed: %v", err)
	}
	// Deleting again is a no-op.
	if err := DeleteRef(ctx, repoPath, ref); err != nil {
		t.Errorf("second DeleteRef failed: %v", err)
	}
}

func TestIsDirty(t *testing.T) {
	t.Parallel()

	repoPath := setupTestRepo(t)
	ctx := context.Background()

	if IsDirty(ctx, repoPath) {
		t.Error("fresh repo should be clean")
	}
	writeFile(t, repoPath, "scratch.txt", "wip\n")
	if !IsDirty(ctx, repoPath) {
		t.Error("untracked file should make the tree dirty")
	}
}
