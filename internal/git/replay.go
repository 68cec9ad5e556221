package git

import (
	"context"
	"fmt"
	"strings"
)

// Commit is one commit in a replay list.
type Commit struct {
	SHA     string `json:"sha"`
	Subject string `json:"subject"`
}

// UniqueCommits returns the commits reachable from branchRef but not from
// baseRef, oldest first.
func UniqueCommits(ctx context.Context, repoPath, baseRef, branchRef string) ([]Commit, error) {
	out, err := outputGit(ctx, repoPath, "log", "--reverse", "--format=%H%x1f%s",
		baseRef+".."+branchRef)
	if err != nil {
		return nil, fmt.Errorf("list commits %s..%s: %w", baseRef, branchRef, err)
	}

	var commits []Commit
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		sha, subject, _ := strings.Cut(line, "\x1f")
		commits = append(commits, Commit{SHA: sha, Subject: subject})
	}
	return commits, nil
}

// CherryPickNoCommit applies a commit's content changes at dir, staging
// them without creating a commit. Commit finalization is left to an
// external signer.
func CherryPickNoCommit(ctx context.Context, dir, sha string) error {
	return runGit(ctx, dir, "cherry-pick", "--no-commit", sha)
}

// CherryPickQuit clears cherry-pick bookkeeping (CHERRY_PICK_HEAD and the
// sequencer) without touching the working tree. Safe to call when no
// cherry-pick is in progress.
func CherryPickQuit(ctx context.Context, dir string) {
	_ = runGit(ctx, dir, "cherry-pick", "--quit")
}
