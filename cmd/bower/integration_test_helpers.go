//go:build integration

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/bower-dev/bower/internal/config"
	"github.com/bower-dev/bower/internal/log"
	"github.com/bower-dev/bower/internal/output"
	"github.com/bower-dev/bower/internal/workspace"
)

// resolvePath resolves symlinks, needed on macOS where /var is a
// symlink to /private/var.
func resolvePath(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatalf("failed to resolve path %s: %v", path, err)
	}
	return resolved
}

func runGitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to run git %v: %v\n%s", args, err, out)
	}
}

// setupWorkspaceRoot creates a workspace root with a shared repo at
// <root>/repo holding one commit on main.
func setupWorkspaceRoot(t *testing.T) string {
	t.Helper()

	root := resolvePath(t, t.TempDir())
	repoPath := filepath.Join(root, workspace.RepoDirName)
	if err := os.MkdirAll(repoPath, 0755); err != nil {
		t.Fatalf("failed to create repo dir: %v", err)
	}

	runGitCmd(t, repoPath, "init", "-b", "main")
	runGitCmd(t, repoPath, "config", "user.email", "test@test.com")
	runGitCmd(t, repoPath, "config", "user.name", "Test User")
	runGitCmd(t, repoPath, "config", "commit.gpgsign", "false")

	readmePath := filepath.Join(repoPath, "README.md")
	if err := os.WriteFile(readmePath, []byte("# test\n"), 0644); err != nil {
		t.Fatalf("failed to write README: %v", err)
	}
	runGitCmd(t, repoPath, "add", "README.md")
	runGitCmd(t, repoPath, "commit", "-m", "Initial commit")
	runGitCmd(t, repoPath, "remote", "add", "origin", "https://github.com/test/test.git")

	return root
}

// runBower executes the root command with args, capturing printer
// output. Commands share the package-level cobra tree, so callers must
// not run in parallel.
func runBower(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), log.New(io.Discard, false, true))
	ctx = output.WithPrinter(ctx, &buf)

	defaults := config.Default()
	cfg = &defaults
	workDir, _ = os.Getwd()

	rootCmd.SetContext(ctx)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
