package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// setupTestRepo creates a git repo with an initial commit on main.
// Returns the absolute repo path with symlinks resolved.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve symlinks: %v", err)
	}
	repoPath := filepath.Join(dir, "repo")
	if err := os.MkdirAll(repoPath, 0o755); err != nil {
		t.Fatalf("failed to create repo dir: %v", err)
	}

	gitCmd(t, repoPath, "init", "-b", "main")
	gitCmd(t, repoPath, "config", "user.email", "test@test.com")
	gitCmd(t, repoPath, "config", "user.name", "Test User")
	gitCmd(t, repoPath, "config", "commit.gpgsign", "false")

	writeFile(t, repoPath, "README.md", "# test\n")
	gitCmd(t, repoPath, "add", "README.md")
	gitCmd(t, repoPath, "commit", "-m", "Initial commit")

	return repoPath
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()

	c := exec.Command("git", args...)
	c.Dir = dir
	if out, err := c.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

// commitFile writes a file and commits it with the given message.
func commitFile(t *testing.T, dir, name, content, msg string) {
	t.Helper()

	writeFile(t, dir, name, content)
	gitCmd(t, dir, "add", name)
	gitCmd(t, dir, "commit", "-m", msg)
}
