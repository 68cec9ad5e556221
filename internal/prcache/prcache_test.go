package prcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bower-dev/bower/internal/forge"
	"github.com/bower-dev/bower/internal/workspace"
)

func setupWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, workspace.RepoDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	ws, err := workspace.Init(root)
	if err != nil {
		t.Fatal(err)
	}
	return ws
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	ws := setupWorkspace(t)

	c := Load(ws)
	c.Set("feat-x", &forge.PRInfo{
		Number:    42,
		State:     "OPEN",
		URL:       "https://github.com/org/repo/pull/42",
		FetchedAt: time.Now(),
		Found:     true,
	})
	if err := c.Save(ws); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := Load(ws)
	pr := loaded.Get("feat-x")
	if pr == nil || pr.Number != 42 {
		t.Fatalf("Get = %+v, want PR 42", pr)
	}
}

func TestGetStaleEntry(t *testing.T) {
	t.Parallel()

	ws := setupWorkspace(t)

	c := Load(ws)
	c.Set("feat-x", &forge.PRInfo{
		Number:    42,
		FetchedAt: time.Now().Add(-2 * MaxAge),
	})
	if pr := c.Get("feat-x"); pr != nil {
		t.Errorf("stale entry returned: %+v", pr)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	t.Parallel()

	ws := setupWorkspace(t)
	if err := os.WriteFile(Path(ws), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := Load(ws)
	if c == nil || c.PRs == nil {
		t.Fatal("corrupt file did not yield an empty cache")
	}
}

func TestDrop(t *testing.T) {
	t.Parallel()

	ws := setupWorkspace(t)

	c := Load(ws)
	c.Set("feat-x", &forge.PRInfo{Number: 1, FetchedAt: time.Now()})
	c.Drop("feat-x")
	if c.Get("feat-x") != nil {
		t.Error("entry survived Drop")
	}
}
