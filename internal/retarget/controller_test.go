package retarget

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/bower-dev/bower/internal/git"
	"github.com/bower-dev/bower/internal/registry"
	"github.com/bower-dev/bower/internal/workspace"
)

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func commitFile(t *testing.T, dir, name, content, msg string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	gitCmd(t, dir, "add", name)
	gitCmd(t, dir, "commit", "-m", msg)
}

// setupController builds a workspace whose repo has one commit on main
// and a registered worktree for feat-x carrying one unique commit.
func setupController(t *testing.T) (*Controller, *workspace.Workspace, string) {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	repo := filepath.Join(root, workspace.RepoDirName)
	if err := os.MkdirAll(repo, 0o755); err != nil {
		t.Fatal(err)
	}
	gitCmd(t, repo, "init", "-b", "main")
	gitCmd(t, repo, "config", "user.email", "test@example.com")
	gitCmd(t, repo, "config", "user.name", "Test")
	commitFile(t, repo, "base.txt", "base\n", "initial commit")

	ws, err := workspace.Init(root)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	baseSHA, err := git.ResolveRef(ctx, repo, "main")
	if err != nil {
		t.Fatal(err)
	}

	wtPath := ws.BranchDir("feat-x")
	if err := git.AddWorktree(ctx, repo, wtPath, "feat-x", "main"); err != nil {
		t.Fatal(err)
	}
	gitCmd(t, wtPath, "config", "user.email", "test@example.com")
	gitCmd(t, wtPath, "config", "user.name", "Test")
	commitFile(t, wtPath, "feature.txt", "feature\n", "add feature")

	err = registry.Mutate(ws, func(r *registry.Registry) error {
		return r.Add(registry.Entry{
			Branch:  "feat-x",
			Path:    wtPath,
			Base:    "main",
			BaseSHA: baseSHA,
			State:   workspace.StateActive,
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	return New(ws), ws, wtPath
}

func branchState(t *testing.T, ws *workspace.Workspace, branch string) workspace.State {
	t.Helper()

	reg, err := registry.Load(ws)
	if err != nil {
		t.Fatal(err)
	}
	e := reg.Find(branch)
	if e == nil {
		t.Fatalf("branch %s not in registry", branch)
	}
	return e.State
}

func TestBeginRecordsPendingOperation(t *testing.T) {
	t.Parallel()

	ctrl, ws, wtPath := setupController(t)
	ctx := context.Background()

	commitFile(t, ws.RepoDir, "main.txt", "main moved\n", "advance main")

	origHead, err := git.HeadSHA(ctx, wtPath)
	if err != nil {
		t.Fatal(err)
	}

	op, err := ctrl.Begin(ctx, "feat-x", "main")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if op.Outcome != OutcomePending {
		t.Errorf("outcome = %s, want %s", op.Outcome, OutcomePending)
	}
	if len(op.Commits) != 1 || op.Commits[0].Subject != "add feature" {
		t.Errorf("commits = %+v, want the single feature commit", op.Commits)
	}
	if op.OriginalHead != origHead {
		t.Errorf("original head = %s, want %s", op.OriginalHead, origHead)
	}

	backup, err := git.ResolveRef(ctx, ws.RepoDir, BackupRef("feat-x"))
	if err != nil {
		t.Fatalf("backup ref missing: %v", err)
	}
	if backup != origHead {
		t.Errorf("backup ref = %s, want %s", backup, origHead)
	}

	if !Pending(ws, "feat-x") {
		t.Error("Pending = false after Begin")
	}
	if got := branchState(t, ws, "feat-x"); got != workspace.StateRetargeting {
		t.Errorf("state = %s, want %s", got, workspace.StateRetargeting)
	}
}

func TestBeginInvalidBase(t *testing.T) {
	t.Parallel()

	ctrl, ws, _ := setupController(t)

	_, err := ctrl.Begin(context.Background(), "feat-x", "no-such-ref")
	if !errors.Is(err, workspace.ErrInvalidBase) {
		t.Errorf("err = %v, want ErrInvalidBase", err)
	}
	if Pending(ws, "feat-x") {
		t.Error("operation recorded despite invalid base")
	}
}

func TestBeginUnknownBranch(t *testing.T) {
	t.Parallel()

	ctrl, _, _ := setupController(t)

	_, err := ctrl.Begin(context.Background(), "no-such-branch", "main")
	if !errors.Is(err, workspace.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBeginWhilePending(t *testing.T) {
	t.Parallel()

	ctrl, ws, _ := setupController(t)
	ctx := context.Background()

	commitFile(t, ws.RepoDir, "main.txt", "main moved\n", "advance main")

	if _, err := ctrl.Begin(ctx, "feat-x", "main"); err != nil {
		t.Fatalf("first Begin: %v", err)
	}
	_, err := ctrl.Begin(ctx, "feat-x", "main")
	if !errors.Is(err, workspace.ErrActiveOperation) {
		t.Errorf("err = %v, want ErrActiveOperation", err)
	}
}

func TestBeginDirtyWorktree(t *testing.T) {
	t.Parallel()

	ctrl, ws, wtPath := setupController(t)

	if err := os.WriteFile(filepath.Join(wtPath, "dirty.txt"), []byte("wip\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	gitCmd(t, wtPath, "add", "dirty.txt")

	_, err := ctrl.Begin(context.Background(), "feat-x", "main")
	if err == nil {
		t.Fatal("Begin succeeded with a dirty worktree")
	}
	if Pending(ws, "feat-x") {
		t.Error("operation recorded despite dirty worktree")
	}
}

func TestReplayStagesWithoutCommitting(t *testing.T) {
	t.Parallel()

	ctrl, ws, wtPath := setupController(t)
	ctx := context.Background()

	commitFile(t, ws.RepoDir, "main.txt", "main moved\n", "advance main")

	op, err := ctrl.Begin(ctx, "feat-x", "main")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	op, err = ctrl.Replay(ctx, op)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if op.Outcome != OutcomeReplayed {
		t.Errorf("outcome = %s, want %s", op.Outcome, OutcomeReplayed)
	}

	// No commit was finalized: the worktree head sits on the new base.
	head, err := git.HeadSHA(ctx, wtPath)
	if err != nil {
		t.Fatal(err)
	}
	if head != op.NewBaseSHA {
		t.Errorf("head = %s, want new base %s", head, op.NewBaseSHA)
	}

	staged, err := git.StagedPaths(ctx, wtPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(staged) != 1 || staged[0] != "feature.txt" {
		t.Errorf("staged = %v, want [feature.txt]", staged)
	}

	if got := branchState(t, ws, "feat-x"); got != workspace.StateActive {
		t.Errorf("state = %s, want %s", got, workspace.StateActive)
	}
	if Pending(ws, "feat-x") {
		t.Error("Pending = true after successful replay")
	}
}

func TestReplayConflict(t *testing.T) {
	t.Parallel()

	ctrl, ws, wtPath := setupController(t)
	ctx := context.Background()

	// Both sides edit the same file.
	commitFile(t, wtPath, "base.txt", "worktree version\n", "edit base file")
	commitFile(t, ws.RepoDir, "base.txt", "main version\n", "conflicting edit")

	op, err := ctrl.Begin(ctx, "feat-x", "main")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	op, err = ctrl.Replay(ctx, op)
	if !errors.Is(err, workspace.ErrConflictDuringReplay) {
		t.Fatalf("err = %v, want ErrConflictDuringReplay", err)
	}
	if op.Outcome != OutcomeConflicted {
		t.Errorf("outcome = %s, want %s", op.Outcome, OutcomeConflicted)
	}

	conflicted, err := git.ConflictedPaths(ctx, wtPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(conflicted) != 1 || conflicted[0] != "base.txt" {
		t.Errorf("conflicted = %v, want [base.txt]", conflicted)
	}

	if got := branchState(t, ws, "feat-x"); got != workspace.StateConflicted {
		t.Errorf("state = %s, want %s", got, workspace.StateConflicted)
	}
	if !Pending(ws, "feat-x") {
		t.Error("Pending = false while conflicted")
	}
}

func TestAbortRestoresOriginalHead(t *testing.T) {
	t.Parallel()

	ctrl, ws, wtPath := setupController(t)
	ctx := context.Background()

	commitFile(t, wtPath, "base.txt", "worktree version\n", "edit base file")
	commitFile(t, ws.RepoDir, "base.txt", "main version\n", "conflicting edit")

	origHead, err := git.HeadSHA(ctx, wtPath)
	if err != nil {
		t.Fatal(err)
	}

	op, err := ctrl.Begin(ctx, "feat-x", "main")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := ctrl.Replay(ctx, op); !errors.Is(err, workspace.ErrConflictDuringReplay) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if err := ctrl.Abort(ctx, op); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	head, err := git.HeadSHA(ctx, wtPath)
	if err != nil {
		t.Fatal(err)
	}
	if head != origHead {
		t.Errorf("head = %s, want restored %s", head, origHead)
	}
	if git.IsDirty(ctx, wtPath) {
		t.Error("worktree dirty after abort")
	}

	if Pending(ws, "feat-x") {
		t.Error("Pending = true after abort")
	}
	if _, err := LoadOperation(ws, "feat-x"); !errors.Is(err, workspace.ErrNotFound) {
		t.Errorf("operation record survived abort: %v", err)
	}
	if _, err := git.ResolveRef(ctx, ws.RepoDir, BackupRef("feat-x")); err == nil {
		t.Error("backup ref survived abort")
	}
	if got := branchState(t, ws, "feat-x"); got != workspace.StateActive {
		t.Errorf("state = %s, want %s", got, workspace.StateActive)
	}
}

func TestAbortAfterReplayRefused(t *testing.T) {
	t.Parallel()

	ctrl, ws, wtPath := setupController(t)
	ctx := context.Background()

	commitFile(t, ws.RepoDir, "main.txt", "main moved\n", "advance main")

	op, err := ctrl.Begin(ctx, "feat-x", "main")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	op, err = ctrl.Replay(ctx, op)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	if err := ctrl.Abort(ctx, op); err == nil {
		t.Fatal("Abort succeeded on a replayed operation")
	}

	// The staged hand-off to the signer must survive the refused abort.
	staged, err := git.StagedPaths(ctx, wtPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(staged) != 1 || staged[0] != "feature.txt" {
		t.Errorf("staged = %v, want [feature.txt]", staged)
	}
	head, err := git.HeadSHA(ctx, wtPath)
	if err != nil {
		t.Fatal(err)
	}
	if head != op.NewBaseSHA {
		t.Errorf("head = %s, want %s", head, op.NewBaseSHA)
	}
	if loaded, err := LoadOperation(ws, "feat-x"); err != nil || loaded.Outcome != OutcomeReplayed {
		t.Errorf("record = %+v (%v), want a surviving %s record", loaded, err, OutcomeReplayed)
	}
}

func TestAbortBeforeReplay(t *testing.T) {
	t.Parallel()

	ctrl, ws, wtPath := setupController(t)
	ctx := context.Background()

	commitFile(t, ws.RepoDir, "main.txt", "main moved\n", "advance main")

	origHead, err := git.HeadSHA(ctx, wtPath)
	if err != nil {
		t.Fatal(err)
	}

	op, err := ctrl.Begin(ctx, "feat-x", "main")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := ctrl.Abort(ctx, op); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	head, err := git.HeadSHA(ctx, wtPath)
	if err != nil {
		t.Fatal(err)
	}
	if head != origHead {
		t.Errorf("head = %s, want %s", head, origHead)
	}
	if got := branchState(t, ws, "feat-x"); got != workspace.StateActive {
		t.Errorf("state = %s, want %s", got, workspace.StateActive)
	}
}
