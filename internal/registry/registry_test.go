package registry

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bower-dev/bower/internal/workspace"
)

func setupWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve symlinks: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, workspace.RepoDirName), 0o755); err != nil {
		t.Fatalf("failed to create repo dir: %v", err)
	}
	ws, err := workspace.Init(root)
	if err != nil {
		t.Fatalf("workspace.Init failed: %v", err)
	}
	return ws
}

func TestLoadEmptyRegistry(t *testing.T) {
	t.Parallel()

	ws := setupWorkspace(t)
	reg, err := Load(ws)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(reg.Entries) != 0 {
		t.Errorf("fresh registry has %d entries", len(reg.Entries))
	}
}

func TestAddFindRemoveRoundTrip(t *testing.T) {
	t.Parallel()

	ws := setupWorkspace(t)

	err := Mutate(ws, func(r *Registry) error {
		return r.Add(Entry{
			Branch:    "feat-x",
			Path:      ws.BranchDir("feat-x"),
			Base:      "main",
			State:     workspace.StateActive,
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	reg, err := Load(ws)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	e := reg.Find("feat-x")
	if e == nil {
		t.Fatal("entry not persisted")
	}
	if e.Base != "main" || e.State != workspace.StateActive {
		t.Errorf("entry = %+v", e)
	}

	if err := Mutate(ws, func(r *Registry) error { r.Remove("feat-x"); return nil }); err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	reg, _ = Load(ws)
	if reg.Find("feat-x") != nil {
		t.Error("entry should be removed")
	}
}

func TestAddDuplicateBranch(t *testing.T) {
	t.Parallel()

	ws := setupWorkspace(t)
	entry := Entry{Branch: "feat-x", State: workspace.StateActive}

	if err := Mutate(ws, func(r *Registry) error { return r.Add(entry) }); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}
	err := Mutate(ws, func(r *Registry) error { return r.Add(entry) })
	if !errors.Is(err, workspace.ErrBranchInUse) {
		t.Errorf("err = %v, want ErrBranchInUse", err)
	}
}

func TestConcurrentAddOneWinner(t *testing.T) {
	t.Parallel()

	ws := setupWorkspace(t)
	entry := Entry{Branch: "contested", State: workspace.StateActive}

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = Mutate(ws, func(r *Registry) error { return r.Add(entry) })
		}()
	}
	wg.Wait()

	var wins, inUse int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, workspace.ErrBranchInUse):
			inUse++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 || inUse != attempts-1 {
		t.Errorf("wins = %d, branch-in-use = %d, want 1 and %d", wins, inUse, attempts-1)
	}
}

func TestSetStateValidatesTransition(t *testing.T) {
	t.Parallel()

	ws := setupWorkspace(t)
	if err := Mutate(ws, func(r *Registry) error {
		return r.Add(Entry{Branch: "feat-x", State: workspace.StateActive})
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := Mutate(ws, func(r *Registry) error {
		return r.SetState("feat-x", workspace.StateRetargeting)
	})
	if err != nil {
		t.Fatalf("legal transition failed: %v", err)
	}

	err = Mutate(ws, func(r *Registry) error {
		return r.SetState("feat-x", workspace.StateRemoving)
	})
	if !errors.Is(err, workspace.ErrIllegalTransition) {
		t.Errorf("err = %v, want ErrIllegalTransition", err)
	}

	err = Mutate(ws, func(r *Registry) error {
		return r.SetState("ghost", workspace.StateActive)
	})
	if !errors.Is(err, workspace.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFailedMutateDoesNotSave(t *testing.T) {
	t.Parallel()

	ws := setupWorkspace(t)
	boom := errors.New("boom")

	err := Mutate(ws, func(r *Registry) error {
		if err := r.Add(Entry{Branch: "feat-x", State: workspace.StateActive}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	reg, _ := Load(ws)
	if reg.Find("feat-x") != nil {
		t.Error("failed mutation must not persist changes")
	}
}
