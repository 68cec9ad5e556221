package log

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestPrintf(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf, false, false)
	l.Printf("removed %d worktrees\n", 3)

	if got := buf.String(); got != "removed 3 worktrees\n" {
		t.Errorf("output = %q", got)
	}
}

func TestQuietSuppressesOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf, false, true)
	l.Printf("should not appear")
	l.Println("nor this")
	l.Debug("nor this either", "k", "v")

	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote output: %q", buf.String())
	}
}

func TestDebugOnlyWhenVerbose(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf, false, false)
	l.Debug("hidden", "branch", "feat-x")
	if buf.Len() != 0 {
		t.Errorf("non-verbose Debug wrote output: %q", buf.String())
	}

	l = New(&buf, true, false)
	l.Debug("creating worktree", "branch", "feat-x", "base", "main")
	got := buf.String()
	if !strings.Contains(got, "creating worktree") || !strings.Contains(got, "branch=feat-x") {
		t.Errorf("Debug output = %q", got)
	}
}

func TestCommandEcho(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf, true, false)
	l.Command("git", "worktree", "add", "/tmp/wt")

	want := "$ git worktree add /tmp/wt\n"
	if got := buf.String(); got != want {
		t.Errorf("Command output = %q, want %q", got, want)
	}
}

func TestFromContextFallback(t *testing.T) {
	t.Parallel()

	l := FromContext(context.Background())
	if l == nil {
		t.Fatal("FromContext returned nil")
	}
	// Must not panic writing to the discard logger.
	l.Printf("discarded")
}

func TestWithLoggerRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf, false, false)
	ctx := WithLogger(context.Background(), l)

	if got := FromContext(ctx); got != l {
		t.Error("FromContext did not return the attached logger")
	}
}
