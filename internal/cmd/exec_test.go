package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bower-dev/bower/internal/log"
)

func TestOutputContext(t *testing.T) {
	t.Parallel()

	out, err := OutputContext(context.Background(), "", "echo", "hello")
	if err != nil {
		t.Fatalf("OutputContext failed: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "hello" {
		t.Errorf("output = %q, want hello", got)
	}
}

func TestRunContextFailureIncludesStderr(t *testing.T) {
	t.Parallel()

	err := RunContext(context.Background(), "", "sh", "-c", "echo boom >&2; exit 1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q does not contain stderr output", err)
	}
}

func TestRunContextVerboseEcho(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), log.New(&buf, true, false))

	if err := RunContext(ctx, "", "true"); err != nil {
		t.Fatalf("RunContext failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "$ true") {
		t.Errorf("verbose trace = %q, want '$ true' prefix", buf.String())
	}
}

func TestOutputContextDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("failed to resolve symlinks: %v", err)
	}

	out, err := OutputContext(context.Background(), resolved, "pwd")
	if err != nil {
		t.Fatalf("OutputContext failed: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != resolved {
		t.Errorf("pwd = %q, want %q", got, resolved)
	}
}
