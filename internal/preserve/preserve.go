// Package preserve copies git-ignored files (env files, local tool
// config) from the shared repository into a fresh worktree, so a new
// worktree starts with the same local setup. Existing files are never
// overwritten.
package preserve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bower-dev/bower/internal/cmd"
	"github.com/bower-dev/bower/internal/log"
)

// DefaultExclude names path segments never copied regardless of
// patterns.
var DefaultExclude = []string{".git", "node_modules", "target", "vendor"}

// FindIgnoredFiles returns paths (relative to dir) of all git-ignored
// files present in the working tree at dir.
func FindIgnoredFiles(ctx context.Context, dir string) ([]string, error) {
	output, err := cmd.OutputContext(ctx, dir, "git",
		"ls-files", "--others", "--ignored", "--exclude-standard")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	raw := strings.TrimSpace(string(output))
	if raw == "" {
		return nil, nil
	}
	return strings.Split(raw, "\n"), nil
}

// matchesPattern matches the file's basename against patterns, after
// rejecting any path whose segments hit the exclude list.
func matchesPattern(relPath string, patterns, exclude []string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(relPath), "/") {
		if slices.Contains(exclude, seg) {
			return false
		}
	}

	base := filepath.Base(relPath)
	for _, pat := range patterns {
		if matched, _ := filepath.Match(pat, base); matched {
			return true
		}
	}
	return false
}

// CopyFile copies src to dst, creating parent directories as needed.
// Existing destinations are skipped, never overwritten. Returns true if
// the file was copied.
func CopyFile(src, dst string) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, srcInfo.Mode())
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	defer dstFile.Close()

	srcFile, err := os.Open(src)
	if err != nil {
		os.Remove(dst)
		return false, err
	}
	defer srcFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		os.Remove(dst)
		return false, err
	}

	return true, nil
}

// Files copies git-ignored files matching patterns from sourceDir into
// targetDir and returns the relative paths copied. Per-file failures
// are logged and skipped.
func Files(ctx context.Context, sourceDir, targetDir string, patterns []string) ([]string, error) {
	l := log.FromContext(ctx)

	if len(patterns) == 0 {
		return nil, nil
	}

	ignored, err := FindIgnoredFiles(ctx, sourceDir)
	if err != nil {
		return nil, err
	}

	var copied []string
	for _, relPath := range ignored {
		if !matchesPattern(relPath, patterns, DefaultExclude) {
			continue
		}

		ok, err := CopyFile(filepath.Join(sourceDir, relPath), filepath.Join(targetDir, relPath))
		if err != nil {
			l.Debug("preserve copy failed", "file", relPath, "err", err)
			continue
		}
		if ok {
			copied = append(copied, relPath)
		}
	}

	return copied, nil
}
