package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// GitLab implements Forge using the glab CLI.
type GitLab struct{}

func (g *GitLab) Name() string {
	return "gitlab"
}

// Check verifies that glab CLI is available and authenticated.
func (g *GitLab) Check(ctx context.Context) error {
	if _, err := exec.LookPath("glab"); err != nil {
		return fmt.Errorf("glab not found: please install GitLab CLI (https://gitlab.com/gitlab-org/cli)")
	}

	cmd := exec.CommandContext(ctx, "glab", "auth", "status")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if strings.Contains(errMsg, "not logged") || strings.Contains(errMsg, "no token") {
			return fmt.Errorf("glab not authenticated: please run 'glab auth login'")
		}
		if errMsg != "" {
			return fmt.Errorf("glab auth check failed: %s", errMsg)
		}
		return fmt.Errorf("glab not authenticated: please run 'glab auth login'")
	}
	return nil
}

// PRForBranch fetches MR info for a branch using glab CLI.
func (g *GitLab) PRForBranch(ctx context.Context, repoURL, branch string) (*PRInfo, error) {
	cmd := exec.CommandContext(ctx, "glab", "mr", "list",
		"-R", gitlabProject(repoURL),
		"--source-branch", branch,
		"--state", "all",
		"-F", "json",
		"-P", "1")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if errMsg := strings.TrimSpace(stderr.String()); errMsg != "" {
			return nil, fmt.Errorf("glab command failed: %s", errMsg)
		}
		return nil, fmt.Errorf("glab command failed: %w", err)
	}

	var mrs []struct {
		IID    int    `json:"iid"`
		State  string `json:"state"` // opened, merged, closed
		Draft  bool   `json:"draft"`
		WebURL string `json:"web_url"`
		Author struct {
			Username string `json:"username"`
		} `json:"author"`
	}
	if err := json.Unmarshal(output, &mrs); err != nil {
		return nil, fmt.Errorf("failed to parse glab output: %w", err)
	}

	if len(mrs) == 0 {
		return &PRInfo{FetchedAt: time.Now()}, nil
	}

	mr := mrs[0]
	return &PRInfo{
		Number:    mr.IID,
		State:     normalizeGitLabState(mr.State),
		IsDraft:   mr.Draft,
		URL:       mr.WebURL,
		Author:    mr.Author.Username,
		FetchedAt: time.Now(),
		Found:     true,
	}, nil
}

// CreatePR creates a new MR using glab CLI.
func (g *GitLab) CreatePR(ctx context.Context, repoURL string, params CreatePRParams) (*CreatePRResult, error) {
	args := []string{"mr", "create",
		"-R", gitlabProject(repoURL),
		"--title", params.Title,
		"--description", params.Body,
	}
	if params.Base != "" {
		args = append(args, "--target-branch", params.Base)
	}
	if params.Head != "" {
		args = append(args, "--source-branch", params.Head)
	}
	if params.Draft {
		args = append(args, "--draft")
	}

	cmd := exec.CommandContext(ctx, "glab", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errMsg := strings.TrimSpace(stderr.String()); errMsg != "" {
			return nil, fmt.Errorf("glab mr create failed: %s", errMsg)
		}
		return nil, fmt.Errorf("glab mr create failed: %w", err)
	}

	// glab prints the MR URL on the last non-empty line.
	var mrURL string
	for _, line := range strings.Split(stdout.String(), "\n") {
		if l := strings.TrimSpace(line); l != "" {
			mrURL = l
		}
	}
	if mrURL == "" {
		return nil, fmt.Errorf("glab mr create returned empty output")
	}

	parts := strings.Split(mrURL, "/")
	var mrNumber int
	fmt.Sscanf(parts[len(parts)-1], "%d", &mrNumber)

	return &CreatePRResult{Number: mrNumber, URL: mrURL}, nil
}

// normalizeGitLabState maps glab state names onto the GitHub-style ones
// the rest of the tool displays.
func normalizeGitLabState(state string) string {
	switch strings.ToLower(state) {
	case "opened":
		return "OPEN"
	case "merged":
		return "MERGED"
	case "closed":
		return "CLOSED"
	default:
		return strings.ToUpper(state)
	}
}

// gitlabProject extracts the project path glab expects from a remote URL.
func gitlabProject(repoURL string) string {
	s := strings.TrimSuffix(repoURL, ".git")

	// SSH format: git@gitlab.com:group/project
	if strings.HasPrefix(s, "git@") {
		if idx := strings.Index(s, ":"); idx > 0 {
			return s[idx+1:]
		}
	}

	// HTTPS format: https://gitlab.com/group/project
	for _, prefix := range []string{"https://", "http://", "ssh://git@", "ssh://"} {
		if strings.HasPrefix(s, prefix) {
			rest := strings.TrimPrefix(s, prefix)
			if idx := strings.Index(rest, "/"); idx > 0 {
				return rest[idx+1:]
			}
		}
	}

	return s
}
