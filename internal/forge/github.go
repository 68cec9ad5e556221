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

// GitHub implements Forge using the gh CLI.
type GitHub struct{}

func (g *GitHub) Name() string {
	return "github"
}

// Check verifies that gh CLI is available and authenticated.
func (g *GitHub) Check(ctx context.Context) error {
	if _, err := exec.LookPath("gh"); err != nil {
		return fmt.Errorf("gh not found: please install GitHub CLI (https://cli.github.com)")
	}

	cmd := exec.CommandContext(ctx, "gh", "auth", "status")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if strings.Contains(errMsg, "not logged") || strings.Contains(errMsg, "no accounts") {
			return fmt.Errorf("gh not authenticated: please run 'gh auth login'")
		}
		if errMsg != "" {
			return fmt.Errorf("gh auth check failed: %s", errMsg)
		}
		return fmt.Errorf("gh not authenticated: please run 'gh auth login'")
	}
	return nil
}

// PRForBranch fetches PR info for a branch using gh CLI.
func (g *GitHub) PRForBranch(ctx context.Context, repoURL, branch string) (*PRInfo, error) {
	cmd := exec.CommandContext(ctx, "gh", "pr", "list",
		"-R", repoURL,
		"--head", branch,
		"--state", "all",
		"--json", "number,state,isDraft,url,author,reviewDecision",
		"--limit", "1")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if errMsg := strings.TrimSpace(stderr.String()); errMsg != "" {
			return nil, fmt.Errorf("gh command failed: %s", errMsg)
		}
		return nil, fmt.Errorf("gh command failed: %w", err)
	}

	var prs []struct {
		Number  int    `json:"number"`
		State   string `json:"state"`
		IsDraft bool   `json:"isDraft"`
		URL     string `json:"url"`
		Author  struct {
			Login string `json:"login"`
		} `json:"author"`
		ReviewDecision string `json:"reviewDecision"`
	}
	if err := json.Unmarshal(output, &prs); err != nil {
		return nil, fmt.Errorf("failed to parse gh output: %w", err)
	}

	if len(prs) == 0 {
		return &PRInfo{FetchedAt: time.Now()}, nil
	}

	pr := prs[0]
	return &PRInfo{
		Number:     pr.Number,
		State:      pr.State, // GitHub already uses OPEN, MERGED, CLOSED
		IsDraft:    pr.IsDraft,
		URL:        pr.URL,
		Author:     pr.Author.Login,
		IsApproved: pr.ReviewDecision == "APPROVED",
		FetchedAt:  time.Now(),
		Found:      true,
	}, nil
}

// CreatePR creates a new PR using gh CLI.
func (g *GitHub) CreatePR(ctx context.Context, repoURL string, params CreatePRParams) (*CreatePRResult, error) {
	args := []string{"pr", "create",
		"-R", repoURL,
		"--title", params.Title,
		"--body", params.Body,
	}
	if params.Base != "" {
		args = append(args, "--base", params.Base)
	}
	if params.Head != "" {
		args = append(args, "--head", params.Head)
	}
	if params.Draft {
		args = append(args, "--draft")
	}

	cmd := exec.CommandContext(ctx, "gh", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errMsg := strings.TrimSpace(stderr.String()); errMsg != "" {
			return nil, fmt.Errorf("gh pr create failed: %s", errMsg)
		}
		return nil, fmt.Errorf("gh pr create failed: %w", err)
	}

	// gh pr create outputs the PR URL.
	prURL := strings.TrimSpace(stdout.String())
	if prURL == "" {
		return nil, fmt.Errorf("gh pr create returned empty output")
	}

	// e.g. https://github.com/org/repo/pull/123
	parts := strings.Split(prURL, "/")
	var prNumber int
	fmt.Sscanf(parts[len(parts)-1], "%d", &prNumber)

	return &CreatePRResult{Number: prNumber, URL: prURL}, nil
}
