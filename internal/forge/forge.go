// Package forge provides an abstraction layer for git hosting services.
//
// GitHub is driven through the gh CLI and GitLab through glab. Reads
// (PR status lookups) are unrestricted; anything that writes to a remote
// must be authorized against the workspace remote policy before it
// reaches this package. Never call gh or glab directly outside this
// package.
package forge

import (
	"context"
	"time"
)

// PRInfo describes the pull request associated with a branch.
type PRInfo struct {
	Number     int       `json:"number"`
	State      string    `json:"state"` // OPEN, MERGED, CLOSED
	IsDraft    bool      `json:"is_draft"`
	URL        string    `json:"url"`
	Author     string    `json:"author"`
	IsApproved bool      `json:"is_approved"`
	FetchedAt  time.Time `json:"fetched_at"`

	// Found is false when the lookup succeeded but no PR exists for
	// the branch.
	Found bool `json:"found"`
}

// CreatePRParams contains parameters for creating a PR/MR.
type CreatePRParams struct {
	Title string
	Body  string
	Base  string // base branch (empty = repo default)
	Head  string // head/source branch
	Draft bool
}

// CreatePRResult contains the result of creating a PR/MR.
type CreatePRResult struct {
	Number int
	URL    string
}

// Forge represents a git hosting service.
type Forge interface {
	// Name returns the forge name ("github" or "gitlab").
	Name() string

	// Check verifies the CLI is installed and authenticated.
	Check(ctx context.Context) error

	// PRForBranch fetches PR info for a branch.
	PRForBranch(ctx context.Context, repoURL, branch string) (*PRInfo, error)

	// CreatePR creates a new PR/MR. Callers gate this behind the
	// remote policy; the forge itself does not check it.
	CreatePR(ctx context.Context, repoURL string, params CreatePRParams) (*CreatePRResult, error)
}
