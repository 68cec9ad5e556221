package doctor

// IssueCategory groups issues by type.
type IssueCategory string

const (
	// CategoryRegistry represents registry entries out of sync with git.
	CategoryRegistry IssueCategory = "registry"
	// CategoryRetarget represents stale retarget bookkeeping.
	CategoryRetarget IssueCategory = "retarget"
	// CategoryCache represents build-cache binding problems.
	CategoryCache IssueCategory = "cache"
)

// Issue represents a problem detected by doctor.
type Issue struct {
	Branch      string        // affected branch, if any
	Description string        // human-readable description
	FixAction   string        // what --fix would do
	Category    IssueCategory // issue category
}

// IssueStats tracks counts by category.
type IssueStats struct {
	RegistryHealthy int // entries matching a live git worktree
	RegistryGhost   int // entries git no longer recognizes
	RegistryMissing int // live worktrees with no registry entry
	RetargetStale   int // retarget records with no matching entry or state
	CacheUnbound    int // worktrees missing their cache binding
	BackupRefStale  int // backup refs with no pending retarget
}
