package forge

import (
	"context"
	"net/url"
	"strings"

	"github.com/bower-dev/bower/internal/git"
)

// Detect returns the Forge implementation for a remote URL. Exact
// matches in hostMap win; otherwise URL patterns decide, defaulting to
// GitHub.
func Detect(remoteURL string, hostMap map[string]string) Forge {
	if len(hostMap) > 0 {
		if forgeType, ok := hostMap[extractHost(remoteURL)]; ok {
			return ByName(forgeType)
		}
	}

	if isGitLab(remoteURL) {
		return &GitLab{}
	}
	return &GitHub{}
}

// DetectFromRepo detects the forge from a repository's origin URL.
// Returns GitHub if detection fails.
func DetectFromRepo(ctx context.Context, repoPath string, hostMap map[string]string) Forge {
	originURL, err := git.OriginURL(ctx, repoPath)
	if err != nil {
		return &GitHub{}
	}
	return Detect(originURL, hostMap)
}

// ByName returns a Forge implementation by name, defaulting to GitHub.
func ByName(name string) Forge {
	switch strings.ToLower(name) {
	case "gitlab":
		return &GitLab{}
	default:
		return &GitHub{}
	}
}

func isGitLab(remoteURL string) bool {
	host := extractHost(remoteURL)
	return host == "gitlab.com" || strings.HasPrefix(host, "gitlab.")
}

// extractHost parses the hostname from a git remote URL. Handles SSH
// (git@host:path), explicit ssh://, and HTTP(S) forms.
func extractHost(remoteURL string) string {
	if strings.HasPrefix(remoteURL, "git@") {
		withoutPrefix := strings.TrimPrefix(remoteURL, "git@")
		if idx := strings.Index(withoutPrefix, ":"); idx > 0 {
			return withoutPrefix[:idx]
		}
	}

	if strings.HasPrefix(remoteURL, "http://") ||
		strings.HasPrefix(remoteURL, "https://") ||
		strings.HasPrefix(remoteURL, "ssh://") {
		if parsed, err := url.Parse(remoteURL); err == nil {
			return parsed.Hostname()
		}
	}

	return ""
}
