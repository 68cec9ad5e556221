// Package resolve turns a possibly mistyped branch name into its
// registered worktree, attaching close-match suggestions to the error
// when the lookup misses.
package resolve

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/bower-dev/bower/internal/registry"
	"github.com/bower-dev/bower/internal/workspace"
)

const maxSuggestions = 3

// Branch looks up name in the registry. On a miss it returns ErrNotFound
// with up to three fuzzy-ranked candidates folded into the message.
func Branch(ws *workspace.Workspace, name string) (*registry.Entry, error) {
	reg, err := registry.Load(ws)
	if err != nil {
		return nil, err
	}

	if e := reg.Find(name); e != nil {
		return e, nil
	}

	suggestions := Suggest(name, reg.Branches())
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("%w: %s", workspace.ErrNotFound, name)
	}
	return nil, fmt.Errorf("%w: %s (did you mean %s?)",
		workspace.ErrNotFound, name, strings.Join(suggestions, ", "))
}

// Suggest ranks candidates against name and returns the closest few,
// best first.
func Suggest(name string, candidates []string) []string {
	matches := fuzzy.Find(name, candidates)
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out
}
