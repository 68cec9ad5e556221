// Package remote gates outbound network write operations.
//
// The orchestrator itself never pushes: it validates that a requested
// write targets the contributor's read-write fork and hands execution to
// the external signing/push authority. The gate fails closed — a push to
// the upstream/origin binding is rejected before any network call.
package remote

import (
	"errors"
	"fmt"
	"os"

	"github.com/bower-dev/bower/internal/storage"
	"github.com/bower-dev/bower/internal/workspace"
)

// Permission tags a remote binding.
type Permission string

const (
	ReadOnly  Permission = "read-only"
	ReadWrite Permission = "read-write"
)

// Operation is a remote operation kind submitted for authorization.
type Operation string

const (
	OpFetch    Operation = "fetch"
	OpView     Operation = "view"
	OpPush     Operation = "push"
	OpCreatePR Operation = "pr-create"
)

// IsWrite reports whether the operation writes to the remote.
func (o Operation) IsWrite() bool {
	return o == OpPush || o == OpCreatePR
}

// protectedRemotes are always read-only from the orchestrator's
// perspective, whatever the binding says.
var protectedRemotes = map[string]bool{
	"origin":   true,
	"upstream": true,
}

// Binding maps a logical remote name to a URL and a permission tag.
type Binding struct {
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	Permission Permission `json:"permission"`
}

// Policy holds the workspace's remote bindings.
type Policy struct {
	Bindings []Binding `json:"bindings"`
}

// Load reads the policy for the workspace.
// Returns an empty policy if none is persisted yet.
func Load(ws *workspace.Workspace) (*Policy, error) {
	var p Policy
	if err := storage.LoadJSON(ws.RemotesPath(), &p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Policy{}, nil
		}
		return nil, fmt.Errorf("read remote bindings: %w", err)
	}
	return &p, nil
}

// Save writes the policy atomically.
func (p *Policy) Save(ws *workspace.Workspace) error {
	if err := storage.SaveJSON(ws.RemotesPath(), p); err != nil {
		return fmt.Errorf("save remote bindings: %w", err)
	}
	return nil
}

// Find returns the binding for name, or nil.
func (p *Policy) Find(name string) *Binding {
	for i := range p.Bindings {
		if p.Bindings[i].Name == name {
			return &p.Bindings[i]
		}
	}
	return nil
}

// Fork returns the read-write fork binding, or nil if none is bound.
func (p *Policy) Fork() *Binding {
	for i := range p.Bindings {
		if p.Bindings[i].Permission == ReadWrite {
			return &p.Bindings[i]
		}
	}
	return nil
}

// Bind adds or updates a binding. The upstream/origin binding can never
// be read-write, and at most one fork binding may carry read-write
// permission.
func (p *Policy) Bind(name, url string, perm Permission) error {
	if perm == ReadWrite {
		if protectedRemotes[name] {
			return fmt.Errorf("%w: %s is always read-only", workspace.ErrForbiddenRemote, name)
		}
		if fork := p.Fork(); fork != nil && fork.Name != name {
			return fmt.Errorf("%w: fork %s already holds read-write permission", workspace.ErrForbiddenRemote, fork.Name)
		}
	}

	if b := p.Find(name); b != nil {
		b.URL = url
		b.Permission = perm
		return nil
	}
	p.Bindings = append(p.Bindings, Binding{Name: name, URL: url, Permission: perm})
	return nil
}

// Authorize checks a remote operation against the policy. Write operations
// require the remote to be bound as the read-write fork; read operations
// are unrestricted. No side effects either way.
func (p *Policy) Authorize(name string, op Operation) error {
	if !op.IsWrite() {
		return nil
	}

	if protectedRemotes[name] {
		return fmt.Errorf("%w: %s on %s", workspace.ErrForbiddenRemote, op, name)
	}

	b := p.Find(name)
	if b == nil {
		return fmt.Errorf("%w: %s is not bound", workspace.ErrForbiddenRemote, name)
	}
	if b.Permission != ReadWrite {
		return fmt.Errorf("%w: %s on %s (%s)", workspace.ErrForbiddenRemote, op, name, b.Permission)
	}
	return nil
}
