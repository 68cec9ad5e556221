package workspace

import "fmt"

// State is the lifecycle state of a worktree.
//
// The only terminal state is Absent. A branch name with no registry entry
// is implicitly Absent.
type State string

const (
	StateAbsent      State = "ABSENT"
	StateCreating    State = "CREATING"
	StateActive      State = "ACTIVE"
	StateRemoving    State = "REMOVING"
	StateRetargeting State = "RETARGETING"
	StateConflicted  State = "CONFLICTED"

	// StateOrphaned marks a registry entry whose backing directory has
	// vanished from disk. Orphaned entries are cleared by prune.
	StateOrphaned State = "ORPHANED"
)

// IsTerminal reports whether the state ends the lifecycle.
func (s State) IsTerminal() bool {
	return s == StateAbsent
}

func allowedTransition(from, to State) bool {
	switch from {
	case StateAbsent:
		return to == StateCreating
	case StateCreating:
		return to == StateActive || to == StateAbsent
	case StateActive:
		return to == StateRemoving || to == StateRetargeting || to == StateOrphaned
	case StateRetargeting:
		return to == StateActive || to == StateConflicted
	case StateConflicted:
		return to == StateActive || to == StateRemoving
	case StateRemoving:
		return to == StateAbsent
	case StateOrphaned:
		return to == StateAbsent || to == StateActive
	default:
		return false
	}
}

// Transition validates a state change against the documented lifecycle.
// Undocumented transitions fail fast with ErrIllegalTransition rather than
// silently coercing state.
func Transition(from, to State) (State, error) {
	if !allowedTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return to, nil
}
