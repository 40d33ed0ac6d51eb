package pipeline

import "github.com/slizzai/slizzai/pkg/errors"

// State is the lifecycle state of a run.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// transition returns an INVALID_STATE error unless from → to is one of
// Idle → Running, Running → Completed or Running → Aborted.
func transition(from, to State) error {
	switch {
	case from == StateIdle && to == StateRunning,
		from == StateRunning && to == StateCompleted,
		from == StateRunning && to == StateAborted:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidState, "invalid transition %s -> %s", from, to)
}
