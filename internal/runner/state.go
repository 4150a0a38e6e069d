package runner

import "fmt"

// State is a run's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateLeavesResolved
	StateProcessDispatched
	StateOutcomesReconciled
	StateEnded
	StateEndedWithError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLeavesResolved:
		return "leaves-resolved"
	case StateProcessDispatched:
		return "process-dispatched"
	case StateOutcomesReconciled:
		return "outcomes-reconciled"
	case StateEnded:
		return "ended"
	case StateEndedWithError:
		return "ended-with-error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == StateEnded || s == StateEndedWithError
}
