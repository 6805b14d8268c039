package battle

// State is the lifecycle position of a battle session.
type State string

const (
	StateProposing State = "proposing"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateTimedOut  State = "timed_out"
)

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateTimedOut:
		return true
	default:
		return false
	}
}
