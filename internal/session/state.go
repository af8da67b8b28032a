// ABOUTME: Session lifecycle states
// ABOUTME: Defines the speak-session state machine values
package session

// State is the lifecycle stage of a speak session.
//
//	Idle -> Connecting -> Streaming -> Draining -> Completed
//
// Failed is reachable from Connecting, Streaming and Draining; Cancelled
// from any non-terminal state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateDraining
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible. A new
// start request is accepted only against a terminal (or superseded)
// session.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}
