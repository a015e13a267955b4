package tracking

// State is the phase of a tracking session.
//
// State transitions:
//
//	Idle ──(order observed)──> Polling ──(empty result / cancelled)──> Idle
//	                              │
//	                              └──(delivered)──> AutoClearPending ──(delay or ClearOrder)──> Idle
type State int

const (
	// Idle means no order is tracked.
	Idle State = iota

	// Polling means an active order is tracked and polls keep running.
	Polling

	// AutoClearPending means a delivered order is visible until its auto-clear fires.
	// Polls are skipped in this state.
	AutoClearPending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	case AutoClearPending:
		return "auto_clear_pending"
	default:
		return "unknown"
	}
}
