package instance

// State represents the lifecycle state of an application instance.
type State string

const (
	StateStarting      State = "starting"
	StateRunning       State = "running"
	StateActive        State = "active"
	StateMinimized     State = "minimized"
	StateNotResponding State = "not_responding"
	StateClosing       State = "closing"
	StateTerminated    State = "terminated"
)

// IsLive reports whether the state describes a running OS presence.
// Closing is still live: the process has not been confirmed gone.
func (s State) IsLive() bool {
	switch s {
	case StateStarting, StateRunning, StateActive, StateMinimized, StateNotResponding, StateClosing:
		return true
	}
	return false
}

// Switchable reports whether Switch may be attempted from this state.
func (s State) Switchable() bool {
	switch s {
	case StateTerminated, StateClosing:
		return false
	}
	return s != ""
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateTerminated
}
