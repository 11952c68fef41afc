package orchestrator

// State is a phase of the race lifecycle
type State string

const (
	StateIdle      State = "idle"
	StateCreating  State = "creating"
	StateCountdown State = "countdown"
	StateRacing    State = "racing"
	StateFinished  State = "finished"
	StateFailed    State = "failed"
)

// Active reports whether a session currently owns the orchestrator
func (s State) Active() bool {
	switch s {
	case StateCreating, StateCountdown, StateRacing:
		return true
	default:
		return false
	}
}
