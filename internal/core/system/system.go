package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInterpret Phase = iota // 0: advance event threads, run their commands
	PhaseDispatch               // 1: deliver bus events emitted earlier this tick
	PhaseMove                   // 2: move routes
	PhasePostMove               // 3: follower refresh and speed sync
	PhasePersist                // 4: roster autosave
)

func (p Phase) String() string {
	switch p {
	case PhaseInterpret:
		return "interpret"
	case PhaseDispatch:
		return "dispatch"
	case PhaseMove:
		return "move"
	case PhasePostMove:
		return "post-move"
	case PhasePersist:
		return "persist"
	default:
		return "unknown"
	}
}

// System is the interface every per-tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
