package system

import (
	"time"

	"github.com/l1jgo/followctl/internal/core/event"
	coresys "github.com/l1jgo/followctl/internal/core/system"
)

// DispatchSystem delivers bus events. Events emitted while threads ran this
// tick are handled before anything moves. Phase 1 (Dispatch).
type DispatchSystem struct {
	bus *event.Bus
}

func NewDispatchSystem(bus *event.Bus) *DispatchSystem {
	return &DispatchSystem{bus: bus}
}

func (s *DispatchSystem) Phase() coresys.Phase { return coresys.PhaseDispatch }

func (s *DispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
