package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/followctl/internal/core/event"
	coresys "github.com/l1jgo/followctl/internal/core/system"
	"github.com/l1jgo/followctl/internal/world"
)

// FollowerSystem rebinds follower slots after roster or image changes and
// keeps chasing followers at the leader's speed. Phase 3 (PostMove).
type FollowerSystem struct {
	world *world.State
	log   *zap.Logger
	dirty bool
}

func NewFollowerSystem(ws *world.State, bus *event.Bus, log *zap.Logger) *FollowerSystem {
	s := &FollowerSystem{world: ws, log: log, dirty: true}
	event.Subscribe(bus, func(ev event.RosterChanged) {
		s.dirty = true
		log.Debug("roster changed", zap.String("reason", ev.Reason), zap.Int32s("members", ev.Members))
	})
	event.Subscribe(bus, func(event.ImageChanged) { s.dirty = true })
	return s
}

func (s *FollowerSystem) Phase() coresys.Phase { return coresys.PhasePostMove }

func (s *FollowerSystem) Update(_ time.Duration) {
	if s.dirty {
		s.world.RefreshParty()
		s.dirty = false
	}
	s.world.SyncMoveSpeed()
}
