package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/followctl/internal/core/event"
	coresys "github.com/l1jgo/followctl/internal/core/system"
	"github.com/l1jgo/followctl/internal/world"
)

// PersistenceSystem periodically snapshots the roster into the autosave
// slot when it changed since the last save. Phase 4 (Persist).
type PersistenceSystem struct {
	store     SlotStore
	world     *world.State
	log       *zap.Logger
	slot      int32
	timeout   time.Duration
	interval  int // auto-save every N ticks
	tickCount int
	dirty     bool
}

func NewPersistenceSystem(store SlotStore, ws *world.State, bus *event.Bus, slot int32, intervalTicks int, timeout time.Duration, log *zap.Logger) *PersistenceSystem {
	s := &PersistenceSystem{
		store:    store,
		world:    ws,
		log:      log,
		slot:     slot,
		timeout:  timeout,
		interval: intervalTicks,
	}
	event.Subscribe(bus, func(event.RosterChanged) { s.dirty = true })
	return s
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if s.dirty {
		s.save()
	}
}

// SaveNow writes the roster regardless of the dirty flag. Called on shutdown.
func (s *PersistenceSystem) SaveNow() {
	s.save()
}

func (s *PersistenceSystem) save() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	members := s.world.Party.Members()
	if err := s.store.SaveSlot(ctx, s.slot, members); err != nil {
		s.log.Error("roster autosave failed", zap.Int32("slot", s.slot), zap.Error(err))
		return
	}
	s.dirty = false
	s.log.Debug("roster autosaved", zap.Int32("slot", s.slot), zap.Int("members", len(members)))
}
