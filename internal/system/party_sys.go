package system

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/l1jgo/followctl/internal/core/event"
	"github.com/l1jgo/followctl/internal/world"
)

var (
	ErrInvalidSlot  = errors.New("invalid party slot")
	ErrSlotNotFound = errors.New("party slot not found")
)

// SlotStore persists party snapshots. persist.PartyStore satisfies it.
type SlotStore interface {
	SaveSlot(ctx context.Context, slot int32, actorIDs []int32) error
	LoadSlot(ctx context.Context, slot int32) (actorIDs []int32, ok bool, err error)
}

// PartySystem saves and restores roster snapshots. Implements
// handler.PartyManager.
type PartySystem struct {
	store SlotStore
	world *world.State
	bus   *event.Bus
	log   *zap.Logger
}

func NewPartySystem(store SlotStore, ws *world.State, bus *event.Bus, log *zap.Logger) *PartySystem {
	return &PartySystem{store: store, world: ws, bus: bus, log: log}
}

// Save stores the current roster in slot.
func (s *PartySystem) Save(ctx context.Context, slot int32) error {
	if slot <= 0 {
		return fmt.Errorf("save %d: %w", slot, ErrInvalidSlot)
	}
	members := s.world.Party.Members()
	if err := s.store.SaveSlot(ctx, slot, members); err != nil {
		return fmt.Errorf("save slot %d: %w", slot, err)
	}
	s.log.Info("party saved", zap.Int32("slot", slot), zap.Int32s("members", members))
	return nil
}

// Load replaces the roster with the snapshot in slot.
func (s *PartySystem) Load(ctx context.Context, slot int32) error {
	ids, err := s.load(ctx, slot)
	if err != nil {
		return err
	}
	if skipped := s.world.Party.SetMembers(ids); len(skipped) > 0 {
		s.log.Warn("saved party names unknown actors",
			zap.Int32("slot", slot),
			zap.Int32s("skipped", skipped),
		)
	}
	s.changed("load")
	return nil
}

// Add appends the snapshot's members not already in the party.
func (s *PartySystem) Add(ctx context.Context, slot int32) error {
	ids, err := s.load(ctx, slot)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if !s.world.Party.Contains(id) && !s.world.Party.AddActor(id) {
			s.log.Warn("saved party names unknown actor", zap.Int32("slot", slot), zap.Int32("actor", id))
		}
	}
	s.changed("add")
	return nil
}

// Clear empties the roster.
func (s *PartySystem) Clear() {
	s.world.Party.Clear()
	s.changed("clear")
}

func (s *PartySystem) load(ctx context.Context, slot int32) ([]int32, error) {
	if slot <= 0 {
		return nil, fmt.Errorf("load %d: %w", slot, ErrInvalidSlot)
	}
	ids, ok, err := s.store.LoadSlot(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("load slot %d: %w", slot, err)
	}
	if !ok {
		return nil, fmt.Errorf("load %d: %w", slot, ErrSlotNotFound)
	}
	return ids, nil
}

func (s *PartySystem) changed(reason string) {
	event.Emit(s.bus, event.RosterChanged{Reason: reason, Members: s.world.Party.Members()})
}
