package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/followctl/internal/core/event"
	coresys "github.com/l1jgo/followctl/internal/core/system"
	"github.com/l1jgo/followctl/internal/scripting"
	"github.com/l1jgo/followctl/internal/world"
)

// RouteGauge receives the active route count once per tick.
type RouteGauge interface {
	SetRoutes(n int)
}

type activeRoute struct {
	ch    *world.Character
	route scripting.Route
	index int
}

// MoveRouteSystem runs installed move routes, one line per character per
// tick. Implements handler.RouteManager. Phase 2 (Move).
type MoveRouteSystem struct {
	engine *scripting.Engine
	bus    *event.Bus
	gauge  RouteGauge
	log    *zap.Logger
	active []*activeRoute
}

func NewMoveRouteSystem(engine *scripting.Engine, bus *event.Bus, log *zap.Logger) *MoveRouteSystem {
	s := &MoveRouteSystem{engine: engine, bus: bus, log: log}
	event.Subscribe(bus, s.onMapTransferred)
	return s
}

func (s *MoveRouteSystem) SetGauge(g RouteGauge) { s.gauge = g }

func (s *MoveRouteSystem) Phase() coresys.Phase { return coresys.PhaseMove }

// Install starts r on ch, replacing any route the character already runs.
func (s *MoveRouteSystem) Install(ch *world.Character, r scripting.Route) {
	s.remove(ch.Key())
	if len(r.Lines) == 0 {
		return
	}
	s.active = append(s.active, &activeRoute{ch: ch, route: r})
}

// Active reports whether the character with this key runs a route.
func (s *MoveRouteSystem) Active(key string) bool {
	for _, a := range s.active {
		if a.ch.Key() == key {
			return true
		}
	}
	return false
}

// Len returns the number of active routes.
func (s *MoveRouteSystem) Len() int { return len(s.active) }

func (s *MoveRouteSystem) Update(_ time.Duration) {
	live := s.active[:0]
	for _, a := range s.active {
		if s.advance(a) {
			live = append(live, a)
		}
	}
	for i := len(live); i < len(s.active); i++ {
		s.active[i] = nil
	}
	s.active = live
	if s.gauge != nil {
		s.gauge.SetRoutes(len(s.active))
	}
}

// advance runs the current line and reports whether the route continues.
// A line whose step was blocked runs again next tick unless the route is
// skippable.
func (s *MoveRouteSystem) advance(a *activeRoute) bool {
	before := a.ch.Attempts()
	if err := s.engine.RunLine(a.ch, a.route.Lines[a.index]); err != nil {
		s.log.Warn("move route aborted",
			zap.String("character", a.ch.Key()),
			zap.Int("line", a.index),
			zap.Error(err),
		)
		s.finish(a)
		return false
	}
	blocked := a.ch.Attempts() > before && !a.ch.MovementSucceeded()
	if blocked && !a.route.Skippable {
		return true
	}
	a.index++
	if a.index < len(a.route.Lines) {
		return true
	}
	if a.route.Repeat {
		a.index = 0
		return true
	}
	s.finish(a)
	return false
}

func (s *MoveRouteSystem) finish(a *activeRoute) {
	event.Emit(s.bus, event.RouteFinished{CharacterKey: a.ch.Key()})
}

func (s *MoveRouteSystem) remove(key string) {
	kept := s.active[:0]
	for _, a := range s.active {
		if a.ch.Key() != key {
			kept = append(kept, a)
		}
	}
	s.active = kept
}

// onMapTransferred drops routes of map events; the events no longer exist.
func (s *MoveRouteSystem) onMapTransferred(ev event.MapTransferred) {
	kept := s.active[:0]
	dropped := 0
	for _, a := range s.active {
		if a.ch.Kind == world.KindEvent {
			dropped++
			continue
		}
		kept = append(kept, a)
	}
	s.active = kept
	if dropped > 0 {
		s.log.Debug("event routes dropped",
			zap.Int16("map", ev.ToMapID),
			zap.Int("count", dropped),
		)
	}
}
