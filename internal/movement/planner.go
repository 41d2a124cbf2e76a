// Package movement computes single steps for map characters: a direct
// best-effort step toward a target, an obstacle-avoiding step found by a
// bounded search, or a turn.
package movement

import (
	"go.uber.org/zap"

	"github.com/l1jgo/followctl/internal/world"
)

// Host is the map the planner moves characters on. *world.State satisfies it.
type Host interface {
	CanPass(ch *world.Character, x, y int32, d world.Direction) bool
	MoveStraight(ch *world.Character, d world.Direction) bool
	Event(id int32) *world.Character
	LeaderCharacter() *world.Character
}

// Planner resolves targets and moves characters one step per call.
type Planner struct {
	host      Host
	followers func(pos int) *world.Character
	observer  SearchObserver
	log       *zap.Logger
}

// NewPlanner creates a planner. followers maps a lineup position to its
// character (nil when absent), normally selection.Resolver.CharacterAt.
func NewPlanner(host Host, followers func(pos int) *world.Character, log *zap.Logger) *Planner {
	return &Planner{host: host, followers: followers, observer: nopObserver{}, log: log}
}

// SetObserver installs a search observer (metrics).
func (p *Planner) SetObserver(o SearchObserver) {
	if o == nil {
		o = nopObserver{}
	}
	p.observer = o
}

// ResolveTarget returns the cell a target currently refers to.
func (p *Planner) ResolveTarget(t Target) (x, y int32, err error) {
	var ch *world.Character
	switch t.Kind {
	case TargetCoordinates:
		return t.X, t.Y, nil
	case TargetEvent:
		ch = p.host.Event(t.ID)
	case TargetFollower:
		if t.ID <= 0 {
			ch = p.host.LeaderCharacter()
		} else {
			ch = p.followers(int(t.ID))
		}
	case TargetLeader:
		ch = p.host.LeaderCharacter()
	}
	if ch == nil {
		p.log.Debug("movement target absent", zap.Stringer("target", t))
		return 0, 0, ErrNoTarget
	}
	return ch.X, ch.Y, nil
}

// MoveToward steps along the axis with the larger distance (vertical on a
// tie). When that step is blocked it tries the other axis once.
func (p *Planner) MoveToward(ch *world.Character, t Target) error {
	x, y, err := p.ResolveTarget(t)
	if err != nil {
		return err
	}
	sx, sy := ch.DeltaXFrom(x), ch.DeltaYFrom(y)
	if abs(sx) > abs(sy) {
		if !p.host.MoveStraight(ch, horizontal(sx)) && sy != 0 {
			p.host.MoveStraight(ch, vertical(sy))
		}
	} else if sy != 0 {
		if !p.host.MoveStraight(ch, vertical(sy)) && sx != 0 {
			p.host.MoveStraight(ch, horizontal(sx))
		}
	}
	return nil
}

// PathStep searches afresh from the character's cell and takes one step in
// the first direction of the best path found. No step when the search makes
// no progress.
func (p *Planner) PathStep(ch *world.Character, t Target) error {
	x, y, err := p.ResolveTarget(t)
	if err != nil {
		return err
	}
	if d := p.FindDirectionTo(ch, x, y); d != world.DirNone {
		p.host.MoveStraight(ch, d)
	}
	return nil
}

// TurnToward faces the target without moving. On the target's cell the
// character faces the way the leader does.
func (p *Planner) TurnToward(ch *world.Character, t Target) error {
	x, y, err := p.ResolveTarget(t)
	if err != nil {
		return err
	}
	sx, sy := ch.DeltaXFrom(x), ch.DeltaYFrom(y)
	switch {
	case sx == 0 && sy == 0:
		ch.SetDirection(p.host.LeaderCharacter().Dir)
	case abs(sx) > abs(sy):
		ch.SetDirection(horizontal(sx))
	default:
		ch.SetDirection(vertical(sy))
	}
	return nil
}

// SetSearchLimit is pathMax: n > 0 sets the character's search budget,
// anything else restores the configured default.
func SetSearchLimit(ch *world.Character, n int) {
	ch.SetSearchLimit(n)
}

// horizontal is the direction that reduces a positive/negative x delta.
func horizontal(sx int32) world.Direction {
	if sx > 0 {
		return world.DirLeft
	}
	return world.DirRight
}

func vertical(sy int32) world.Direction {
	if sy > 0 {
		return world.DirUp
	}
	return world.DirDown
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
