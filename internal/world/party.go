package world

import "github.com/l1jgo/followctl/internal/config"

// Party is the ordered roster of actor IDs. The on-map lineup is derived
// from it: combat members first (up to MaxBattleMembers), then non-combat
// members (up to MaxNonCombat).
type Party struct {
	cfg     config.PartyConfig
	members []int32
	lookup  func(actorID int32) *Actor
}

func NewParty(cfg config.PartyConfig, lookup func(actorID int32) *Actor) *Party {
	return &Party{cfg: cfg, lookup: lookup}
}

// Members returns a copy of the roster in order.
func (p *Party) Members() []int32 {
	out := make([]int32, len(p.members))
	copy(out, p.members)
	return out
}

func (p *Party) Size() int { return len(p.members) }

func (p *Party) Contains(actorID int32) bool {
	for _, id := range p.members {
		if id == actorID {
			return true
		}
	}
	return false
}

// AddActor appends an actor. Unknown actors and current members are ignored.
func (p *Party) AddActor(actorID int32) bool {
	if p.Contains(actorID) || p.lookup(actorID) == nil {
		return false
	}
	p.members = append(p.members, actorID)
	return true
}

func (p *Party) RemoveActor(actorID int32) bool {
	for i, id := range p.members {
		if id == actorID {
			p.members = append(p.members[:i], p.members[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Party) Clear() { p.members = p.members[:0] }

// SetMembers replaces the roster. Returns the IDs that were skipped because
// the actor is unknown or listed twice.
func (p *Party) SetMembers(ids []int32) (skipped []int32) {
	p.members = p.members[:0]
	for _, id := range ids {
		if !p.AddActor(id) {
			skipped = append(skipped, id)
		}
	}
	return skipped
}

// IsNonCombat reports whether the actor belongs to the configured
// non-combat class.
func (p *Party) IsNonCombat(a *Actor) bool {
	return p.cfg.NonCombatClassID != 0 && a.ClassID == p.cfg.NonCombatClassID
}

// BattleMembers returns combat-eligible actors in roster order, truncated to
// MaxBattleMembers.
func (p *Party) BattleMembers() []*Actor {
	return p.collect(false, p.cfg.MaxBattleMembers)
}

// NonCombatMembers returns non-combat actors, truncated to MaxNonCombat.
func (p *Party) NonCombatMembers() []*Actor {
	return p.collect(true, p.cfg.MaxNonCombat)
}

func (p *Party) collect(nonCombat bool, max int) []*Actor {
	var out []*Actor
	for _, id := range p.members {
		if len(out) >= max {
			break
		}
		a := p.lookup(id)
		if a == nil || p.IsNonCombat(a) != nonCombat {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Lineup is BattleMembers followed by NonCombatMembers. Index 0 is the leader.
func (p *Party) Lineup() []*Actor {
	return append(p.BattleMembers(), p.NonCombatMembers()...)
}

// Leader returns the first lineup member, or nil for an empty party.
func (p *Party) Leader() *Actor {
	if b := p.BattleMembers(); len(b) > 0 {
		return b[0]
	}
	if n := p.NonCombatMembers(); len(n) > 0 {
		return n[0]
	}
	return nil
}
