// Package selection decides which party member event commands act on.
//
// Each event thread holds a Context; the selected lineup position lives at
// the root of the thread's nesting chain. Position 0 is the leader, k >= 1 is
// the k-th follower. Positions are stored verbatim and validated only when
// resolved, so a selection of an absent follower resolves to nil instead of
// falling back to the leader.
package selection

import (
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/l1jgo/followctl/internal/world"
)

// Host is the slice of the host engine the resolver reads.
type Host interface {
	Lineup() []*world.Actor
	LeaderCharacter() *world.Character
	FollowerCharacter(pos int) *world.Character
	Variable(id int32) int32
}

// Resolver owns thread contexts and chase state.
type Resolver struct {
	host      Host
	log       *zap.Logger
	group     bool
	overrides map[int]ChaseMode
	roots     map[*Context]struct{}
}

func NewResolver(host Host, log *zap.Logger) *Resolver {
	return &Resolver{
		host:      host,
		log:       log,
		group:     true,
		overrides: make(map[int]ChaseMode),
		roots:     make(map[*Context]struct{}),
	}
}

// NewContext registers a root context selecting the leader.
func (r *Resolver) NewContext() *Context {
	c := &Context{resolver: r}
	c.root = c
	r.roots[c] = struct{}{}
	return c
}

// LiveContexts is the number of open root contexts.
func (r *Resolver) LiveContexts() int { return len(r.roots) }

func (r *Resolver) SelectLeader(ctx *Context) { ctx.set(0) }

// SelectFollowerByPosition stores pos without range checks.
func (r *Resolver) SelectFollowerByPosition(ctx *Context, pos int) { ctx.set(pos) }

// SelectFollowerByName selects the lineup member with the given name. When
// several match, the last one wins. No match leaves the selection alone.
func (r *Resolver) SelectFollowerByName(ctx *Context, name string) bool {
	want := norm.NFC.String(name)
	return r.selectWhere(ctx, func(a *world.Actor) bool {
		return norm.NFC.String(a.Name) == want
	})
}

// SelectFollowerByActorID selects the lineup member with the given actor ID.
func (r *Resolver) SelectFollowerByActorID(ctx *Context, actorID int32) bool {
	return r.selectWhere(ctx, func(a *world.Actor) bool { return a.ID == actorID })
}

// SelectFollowerByVariable selects the position stored in a game variable.
func (r *Resolver) SelectFollowerByVariable(ctx *Context, varID int32) {
	ctx.set(int(r.host.Variable(varID)))
}

func (r *Resolver) selectWhere(ctx *Context, match func(*world.Actor) bool) bool {
	found := -1
	for i, a := range r.host.Lineup() {
		if match(a) {
			found = i
		}
	}
	if found < 0 {
		return false
	}
	ctx.set(found)
	return true
}

// Resolve returns the character the context's selection points to, or nil
// when the position is absent or invalid.
func (r *Resolver) Resolve(ctx *Context) *world.Character {
	pos := ctx.Selected()
	if pos < 0 {
		r.log.Warn("invalid follower selection", zap.Int("position", pos))
		return nil
	}
	return r.CharacterAt(pos)
}

// CharacterAt maps a lineup position to its character: 0 is the leader,
// 1 <= k < len(lineup) is follower slot k, anything else is nil.
func (r *Resolver) CharacterAt(pos int) *world.Character {
	switch {
	case pos == 0:
		return r.host.LeaderCharacter()
	case pos > 0 && pos < len(r.host.Lineup()):
		return r.host.FollowerCharacter(pos)
	default:
		return nil
	}
}
