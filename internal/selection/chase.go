package selection

import "go.uber.org/zap"

// ChaseMode is a follower slot's individual chase override.
type ChaseMode uint8

const (
	ChaseInherit ChaseMode = iota // use the group setting
	ChaseForceOn
	ChaseForceOff
)

func (m ChaseMode) String() string {
	switch m {
	case ChaseForceOn:
		return "on"
	case ChaseForceOff:
		return "off"
	default:
		return "inherit"
	}
}

func modeOf(on bool) ChaseMode {
	if on {
		return ChaseForceOn
	}
	return ChaseForceOff
}

// GroupChase reports the group chase flag.
func (r *Resolver) GroupChase() bool { return r.group }

// SetGroupChase sets the group flag and clears every slot override.
func (r *Resolver) SetGroupChase(on bool) {
	r.group = on
	clear(r.overrides)
}

// SetSlotChase overrides one slot, leaving the group flag alone.
func (r *Resolver) SetSlotChase(pos int, on bool) {
	r.overrides[pos] = modeOf(on)
}

// SlotChase returns the override of a slot (ChaseInherit when unset).
func (r *Resolver) SlotChase(pos int) ChaseMode {
	return r.overrides[pos]
}

// EffectiveChase is the override when set, else the group flag.
func (r *Resolver) EffectiveChase(pos int) bool {
	switch r.overrides[pos] {
	case ChaseForceOn:
		return true
	case ChaseForceOff:
		return false
	default:
		return r.group
	}
}

// ChaseSelected applies a chase toggle to the context's selection only. The
// leader has no chase of its own, so selecting it makes this a group action.
func (r *Resolver) ChaseSelected(ctx *Context, on bool) {
	pos := ctx.Selected()
	switch {
	case pos == 0:
		r.SetGroupChase(on)
	case pos > 0:
		r.SetSlotChase(pos, on)
	default:
		r.log.Warn("chase on invalid selection", zap.Int("position", pos))
	}
}

// OnMapTransfer runs when the party moves to a different map: followers
// resume chasing and every live thread selects the leader again.
func (r *Resolver) OnMapTransfer() {
	r.SetGroupChase(true)
	for c := range r.roots {
		c.selected = 0
	}
}
