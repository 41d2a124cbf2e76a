package world

// Follower is the on-map avatar of lineup position k (k >= 1). It is bound
// to lineup[k] by index and is invisible while the lineup is shorter.
type Follower struct {
	*Character
	actor *Actor
}

func (f *Follower) Position() int { return int(f.ID) }
func (f *Follower) Actor() *Actor { return f.actor }
func (f *Follower) Visible() bool { return f.actor != nil }

// Followers holds slots 1..MaxLineup-1 in marching order.
type Followers struct {
	slots []*Follower
}

func newFollowers(count, searchLimit int, through bool) *Followers {
	fs := &Followers{}
	for pos := 1; pos <= count; pos++ {
		ch := NewCharacter(KindFollower, int32(pos), searchLimit)
		ch.Through = through
		fs.slots = append(fs.slots, &Follower{Character: ch})
	}
	return fs
}

func (fs *Followers) Len() int { return len(fs.slots) }

// Slot returns the follower at lineup position pos, or nil when out of range.
func (fs *Followers) Slot(pos int) *Follower {
	if pos < 1 || pos > len(fs.slots) {
		return nil
	}
	return fs.slots[pos-1]
}

func (fs *Followers) Each(fn func(f *Follower)) {
	for _, f := range fs.slots {
		fn(f)
	}
}

// Refresh re-binds every slot to the lineup by index.
func (fs *Followers) Refresh(lineup []*Actor) {
	for _, f := range fs.slots {
		pos := f.Position()
		if pos < len(lineup) {
			bindImage(f.Character, lineup[pos])
			f.actor = lineup[pos]
		} else {
			bindImage(f.Character, nil)
			f.actor = nil
		}
	}
}

// Synchronize puts every follower on one tile facing d.
func (fs *Followers) Synchronize(x, y int32, d Direction) {
	for _, f := range fs.slots {
		f.Locate(x, y)
		f.SetDirection(d)
	}
}

// IsSomeoneCollided reports whether a visible follower stands on (x, y).
func (fs *Followers) IsSomeoneCollided(x, y int32) bool {
	for _, f := range fs.slots {
		if f.Visible() && f.Pos(x, y) {
			return true
		}
	}
	return false
}

func bindImage(ch *Character, a *Actor) {
	if a == nil {
		ch.CharacterName = ""
		ch.CharacterIndex = 0
		ch.alwaysStepAnime = false
		return
	}
	ch.CharacterName = a.CharacterName()
	ch.CharacterIndex = a.CharacterIndex()
	ch.alwaysStepAnime = a.AlwaysStepAnime()
}
