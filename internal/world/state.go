package world

import (
	"sort"

	"github.com/l1jgo/followctl/internal/config"
	"github.com/l1jgo/followctl/internal/data"
)

// MapSource answers tile questions for the current map and lists its events.
// *data.MapDataTable satisfies it.
type MapSource interface {
	IsValid(mapID int16, x, y int32) bool
	IsPassable(mapID int16, x, y int32, d int) bool
	GetInfo(mapID int16) *data.MapInfo
}

// State is the host-side map state: the player, follower slots, map events,
// the party roster and game variables.
// Accessed only from the game loop goroutine; no locks needed.
type State struct {
	MapID     int16
	Player    *Character
	Followers *Followers
	Party     *Party

	maps        MapSource
	actors      map[int32]*Actor
	events      map[int32]*Character
	variables   map[int32]int32
	chasing     func(pos int) bool
	searchLimit int
}

func NewState(maps MapSource, cfg *config.Config) *State {
	s := &State{
		maps:        maps,
		actors:      make(map[int32]*Actor),
		events:      make(map[int32]*Character),
		variables:   make(map[int32]int32),
		searchLimit: cfg.Pathfinding.SearchLimit,
	}
	s.Player = NewCharacter(KindPlayer, 0, s.searchLimit)
	s.Followers = newFollowers(cfg.Party.MaxLineup()-1, s.searchLimit, cfg.Party.FollowerThrough)
	s.Party = NewParty(cfg.Party, s.Actor)
	return s
}

// --- actors ---

func (s *State) AddActor(a *Actor) { s.actors[a.ID] = a }

// LoadActors registers a runtime actor for every template.
func (s *State) LoadActors(table *data.ActorTable) {
	for _, t := range table.All() {
		s.AddActor(NewActor(t))
	}
}

// Actor returns the runtime actor, or nil.
func (s *State) Actor(id int32) *Actor { return s.actors[id] }

// LeaderCharacter is the player avatar.
func (s *State) LeaderCharacter() *Character { return s.Player }

// FollowerCharacter returns follower slot pos, or nil when out of range.
func (s *State) FollowerCharacter(pos int) *Character {
	f := s.Followers.Slot(pos)
	if f == nil {
		return nil
	}
	return f.Character
}

// Lineup is the on-map marching order; index 0 is the leader.
func (s *State) Lineup() []*Actor { return s.Party.Lineup() }

// RefreshParty re-binds the player and every follower slot to the lineup.
func (s *State) RefreshParty() {
	bindImage(s.Player, s.Party.Leader())
	s.Followers.Refresh(s.Lineup())
}

// --- variables ---

func (s *State) Variable(id int32) int32 { return s.variables[id] }

func (s *State) SetVariable(id, value int32) { s.variables[id] = value }

// --- chase ---

// SetChasePolicy installs the per-slot chase decision (effective chase of
// lineup position pos). Without one every follower chases.
func (s *State) SetChasePolicy(fn func(pos int) bool) { s.chasing = fn }

func (s *State) isChasing(pos int) bool {
	if s.chasing == nil {
		return true
	}
	return s.chasing(pos)
}

// --- events ---

// MapInfo returns metadata for a map, or nil when it does not exist.
func (s *State) MapInfo(mapID int16) *data.MapInfo { return s.maps.GetInfo(mapID) }

// SetupMap switches to mapID and spawns its events. Existing events are dropped.
func (s *State) SetupMap(mapID int16) {
	s.MapID = mapID
	s.events = make(map[int32]*Character)
	info := s.maps.GetInfo(mapID)
	if info == nil {
		return
	}
	for _, sp := range info.Events {
		s.PlaceEvent(sp)
	}
}

// PlaceEvent adds (or replaces) one event character on the current map.
func (s *State) PlaceEvent(sp data.EventSpawn) *Character {
	ev := NewCharacter(KindEvent, sp.EventID, s.searchLimit)
	ev.Name = sp.Name
	ev.X, ev.Y = sp.X, sp.Y
	if d := Direction(sp.Direction); d.Valid() {
		ev.Dir = d
	}
	ev.Through = sp.Through
	ev.NormalPriority = sp.NormalPriority()
	ev.CharacterName = sp.CharacterName
	s.events[sp.EventID] = ev
	return ev
}

// Event returns the map event with the given ID, or nil.
func (s *State) Event(id int32) *Character { return s.events[id] }

// Events returns the current map's events ordered by ID.
func (s *State) Events() []*Character {
	out := make([]*Character, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- movement ---

// CanPass reports whether ch may step from (x, y) in direction d.
func (s *State) CanPass(ch *Character, x, y int32, d Direction) bool {
	x2, y2 := x+d.DX(), y+d.DY()
	if !s.maps.IsValid(s.MapID, x2, y2) {
		return false
	}
	if ch.Through {
		return true
	}
	if !s.maps.IsPassable(s.MapID, x, y, int(d)) || !s.maps.IsPassable(s.MapID, x2, y2, int(d.Reverse())) {
		return false
	}
	return !s.isCollided(ch, x2, y2)
}

func (s *State) canPassDiagonally(ch *Character, x, y int32, horz, vert Direction) bool {
	x2, y2 := x+horz.DX(), y+vert.DY()
	if s.CanPass(ch, x, y, vert) && s.CanPass(ch, x, y2, horz) {
		return true
	}
	return s.CanPass(ch, x, y, horz) && s.CanPass(ch, x2, y, vert)
}

func (s *State) isCollided(ch *Character, x, y int32) bool {
	for _, ev := range s.events {
		if ev != ch && !ev.Through && ev.NormalPriority && ev.Pos(x, y) {
			return true
		}
	}
	if ch.Kind == KindEvent && ch.NormalPriority && !s.Player.Through {
		return s.Player.Pos(x, y) || s.Followers.IsSomeoneCollided(x, y)
	}
	return false
}

// MoveStraight turns ch toward d and steps one tile when passable. The
// direction changes even when the step is blocked. When the player moves,
// chasing followers step first.
func (s *State) MoveStraight(ch *Character, d Direction) bool {
	ok := s.CanPass(ch, ch.X, ch.Y, d)
	if ok && ch.Kind == KindPlayer {
		s.updateFollowers()
	}
	ch.attempts++
	ch.moveSucceeded = ok
	ch.SetDirection(d)
	if ok {
		ch.X += d.DX()
		ch.Y += d.DY()
		ch.steps++
	}
	return ok
}

// MoveDiagonally steps one tile along both axes.
func (s *State) MoveDiagonally(ch *Character, horz, vert Direction) bool {
	ok := s.canPassDiagonally(ch, ch.X, ch.Y, horz, vert)
	if ok && ch.Kind == KindPlayer {
		s.updateFollowers()
	}
	ch.attempts++
	ch.moveSucceeded = ok
	if ok {
		ch.X += horz.DX()
		ch.Y += vert.DY()
		ch.steps++
	}
	if ch.Dir == horz.Reverse() {
		ch.SetDirection(horz)
	}
	if ch.Dir == vert.Reverse() {
		ch.SetDirection(vert)
	}
	return ok
}

// updateFollowers moves the trailing chain one step, last slot first so
// each follower steps into the tile its predecessor is about to leave.
func (s *State) updateFollowers() {
	for i := s.Followers.Len(); i >= 1; i-- {
		if !s.isChasing(i) {
			continue
		}
		prev := s.Player
		if i > 1 {
			prev = s.Followers.Slot(i - 1).Character
		}
		s.chase(s.Followers.Slot(i).Character, prev)
	}
}

func (s *State) chase(f, target *Character) {
	sx := f.DeltaXFrom(target.X)
	sy := f.DeltaYFrom(target.Y)
	horz, vert := DirRight, DirDown
	if sx > 0 {
		horz = DirLeft
	}
	if sy > 0 {
		vert = DirUp
	}
	switch {
	case sx != 0 && sy != 0:
		s.MoveDiagonally(f, horz, vert)
	case sx != 0:
		s.MoveStraight(f, horz)
	case sy != 0:
		s.MoveStraight(f, vert)
	}
	f.MoveSpeed = s.Player.MoveSpeed
}

// TransferParty moves the player and every follower onto (x, y), setting
// up the new map when mapID differs. d == DirNone keeps the current facing.
// Reports whether the map changed.
func (s *State) TransferParty(mapID int16, x, y int32, d Direction) bool {
	changed := mapID != s.MapID
	if changed {
		s.SetupMap(mapID)
	}
	s.Player.Locate(x, y)
	s.Player.SetDirection(d)
	s.Followers.Synchronize(x, y, s.Player.Dir)
	return changed
}

// GatherChasers places every chasing follower on the player's cell.
func (s *State) GatherChasers() {
	s.eachChasing(func(f *Follower) {
		f.Locate(s.Player.X, s.Player.Y)
		f.SetDirection(s.Player.Dir)
	})
}

// --- leader attributes ---
//
// Each setter changes the player and copies that one attribute onto the
// followers that are chasing. Followers that stopped keep their own value.

func (s *State) eachChasing(fn func(f *Follower)) {
	s.Followers.Each(func(f *Follower) {
		if s.isChasing(f.Position()) {
			fn(f)
		}
	})
}

// SyncMoveSpeed copies the player's speed onto chasing followers (per tick).
func (s *State) SyncMoveSpeed() {
	s.eachChasing(func(f *Follower) { f.MoveSpeed = s.Player.MoveSpeed })
}

func (s *State) SetLeaderOpacity(v int) {
	s.Player.Opacity = v
	s.eachChasing(func(f *Follower) { f.Opacity = v })
}

func (s *State) SetLeaderBlendMode(v int) {
	s.Player.BlendMode = v
	s.eachChasing(func(f *Follower) { f.BlendMode = v })
}

func (s *State) SetLeaderWalkAnime(on bool) {
	s.Player.WalkAnime = on
	s.eachChasing(func(f *Follower) { f.WalkAnime = on })
}

func (s *State) SetLeaderStepAnime(on bool) {
	s.Player.StepAnime = on
	s.eachChasing(func(f *Follower) { f.StepAnime = on })
}

func (s *State) SetLeaderDirectionFix(on bool) {
	s.Player.DirectionFix = on
	s.eachChasing(func(f *Follower) { f.DirectionFix = on })
}

func (s *State) SetLeaderTransparent(on bool) {
	s.Player.Transparent = on
	s.eachChasing(func(f *Follower) { f.Transparent = on })
}

func (s *State) SetLeaderMoveSpeed(v int) {
	s.Player.MoveSpeed = v
	s.SyncMoveSpeed()
}
