package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/l1jgo/followctl/internal/config"
	"github.com/l1jgo/followctl/internal/core/event"
	"github.com/l1jgo/followctl/internal/data"
	"github.com/l1jgo/followctl/internal/movement"
	"github.com/l1jgo/followctl/internal/scripting"
	"github.com/l1jgo/followctl/internal/selection"
	"github.com/l1jgo/followctl/internal/world"
)

type fakeThread struct {
	ctx     *selection.Context
	eventID int32
	waitFor string
}

func (th *fakeThread) Selection() *selection.Context { return th.ctx }
func (th *fakeThread) EventID() int32                { return th.eventID }
func (th *fakeThread) WaitForRoute(key string)       { th.waitFor = key }

type fakeParty struct {
	calls []string
	err   error
}

func (p *fakeParty) record(op string, slot int32) error {
	p.calls = append(p.calls, op+":"+string(rune('0'+slot)))
	return p.err
}

func (p *fakeParty) Save(_ context.Context, slot int32) error { return p.record("save", slot) }
func (p *fakeParty) Load(_ context.Context, slot int32) error { return p.record("load", slot) }
func (p *fakeParty) Add(_ context.Context, slot int32) error  { return p.record("add", slot) }
func (p *fakeParty) Clear()                                   { p.calls = append(p.calls, "clear") }

type fakeRoutes struct {
	installed map[string]scripting.Route
}

func (r *fakeRoutes) Install(ch *world.Character, route scripting.Route) {
	r.installed[ch.Key()] = route
}

func (r *fakeRoutes) Active(key string) bool {
	_, ok := r.installed[key]
	return ok
}

type fixture struct {
	deps   *Deps
	reg    *Registry
	th     *fakeThread
	party  *fakeParty
	routes *fakeRoutes
}

func newFixture(t *testing.T, log *zap.Logger) *fixture {
	t.Helper()
	table := data.NewMapDataTable()
	require.NoError(t, table.Put(data.MapInfo{MapID: 1, Width: 6, Height: 3, Events: []data.EventSpawn{
		{EventID: 3, X: 5, Y: 0},
	}}, data.ParseTiles([]string{"......", "......", "......"}, 6, 3)))
	require.NoError(t, table.Put(data.MapInfo{MapID: 2, Width: 4, Height: 4},
		data.ParseTiles([]string{"....", "....", "....", "...."}, 4, 4)))

	cfg := &config.Config{
		Party:       config.PartyConfig{MaxBattleMembers: 4, FollowerThrough: true},
		Pathfinding: config.PathfindingConfig{SearchLimit: 12},
		Storage:     config.StorageConfig{Timeout: time.Second},
	}
	w := world.NewState(table, cfg)
	for i, name := range []string{"Reid", "Priscilla", "Gale"} {
		w.AddActor(world.NewActor(&data.ActorTemplate{
			ActorID: int32(i + 1), Name: name, CharacterName: "Actor" + name,
		}))
		w.Party.AddActor(int32(i + 1))
	}
	w.SetupMap(1)
	w.TransferParty(1, 1, 1, world.DirDown)
	w.RefreshParty()

	res := selection.NewResolver(w, log)
	w.SetChasePolicy(res.EffectiveChase)
	planner := movement.NewPlanner(w, res.CharacterAt, log)
	eng, err := scripting.NewEngine(t.TempDir(), planner, w, log)
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	f := &fixture{
		th:     &fakeThread{ctx: res.NewContext(), eventID: 3},
		party:  &fakeParty{},
		routes: &fakeRoutes{installed: make(map[string]scripting.Route)},
	}
	f.deps = &Deps{
		Config:    cfg,
		Log:       log,
		World:     w,
		Selection: res,
		Scripting: eng,
		Bus:       event.NewBus(),
		Party:     f.party,
		Routes:    f.routes,
	}
	f.reg = NewRegistry(log)
	RegisterAll(f.reg, f.deps)
	return f
}

func (f *fixture) run(t *testing.T, code string, args Args) error {
	t.Helper()
	return f.reg.Dispatch(f.th, code, args)
}

type countingObserver struct {
	codes []string
	errs  int
}

func (o *countingObserver) ObserveCommand(code string, err error) {
	o.codes = append(o.codes, code)
	if err != nil {
		o.errs++
	}
}

func TestRegistryUnknownCodeIsIgnored(t *testing.T) {
	f := newFixture(t, zap.NewNop())
	obs := &countingObserver{}
	f.reg.SetObserver(obs)

	assert.NoError(t, f.run(t, "no_such_command", nil))
	assert.Empty(t, obs.codes)
	assert.True(t, f.reg.Has("leader"))
	assert.Contains(t, f.reg.Codes(), "set_move_route")
}

func TestRegistryWrapsErrorsAndRecoversPanics(t *testing.T) {
	f := newFixture(t, zap.NewNop())
	obs := &countingObserver{}
	f.reg.SetObserver(obs)
	f.reg.Register("boom", func(Thread, Args) error { panic("kaboom") })

	err := f.run(t, "follower_by_position", Args{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadArg)
	assert.Contains(t, err.Error(), "follower_by_position:")

	err = f.run(t, "boom", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, []string{"follower_by_position", "boom"}, obs.codes)
	assert.Equal(t, 2, obs.errs)
}

func TestArgs(t *testing.T) {
	a := Args{"n": float64(3), "frac": 2.5, "s": "x", "b": true, "lines": []any{" a ", "", "b"}}

	n, err := a.Int("n")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = a.Int("frac")
	assert.ErrorIs(t, err, ErrBadArg)
	_, err = a.Int("missing")
	assert.ErrorIs(t, err, ErrBadArg)

	def, err := a.IntOr("missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, def)

	assert.Equal(t, "x", a.String("s"))
	assert.Equal(t, "all", a.StringOr("missing", "all"))

	_, err = a.Bool("s", false)
	assert.ErrorIs(t, err, ErrBadArg)

	lines, err := a.Lines("lines")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)

	lines, err = Args{"l": "one\n\ntwo"}.Lines("l")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestSelectionCommands(t *testing.T) {
	f := newFixture(t, zap.NewNop())

	require.NoError(t, f.run(t, "follower_by_name", Args{"name": "Gale"}))
	assert.Equal(t, 2, f.th.ctx.Selected())

	require.NoError(t, f.run(t, "follower_by_name", Args{"name": "Nobody"}))
	assert.Equal(t, 2, f.th.ctx.Selected(), "a miss keeps the selection")

	require.NoError(t, f.run(t, "follower_by_actor_id", Args{"actor_id": 2}))
	assert.Equal(t, 1, f.th.ctx.Selected())

	require.NoError(t, f.run(t, "follower_by_actor_id", Args{"actor_id": 0}))
	assert.Equal(t, 1, f.th.ctx.Selected())

	f.deps.World.SetVariable(10, 7)
	require.NoError(t, f.run(t, "follower_by_variable", Args{"variable_id": 10}))
	assert.Equal(t, 7, f.th.ctx.Selected(), "stored verbatim")

	require.NoError(t, f.run(t, "leader", nil))
	assert.Equal(t, 0, f.th.ctx.Selected())

	require.NoError(t, f.run(t, "follower_by_position", Args{"position": 2}))
	assert.Same(t, f.deps.World.FollowerCharacter(2), f.deps.Selection.Resolve(f.th.ctx))
}

func TestChaseCommands(t *testing.T) {
	f := newFixture(t, zap.NewNop())

	require.NoError(t, f.run(t, "stop_chase", nil))
	assert.False(t, f.deps.Selection.GroupChase())

	require.NoError(t, f.run(t, "follower_by_position", Args{"position": 1}))
	require.NoError(t, f.run(t, "chase", Args{"scope": "selected"}))
	assert.True(t, f.deps.Selection.EffectiveChase(1))
	assert.False(t, f.deps.Selection.EffectiveChase(2))

	require.NoError(t, f.run(t, "chase", nil))
	assert.Equal(t, selection.ChaseInherit, f.deps.Selection.SlotChase(1))

	assert.ErrorIs(t, f.run(t, "chase", Args{"scope": "some"}), ErrBadArg)
}

func TestPartyCommandsDelegate(t *testing.T) {
	f := newFixture(t, zap.NewNop())

	require.NoError(t, f.run(t, "save_party", Args{"slot": 1}))
	require.NoError(t, f.run(t, "load_party", Args{"slot": 2}))
	require.NoError(t, f.run(t, "add_party", Args{"slot": 3}))
	require.NoError(t, f.run(t, "clear_party", nil))
	assert.Equal(t, []string{"save:1", "load:2", "add:3", "clear"}, f.party.calls)

	f.party.err = errors.New("slot 4 missing")
	assert.ErrorContains(t, f.run(t, "load_party", Args{"slot": 4}), "slot 4 missing")
}

func TestPoseCommands(t *testing.T) {
	f := newFixture(t, zap.NewNop())
	var images []event.ImageChanged
	event.Subscribe(f.deps.Bus, func(ev event.ImageChanged) { images = append(images, ev) })

	require.NoError(t, f.run(t, "follower_by_position", Args{"position": 1}))
	require.NoError(t, f.run(t, "pose", Args{"name": "sit"}))
	assert.Equal(t, "ActorPriscilla_sit", f.deps.World.Actor(2).CharacterName())

	require.NoError(t, f.run(t, "reset_pose", nil))
	assert.Equal(t, "ActorPriscilla", f.deps.World.Actor(2).CharacterName())

	assert.ErrorIs(t, f.run(t, "pose", Args{}), ErrBadArg)

	require.NoError(t, f.run(t, "follower_by_position", Args{"position": 9}))
	require.NoError(t, f.run(t, "pose", Args{"name": "sit"}), "empty slot is a no-op")

	require.NoError(t, f.run(t, "set_character_image", Args{"actor_id": 3, "name": "Hero", "index": 2}))
	assert.Equal(t, 2, f.deps.World.Actor(3).CharacterIndex())
	require.NoError(t, f.run(t, "actor_step_anime", Args{"actor_id": 3, "on": true}))
	assert.True(t, f.deps.World.Actor(3).AlwaysStepAnime())

	f.deps.Bus.SwapBuffers()
	f.deps.Bus.DispatchAll()
	require.Len(t, images, 4)
	assert.Equal(t, event.ImageChanged{ActorID: 3, Name: "Hero"}, images[3])
}

func TestLeaderAttrPropagatesToChasers(t *testing.T) {
	f := newFixture(t, zap.NewNop())
	f.deps.Selection.SetSlotChase(2, false)

	require.NoError(t, f.run(t, "leader_attr", Args{"opacity": 128, "transparent": true}))

	w := f.deps.World
	assert.Equal(t, 128, w.Player.Opacity)
	assert.Equal(t, 128, w.FollowerCharacter(1).Opacity)
	assert.True(t, w.FollowerCharacter(1).Transparent)
	assert.Equal(t, 255, w.FollowerCharacter(2).Opacity, "stopped follower keeps its own")

	assert.ErrorIs(t, f.run(t, "leader_attr", Args{"walk_anime": "yes"}), ErrBadArg)
}

func TestSetVariable(t *testing.T) {
	f := newFixture(t, zap.NewNop())
	require.NoError(t, f.run(t, "set_variable", Args{"id": 4, "value": 2}))
	assert.Equal(t, int32(2), f.deps.World.Variable(4))
}

func TestTransferToAnotherMapResetsSelection(t *testing.T) {
	f := newFixture(t, zap.NewNop())
	require.NoError(t, f.run(t, "stop_chase", nil))
	require.NoError(t, f.run(t, "follower_by_position", Args{"position": 2}))

	require.NoError(t, f.run(t, "transfer_player", Args{"map_id": 2, "x": 3, "y": 3, "direction": 8}))

	w := f.deps.World
	assert.Equal(t, int16(2), w.MapID)
	assert.True(t, w.Player.Pos(3, 3))
	assert.Equal(t, world.DirUp, w.Player.Dir)
	assert.True(t, w.FollowerCharacter(2).Pos(3, 3))
	assert.Equal(t, 0, f.th.ctx.Selected())
	assert.True(t, f.deps.Selection.GroupChase())
	assert.Equal(t, 1, event.Pending[event.MapTransferred](f.deps.Bus))

	assert.ErrorIs(t, f.run(t, "transfer_player", Args{"map_id": 9, "x": 0, "y": 0}), ErrBadArg)
}

func TestTransferSameMap(t *testing.T) {
	t.Run("leader with chasing party", func(t *testing.T) {
		f := newFixture(t, zap.NewNop())
		require.NoError(t, f.run(t, "transfer_player", Args{"x": 4, "y": 2}))
		w := f.deps.World
		assert.True(t, w.Player.Pos(4, 2))
		assert.True(t, w.FollowerCharacter(1).Pos(4, 2))
		assert.Zero(t, event.Pending[event.MapTransferred](f.deps.Bus))
	})

	t.Run("leader alone when not chasing", func(t *testing.T) {
		f := newFixture(t, zap.NewNop())
		require.NoError(t, f.run(t, "stop_chase", nil))
		require.NoError(t, f.run(t, "transfer_player", Args{"x": 4, "y": 2, "direction": 4}))
		w := f.deps.World
		assert.True(t, w.Player.Pos(4, 2))
		assert.Equal(t, world.DirDown, w.Player.Dir, "placing the leader keeps its facing")
		assert.True(t, w.FollowerCharacter(1).Pos(1, 1))
	})

	t.Run("leader brings forced chasers", func(t *testing.T) {
		f := newFixture(t, zap.NewNop())
		require.NoError(t, f.run(t, "stop_chase", nil))
		require.NoError(t, f.run(t, "follower_by_position", Args{"position": 1}))
		require.NoError(t, f.run(t, "chase", Args{"scope": "selected"}))
		require.NoError(t, f.run(t, "leader", nil))
		require.NoError(t, f.run(t, "transfer_player", Args{"x": 4, "y": 2}))
		w := f.deps.World
		assert.True(t, w.Player.Pos(4, 2))
		assert.True(t, w.FollowerCharacter(1).Pos(4, 2))
		assert.True(t, w.FollowerCharacter(2).Pos(1, 1), "stopped follower stays")
	})

	t.Run("selected follower", func(t *testing.T) {
		f := newFixture(t, zap.NewNop())
		require.NoError(t, f.run(t, "follower_by_position", Args{"position": 1}))
		require.NoError(t, f.run(t, "transfer_player", Args{"x": 0, "y": 2, "direction": 6}))
		w := f.deps.World
		assert.True(t, w.FollowerCharacter(1).Pos(0, 2))
		assert.Equal(t, world.DirRight, w.FollowerCharacter(1).Dir)
		assert.True(t, w.Player.Pos(1, 1))
	})

	t.Run("by variables", func(t *testing.T) {
		f := newFixture(t, zap.NewNop())
		w := f.deps.World
		w.SetVariable(1, 1)
		w.SetVariable(2, 5)
		w.SetVariable(3, 1)
		require.NoError(t, f.run(t, "transfer_player", Args{"by_variables": true, "map_id": 1, "x": 2, "y": 3}))
		assert.True(t, w.Player.Pos(5, 1))
	})
}

func TestSetMoveRoute(t *testing.T) {
	f := newFixture(t, zap.NewNop())

	require.NoError(t, f.run(t, "set_move_route", Args{
		"character": 0,
		"route":     "self:moveToward('Leader')\nself:turnToward('Leader')",
		"wait":      true,
	}))
	route, ok := f.routes.installed["event:3"]
	require.True(t, ok)
	assert.Len(t, route.Lines, 2)
	assert.Equal(t, "event:3", f.th.waitFor)

	require.NoError(t, f.run(t, "follower_by_position", Args{"position": 1}))
	require.NoError(t, f.run(t, "set_move_route", Args{"route": []any{"self:path('Event', 3)"}, "repeat": true, "wait": true}))
	assert.True(t, f.routes.Active("follower:1"))
	assert.Equal(t, "event:3", f.th.waitFor, "repeating routes are never waited on")

	assert.Error(t, f.run(t, "set_move_route", Args{"route": "self:path("}), "compile errors surface")
}

func TestSetMoveRouteAbsentCharacter(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := newFixture(t, zap.New(core))

	require.NoError(t, f.run(t, "set_move_route", Args{"character": 42, "route": "self:turn(2)"}))
	assert.Empty(t, f.routes.installed)
	assert.Equal(t, 1, logs.FilterMessage("move route target absent").Len())
}
