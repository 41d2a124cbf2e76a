package system

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
	coresys "github.com/l1jgo/followctl/internal/core/system"
	"github.com/l1jgo/followctl/internal/data"
	"github.com/l1jgo/followctl/internal/handler"
	"github.com/l1jgo/followctl/internal/movement"
	"github.com/l1jgo/followctl/internal/scripting"
	"github.com/l1jgo/followctl/internal/selection"
	"github.com/l1jgo/followctl/internal/world"
)

type memStore struct {
	slots map[int32][]int32
	err   error
}

func newMemStore() *memStore { return &memStore{slots: make(map[int32][]int32)} }

func (m *memStore) SaveSlot(_ context.Context, slot int32, ids []int32) error {
	if m.err != nil {
		return m.err
	}
	m.slots[slot] = append([]int32{}, ids...)
	return nil
}

func (m *memStore) LoadSlot(_ context.Context, slot int32) ([]int32, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	ids, ok := m.slots[slot]
	return ids, ok, nil
}

type harness struct {
	world     *world.State
	res       *selection.Resolver
	bus       *event.Bus
	store     *memStore
	routes    *MoveRouteSystem
	party     *PartySystem
	followers *FollowerSystem
	reg       *handler.Registry
	runner    *coresys.Runner
	log       *zap.Logger
}

func newHarness(t *testing.T, log *zap.Logger) *harness {
	t.Helper()
	table := data.NewMapDataTable()
	require.NoError(t, table.Put(data.MapInfo{MapID: 1, Width: 6, Height: 3, Events: []data.EventSpawn{
		{EventID: 3, X: 5, Y: 0},
	}}, data.ParseTiles([]string{"......", "..#...", "......"}, 6, 3)))
	require.NoError(t, table.Put(data.MapInfo{MapID: 2, Width: 2, Height: 2},
		data.ParseTiles([]string{"..", ".."}, 2, 2)))

	cfg := &config.Config{
		Party:       config.PartyConfig{MaxBattleMembers: 4, FollowerThrough: true},
		Pathfinding: config.PathfindingConfig{SearchLimit: 12},
		Storage:     config.StorageConfig{Timeout: time.Second},
	}
	w := world.NewState(table, cfg)
	for i, name := range []string{"Reid", "Priscilla", "Gale", "Michelle"} {
		w.AddActor(world.NewActor(&data.ActorTemplate{
			ActorID: int32(i + 1), Name: name, CharacterName: "Actor" + name,
		}))
	}
	for _, id := range []int32{1, 2, 3} {
		w.Party.AddActor(id)
	}
	w.SetupMap(1)
	w.TransferParty(1, 0, 2, world.DirDown)

	h := &harness{world: w, bus: event.NewBus(), store: newMemStore(), log: log}
	h.res = selection.NewResolver(w, log)
	w.SetChasePolicy(h.res.EffectiveChase)
	eng, err := scripting.NewEngine(t.TempDir(), movement.NewPlanner(w, h.res.CharacterAt, log), w, log)
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	h.routes = NewMoveRouteSystem(eng, h.bus, log)
	h.party = NewPartySystem(h.store, w, h.bus, log)
	h.followers = NewFollowerSystem(w, h.bus, log)
	h.reg = handler.NewRegistry(log)
	handler.RegisterAll(h.reg, &handler.Deps{
		Config:    cfg,
		Log:       log,
		World:     w,
		Selection: h.res,
		Scripting: eng,
		Bus:       h.bus,
		Party:     h.party,
		Routes:    h.routes,
	})

	h.runner = coresys.NewRunner()
	h.runner.Register(NewDispatchSystem(h.bus))
	h.runner.Register(h.routes)
	h.runner.Register(h.followers)
	return h
}

func (h *harness) interpreter(t *testing.T, common []data.CommonEvent, threads ...data.ThreadSpec) *InterpreterSystem {
	t.Helper()
	sc, err := data.NewScenario(common, threads)
	require.NoError(t, err)
	in := NewInterpreterSystem(sc, h.reg, h.res, h.routes, h.log)
	h.runner.Register(in)
	return in
}

func (h *harness) tick(n int) {
	for i := 0; i < n; i++ {
		h.runner.Tick(time.Millisecond)
	}
}

func cmd(code string, args map[string]any) data.EventCommand {
	return data.EventCommand{Code: code, Args: args}
}

type threadCount struct{ n int }

func (g *threadCount) SetThreads(n int) { g.n = n }

func TestInterpreterRunsOneCommandPerTick(t *testing.T) {
	h := newHarness(t, zap.NewNop())
	in := h.interpreter(t, nil, data.ThreadSpec{EventID: 3, Commands: []data.EventCommand{
		cmd("follower_by_position", map[string]any{"position": 2}),
		cmd("set_variable", map[string]any{"id": 1, "value": 5}),
		cmd("leader", nil),
	}})
	gauge := &threadCount{}
	in.SetGauge(gauge)

	h.tick(1)
	require.Len(t, in.Threads(), 1)
	th := in.Threads()[0]
	assert.Equal(t, 2, th.Selection().Selected())
	assert.Equal(t, int32(0), h.world.Variable(1))
	assert.Equal(t, 1, gauge.n)

	h.tick(1)
	assert.Equal(t, int32(5), h.world.Variable(1))

	h.tick(1)
	assert.True(t, th.Done())
	assert.True(t, in.Done())
	assert.NoError(t, in.Err())
	assert.Zero(t, h.res.LiveContexts(), "finished thread closes its context")
	assert.Zero(t, gauge.n)
}

func TestThreadsHaveIndependentSelections(t *testing.T) {
	h := newHarness(t, zap.NewNop())
	in := h.interpreter(t, nil,
		data.ThreadSpec{EventID: 3, Commands: []data.EventCommand{
			cmd("follower_by_position", map[string]any{"position": 1}),
			cmd("wait", map[string]any{"frames": 5}),
		}},
		data.ThreadSpec{EventID: 0, Commands: []data.EventCommand{
			cmd("follower_by_position", map[string]any{"position": 3}),
			cmd("wait", map[string]any{"frames": 5}),
		}},
	)

	h.tick(1)
	require.Len(t, in.Threads(), 2)
	assert.Equal(t, 1, in.Threads()[0].Selection().Selected())
	assert.Equal(t, 3, in.Threads()[1].Selection().Selected())
}

func TestCommonEventSharesSelectionWithCaller(t *testing.T) {
	h := newHarness(t, zap.NewNop())
	in := h.interpreter(t,
		[]data.CommonEvent{{ID: 4, Commands: []data.EventCommand{
			cmd("follower_by_position", map[string]any{"position": 1}),
			cmd("set_variable", map[string]any{"id": 2, "value": 1}),
		}}},
		data.ThreadSpec{EventID: 3, Commands: []data.EventCommand{
			cmd("call_common_event", map[string]any{"id": 4}),
			cmd("set_variable", map[string]any{"id": 3, "value": 9}),
		}},
	)

	h.tick(2)
	th := in.Threads()[0]
	assert.False(t, th.Selection().IsRoot(), "child frame runs")
	assert.Equal(t, 1, th.Selection().Selected())

	h.tick(1)
	assert.Equal(t, int32(1), h.world.Variable(2))
	assert.True(t, th.Selection().IsRoot(), "child frame popped")
	assert.Equal(t, 1, th.Selection().Selected(), "child write visible to the caller")
	assert.Equal(t, int32(0), h.world.Variable(3))

	h.tick(1)
	assert.Equal(t, int32(9), h.world.Variable(3))
	assert.True(t, in.Done())
}

func TestMissingCommonEventIsSkipped(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := newHarness(t, zap.New(core))
	in := h.interpreter(t, nil, data.ThreadSpec{Commands: []data.EventCommand{
		cmd("call_common_event", map[string]any{"id": 8}),
		cmd("set_variable", map[string]any{"id": 1, "value": 1}),
	}})

	h.tick(2)
	assert.Equal(t, int32(1), h.world.Variable(1))
	assert.True(t, in.Done())
	assert.Equal(t, 1, logs.FilterMessage("common event not found").Len())
}

func TestRecursiveCommonEventHitsDepthLimit(t *testing.T) {
	h := newHarness(t, zap.NewNop())
	in := h.interpreter(t,
		[]data.CommonEvent{{ID: 1, Commands: []data.EventCommand{
			cmd("call_common_event", map[string]any{"id": 1}),
		}}},
		data.ThreadSpec{Commands: []data.EventCommand{cmd("call_common_event", map[string]any{"id": 1})}},
	)

	h.tick(maxCallDepth + 1)
	assert.ErrorIs(t, in.Err(), ErrCallDepth)
	assert.True(t, in.Done())
}

func TestWaitHoldsTheThread(t *testing.T) {
	h := newHarness(t, zap.NewNop())
	h.interpreter(t, nil, data.ThreadSpec{Commands: []data.EventCommand{
		cmd("wait", map[string]any{"frames": 3}),
		cmd("set_variable", map[string]any{"id": 1, "value": 1}),
	}})

	h.tick(3)
	assert.Equal(t, int32(0), h.world.Variable(1))
	h.tick(1)
	assert.Equal(t, int32(1), h.world.Variable(1))
}

func TestThreadStartsAtItsTick(t *testing.T) {
	h := newHarness(t, zap.NewNop())
	in := h.interpreter(t, nil, data.ThreadSpec{StartTick: 2, Commands: []data.EventCommand{
		cmd("leader", nil),
		cmd("leader", nil),
	}})

	h.tick(2)
	assert.Empty(t, in.Threads())
	assert.False(t, in.Done())
	h.tick(1)
	assert.Len(t, in.Threads(), 1)
}

func TestCommandErrorAbortsTheRun(t *testing.T) {
	h := newHarness(t, zap.NewNop())
	in := h.interpreter(t, nil, data.ThreadSpec{EventID: 3, Commands: []data.EventCommand{
		cmd("load_party", map[string]any{"slot": 0}),
		cmd("set_variable", map[string]any{"id": 1, "value": 1}),
	}})

	h.tick(3)
	require.Error(t, in.Err())
	assert.ErrorIs(t, in.Err(), ErrInvalidSlot)
	assert.Contains(t, in.Err().Error(), "event 3")
	assert.True(t, in.Done())
	assert.Equal(t, int32(0), h.world.Variable(1))
}

func TestThreadWaitsForMoveRoute(t *testing.T) {
	h := newHarness(t, zap.NewNop())
	h.interpreter(t, nil, data.ThreadSpec{EventID: 3, Commands: []data.EventCommand{
		cmd("set_move_route", map[string]any{
			"character": 0,
			"route":     "self:move(4)\nself:move(4)",
			"wait":      true,
		}),
		cmd("set_variable", map[string]any{"id": 1, "value": 1}),
	}})
	ev := h.world.Event(3)

	h.tick(1)
	assert.True(t, ev.Pos(4, 0), "route runs the tick it is installed")
	h.tick(1)
	assert.True(t, ev.Pos(3, 0))
	assert.Equal(t, int32(0), h.world.Variable(1))
	h.tick(1)
	assert.Equal(t, int32(1), h.world.Variable(1))
}

func TestBlockedLineRetriesUnlessSkippable(t *testing.T) {
	h := newHarness(t, zap.NewNop())
	lines := []string{"self:move(6)", "self:move(2)"}

	stuck := h.world.PlaceEvent(data.EventSpawn{EventID: 7, X: 1, Y: 1})
	h.routes.Install(stuck, scripting.Route{Lines: lines})
	for i := 0; i < 3; i++ {
		h.routes.Update(0)
	}
	assert.True(t, h.routes.Active("event:7"))
	assert.True(t, stuck.Pos(1, 1))

	h.routes.Install(stuck, scripting.Route{Lines: lines, Skippable: true})
	h.routes.Update(0)
	h.routes.Update(0)
	assert.True(t, stuck.Pos(1, 2))
	assert.False(t, h.routes.Active("event:7"))
	assert.Equal(t, 1, event.Pending[event.RouteFinished](h.bus))
}

func TestRepeatingRouteStartsOver(t *testing.T) {
	h := newHarness(t, zap.NewNop())
	ev := h.world.Event(3)
	h.routes.Install(ev, scripting.Route{Lines: []string{"self:move(4)", "self:move(6)"}, Repeat: true})

	for i := 0; i < 5; i++ {
		h.routes.Update(0)
	}
	assert.True(t, ev.Pos(4, 0))
	assert.Equal(t, 1, h.routes.Len())
	assert.Zero(t, event.Pending[event.RouteFinished](h.bus))
}

func TestRouteErrorEndsRoute(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := newHarness(t, zap.New(core))
	h.routes.Install(h.world.Event(3), scripting.Route{Lines: []string{"self:path('Event', 99)"}})

	h.routes.Update(0)
	assert.False(t, h.routes.Active("event:3"))
	entries := logs.FilterMessage("move route aborted").All()
	require.Len(t, entries, 1)
	var logged error
	for _, f := range entries[0].Context {
		if f.Key == "error" {
			logged, _ = f.Interface.(error)
		}
	}
	assert.ErrorIs(t, logged, movement.ErrNoTarget)
}

func TestMapTransferDropsEventRoutes(t *testing.T) {
	h := newHarness(t, zap.NewNop())
	route := scripting.Route{Lines: []string{"self:turn(8)"}, Repeat: true}
	h.routes.Install(h.world.Event(3), route)
	h.routes.Install(h.world.Player, route)

	event.Emit(h.bus, event.MapTransferred{FromMapID: 1, ToMapID: 2})
	h.tick(1)

	assert.False(t, h.routes.Active("event:3"))
	assert.True(t, h.routes.Active("player"))
}

func TestPartySaveLoadAdd(t *testing.T) {
	h := newHarness(t, zap.NewNop())
	ctx := context.Background()
	p := h.world.Party

	require.NoError(t, h.party.Save(ctx, 1))
	assert.Equal(t, []int32{1, 2, 3}, h.store.slots[1])

	h.party.Clear()
	assert.Empty(t, p.Members())

	require.NoError(t, h.party.Load(ctx, 1))
	assert.Equal(t, []int32{1, 2, 3}, p.Members())

	h.store.slots[2] = []int32{4, 2}
	require.NoError(t, h.party.Add(ctx, 2))
	assert.Equal(t, []int32{1, 2, 3, 4}, p.Members(), "present members are not duplicated")

	assert.Equal(t, 3, event.Pending[event.RosterChanged](h.bus))
}

func TestPartySlotErrors(t *testing.T) {
	h := newHarness(t, zap.NewNop())
	ctx := context.Background()

	assert.ErrorIs(t, h.party.Save(ctx, 0), ErrInvalidSlot)
	assert.ErrorIs(t, h.party.Load(ctx, -1), ErrInvalidSlot)
	assert.ErrorIs(t, h.party.Add(ctx, 0), ErrInvalidSlot)
	assert.ErrorIs(t, h.party.Load(ctx, 5), ErrSlotNotFound)
	assert.ErrorIs(t, h.party.Add(ctx, 5), ErrSlotNotFound)

	h.store.err = errors.New("disk gone")
	assert.ErrorContains(t, h.party.Save(ctx, 1), "disk gone")
	assert.Equal(t, []int32{1, 2, 3}, h.world.Party.Members())
	assert.Zero(t, event.Pending[event.RosterChanged](h.bus))
}

func TestPartyLoadSkipsUnknownActors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := newHarness(t, zap.New(core))
	h.store.slots[1] = []int32{2, 99}

	require.NoError(t, h.party.Load(context.Background(), 1))
	assert.Equal(t, []int32{2}, h.world.Party.Members())
	assert.Equal(t, 1, logs.FilterMessage("saved party names unknown actors").Len())
}

func TestRosterChangeRefreshesFollowers(t *testing.T) {
	h := newHarness(t, zap.NewNop())
	h.tick(1)
	slot := h.world.Followers.Slot(1)
	require.True(t, slot.Visible())
	assert.Equal(t, "ActorPriscilla", slot.CharacterName)

	h.party.Clear()
	assert.True(t, slot.Visible(), "refresh waits for the bus")
	h.tick(1)
	assert.False(t, slot.Visible())
	assert.Empty(t, slot.CharacterName)

	h.store.slots[1] = []int32{4, 3}
	require.NoError(t, h.party.Load(context.Background(), 1))
	h.tick(1)
	assert.Equal(t, "ActorGale", slot.CharacterName)
	assert.False(t, h.world.Followers.Slot(2).Visible())
}

func TestFollowerSystemSyncsMoveSpeed(t *testing.T) {
	h := newHarness(t, zap.NewNop())
	h.res.SetSlotChase(2, false)
	h.world.Player.MoveSpeed = 5

	h.tick(1)
	assert.Equal(t, 5, h.world.FollowerCharacter(1).MoveSpeed)
	assert.Equal(t, 4, h.world.FollowerCharacter(2).MoveSpeed)
}

func TestAutosaveOnlyWhenDirty(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := newHarness(t, zap.New(core))
	ps := NewPersistenceSystem(h.store, h.world, h.bus, 9, 2, time.Second, zap.New(core))
	h.runner.Register(ps)

	h.tick(2)
	assert.NotContains(t, h.store.slots, int32(9), "nothing changed yet")

	h.party.Clear()
	h.tick(2)
	assert.Equal(t, []int32{}, h.store.slots[9])

	delete(h.store.slots, 9)
	h.tick(2)
	assert.NotContains(t, h.store.slots, int32(9))

	ps.SaveNow()
	assert.Contains(t, h.store.slots, int32(9))

	h.store.err = errors.New("disk gone")
	h.party.Clear()
	h.tick(2)
	assert.Equal(t, 1, logs.FilterMessage("roster autosave failed").Len())
}
