package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/l1jgo/followctl/internal/config"
	"github.com/l1jgo/followctl/internal/core/event"
	"github.com/l1jgo/followctl/internal/scripting"
	"github.com/l1jgo/followctl/internal/selection"
	"github.com/l1jgo/followctl/internal/world"
)

// PartyManager performs saved-party roster operations.
type PartyManager interface {
	Save(ctx context.Context, slot int32) error
	Load(ctx context.Context, slot int32) error
	Add(ctx context.Context, slot int32) error
	Clear()
}

// RouteManager installs move routes on characters.
type RouteManager interface {
	Install(ch *world.Character, r scripting.Route)
	Active(key string) bool
}

// Deps holds shared dependencies injected into all command handlers.
type Deps struct {
	Config    *config.Config
	Log       *zap.Logger
	World     *world.State
	Selection *selection.Resolver
	Scripting *scripting.Engine
	Bus       *event.Bus
	Party     PartyManager
	Routes    RouteManager
}

// RegisterAll registers all command handlers into the registry.
func RegisterAll(reg *Registry, deps *Deps) {
	// Selection
	reg.Register("leader", func(th Thread, args Args) error {
		return HandleLeader(th, args, deps)
	})
	reg.Register("follower_by_position", func(th Thread, args Args) error {
		return HandleFollowerByPosition(th, args, deps)
	})
	reg.Register("follower_by_name", func(th Thread, args Args) error {
		return HandleFollowerByName(th, args, deps)
	})
	reg.Register("follower_by_actor_id", func(th Thread, args Args) error {
		return HandleFollowerByActorID(th, args, deps)
	})
	reg.Register("follower_by_variable", func(th Thread, args Args) error {
		return HandleFollowerByVariable(th, args, deps)
	})

	// Chase
	reg.Register("stop_chase", func(th Thread, args Args) error {
		return HandleChase(th, args, deps, false)
	})
	reg.Register("chase", func(th Thread, args Args) error {
		return HandleChase(th, args, deps, true)
	})

	// Roster
	reg.Register("save_party", func(th Thread, args Args) error {
		return HandleSaveParty(th, args, deps)
	})
	reg.Register("load_party", func(th Thread, args Args) error {
		return HandleLoadParty(th, args, deps)
	})
	reg.Register("add_party", func(th Thread, args Args) error {
		return HandleAddParty(th, args, deps)
	})
	reg.Register("clear_party", func(th Thread, args Args) error {
		return HandleClearParty(th, args, deps)
	})

	// Cosmetic
	reg.Register("pose", func(th Thread, args Args) error {
		return HandlePose(th, args, deps)
	})
	reg.Register("reset_pose", func(th Thread, args Args) error {
		return HandleResetPose(th, args, deps)
	})
	reg.Register("set_character_image", func(th Thread, args Args) error {
		return HandleSetCharacterImage(th, args, deps)
	})
	reg.Register("actor_step_anime", func(th Thread, args Args) error {
		return HandleActorStepAnime(th, args, deps)
	})
	reg.Register("leader_attr", func(th Thread, args Args) error {
		return HandleLeaderAttr(th, args, deps)
	})

	// Movement
	reg.Register("transfer_player", func(th Thread, args Args) error {
		return HandleTransferPlayer(th, args, deps)
	})
	reg.Register("set_move_route", func(th Thread, args Args) error {
		return HandleSetMoveRoute(th, args, deps)
	})

	// Variables
	reg.Register("set_variable", func(th Thread, args Args) error {
		return HandleSetVariable(th, args, deps)
	})
}

// CharacterFor resolves the character a generic command targets:
// param < 0 is the thread's selection, 0 is the thread's own event, > 0 is
// the map event with that ID. Returns nil when absent.
func CharacterFor(th Thread, param int, deps *Deps) *world.Character {
	switch {
	case param < 0:
		return deps.Selection.Resolve(th.Selection())
	case param == 0:
		return deps.World.Event(th.EventID())
	default:
		return deps.World.Event(int32(param))
	}
}

// storeContext bounds one store call by the configured timeout.
func storeContext(deps *Deps) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), deps.Config.Storage.Timeout)
}
