package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/l1jgo/followctl/internal/core/event"
	"github.com/l1jgo/followctl/internal/world"
)

// selectedActor returns the actor bound to the thread's selected lineup
// position, or nil when the position is empty.
func selectedActor(th Thread, deps *Deps) *world.Actor {
	pos := th.Selection().Selected()
	lineup := deps.World.Lineup()
	if pos < 0 || pos >= len(lineup) {
		return nil
	}
	return lineup[pos]
}

func emitImage(deps *Deps, a *world.Actor) {
	event.Emit(deps.Bus, event.ImageChanged{ActorID: a.ID, Name: a.CharacterName()})
}

// HandlePose switches the selected actor's image to "<core>_<name>".
func HandlePose(th Thread, args Args, deps *Deps) error {
	name := args.String("name")
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrBadArg)
	}
	a := selectedActor(th, deps)
	if a == nil {
		return nil
	}
	a.SetPose(name)
	emitImage(deps, a)
	return nil
}

// HandleResetPose restores the selected actor's core image.
func HandleResetPose(th Thread, _ Args, deps *Deps) error {
	a := selectedActor(th, deps)
	if a == nil {
		return nil
	}
	a.ResetPose()
	emitImage(deps, a)
	return nil
}

// HandleSetCharacterImage changes an actor's image and pose core.
func HandleSetCharacterImage(_ Thread, args Args, deps *Deps) error {
	id, err := args.Int("actor_id")
	if err != nil {
		return err
	}
	index, err := args.IntOr("index", 0)
	if err != nil {
		return err
	}
	a := deps.World.Actor(int32(id))
	if a == nil {
		deps.Log.Debug("set_character_image: unknown actor", zap.Int("actor_id", id))
		return nil
	}
	a.SetCharacterImage(args.String("name"), index)
	emitImage(deps, a)
	return nil
}

// HandleActorStepAnime sets an actor's always-step-animate flag.
func HandleActorStepAnime(_ Thread, args Args, deps *Deps) error {
	id, err := args.Int("actor_id")
	if err != nil {
		return err
	}
	on, err := args.Bool("on", true)
	if err != nil {
		return err
	}
	a := deps.World.Actor(int32(id))
	if a == nil {
		return nil
	}
	a.SetAlwaysStepAnime(on)
	emitImage(deps, a)
	return nil
}
