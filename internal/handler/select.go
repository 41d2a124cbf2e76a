package handler

import "go.uber.org/zap"

// HandleLeader selects the leader.
func HandleLeader(th Thread, _ Args, deps *Deps) error {
	deps.Selection.SelectLeader(th.Selection())
	return nil
}

// HandleFollowerByPosition stores the position as given; range is checked
// only when the selection is resolved.
func HandleFollowerByPosition(th Thread, args Args, deps *Deps) error {
	pos, err := args.Int("position")
	if err != nil {
		return err
	}
	deps.Selection.SelectFollowerByPosition(th.Selection(), pos)
	return nil
}

// HandleFollowerByName selects the lineup member with the given name.
// An empty name or no match leaves the selection alone.
func HandleFollowerByName(th Thread, args Args, deps *Deps) error {
	name := args.String("name")
	if name == "" {
		return nil
	}
	if !deps.Selection.SelectFollowerByName(th.Selection(), name) {
		deps.Log.Debug("follower name not in lineup", zap.String("name", name))
	}
	return nil
}

func HandleFollowerByActorID(th Thread, args Args, deps *Deps) error {
	id, err := args.IntOr("actor_id", 0)
	if err != nil || id == 0 {
		return err
	}
	if !deps.Selection.SelectFollowerByActorID(th.Selection(), int32(id)) {
		deps.Log.Debug("actor not in lineup", zap.Int("actor_id", id))
	}
	return nil
}

func HandleFollowerByVariable(th Thread, args Args, deps *Deps) error {
	varID, err := args.Int("variable_id")
	if err != nil {
		return err
	}
	deps.Selection.SelectFollowerByVariable(th.Selection(), int32(varID))
	return nil
}
