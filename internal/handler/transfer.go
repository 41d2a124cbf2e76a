package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/l1jgo/followctl/internal/core/event"
	"github.com/l1jgo/followctl/internal/world"
)

// HandleTransferPlayer moves the selected party member.
//
// To a different map the whole party always goes, followers resume chasing
// and every thread selects the leader again. On the same map: the leader
// with chasing followers takes the party along, the leader alone is just
// placed, and a selected follower is placed and optionally turned.
func HandleTransferPlayer(th Thread, args Args, deps *Deps) error {
	mapID, x, y, err := transferDestination(args, deps)
	if err != nil {
		return err
	}
	d, err := args.IntOr("direction", 0)
	if err != nil {
		return err
	}
	dir := world.Direction(d)
	w := deps.World

	if mapID != w.MapID {
		if w.MapInfo(mapID) == nil {
			return fmt.Errorf("%w: map %d does not exist", ErrBadArg, mapID)
		}
		from := w.MapID
		deps.Selection.OnMapTransfer()
		w.TransferParty(mapID, x, y, dir)
		event.Emit(deps.Bus, event.MapTransferred{FromMapID: from, ToMapID: mapID})
		deps.Log.Info("party transferred",
			zap.Int16("from", from),
			zap.Int16("to", mapID),
			zap.Int32("x", x),
			zap.Int32("y", y),
		)
		return nil
	}

	switch sel := th.Selection().Selected(); {
	case sel == 0 && deps.Selection.GroupChase():
		w.TransferParty(mapID, x, y, dir)
	case sel == 0:
		w.Player.Locate(x, y)
		w.GatherChasers()
	default:
		ch := deps.Selection.Resolve(th.Selection())
		if ch == nil {
			return nil
		}
		ch.Locate(x, y)
		ch.SetDirection(dir)
	}
	return nil
}

// transferDestination reads map_id/x/y directly, or as variable IDs when
// by_variables is set.
func transferDestination(args Args, deps *Deps) (mapID int16, x, y int32, err error) {
	byVars, err := args.Bool("by_variables", false)
	if err != nil {
		return 0, 0, 0, err
	}
	vals := make([]int32, 3)
	for i, key := range []string{"map_id", "x", "y"} {
		var v int
		if key == "map_id" && !byVars {
			v, err = args.IntOr(key, int(deps.World.MapID))
		} else {
			v, err = args.Int(key)
		}
		if err != nil {
			return 0, 0, 0, err
		}
		if byVars {
			vals[i] = deps.World.Variable(int32(v))
		} else {
			vals[i] = int32(v)
		}
	}
	return int16(vals[0]), vals[1], vals[2], nil
}
