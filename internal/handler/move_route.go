package handler

import (
	"go.uber.org/zap"

	"github.com/l1jgo/followctl/internal/scripting"
)

// HandleSetMoveRoute installs a Lua move route. character: -1 the selected
// party member, 0 the thread's own event, > 0 a map event.
func HandleSetMoveRoute(th Thread, args Args, deps *Deps) error {
	param, err := args.IntOr("character", -1)
	if err != nil {
		return err
	}
	lines, err := args.Lines("route")
	if err != nil {
		return err
	}
	route := scripting.Route{Lines: lines}
	if route.Repeat, err = args.Bool("repeat", false); err != nil {
		return err
	}
	if route.Skippable, err = args.Bool("skippable", false); err != nil {
		return err
	}
	if route.Wait, err = args.Bool("wait", false); err != nil {
		return err
	}
	if err := deps.Scripting.CompileRoute(route); err != nil {
		return err
	}

	ch := CharacterFor(th, param, deps)
	if ch == nil {
		deps.Log.Debug("move route target absent", zap.Int("character", param))
		return nil
	}
	deps.Routes.Install(ch, route)
	if route.Wait && !route.Repeat {
		th.WaitForRoute(ch.Key())
	}
	return nil
}
