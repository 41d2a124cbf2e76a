package handler

import (
	"fmt"

	"go.uber.org/zap"
)

// HandleChase implements chase and stop_chase. scope "all" (default) sets
// the group flag and clears overrides; "selected" acts on the selection.
func HandleChase(th Thread, args Args, deps *Deps, on bool) error {
	switch scope := args.StringOr("scope", "all"); scope {
	case "all":
		deps.Selection.SetGroupChase(on)
	case "selected":
		deps.Selection.ChaseSelected(th.Selection(), on)
	default:
		return fmt.Errorf("%w: scope %q, want all or selected", ErrBadArg, scope)
	}
	deps.Log.Debug("chase changed",
		zap.Bool("on", on),
		zap.Bool("group", deps.Selection.GroupChase()),
		zap.Int("selected", th.Selection().Selected()),
	)
	return nil
}
