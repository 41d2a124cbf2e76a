package handler

// HandleLeaderAttr applies leader display attributes. Each present key is
// copied onto followers that are chasing.
func HandleLeaderAttr(_ Thread, args Args, deps *Deps) error {
	w := deps.World
	ints := []struct {
		key string
		set func(int)
	}{
		{"opacity", w.SetLeaderOpacity},
		{"blend_mode", w.SetLeaderBlendMode},
		{"move_speed", w.SetLeaderMoveSpeed},
	}
	for _, a := range ints {
		if !args.Has(a.key) {
			continue
		}
		v, err := args.Int(a.key)
		if err != nil {
			return err
		}
		a.set(v)
	}

	bools := []struct {
		key string
		set func(bool)
	}{
		{"walk_anime", w.SetLeaderWalkAnime},
		{"step_anime", w.SetLeaderStepAnime},
		{"direction_fix", w.SetLeaderDirectionFix},
		{"transparent", w.SetLeaderTransparent},
	}
	for _, a := range bools {
		if !args.Has(a.key) {
			continue
		}
		v, err := args.Bool(a.key, false)
		if err != nil {
			return err
		}
		a.set(v)
	}
	return nil
}

func HandleSetVariable(_ Thread, args Args, deps *Deps) error {
	id, err := args.Int("id")
	if err != nil {
		return err
	}
	value, err := args.Int("value")
	if err != nil {
		return err
	}
	deps.World.SetVariable(int32(id), int32(value))
	return nil
}
