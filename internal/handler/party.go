package handler

// Roster handlers are thin: read the slot, delegate to the party service.
// A missing slot argument reads as 0, which the service rejects.

func HandleSaveParty(_ Thread, args Args, deps *Deps) error {
	slot, err := args.IntOr("slot", 0)
	if err != nil {
		return err
	}
	ctx, cancel := storeContext(deps)
	defer cancel()
	return deps.Party.Save(ctx, int32(slot))
}

func HandleLoadParty(_ Thread, args Args, deps *Deps) error {
	slot, err := args.IntOr("slot", 0)
	if err != nil {
		return err
	}
	ctx, cancel := storeContext(deps)
	defer cancel()
	return deps.Party.Load(ctx, int32(slot))
}

func HandleAddParty(_ Thread, args Args, deps *Deps) error {
	slot, err := args.IntOr("slot", 0)
	if err != nil {
		return err
	}
	ctx, cancel := storeContext(deps)
	defer cancel()
	return deps.Party.Add(ctx, int32(slot))
}

func HandleClearParty(_ Thread, _ Args, deps *Deps) error {
	deps.Party.Clear()
	return nil
}
