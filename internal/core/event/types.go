package event

// MapTransferred fires when the whole party moves to a different map.
type MapTransferred struct {
	FromMapID int16
	ToMapID   int16
}

// RosterChanged fires after any party membership or order change.
type RosterChanged struct {
	Reason  string // "load", "add", "clear", "join", "leave"
	Members []int32
}

// ImageChanged fires when an actor's character image (or pose) changes.
type ImageChanged struct {
	ActorID int32
	Name    string
}

// RouteFinished fires when a move route ends (not emitted for repeating routes).
type RouteFinished struct {
	CharacterKey string
}
