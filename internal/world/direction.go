package world

// Direction uses numpad codes: 2 down, 4 left, 6 right, 8 up. 0 = none.
type Direction int

const (
	DirNone  Direction = 0
	DirDown  Direction = 2
	DirLeft  Direction = 4
	DirRight Direction = 6
	DirUp    Direction = 8
)

// Directions lists the four movement directions in search order.
var Directions = [4]Direction{DirDown, DirLeft, DirRight, DirUp}

func (d Direction) Valid() bool {
	return d == DirDown || d == DirLeft || d == DirRight || d == DirUp
}

func (d Direction) DX() int32 {
	switch d {
	case DirLeft:
		return -1
	case DirRight:
		return 1
	}
	return 0
}

func (d Direction) DY() int32 {
	switch d {
	case DirUp:
		return -1
	case DirDown:
		return 1
	}
	return 0
}

// Reverse returns the opposite direction (DirNone stays DirNone).
func (d Direction) Reverse() Direction {
	if !d.Valid() {
		return DirNone
	}
	return 10 - d
}

func (d Direction) String() string {
	switch d {
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirUp:
		return "up"
	default:
		return "none"
	}
}
