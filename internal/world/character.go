package world

import "strconv"

// Kind tells which host object a Character stands for.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindFollower
	KindEvent
)

// Character is a grid mover: the player (leader avatar), a follower slot or a
// map event. Accessed only from the game loop goroutine; no locks needed.
type Character struct {
	Kind Kind
	ID   int32 // event ID, follower lineup position, 0 for the player
	Name string

	X   int32
	Y   int32
	Dir Direction

	Through        bool
	DirectionFix   bool
	Transparent    bool
	NormalPriority bool // events only: sits on the character layer and blocks movers

	Opacity        int
	BlendMode      int
	WalkAnime      bool
	StepAnime      bool
	MoveSpeed      int
	CharacterName  string
	CharacterIndex int

	alwaysStepAnime    bool // mirrored from the bound actor
	searchLimit        int
	defaultSearchLimit int
	moveSucceeded      bool
	steps              int
	attempts           int
}

// NewCharacter creates a character with host defaults. searchLimit is the
// configured global pathfinding budget.
func NewCharacter(kind Kind, id int32, searchLimit int) *Character {
	return &Character{
		Kind:               kind,
		ID:                 id,
		Dir:                DirDown,
		Opacity:            255,
		WalkAnime:          true,
		MoveSpeed:          4,
		searchLimit:        searchLimit,
		defaultSearchLimit: searchLimit,
		moveSucceeded:      true,
	}
}

// Key identifies the character across ticks ("player", "follower:2", "event:5").
func (c *Character) Key() string {
	switch c.Kind {
	case KindPlayer:
		return "player"
	case KindFollower:
		return "follower:" + strconv.Itoa(int(c.ID))
	default:
		return "event:" + strconv.Itoa(int(c.ID))
	}
}

// SearchLimit is this character's pathfinding step budget.
func (c *Character) SearchLimit() int { return c.searchLimit }

// SetSearchLimit overrides the budget; n <= 0 restores the configured default.
func (c *Character) SetSearchLimit(n int) {
	if n > 0 {
		c.searchLimit = n
		return
	}
	c.searchLimit = c.defaultSearchLimit
}

// SetDirection turns the character unless its direction is fixed.
func (c *Character) SetDirection(d Direction) {
	if !c.DirectionFix && d.Valid() {
		c.Dir = d
	}
}

// Locate places the character without any passability check.
func (c *Character) Locate(x, y int32) {
	c.X = x
	c.Y = y
}

func (c *Character) Pos(x, y int32) bool { return c.X == x && c.Y == y }

// DeltaXFrom is the signed x distance from the given column to this character.
func (c *Character) DeltaXFrom(x int32) int32 { return c.X - x }

// DeltaYFrom is the signed y distance from the given row to this character.
func (c *Character) DeltaYFrom(y int32) int32 { return c.Y - y }

// MovementSucceeded reports whether the last attempted step moved.
func (c *Character) MovementSucceeded() bool { return c.moveSucceeded }

// Attempts counts step attempts, successful or not.
func (c *Character) Attempts() int { return c.attempts }

// Steps counts successful steps since creation.
func (c *Character) Steps() int { return c.steps }

// HasStepAnime includes the bound actor's always-step-animate flag.
func (c *Character) HasStepAnime() bool { return c.StepAnime || c.alwaysStepAnime }
