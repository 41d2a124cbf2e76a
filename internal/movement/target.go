package movement

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrBadTarget is returned for target arguments that name no known tag
	// and are not coordinates.
	ErrBadTarget = errors.New("movement: bad target")
	// ErrNoTarget is returned when the target character does not exist.
	ErrNoTarget = errors.New("movement: target not found")
)

type TargetKind uint8

const (
	TargetCoordinates TargetKind = iota
	TargetEvent
	TargetFollower
	TargetLeader
)

func (k TargetKind) String() string {
	switch k {
	case TargetEvent:
		return "event"
	case TargetFollower:
		return "follower"
	case TargetLeader:
		return "leader"
	default:
		return "coordinates"
	}
}

// Target is where a mover heads: a map cell, an event, a follower position
// (0 or less means the leader) or the leader.
type Target struct {
	Kind TargetKind
	X, Y int32 // TargetCoordinates
	ID   int32 // event ID or follower position
}

func Coordinates(x, y int32) Target { return Target{Kind: TargetCoordinates, X: x, Y: y} }
func Event(id int32) Target         { return Target{Kind: TargetEvent, ID: id} }
func Follower(pos int32) Target     { return Target{Kind: TargetFollower, ID: pos} }
func Leader() Target                { return Target{Kind: TargetLeader} }

func (t Target) String() string {
	switch t.Kind {
	case TargetCoordinates:
		return fmt.Sprintf("(%d,%d)", t.X, t.Y)
	case TargetLeader:
		return "leader"
	default:
		return fmt.Sprintf("%s %d", t.Kind, t.ID)
	}
}

var lower = cases.Lower(language.Und)

// ParseTarget reads the two script arguments of path/moveToward/turnToward.
// A string first argument is a tag matched on its first letter, case
// insensitively: "e" event, "f" follower, "l" leader. Anything else is an x
// coordinate with second as y.
func ParseTarget(first, second any) (Target, error) {
	if tag, ok := first.(string); ok {
		r, _ := utf8.DecodeRuneInString(lower.String(tag))
		switch r {
		case 'e':
			id, err := toInt32(second)
			if err != nil {
				return Target{}, fmt.Errorf("%w: event id: %v", ErrBadTarget, err)
			}
			return Event(id), nil
		case 'f':
			pos, err := toInt32(second)
			if err != nil {
				return Target{}, fmt.Errorf("%w: follower position: %v", ErrBadTarget, err)
			}
			return Follower(pos), nil
		case 'l':
			return Leader(), nil
		}
		return Target{}, fmt.Errorf("%w: unknown tag %q", ErrBadTarget, tag)
	}
	x, err := toInt32(first)
	if err != nil {
		return Target{}, fmt.Errorf("%w: x: %v", ErrBadTarget, err)
	}
	y, err := toInt32(second)
	if err != nil {
		return Target{}, fmt.Errorf("%w: y: %v", ErrBadTarget, err)
	}
	return Coordinates(x, y), nil
}

func toInt32(v any) (int32, error) {
	switch n := v.(type) {
	case int:
		return int32(n), nil
	case int32:
		return n, nil
	case int64:
		return int32(n), nil
	case float64:
		return int32(n), nil
	case nil:
		return 0, errors.New("missing")
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
