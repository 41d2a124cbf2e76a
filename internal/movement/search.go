package movement

import "github.com/l1jgo/followctl/internal/world"

// SearchResult classifies one bounded search.
type SearchResult uint8

const (
	SearchFound     SearchResult = iota // goal reached
	SearchPartial                       // budget ran out, stepping toward the closest cell
	SearchExhausted                     // no progress possible
)

func (r SearchResult) String() string {
	switch r {
	case SearchFound:
		return "found"
	case SearchPartial:
		return "partial"
	default:
		return "exhausted"
	}
}

// SearchObserver is told about every search FindDirectionTo runs.
type SearchObserver interface {
	ObserveSearch(result SearchResult, explored int)
}

type nopObserver struct{}

func (nopObserver) ObserveSearch(SearchResult, int) {}

type cell struct{ x, y int32 }

type node struct {
	parent *node
	x, y   int32
	g, f   int32
}

// FindDirectionTo runs an A*-ordered search over four-way moves from ch to
// (gx, gy) and returns the first direction of the path to the best explored
// node: the goal when reachable, else the explored node closest to it.
// Nodes at depth >= ch.SearchLimit() are not expanded.
func (p *Planner) FindDirectionTo(ch *world.Character, gx, gy int32) world.Direction {
	if ch.X == gx && ch.Y == gy {
		return world.DirNone
	}
	limit := int32(ch.SearchLimit())
	start := &node{x: ch.X, y: ch.Y, f: distance(ch.X, ch.Y, gx, gy)}
	best := start
	open := []*node{start}
	openAt := map[cell]*node{{start.x, start.y}: start}
	closed := make(map[cell]struct{})
	found := false

	for len(open) > 0 {
		bi := 0
		for i, n := range open {
			if n.f < open[bi].f {
				bi = i
			}
		}
		cur := open[bi]
		open = append(open[:bi], open[bi+1:]...)
		delete(openAt, cell{cur.x, cur.y})
		closed[cell{cur.x, cur.y}] = struct{}{}

		if cur.x == gx && cur.y == gy {
			best = cur
			found = true
			break
		}
		if cur.g >= limit {
			continue
		}
		for _, d := range world.Directions {
			c2 := cell{cur.x + d.DX(), cur.y + d.DY()}
			if _, done := closed[c2]; done {
				continue
			}
			if !p.host.CanPass(ch, cur.x, cur.y, d) {
				continue
			}
			g2 := cur.g + 1
			nb, inOpen := openAt[c2]
			if inOpen && g2 >= nb.g {
				continue
			}
			if !inOpen {
				nb = &node{x: c2.x, y: c2.y}
				open = append(open, nb)
				openAt[c2] = nb
			}
			nb.parent = cur
			nb.g = g2
			nb.f = g2 + distance(c2.x, c2.y, gx, gy)
			if nb.f-nb.g < best.f-best.g {
				best = nb
			}
		}
	}

	explored := len(closed)
	if best == start {
		p.observer.ObserveSearch(SearchExhausted, explored)
		return world.DirNone
	}
	if found {
		p.observer.ObserveSearch(SearchFound, explored)
	} else {
		p.observer.ObserveSearch(SearchPartial, explored)
	}

	n := best
	for n.parent != nil && n.parent != start {
		n = n.parent
	}
	dx, dy := n.x-start.x, n.y-start.y
	switch {
	case dy > 0:
		return world.DirDown
	case dx < 0:
		return world.DirLeft
	case dx > 0:
		return world.DirRight
	case dy < 0:
		return world.DirUp
	}
	return world.DirNone
}

func distance(x1, y1, x2, y2 int32) int32 {
	return abs(x1-x2) + abs(y1-y2)
}
