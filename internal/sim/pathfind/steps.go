package pathfind

import "bqclient/internal/sim/world"

// Dir is a cardinal direction. The numbering is part of the wire protocol.
type Dir uint8

const (
	North Dir = iota // -y
	East             // +x
	South            // +y
	West             // -x
)

var dirDeltas = [4]world.Pos{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}

func (d Dir) Delta() (dx, dy int) {
	p := dirDeltas[d&3]
	return p.X, p.Y
}

func (d Dir) String() string {
	switch d & 3 {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	default:
		return "W"
	}
}

// DirBetween returns the direction in which to lies from from. ok is false
// unless the two cells are 4-neighbours.
func DirBetween(from, to world.Pos) (Dir, bool) {
	dx, dy := to.X-from.X, to.Y-from.Y
	for d, p := range dirDeltas {
		if p.X == dx && p.Y == dy {
			return Dir(d), true
		}
	}
	return 0, false
}

// Step is one path element: bits 0-1 hold the direction, values >= 4 mean
// "place a tile in that direction" instead of "move".
type Step uint8

const placeFlag Step = 4

func EncodeStep(d Dir, place bool) Step {
	s := Step(d & 3)
	if place {
		s += placeFlag
	}
	return s
}

func (s Step) Decode() (d Dir, place bool) {
	if s >= placeFlag {
		return Dir(s - placeFlag), true
	}
	return Dir(s), false
}

func (s Step) Valid() bool { return s < 2*placeFlag }

// Path is stored goal-first; the next step to execute is the last element.
type Path []Step

func (p Path) Len() int { return len(p) }

// Pop removes and returns the next step.
func (p *Path) Pop() (Step, bool) {
	n := len(*p)
	if n == 0 {
		return 0, false
	}
	s := (*p)[n-1]
	*p = (*p)[:n-1]
	return s, true
}

// Push makes s the next step to execute.
func (p *Path) Push(s Step) { *p = append(*p, s) }

func (p *Path) Clear() { *p = (*p)[:0] }

// Trace lists the cells visited when p is executed from origin, in
// execution order. Place steps do not move and add no cell.
func Trace(origin world.Pos, p Path) []world.Pos {
	out := make([]world.Pos, 0, len(p))
	cur := origin
	for i := len(p) - 1; i >= 0; i-- {
		d, place := p[i].Decode()
		if place {
			continue
		}
		dx, dy := d.Delta()
		cur = cur.Add(dx, dy)
		out = append(out, cur)
	}
	return out
}
