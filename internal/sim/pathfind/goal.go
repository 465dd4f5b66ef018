package pathfind

import (
	"fmt"

	"bqclient/internal/sim/mathx"
	"bqclient/internal/sim/tiles"
	"bqclient/internal/sim/world"
)

type GoalKind int

const (
	GoalExact GoalKind = iota
	GoalCategory
	GoalAdjacent
)

// Goal is the search termination test, evaluated on each node as it is
// popped from the open set.
type Goal struct {
	Kind       GoalKind
	Target     world.Pos
	Categories []tiles.Category
}

// ExactPosition is satisfied by standing on p.
func ExactPosition(p world.Pos) Goal { return Goal{Kind: GoalExact, Target: p} }

// CategoryMatch is satisfied by the first cell whose tile is in one of cats.
func CategoryMatch(cats ...tiles.Category) Goal {
	return Goal{Kind: GoalCategory, Categories: cats}
}

// AdjacentTo is satisfied by any 4-neighbour of p; the search records the
// direction from that cell toward p as the approach direction.
func AdjacentTo(p world.Pos) Goal { return Goal{Kind: GoalAdjacent, Target: p} }

func (g Goal) String() string {
	switch g.Kind {
	case GoalExact:
		return fmt.Sprintf("exact(%d,%d)", g.Target.X, g.Target.Y)
	case GoalAdjacent:
		return fmt.Sprintf("adjacent(%d,%d)", g.Target.X, g.Target.Y)
	default:
		return fmt.Sprintf("category%v", g.Categories)
	}
}

// heuristicTarget is the cell the Manhattan heuristic measures against.
// Category goals have no fixed target and measure against the origin,
// which biases the search toward the nearest match.
func (g Goal) heuristicTarget(origin world.Pos) world.Pos {
	if g.Kind == GoalCategory {
		return origin
	}
	return g.Target
}

func (g Goal) reached(grid Grid, p world.Pos) (bool, Dir) {
	switch g.Kind {
	case GoalExact:
		return p == g.Target, 0
	case GoalAdjacent:
		if mathx.Manhattan(p.X, p.Y, g.Target.X, g.Target.Y) != 1 {
			return false, 0
		}
		d, _ := DirBetween(p, g.Target)
		return true, d
	case GoalCategory:
		c := tiles.Classify(grid.Get(p.X, p.Y))
		for _, want := range g.Categories {
			if c == want {
				return true, 0
			}
		}
	}
	return false, 0
}
