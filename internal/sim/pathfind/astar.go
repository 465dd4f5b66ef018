// Package pathfind implements the weighted A* used to plan walks, wall
// breaks and tile placements across the sparse grid.
//
// The closed set is never reopened: a cheaper route into an already expanded
// cell is ignored. Results are deterministic for a given grid, hazard set,
// origin and goal.
package pathfind

import (
	"container/heap"
	"errors"
	"fmt"

	"bqclient/internal/sim/mathx"
	"bqclient/internal/sim/tiles"
	"bqclient/internal/sim/world"
)

var ErrUnreachable = errors.New("destination unreachable")

// Grid is the read side of the tile store.
type Grid interface {
	Get(x, y int) uint8
}

type Weights struct {
	Step         int // walkable, no hazard nearby
	Wall         int // non-walkable, broken through
	Hazard       int // within HazardRadius (Chebyshev) of an enemy
	HazardRadius int
}

func DefaultWeights() Weights {
	return Weights{Step: 1, Wall: 4, Hazard: 1000, HazardRadius: 2}
}

type Finder struct {
	Weights Weights
	// MaxExpanded bounds the number of expanded nodes; 0 means unbounded.
	MaxExpanded int
}

func NewFinder() *Finder {
	return &Finder{Weights: DefaultWeights()}
}

type Result struct {
	Path Path
	Cost int
	End  world.Pos
	// Approach is the direction from End toward the target of an AdjacentTo goal.
	Approach Dir
	Expanded int
}

// Fixed neighbour order (W, E, N, S); part of the tie-break contract.
var neighbourOrder = [4]world.Pos{{X: -1, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: 0, Y: 1}}

// Find searches from origin until goal is satisfied by a popped node. With
// avoidDamage set, non-walkable cells are never entered; otherwise they cost
// Weights.Wall to break through.
func (f *Finder) Find(grid Grid, hazards []world.Pos, origin world.Pos, goal Goal, avoidDamage bool) (Result, error) {
	w := f.Weights
	target := goal.heuristicTarget(origin)

	open := &openQueue{}
	openAt := map[world.Pos]*node{}
	closed := map[world.Pos]bool{}
	seq := 0

	start := &node{pos: origin}
	heap.Push(open, start)
	openAt[origin] = start

	expanded := 0
	for open.Len() > 0 {
		best := heap.Pop(open).(*node)
		delete(openAt, best.pos)
		closed[best.pos] = true
		expanded++

		if ok, approach := goal.reached(grid, best.pos); ok {
			return Result{
				Path:     reconstruct(best),
				Cost:     best.g,
				End:      best.pos,
				Approach: approach,
				Expanded: expanded,
			}, nil
		}
		if f.MaxExpanded > 0 && expanded >= f.MaxExpanded {
			return Result{Expanded: expanded}, fmt.Errorf("%w: %s after %d nodes", ErrUnreachable, goal, expanded)
		}

		for _, d := range neighbourOrder {
			p := best.pos.Add(d.X, d.Y)
			if closed[p] {
				continue
			}

			weight := w.Step
			if !tiles.Walkable(grid.Get(p.X, p.Y)) {
				if avoidDamage {
					continue
				}
				weight = w.Wall
			}
			if nearHazard(hazards, p, w.HazardRadius) {
				weight = w.Hazard
			}

			g := best.g + weight
			h := mathx.Manhattan(p.X, p.Y, target.X, target.Y)
			if existing, ok := openAt[p]; ok {
				if g < existing.g {
					existing.g = g
					existing.f = g + h
					existing.parent = best
					heap.Fix(open, existing.index)
				}
				continue
			}
			seq++
			n := &node{pos: p, g: g, h: h, f: g + h, seq: seq, parent: best}
			heap.Push(open, n)
			openAt[p] = n
		}
	}
	return Result{Expanded: expanded}, fmt.Errorf("%w: %s", ErrUnreachable, goal)
}

// PlanPlace finds a hazard-aware route to a cell next to target without
// breaking anything, and appends the place action as the final step.
func (f *Finder) PlanPlace(grid Grid, hazards []world.Pos, origin, target world.Pos) (Result, error) {
	res, err := f.Find(grid, hazards, origin, AdjacentTo(target), true)
	if err != nil {
		return res, err
	}
	path := make(Path, 0, len(res.Path)+1)
	path = append(path, EncodeStep(res.Approach, true))
	res.Path = append(path, res.Path...)
	return res, nil
}

func nearHazard(hazards []world.Pos, p world.Pos, radius int) bool {
	for _, hz := range hazards {
		if mathx.Chebyshev(hz.X, hz.Y, p.X, p.Y) <= radius {
			return true
		}
	}
	return false
}

// reconstruct walks parent links back to the origin. Each step is the
// direction in which the child lies from its parent; the result is ordered
// goal first.
func reconstruct(end *node) Path {
	var path Path
	for n := end; n.parent != nil; n = n.parent {
		d, _ := DirBetween(n.parent.pos, n.pos)
		path = append(path, EncodeStep(d, false))
	}
	return path
}
