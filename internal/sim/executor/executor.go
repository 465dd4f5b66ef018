// Package executor turns the planned path and manual key input into
// outbound commands, one decision per open input gate.
package executor

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"bqclient/internal/logging"
	"bqclient/internal/protocol"
	"bqclient/internal/sim/pathfind"
	"bqclient/internal/sim/simctx"
	"bqclient/internal/sim/tiles"
	"bqclient/internal/sim/world"
)

// Sink receives outbound commands; the session flushes them once per tick.
type Sink interface {
	Queue(cmds ...protocol.Command)
}

// UserLog is the user-facing message pane.
type UserLog interface {
	Add(sender, text string)
}

const DefaultInputInterval = time.Second / 16

type State int

const (
	StateIdle State = iota
	StateManualMove
	StateFollowingPath
	StateCommittedAction
)

func (s State) String() string {
	switch s {
	case StateManualMove:
		return "manual"
	case StateFollowingPath:
		return "following"
	case StateCommittedAction:
		return "committed"
	default:
		return "idle"
	}
}

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionWalk
	ActionPlace
	ActionBreak
	ActionCollect
	// ActionBlocked: a direction was chosen but the target cell allowed
	// nothing. The path step is still consumed.
	ActionBlocked
)

type Action struct {
	Kind     ActionKind
	Dir      pathfind.Dir
	Target   world.Pos
	FromPath bool
}

type Executor struct {
	st      *simctx.State
	sink    Sink
	keys    KeySource
	finder  *pathfind.Finder
	userLog UserLog
	log     *logrus.Entry

	interval  time.Duration
	lastInput time.Time
	manual    bool

	huntFailing bool
}

type Options struct {
	InputInterval time.Duration
	Finder        *pathfind.Finder
	UserLog       UserLog
	Log           *logrus.Entry
}

func New(st *simctx.State, sink Sink, keys KeySource, opts Options) *Executor {
	e := &Executor{
		st:       st,
		sink:     sink,
		keys:     keys,
		finder:   opts.Finder,
		userLog:  opts.UserLog,
		log:      opts.Log,
		interval: opts.InputInterval,
	}
	if e.interval <= 0 {
		e.interval = DefaultInputInterval
	}
	if e.finder == nil {
		e.finder = pathfind.NewFinder()
	}
	if e.log == nil {
		e.log = logging.Discard()
	}
	return e
}

// State is derived from the context: a pending crack dominates, then a
// non-empty path, then whether the last decision came from the keys.
func (e *Executor) State() State {
	switch {
	case e.st.Crack != nil:
		return StateCommittedAction
	case e.st.Path.Len() > 0:
		return StateFollowingPath
	case e.manual:
		return StateManualMove
	default:
		return StateIdle
	}
}

// TouchGate restarts the input interval. Authoritative position corrections
// call it so that the next move is not sent on top of a stale prediction.
func (e *Executor) TouchGate(now time.Time) { e.lastInput = now }

func (e *Executor) gateOpen(now time.Time) bool {
	return now.Sub(e.lastInput) > e.interval && e.st.Crack == nil
}

// Step makes at most one decision. It is a no-op while the gate is closed.
func (e *Executor) Step(now time.Time) Action {
	if !e.gateOpen(now) {
		return Action{}
	}

	var (
		dir      pathfind.Dir
		place    bool
		fromPath bool
	)
	if d, ok := e.keys.Direction(); ok {
		dir = d
		e.st.Path.Clear()
		e.st.Mode = simctx.ModeManual
		e.manual = true
	} else if s, ok := e.st.Path.Pop(); ok {
		dir, place = s.Decode()
		fromPath = true
		e.manual = false
	} else {
		e.manual = false
		return Action{}
	}

	dx, dy := dir.Delta()
	target := e.st.Player.Predicted.Add(dx, dy)
	tile := e.st.Store.Get(target.X, target.Y)
	act := Action{Dir: dir, Target: target, FromPath: fromPath}

	switch {
	case place:
		if !e.st.HasSelected {
			e.log.WithField("target", target).Warn("place step without a selected item")
			act.Kind = ActionBlocked
			return act
		}
		e.sink.Queue(protocol.PlaceTile(int(dir), e.st.Selected))
		act.Kind = ActionPlace
	case tiles.IsBlock(tile) && (e.st.BreakMode || fromPath):
		if fromPath {
			e.st.Path.Push(pathfind.EncodeStep(dir, false))
		}
		e.sink.Queue(protocol.RemoveTile(int(dir)))
		crack := target
		e.st.Crack = &crack
		e.lastInput = now
		act.Kind = ActionBreak
	case tiles.IsSymbol(tile) && e.st.BreakMode:
		e.sink.Queue(protocol.CollectTile(int(dir)))
		e.lastInput = now
		act.Kind = ActionCollect
	case tiles.Walkable(tile):
		e.sink.Queue(protocol.Walk(int(dir)))
		e.st.Player.Predicted = target
		e.lastInput = now
		act.Kind = ActionWalk
	default:
		act.Kind = ActionBlocked
	}
	return act
}

// ResolveCrack clears the predicted crack once the store shows the cell
// emptied. It reports whether the crack was cleared.
func (e *Executor) ResolveCrack() bool {
	c := e.st.Crack
	if c == nil || e.st.Store.Get(c.X, c.Y) != tiles.Empty {
		return false
	}
	e.st.Crack = nil
	return true
}

// HuntGoal is the forager target: unexplored cells or resources.
func HuntGoal() pathfind.Goal {
	return pathfind.CategoryMatch(tiles.CategoryVoid, tiles.CategoryResource)
}

// Replan recomputes the hunt path from the predicted position. Outside hunt
// mode it does nothing. A failed search clears the path and is reported to
// the user once until a search succeeds again.
func (e *Executor) Replan() error {
	if e.st.Mode != simctx.ModeHunt {
		return nil
	}
	res, err := e.finder.Find(e.st.Store, e.st.Entities.Hazards(), e.st.Player.Predicted, HuntGoal(), false)
	if err != nil {
		e.st.Path.Clear()
		e.manual = false
		if !e.huntFailing {
			e.huntFailing = true
			e.report("Nothing left to hunt")
			e.log.WithError(err).Info("hunt search failed")
		}
		return err
	}
	e.huntFailing = false
	e.st.Path = res.Path
	return nil
}

// StartHunt switches to hunt mode and plans immediately.
func (e *Executor) StartHunt() error {
	e.st.Mode = simctx.ModeHunt
	e.huntFailing = false
	return e.Replan()
}

// PlanTo plans a route to a clicked cell. With an item selected the route
// ends next to the cell and places the item onto it; otherwise the route
// ends on the cell and may break walls on the way. Planning leaves hunt
// mode. On failure the path is cleared.
func (e *Executor) PlanTo(target world.Pos) (pathfind.Result, error) {
	e.st.Mode = simctx.ModeManual
	hazards := e.st.Entities.Hazards()
	origin := e.st.Player.Predicted

	var (
		res pathfind.Result
		err error
	)
	if e.st.HasSelected {
		res, err = e.finder.PlanPlace(e.st.Store, hazards, origin, target)
	} else {
		res, err = e.finder.Find(e.st.Store, hazards, origin, pathfind.ExactPosition(target), false)
	}
	if err != nil {
		e.st.Path.Clear()
		e.manual = false
		if errors.Is(err, pathfind.ErrUnreachable) {
			e.report("Destination unreachable")
		}
		e.log.WithError(err).WithField("target", target).Debug("plan failed")
		return res, err
	}
	e.st.Path = res.Path
	return res, nil
}

func (e *Executor) report(text string) {
	if e.userLog != nil {
		e.userLog.Add("", text)
	}
}
