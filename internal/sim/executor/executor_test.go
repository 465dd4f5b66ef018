package executor

import (
	"testing"
	"time"

	"bqclient/internal/protocol"
	"bqclient/internal/sim/pathfind"
	"bqclient/internal/sim/simctx"
	"bqclient/internal/sim/tiles"
	"bqclient/internal/sim/world"
)

type recSink struct {
	cmds []protocol.Command
}

func (r *recSink) Queue(cmds ...protocol.Command) { r.cmds = append(r.cmds, cmds...) }

type recLog struct {
	lines []string
}

func (r *recLog) Add(_, text string) { r.lines = append(r.lines, text) }

type fixture struct {
	st   *simctx.State
	sink *recSink
	keys *KeySet
	ulog *recLog
	ex   *Executor
	now  time.Time
}

// newFixture builds a 10x10 field of empty tiles with the player at (2,2).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := simctx.New(16)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			st.Store.Set(x, y, tiles.Empty)
		}
	}
	st.Player.Correct(world.Pos{X: 2, Y: 2})
	f := &fixture{st: st, sink: &recSink{}, keys: &KeySet{}, ulog: &recLog{}, now: time.Unix(1000, 0)}
	f.ex = New(st, f.sink, f.keys, Options{UserLog: f.ulog})
	return f
}

// tick advances the clock past the input interval.
func (f *fixture) tick() time.Time {
	f.now = f.now.Add(DefaultInputInterval + time.Millisecond)
	return f.now
}

func (f *fixture) lastCmd(t *testing.T) protocol.Command {
	t.Helper()
	if len(f.sink.cmds) == 0 {
		t.Fatalf("no command queued")
	}
	return f.sink.cmds[len(f.sink.cmds)-1]
}

func TestStep_IdleWithoutInput(t *testing.T) {
	f := newFixture(t)
	if a := f.ex.Step(f.tick()); a.Kind != ActionNone {
		t.Fatalf("kind=%v", a.Kind)
	}
	if f.ex.State() != StateIdle || len(f.sink.cmds) != 0 {
		t.Fatalf("state=%v cmds=%v", f.ex.State(), f.sink.cmds)
	}
}

func TestStep_FollowsPathAndPredicts(t *testing.T) {
	f := newFixture(t)
	f.st.Path = pathfind.Path{pathfind.EncodeStep(pathfind.South, false), pathfind.EncodeStep(pathfind.East, false)}
	if f.ex.State() != StateFollowingPath {
		t.Fatalf("state=%v", f.ex.State())
	}

	a := f.ex.Step(f.tick())
	if a.Kind != ActionWalk || a.Dir != pathfind.East || !a.FromPath {
		t.Fatalf("action=%+v", a)
	}
	if f.st.Player.Predicted != (world.Pos{X: 3, Y: 2}) {
		t.Fatalf("predicted=%v", f.st.Player.Predicted)
	}
	if f.st.Player.Confirmed != (world.Pos{X: 2, Y: 2}) {
		t.Fatalf("confirmed must not move on prediction: %v", f.st.Player.Confirmed)
	}
	c := f.lastCmd(t)
	if c.CommandName != protocol.CmdWalk || *c.Direction != int(pathfind.East) {
		t.Fatalf("cmd=%+v", c)
	}

	f.ex.Step(f.tick())
	if f.st.Player.Predicted != (world.Pos{X: 3, Y: 3}) || f.st.Path.Len() != 0 {
		t.Fatalf("predicted=%v path=%v", f.st.Player.Predicted, f.st.Path)
	}
}

func TestStep_GateClosedWithinInterval(t *testing.T) {
	f := newFixture(t)
	f.keys.Press(pathfind.East)
	now := f.tick()
	if a := f.ex.Step(now); a.Kind != ActionWalk {
		t.Fatalf("first step kind=%v", a.Kind)
	}
	if a := f.ex.Step(now.Add(DefaultInputInterval / 2)); a.Kind != ActionNone {
		t.Fatalf("gate should be closed, got %v", a.Kind)
	}
	if a := f.ex.Step(now.Add(DefaultInputInterval + time.Millisecond)); a.Kind != ActionWalk {
		t.Fatalf("gate should reopen, got %v", a.Kind)
	}
}

func TestStep_ManualInputClearsPath(t *testing.T) {
	f := newFixture(t)
	f.st.Mode = simctx.ModeHunt
	f.st.Path = pathfind.Path{
		pathfind.EncodeStep(pathfind.East, false),
		pathfind.EncodeStep(pathfind.East, false),
		pathfind.EncodeStep(pathfind.East, false),
	}
	f.keys.Tap(pathfind.North)

	a := f.ex.Step(f.tick())
	if a.Kind != ActionWalk || a.Dir != pathfind.North || a.FromPath {
		t.Fatalf("action=%+v", a)
	}
	if f.st.Path.Len() != 0 {
		t.Fatalf("path not cleared: %v", f.st.Path)
	}
	if f.st.Mode != simctx.ModeManual {
		t.Fatalf("mode=%v", f.st.Mode)
	}
	if f.ex.State() != StateManualMove {
		t.Fatalf("state=%v", f.ex.State())
	}
}

func TestStep_KeyPriority(t *testing.T) {
	f := newFixture(t)
	f.keys.Press(pathfind.West)
	f.keys.Press(pathfind.South)
	if a := f.ex.Step(f.tick()); a.Dir != pathfind.South {
		t.Fatalf("dir=%v want S", a.Dir)
	}
	f.keys.Release(pathfind.South)
	if a := f.ex.Step(f.tick()); a.Dir != pathfind.West {
		t.Fatalf("dir=%v want W", a.Dir)
	}
}

func TestStep_BreakFromPathCommitsAndRetries(t *testing.T) {
	f := newFixture(t)
	f.st.Store.Set(3, 2, tiles.BlockStart+2)
	f.st.Path = pathfind.Path{pathfind.EncodeStep(pathfind.East, false)}

	a := f.ex.Step(f.tick())
	if a.Kind != ActionBreak || a.Target != (world.Pos{X: 3, Y: 2}) {
		t.Fatalf("action=%+v", a)
	}
	if c := f.lastCmd(t); c.CommandName != protocol.CmdRemoveTile {
		t.Fatalf("cmd=%+v", c)
	}
	if f.st.Crack == nil || *f.st.Crack != (world.Pos{X: 3, Y: 2}) {
		t.Fatalf("crack=%v", f.st.Crack)
	}
	if f.st.Path.Len() != 1 {
		t.Fatalf("direction should be pushed back, path=%v", f.st.Path)
	}
	if f.ex.State() != StateCommittedAction {
		t.Fatalf("state=%v", f.ex.State())
	}

	// A committed action blocks input, manual keys included.
	f.keys.Tap(pathfind.West)
	if a := f.ex.Step(f.tick()); a.Kind != ActionNone {
		t.Fatalf("expected blocked gate, got %+v", a)
	}
	if f.ex.ResolveCrack() {
		t.Fatalf("crack resolved before the cell emptied")
	}

	f.st.Store.Set(3, 2, tiles.Empty)
	if !f.ex.ResolveCrack() || f.st.Crack != nil {
		t.Fatalf("crack should resolve")
	}
	f.keys.Reset()
	a = f.ex.Step(f.tick())
	if a.Kind != ActionWalk || f.st.Player.Predicted != (world.Pos{X: 3, Y: 2}) {
		t.Fatalf("action=%+v predicted=%v", a, f.st.Player.Predicted)
	}
}

func TestStep_ManualIntoBlockNeedsBreakMode(t *testing.T) {
	f := newFixture(t)
	f.st.Store.Set(2, 1, tiles.BlockStart)
	f.keys.Tap(pathfind.North)
	if a := f.ex.Step(f.tick()); a.Kind != ActionBlocked {
		t.Fatalf("kind=%v", a.Kind)
	}
	if len(f.sink.cmds) != 0 || f.st.Player.Predicted != (world.Pos{X: 2, Y: 2}) {
		t.Fatalf("cmds=%v predicted=%v", f.sink.cmds, f.st.Player.Predicted)
	}

	f.st.BreakMode = true
	f.keys.Tap(pathfind.North)
	a := f.ex.Step(f.tick())
	if a.Kind != ActionBreak || f.st.Path.Len() != 0 {
		t.Fatalf("action=%+v path=%v", a, f.st.Path)
	}
}

func TestStep_CollectSymbolInBreakMode(t *testing.T) {
	f := newFixture(t)
	f.st.Store.Set(1, 2, 'A')
	f.st.BreakMode = true
	f.keys.Tap(pathfind.West)
	a := f.ex.Step(f.tick())
	if a.Kind != ActionCollect {
		t.Fatalf("kind=%v", a.Kind)
	}
	if c := f.lastCmd(t); c.CommandName != protocol.CmdCollectTile || *c.Direction != int(pathfind.West) {
		t.Fatalf("cmd=%+v", c)
	}
	if f.st.Player.Predicted != (world.Pos{X: 2, Y: 2}) {
		t.Fatalf("collect must not move the player")
	}
}

func TestStep_PlaceDoesNotTouchGate(t *testing.T) {
	f := newFixture(t)
	f.st.Select(tiles.Flour)
	f.st.Path = pathfind.Path{pathfind.EncodeStep(pathfind.East, true)}

	now := f.tick()
	a := f.ex.Step(now)
	if a.Kind != ActionPlace {
		t.Fatalf("kind=%v", a.Kind)
	}
	c := f.lastCmd(t)
	if c.CommandName != protocol.CmdPlaceTile || *c.Tile != int(tiles.Flour) || *c.Direction != int(pathfind.East) {
		t.Fatalf("cmd=%+v", c)
	}
	f.keys.Tap(pathfind.South)
	if a := f.ex.Step(now); a.Kind != ActionWalk {
		t.Fatalf("gate should still be open after place, got %v", a.Kind)
	}
}

func TestStep_PlaceWithoutSelection(t *testing.T) {
	f := newFixture(t)
	f.st.Path = pathfind.Path{pathfind.EncodeStep(pathfind.East, true)}
	if a := f.ex.Step(f.tick()); a.Kind != ActionBlocked {
		t.Fatalf("kind=%v", a.Kind)
	}
	if len(f.sink.cmds) != 0 {
		t.Fatalf("cmds=%v", f.sink.cmds)
	}
}

func TestTouchGate(t *testing.T) {
	f := newFixture(t)
	now := f.tick()
	f.ex.TouchGate(now)
	f.keys.Tap(pathfind.East)
	if a := f.ex.Step(now.Add(time.Millisecond)); a.Kind != ActionNone {
		t.Fatalf("kind=%v", a.Kind)
	}
}

func TestPlanTo_Exact(t *testing.T) {
	f := newFixture(t)
	f.st.Mode = simctx.ModeHunt
	res, err := f.ex.PlanTo(world.Pos{X: 5, Y: 2})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if res.Cost != 3 || f.st.Path.Len() != 3 {
		t.Fatalf("cost=%d path=%v", res.Cost, f.st.Path)
	}
	if f.st.Mode != simctx.ModeManual {
		t.Fatalf("mode=%v", f.st.Mode)
	}
}

func TestPlanTo_PlacesWhenItemSelected(t *testing.T) {
	f := newFixture(t)
	f.st.Select(tiles.BlockStart)
	if _, err := f.ex.PlanTo(world.Pos{X: 5, Y: 2}); err != nil {
		t.Fatalf("plan: %v", err)
	}
	d, place := f.st.Path[0].Decode()
	if !place || d != pathfind.East {
		t.Fatalf("first step=%v", f.st.Path[0])
	}
	if f.st.Path.Len() != 3 {
		t.Fatalf("path=%v", f.st.Path)
	}
}

func TestPlanTo_UnreachableReported(t *testing.T) {
	f := newFixture(t)
	f.st.Path = pathfind.Path{pathfind.EncodeStep(pathfind.East, false)}
	f.st.Select(tiles.Flour)
	// Enclose the target so no neighbour is reachable without breaking walls.
	target := world.Pos{X: 7, Y: 7}
	for _, d := range []world.Pos{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}} {
		p := target.Add(d.X, d.Y)
		for _, dd := range []world.Pos{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}} {
			q := p.Add(dd.X, dd.Y)
			if q != target {
				f.st.Store.Set(q.X, q.Y, tiles.BlockStart)
			}
		}
	}
	f.ex.finder.MaxExpanded = 500
	if _, err := f.ex.PlanTo(target); err == nil {
		t.Fatalf("expected failure")
	}
	if f.st.Path.Len() != 0 || f.ex.State() != StateIdle {
		t.Fatalf("path=%v state=%v", f.st.Path, f.ex.State())
	}
	if len(f.ulog.lines) != 1 || f.ulog.lines[0] != "Destination unreachable" {
		t.Fatalf("user log=%v", f.ulog.lines)
	}
}

func TestReplan_HuntsNearestResource(t *testing.T) {
	f := newFixture(t)
	// Surround the 10x10 field with walkable trail so void is far away.
	for y := -10; y < 20; y++ {
		for x := -10; x < 20; x++ {
			if x < 0 || y < 0 || x >= 10 || y >= 10 {
				f.st.Store.Set(x, y, tiles.TrailStart)
			}
		}
	}
	f.st.Store.Set(2, 5, tiles.Bread)
	if err := f.ex.Replan(); err != nil {
		t.Fatalf("replan outside hunt mode: %v", err)
	}
	if f.st.Path.Len() != 0 {
		t.Fatalf("manual mode must not plan")
	}
	if err := f.ex.StartHunt(); err != nil {
		t.Fatalf("hunt: %v", err)
	}
	trace := pathfind.Trace(f.st.Player.Predicted, f.st.Path)
	if len(trace) == 0 || trace[len(trace)-1] != (world.Pos{X: 2, Y: 5}) {
		t.Fatalf("trace=%v", trace)
	}
}

func TestReplan_FailureReportedOnce(t *testing.T) {
	f := newFixture(t)
	f.ex.finder.MaxExpanded = 1
	f.st.Mode = simctx.ModeHunt
	for i := 0; i < 3; i++ {
		if err := f.ex.Replan(); err == nil {
			t.Fatalf("expected failure")
		}
	}
	if len(f.ulog.lines) != 1 {
		t.Fatalf("user log=%v", f.ulog.lines)
	}
}

func TestPlanTo_FailureAfterManualMoveIsIdle(t *testing.T) {
	f := newFixture(t)
	f.keys.Tap(pathfind.East)
	if a := f.ex.Step(f.tick()); a.Kind != ActionWalk {
		t.Fatalf("kind=%v", a.Kind)
	}
	if f.ex.State() != StateManualMove {
		t.Fatalf("state=%v", f.ex.State())
	}
	f.ex.finder.MaxExpanded = 1
	if _, err := f.ex.PlanTo(world.Pos{X: 8, Y: 8}); err == nil {
		t.Fatalf("expected failure")
	}
	if f.ex.State() != StateIdle {
		t.Fatalf("state=%v, want idle", f.ex.State())
	}
}

func TestReplan_FailureAfterManualMoveIsIdle(t *testing.T) {
	f := newFixture(t)
	f.keys.Tap(pathfind.South)
	f.ex.Step(f.tick())
	f.ex.finder.MaxExpanded = 1
	f.st.Mode = simctx.ModeHunt
	if err := f.ex.Replan(); err == nil {
		t.Fatalf("expected failure")
	}
	if f.ex.State() != StateIdle {
		t.Fatalf("state=%v, want idle", f.ex.State())
	}
}
