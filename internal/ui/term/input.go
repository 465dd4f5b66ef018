package term

import (
	"github.com/gdamore/tcell/v2"

	"bqclient/internal/client"
	"bqclient/internal/sim/pathfind"
	"bqclient/internal/sim/simctx"
)

var runeDirs = map[rune]pathfind.Dir{
	'w': pathfind.North, 'a': pathfind.West, 's': pathfind.South, 'd': pathfind.East,
	'W': pathfind.North, 'A': pathfind.West, 'S': pathfind.South, 'D': pathfind.East,
}

var keyDirs = map[tcell.Key]pathfind.Dir{
	tcell.KeyUp:    pathfind.North,
	tcell.KeyRight: pathfind.East,
	tcell.KeyDown:  pathfind.South,
	tcell.KeyLeft:  pathfind.West,
}

// HandleEvent applies one terminal event to the session. It reports whether
// the user asked to quit.
func (v *View) HandleEvent(c Canvas, s *client.Session, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if v.chatting {
			v.chatKey(s, ev)
			return false
		}
		return v.key(s, ev)
	case *tcell.EventMouse:
		v.mouse(c, s, ev)
	case *tcell.EventFocus:
		s.SetFocused(ev.Focused)
	}
	return false
}

func (v *View) key(s *client.Session, ev *tcell.EventKey) bool {
	st := s.State()
	if d, ok := keyDirs[ev.Key()]; ok {
		s.Keys().Tap(d)
		return false
	}
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return true
	case tcell.KeyEnter:
		v.chatting = true
		v.input = v.input[:0]
		return false
	case tcell.KeyEscape:
		st.Path.Clear()
		st.Mode = simctx.ModeManual
		s.Keys().Reset()
		return false
	case tcell.KeyRune:
	default:
		return false
	}

	r := ev.Rune()
	if d, ok := runeDirs[r]; ok {
		s.Keys().Tap(d)
		return false
	}
	switch {
	case r == 'q':
		return true
	case r == 'b':
		st.BreakMode = !st.BreakMode
	case r == 'h':
		s.StartHunt()
	case r == '+' || r == '=':
		v.Zoom(1)
	case r == '-':
		v.Zoom(-1)
	case r == '0':
		st.Deselect()
	case r >= '1' && r <= '9':
		items := st.InventoryItems()
		if i := int(r - '1'); i < len(items) {
			st.Select(items[i])
		}
	}
	return false
}

func (v *View) chatKey(s *client.Session, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEnter:
		s.SendChat(string(v.input))
		v.chatting = false
		v.input = v.input[:0]
	case tcell.KeyEscape:
		v.chatting = false
		v.input = v.input[:0]
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n := len(v.input); n > 0 {
			v.input = v.input[:n-1]
		}
	case tcell.KeyRune:
		v.input = append(v.input, ev.Rune())
	}
}

func (v *View) mouse(c Canvas, s *client.Session, ev *tcell.EventMouse) {
	pressed := ev.Buttons()&tcell.Button1 != 0
	was := v.button
	v.button = pressed
	if !pressed || was {
		return
	}
	x, y := ev.Position()
	target, ok := v.ScreenToWorld(c, s.State().Player.Predicted, x, y)
	if !ok {
		return
	}
	s.PlanTo(target)
}
