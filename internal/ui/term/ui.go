package term

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"bqclient/internal/client"
)

// UI owns the terminal screen. Draw runs as the session's frame hook and
// terminal events are posted onto the session goroutine.
type UI struct {
	screen tcell.Screen
	view   *View
	log    *logrus.Entry
	quit   bool
}

func New(chunkSize int, log *logrus.Entry) (*UI, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewWithScreen(screen, chunkSize, log)
}

func NewWithScreen(screen tcell.Screen, chunkSize int, log *logrus.Entry) (*UI, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse(tcell.MouseButtonEvents)
	screen.EnableFocus()
	screen.HideCursor()
	screen.Clear()
	return &UI{screen: screen, view: NewView(chunkSize), log: log}, nil
}

// Draw is the session frame hook.
func (u *UI) Draw(s *client.Session) {
	u.view.Draw(u.screen, s)
	u.screen.Show()
}

// Pump forwards terminal events to the session until ctx ends or the screen
// is finalized. It blocks.
func (u *UI) Pump(ctx context.Context, s *client.Session) {
	for {
		ev := u.screen.PollEvent()
		if ev == nil {
			return
		}
		if _, ok := ev.(*tcell.EventResize); ok {
			s.Post(func(*client.Session) { u.screen.Sync() })
			continue
		}
		if ctx.Err() != nil {
			return
		}
		if !s.Post(func(s *client.Session) {
			if u.view.HandleEvent(u.screen, s, ev) && !u.quit {
				u.quit = true
				s.Quit()
			}
		}) {
			u.log.Debug("event queue full, input dropped")
		}
	}
}

func (u *UI) Close() { u.screen.Fini() }
