// Package client runs a game session: one goroutine owns the simulation
// context and multiplexes inbound frames, the sync tick, the input/render
// frame and front-end events.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"bqclient/internal/logging"
	"bqclient/internal/persistence/indexdb"
	plog "bqclient/internal/persistence/log"
	"bqclient/internal/protocol"
	"bqclient/internal/sim/executor"
	"bqclient/internal/sim/pathfind"
	"bqclient/internal/sim/simctx"
	"bqclient/internal/sim/tuning"
	"bqclient/internal/sim/world"
)

// Transport moves raw frames; ws.Conn implements it.
type Transport interface {
	Inbound() <-chan []byte
	Done() <-chan struct{}
	Send(ctx context.Context, b []byte) error
}

type Options struct {
	Tuning    tuning.Tuning
	Log       *logrus.Entry
	Notifier  Notifier
	Trace     *plog.TraceLogger
	Journal   *indexdb.Journal
	Validator *protocol.Validator

	// OnFrame runs on the session goroutine after each input decision.
	OnFrame func(*Session)
	Now     func() time.Time
}

type Session struct {
	tune tuning.Tuning
	log  *logrus.Entry

	st    *simctx.State
	keys  *executor.KeySet
	ex    *executor.Executor
	chat  *ChatLog
	meter Meter

	notifier  Notifier
	trace     *plog.TraceLogger
	journal   *indexdb.Journal
	validator *protocol.Validator
	onFrame   func(*Session)
	now       func() time.Time

	queue   []protocol.Command
	tick    uint64
	start   time.Time
	focused bool

	events chan func(*Session)
	quit   chan struct{}
}

func NewSession(opts Options) *Session {
	t := opts.Tuning
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Session{
		tune:      t,
		log:       log,
		st:        simctx.New(t.ChunkSize),
		keys:      &executor.KeySet{},
		chat:      NewChatLog(200, log.WithField("component", "chat")),
		notifier:  opts.Notifier,
		trace:     opts.Trace,
		journal:   opts.Journal,
		validator: opts.Validator,
		onFrame:   opts.OnFrame,
		now:       now,
		start:     now(),
		focused:   true,
		events:    make(chan func(*Session), 64),
		quit:      make(chan struct{}),
	}
	s.chat.now = now
	if s.notifier == nil {
		s.notifier = LogNotifier{Log: log}
	}

	finder := pathfind.NewFinder()
	finder.Weights = pathfind.Weights{
		Step:         t.Pathfinding.StepWeight,
		Wall:         t.Pathfinding.WallWeight,
		Hazard:       t.Pathfinding.HazardWeight,
		HazardRadius: t.Pathfinding.HazardRadius,
	}
	finder.MaxExpanded = t.Pathfinding.MaxExpanded
	s.ex = executor.New(s.st, s, s.keys, executor.Options{
		InputInterval: t.InputInterval(),
		Finder:        finder,
		UserLog:       s.chat,
		Log:           log.WithField("component", "executor"),
	})
	s.st.Store.OnNotable = s.onNotable
	return s
}

func (s *Session) State() *simctx.State         { return s.st }
func (s *Session) Executor() *executor.Executor { return s.ex }
func (s *Session) Keys() *executor.KeySet       { return s.keys }
func (s *Session) Chat() *ChatLog               { return s.chat }
func (s *Session) Stats() Stats                 { return s.meter.Stats() }
func (s *Session) Focused() bool                { return s.focused }

// Queue implements executor.Sink. Commands go out with the next tick.
func (s *Session) Queue(cmds ...protocol.Command) {
	s.queue = append(s.queue, cmds...)
}

// Post runs fn on the session goroutine. It is the only way for other
// goroutines to touch session state. Post drops fn if the event queue is
// full.
func (s *Session) Post(fn func(*Session)) bool {
	select {
	case s.events <- fn:
		return true
	default:
		return false
	}
}

// Quit asks Run to return. Safe to call from any goroutine, once.
func (s *Session) Quit() { close(s.quit) }

var (
	ErrQuit         = errors.New("session quit")
	ErrDisconnected = errors.New("disconnected")
)

// Run drives the session until ctx ends, Quit is called or the transport
// fails.
func (s *Session) Run(ctx context.Context, t Transport) error {
	s.Queue(protocol.Simple(protocol.CmdStartPlaying), protocol.Simple(protocol.CmdGetGuidelinePos))

	tickT := time.NewTicker(s.tune.TickInterval())
	defer tickT.Stop()
	frameT := time.NewTicker(s.tune.FrameInterval())
	defer frameT.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.quit:
			return ErrQuit
		case <-t.Done():
			return ErrDisconnected
		case raw, ok := <-t.Inbound():
			if !ok {
				return ErrDisconnected
			}
			s.HandleFrame(raw)
		case <-tickT.C:
			if err := s.Tick(ctx, t); err != nil {
				return err
			}
		case <-frameT.C:
			s.Frame()
		case fn := <-s.events:
			fn(s)
		}
	}
}

// Tick flushes queued commands followed by the sync requests, re-plans in
// hunt mode and confirms a pending crack.
func (s *Session) Tick(ctx context.Context, t Transport) error {
	now := s.now()
	s.tick++
	p := s.st.Player.Predicted
	s.Queue(protocol.SyncRequests(p.X, p.Y, s.tune.TileRequestSize)...)

	cmds := s.queue
	s.queue = nil
	b, err := protocol.EncodeCommands(cmds)
	if err != nil {
		return fmt.Errorf("encode commands: %w", err)
	}
	if err := t.Send(ctx, b); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if s.trace != nil {
		if err := s.trace.WriteOutbound(s.tick, now.UnixMilli(), cmds); err != nil {
			s.log.WithError(err).Warn("trace write failed")
		}
	}

	s.meter.Tick(now)

	if err := s.ex.Replan(); err != nil {
		s.log.WithError(err).Debug("hunt replan failed")
	}
	s.ex.ResolveCrack()
	return nil
}

// Frame makes one input decision and hands the state to the renderer.
func (s *Session) Frame() {
	s.ex.Step(s.now())
	if s.onFrame != nil {
		s.onFrame(s)
	}
}

func (s *Session) SetFocused(f bool) { s.focused = f }

// SendChat queues an outbound chat line; empty text is ignored.
func (s *Session) SendChat(text string) {
	if text == "" {
		return
	}
	s.Queue(protocol.AddChatMessage(text))
}

// PlanTo plans a route to a clicked cell.
func (s *Session) PlanTo(target world.Pos) {
	if _, err := s.ex.PlanTo(target); err != nil {
		s.journal.Record(indexdb.Event{
			Time: s.now(),
			Kind: indexdb.KindSearchFailure,
			X:    target.X,
			Y:    target.Y,
			Text: err.Error(),
		})
	}
}

func (s *Session) StartHunt() {
	if err := s.ex.StartHunt(); err != nil {
		s.log.WithError(err).Info("hunt found nothing")
	}
}

func (s *Session) notify(kind NoticeKind, text string) {
	if s.focused {
		return
	}
	s.notifier.Notify(kind, text)
}

func (s *Session) onNotable(x, y int, tile uint8) {
	s.log.WithFields(logrus.Fields{"x": x, "y": y, "tile": tile}).Info("Lucky")
	s.journal.Record(indexdb.Event{Time: s.now(), Kind: indexdb.KindLucky, X: x, Y: y, Tile: int(tile)})
	s.notify(NoticeLucky, "Lucky")
}
