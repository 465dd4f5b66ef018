package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"bqclient/internal/client"
	"bqclient/internal/logging"
	plog "bqclient/internal/persistence/log"
	"bqclient/internal/protocol"
	"bqclient/internal/sim/tuning"
)

// replay rebuilds the client state from a protocol trace and prints what
// the session saw.
func main() {
	var (
		traceDir   = flag.String("trace", "", "trace directory containing trace-*.jsonl.zst")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (optional)")
		toTick     = flag.Uint64("to_tick", 0, "stop after tick (inclusive, optional)")
		verbose    = flag.Bool("v", false, "log every applied update")
	)
	flag.Parse()

	if *traceDir == "" {
		fmt.Fprintln(os.Stderr, "missing -trace")
		os.Exit(2)
	}
	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := logging.New(level, tune.Logging.Format, os.Stderr)

	sum, err := replay(*traceDir, tune, *toTick, logging.Component(logger, "replay"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	sum.print()
}

type summary struct {
	Ticks     uint64
	Outbound  int
	Inbound   int
	Commands  map[string]int
	Rejected  int
	Failed    int
	Lucky     int
	Damage    int
	Chunks    int
	Tiles     int
	X, Y      int
	Health    int
	Inventory map[uint8]int
	Chat      []client.ChatLine
}

type counter struct{ lucky, damage int }

func (c *counter) Notify(kind client.NoticeKind, _ string) {
	switch kind {
	case client.NoticeLucky:
		c.lucky++
	case client.NoticeDamage:
		c.damage++
	}
}

func replay(dir string, tune tuning.Tuning, toTick uint64, log *logrus.Entry) (summary, error) {
	files, err := plog.ListTraceFiles(dir)
	if err != nil {
		return summary{}, err
	}
	if len(files) == 0 {
		return summary{}, fmt.Errorf("no trace files found in %s", dir)
	}

	var now time.Time
	cnt := &counter{}
	sess := client.NewSession(client.Options{
		Tuning:   tune,
		Log:      log,
		Notifier: cnt,
		Now:      func() time.Time { return now },
	})
	// Every lucky find and damage notice reaches the counter.
	sess.SetFocused(false)

	sum := summary{Commands: map[string]int{}}
	err = plog.ReadTrace(dir, func(e plog.TraceEntry) error {
		if toTick != 0 && e.Tick > toTick {
			return nil
		}
		now = time.UnixMilli(e.TimeMs)
		if e.Tick > sum.Ticks {
			sum.Ticks = e.Tick
		}
		switch e.Kind {
		case plog.EntryOutbound:
			sum.Outbound++
			for _, c := range e.Commands {
				sum.Commands[c.CommandName]++
			}
		case plog.EntryInbound:
			sum.Inbound++
			if !e.Success {
				sum.Failed++
			}
			b := protocol.Batch{Success: e.Success, Message: e.Message}
			for _, tu := range e.Updates {
				u, err := tu.Expand()
				if err != nil {
					return fmt.Errorf("tick %d: %w", e.Tick, err)
				}
				b.CommandList = append(b.CommandList, u)
			}
			if err := sess.ApplyBatch(b); err != nil {
				sum.Rejected++
				log.WithError(err).WithField("tick", e.Tick).Warn("batch rejected")
			}
		}
		return nil
	})
	if err != nil {
		return sum, err
	}

	st := sess.State()
	sum.Lucky = cnt.lucky
	sum.Damage = cnt.damage
	sum.Chunks = st.Store.ChunkCount()
	sum.Tiles = st.Store.FlushDirty(func(int, int, uint8) {})
	sum.X, sum.Y = st.Player.Confirmed.X, st.Player.Confirmed.Y
	sum.Health = st.Player.Health
	sum.Inventory = st.Inventory
	sum.Chat = sess.Chat().Tail(10)
	return sum, nil
}

func (s summary) print() {
	fmt.Printf("replay ok: ticks=%d outbound=%d inbound=%d failed=%d rejected=%d\n",
		s.Ticks, s.Outbound, s.Inbound, s.Failed, s.Rejected)
	fmt.Printf("world: chunks=%d tiles=%d lucky=%d damage=%d\n", s.Chunks, s.Tiles, s.Lucky, s.Damage)
	fmt.Printf("player: pos=[%d, %d] health=%d\n", s.X, s.Y, s.Health)

	names := make([]string, 0, len(s.Commands))
	for n := range s.Commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("  sent %-22s %d\n", n, s.Commands[n])
	}
	ids := make([]int, 0, len(s.Inventory))
	for id := range s.Inventory {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Printf("  item %3d x%d\n", id, s.Inventory[uint8(id)])
	}
	for _, line := range s.Chat {
		fmt.Println("  " + line.String())
	}
}
