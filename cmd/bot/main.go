package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"bqclient/internal/client"
	"bqclient/internal/logging"
	"bqclient/internal/persistence/indexdb"
	plog "bqclient/internal/persistence/log"
	"bqclient/internal/sim/simctx"
	"bqclient/internal/sim/tuning"
	"bqclient/internal/transport/ws"
)

// bot is a headless forager: it stays in hunt mode and reports progress.
func main() {
	var (
		tuningPath  = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		serverURL   = flag.String("url", "", "server websocket url (overrides tuning)")
		maxExpanded = flag.Int("max_expanded", 20000, "search node budget per plan (0 = unbounded)")
		status      = flag.Duration("status", 10*time.Second, "status report interval")
		traceDir    = flag.String("trace", "", "protocol trace directory (optional)")
		journalPath = flag.String("journal", "", "sqlite event journal path (optional)")
	)
	flag.Parse()

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}
	if v := strings.TrimSpace(*serverURL); v != "" {
		tune.ServerURL = v
	}
	tune.Pathfinding.MaxExpanded = *maxExpanded

	logger := logging.New(tune.Logging.Level, tune.Logging.Format, os.Stdout)
	log := logging.Component(logger, "bot")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := client.Options{
		Tuning: tune,
		Log:    logging.Component(logger, "session"),
	}
	if *traceDir != "" {
		tl := plog.NewTraceLogger(*traceDir)
		defer tl.Close()
		opts.Trace = tl
	}
	if *journalPath != "" {
		j, err := indexdb.OpenSQLite(*journalPath)
		if err != nil {
			log.WithError(err).Fatal("open journal")
		}
		defer j.Close()
		opts.Journal = j
	}

	conn, err := ws.Dial(ctx, tune.ServerURL, nil, logging.Component(logger, "ws"))
	if err != nil {
		log.WithError(err).Fatal("dial")
	}
	defer conn.Close()

	sess := client.NewSession(opts)
	// Unfocused, so damage and chat notices reach the log.
	sess.SetFocused(false)

	go report(ctx, sess, *status, log)

	err = sess.Run(ctx, conn)
	if errors.Is(err, context.Canceled) || errors.Is(err, client.ErrQuit) {
		log.Info("stopped")
		return
	}
	if cerr := conn.Err(); cerr != nil {
		err = cerr
	}
	log.WithError(err).Error("session ended")
	os.Exit(1)
}

// report re-enters hunt mode when a search gave up and logs a status line.
func report(ctx context.Context, sess *client.Session, every time.Duration, log *logrus.Entry) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		sess.Post(func(s *client.Session) {
			st := s.State()
			if st.Mode != simctx.ModeHunt || st.Path.Len() == 0 {
				s.StartHunt()
			}
			stats := s.Stats()
			log.WithFields(logrus.Fields{
				"x":         st.Player.Predicted.X,
				"y":         st.Player.Predicted.Y,
				"health":    st.Player.Health,
				"bread":     st.Player.Bread,
				"mode":      st.Mode.String(),
				"path":      st.Path.Len(),
				"chunks":    st.Store.ChunkCount(),
				"inventory": len(st.Inventory),
				"ping_ms":   stats.Ping.Milliseconds(),
				"tps":       stats.TPS,
			}).Info("status")
		})
	}
}
