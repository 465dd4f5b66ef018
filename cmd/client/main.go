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

	"github.com/sirupsen/logrus"

	"bqclient/internal/client"
	"bqclient/internal/logging"
	"bqclient/internal/persistence/indexdb"
	plog "bqclient/internal/persistence/log"
	"bqclient/internal/protocol"
	"bqclient/internal/sim/tuning"
	"bqclient/internal/transport/ws"
	"bqclient/internal/ui/sound"
	"bqclient/internal/ui/term"
)

func main() {
	var (
		tuningPath  = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		serverURL   = flag.String("url", "", "server websocket url (overrides tuning)")
		logFile     = flag.String("log_file", "bqclient.log", "log file; the terminal belongs to the UI")
		traceDir    = flag.String("trace", "", "protocol trace directory (overrides tuning)")
		journalPath = flag.String("journal", "", "sqlite event journal path (overrides tuning)")
		validate    = flag.Bool("validate", false, "validate inbound frames against the batch schema")
		noSound     = flag.Bool("no_sound", false, "disable notification sounds")
	)
	flag.Parse()

	tune, err := loadTuning(*tuningPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	if v := strings.TrimSpace(*serverURL); v != "" {
		tune.ServerURL = v
	}
	if v := strings.TrimSpace(*traceDir); v != "" {
		tune.Persistence.TraceDir = v
	}
	if v := strings.TrimSpace(*journalPath); v != "" {
		tune.Persistence.JournalPath = v
	}
	if *validate {
		tune.ValidateInbound = true
	}
	if *noSound {
		tune.Notify.Sound = false
	}

	f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open log file:", err)
		os.Exit(1)
	}
	defer f.Close()
	logger := logging.New(tune.Logging.Level, tune.Logging.Format, f)

	if err := run(tune, logger); err != nil {
		logger.WithError(err).Error("client stopped")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadTuning(path string) (tuning.Tuning, error) {
	tune, err := tuning.Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return tuning.Defaults(), nil
	}
	return tune, err
}

func run(tune tuning.Tuning, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := client.Options{
		Tuning: tune,
		Log:    logging.Component(logger, "session"),
	}

	if dir := tune.Persistence.TraceDir; dir != "" {
		tl := plog.NewTraceLogger(dir)
		defer tl.Close()
		opts.Trace = tl
	}
	if path := tune.Persistence.JournalPath; path != "" {
		j, err := indexdb.OpenSQLite(path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()
		opts.Journal = j
	}
	if tune.ValidateInbound {
		v, err := protocol.NewValidator()
		if err != nil {
			return fmt.Errorf("build validator: %w", err)
		}
		opts.Validator = v
	}

	notifiers := client.Notifiers{client.LogNotifier{Log: logging.Component(logger, "notify")}}
	if tune.Notify.Sound {
		p := sound.NewPlayer()
		if err := p.Init(); err != nil {
			logger.WithError(err).Warn("sound unavailable")
		} else {
			defer p.Close()
			notifiers = append(notifiers, p)
		}
	}
	opts.Notifier = notifiers

	conn, err := ws.Dial(ctx, tune.ServerURL, nil, logging.Component(logger, "ws"))
	if err != nil {
		return fmt.Errorf("dial %s: %w", tune.ServerURL, err)
	}
	defer conn.Close()

	ui, err := term.New(tune.ChunkSize, logging.Component(logger, "ui"))
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	opts.OnFrame = ui.Draw

	sess := client.NewSession(opts)
	go ui.Pump(ctx, sess)

	logger.WithField("url", tune.ServerURL).Info("session started")
	err = sess.Run(ctx, conn)
	ui.Close()

	switch {
	case errors.Is(err, client.ErrQuit), errors.Is(err, context.Canceled):
		logger.Info("session ended")
		return nil
	case errors.Is(err, client.ErrDisconnected):
		if cerr := conn.Err(); cerr != nil {
			return fmt.Errorf("disconnected: %w", cerr)
		}
		return err
	default:
		return err
	}
}
