package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

type Kind string

const (
	KindLucky         Kind = "lucky"
	KindChat          Kind = "chat"
	KindServerError   Kind = "server_error"
	KindSearchFailure Kind = "search_failure"
	KindDamage        Kind = "damage"
)

// Event is one journal row. X/Y/Tile are only meaningful for kinds that
// refer to a cell.
type Event struct {
	ID     int64     `json:"id"`
	Time   time.Time `json:"time"`
	Kind   Kind      `json:"kind"`
	X      int       `json:"x"`
	Y      int       `json:"y"`
	Tile   int       `json:"tile"`
	Actor  string    `json:"actor,omitempty"`
	Text   string    `json:"text,omitempty"`
	Health int       `json:"health,omitempty"`
}

// Journal is the local event journal. Writes are queued to a single writer
// goroutine and dropped when the queue is full; the game loop never waits
// on disk.
type Journal struct {
	db *sql.DB

	ch   chan Event
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTotal      atomic.Uint64
	writeFailTotal atomic.Uint64
}

type QueueStats struct {
	QueueDepth     int
	QueueCapacity  int
	DropTotal      uint64
	WriteFailTotal uint64
}

const defaultQueueSize = 4096

func OpenSQLite(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	j := &Journal{
		db: db,
		ch: make(chan Event, defaultQueueSize),
	}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.loop()
	}()
	return j, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts_ms INTEGER NOT NULL,
			kind TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			tile INTEGER NOT NULL,
			actor TEXT NOT NULL,
			text TEXT NOT NULL,
			health INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_kind_id ON events(kind, id);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) Close() error {
	var err error
	j.once.Do(func() {
		j.closed.Store(true)
		close(j.ch)
		j.wg.Wait()
		err = j.db.Close()
	})
	return err
}

// Record queues ev. A zero Time is stamped with the current time.
func (j *Journal) Record(ev Event) {
	if j == nil || j.closed.Load() {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	select {
	case j.ch <- ev:
	default:
		j.dropTotal.Add(1)
	}
}

func (j *Journal) Stats() QueueStats {
	if j == nil {
		return QueueStats{}
	}
	return QueueStats{
		QueueDepth:     len(j.ch),
		QueueCapacity:  cap(j.ch),
		DropTotal:      j.dropTotal.Load(),
		WriteFailTotal: j.writeFailTotal.Load(),
	}
}

// Recent returns up to limit events, newest first. An empty kind matches
// every kind.
func (j *Journal) Recent(ctx context.Context, kind Kind, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var (
		rows *sql.Rows
		err  error
	)
	const cols = `SELECT id, ts_ms, kind, x, y, tile, actor, text, health FROM events`
	if kind == "" {
		rows, err = j.db.QueryContext(ctx, cols+` ORDER BY id DESC LIMIT ?`, limit)
	} else {
		rows, err = j.db.QueryContext(ctx, cols+` WHERE kind = ? ORDER BY id DESC LIMIT ?`, string(kind), limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev   Event
			ts   int64
			kstr string
		)
		if err := rows.Scan(&ev.ID, &ts, &kstr, &ev.X, &ev.Y, &ev.Tile, &ev.Actor, &ev.Text, &ev.Health); err != nil {
			return nil, err
		}
		ev.Time = time.UnixMilli(ts).UTC()
		ev.Kind = Kind(kstr)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Counts returns the number of journaled events per kind.
func (j *Journal) Counts(ctx context.Context) (map[Kind]int, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM events GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[Kind]int{}
	for rows.Next() {
		var (
			kstr string
			n    int
		)
		if err := rows.Scan(&kstr, &n); err != nil {
			return nil, err
		}
		out[Kind(kstr)] = n
	}
	return out, rows.Err()
}

func (j *Journal) loop() {
	ctx := context.Background()
	insert, err := j.db.Prepare(`INSERT INTO events(ts_ms,kind,x,y,tile,actor,text,health) VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		for range j.ch {
			j.writeFailTotal.Add(1)
		}
		return
	}
	defer func() { _ = insert.Close() }()

	var tx *sql.Tx
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			j.writeFailTotal.Add(1)
		}
		tx = nil
	}

	for ev := range j.ch {
		if tx == nil {
			txx, err := j.db.BeginTx(ctx, nil)
			if err != nil {
				j.writeFailTotal.Add(1)
				continue
			}
			tx = txx
		}
		if _, err := tx.Stmt(insert).Exec(
			ev.Time.UnixMilli(),
			string(ev.Kind),
			ev.X, ev.Y,
			ev.Tile,
			ev.Actor,
			ev.Text,
			ev.Health,
		); err != nil {
			j.writeFailTotal.Add(1)
			_ = tx.Rollback()
			tx = nil
			continue
		}
		// Commit once the burst is drained so readers never wait on an
		// open transaction.
		if len(j.ch) == 0 {
			commit()
		}
	}
	commit()
}
