package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"bqclient/internal/protocol"
	"bqclient/internal/sim/encoding"
)

const tracePrefix = "trace"

const (
	EntryOutbound = "out"
	EntryInbound  = "in"
)

// TraceEntry is one line of a session trace: either the commands flushed on
// a tick or one inbound batch.
type TraceEntry struct {
	Kind   string `json:"kind"`
	Tick   uint64 `json:"tick"`
	TimeMs int64  `json:"t"`

	Commands []protocol.Command `json:"commands,omitempty"`

	Success bool          `json:"success,omitempty"`
	Message string        `json:"message,omitempty"`
	Updates []TraceUpdate `json:"updates,omitempty"`
}

// TraceUpdate stores setTiles payloads run-length encoded; every other
// update is stored as received.
type TraceUpdate struct {
	protocol.Update
	TilesRLE string `json:"tiles_rle,omitempty"`
}

func compactUpdate(u protocol.Update) TraceUpdate {
	if u.CommandName != protocol.UpdSetTiles {
		return TraceUpdate{Update: u}
	}
	tl, err := u.Tiles()
	if err != nil {
		return TraceUpdate{Update: u}
	}
	tu := TraceUpdate{Update: u, TilesRLE: encoding.EncodeRLE(tl)}
	tu.TileList = nil
	return tu
}

// Expand restores the update as it was received.
func (tu TraceUpdate) Expand() (protocol.Update, error) {
	u := tu.Update
	if tu.TilesRLE == "" {
		return u, nil
	}
	tl, err := encoding.DecodeRLE(tu.TilesRLE, u.Size*u.Size)
	if err != nil {
		return u, fmt.Errorf("tiles_rle: %w", err)
	}
	u.TileList = make([]int, len(tl))
	for i, t := range tl {
		u.TileList[i] = int(t)
	}
	return u, nil
}

// TraceLogger records a session for later replay.
type TraceLogger struct{ w *segmentWriter }

func NewTraceLogger(dir string) *TraceLogger {
	return &TraceLogger{w: newSegmentWriter(dir, tracePrefix)}
}

func (l *TraceLogger) WriteOutbound(tick uint64, timeMs int64, cmds []protocol.Command) error {
	return l.w.write(TraceEntry{Kind: EntryOutbound, Tick: tick, TimeMs: timeMs, Commands: cmds})
}

func (l *TraceLogger) WriteInbound(tick uint64, timeMs int64, b protocol.Batch) error {
	e := TraceEntry{Kind: EntryInbound, Tick: tick, TimeMs: timeMs, Success: b.Success, Message: b.Message}
	if len(b.CommandList) > 0 {
		e.Updates = make([]TraceUpdate, 0, len(b.CommandList))
		for _, u := range b.CommandList {
			e.Updates = append(e.Updates, compactUpdate(u))
		}
	}
	return l.w.write(e)
}

func (l *TraceLogger) Flush() error { return l.w.flush() }
func (l *TraceLogger) Close() error { return l.w.close() }

// ListTraceFiles returns the trace files in dir, oldest first.
func ListTraceFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, tracePrefix+"-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ReadTrace calls fn for every entry in dir in recording order. A non-nil
// error from fn stops the walk and is returned.
func ReadTrace(dir string, fn func(TraceEntry) error) error {
	files, err := ListTraceFiles(dir)
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := readTraceFile(path, fn); err != nil {
			return err
		}
	}
	return nil
}

func readTraceFile(path string, fn func(TraceEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		var entry TraceEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return sc.Err()
}
