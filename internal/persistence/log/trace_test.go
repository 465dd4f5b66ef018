package log

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bqclient/internal/protocol"
)

func newTestTrace(dir string, clock *time.Time) *TraceLogger {
	l := NewTraceLogger(dir)
	l.w.now = func() time.Time { return *clock }
	return l
}

func TestTrace_RoundTripAcrossRotation(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	l := newTestTrace(dir, &clock)

	cmds := protocol.SyncRequests(1, 2, 50)
	if err := l.WriteOutbound(1, 100, cmds); err != nil {
		t.Fatalf("write out: %v", err)
	}
	batch := protocol.Batch{Success: true, CommandList: []protocol.Update{
		{CommandName: protocol.UpdSetTiles, Pos: &protocol.Pos{X: 0, Y: 0}, Size: 2, TileList: []int{128, 128, 128, 145}},
		{CommandName: protocol.UpdAddChatMessage, Username: "ann", Text: "hi"},
	}}
	clock = clock.Add(2 * time.Minute)
	if err := l.WriteInbound(1, 160, batch); err != nil {
		t.Fatalf("write in: %v", err)
	}
	if err := l.WriteInbound(2, 200, protocol.Batch{Success: false, Message: "bad"}); err != nil {
		t.Fatalf("write in: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := ListTraceFiles(dir)
	if err != nil || len(files) != 2 {
		t.Fatalf("files=%v err=%v", files, err)
	}

	var got []TraceEntry
	if err := ReadTrace(dir, func(e TraceEntry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("entries=%d", len(got))
	}
	if got[0].Kind != EntryOutbound || len(got[0].Commands) != len(cmds) || got[0].Commands[0].CommandName != protocol.CmdAssertPos {
		t.Fatalf("out entry=%+v", got[0])
	}
	in := got[1]
	if in.Kind != EntryInbound || !in.Success || len(in.Updates) != 2 {
		t.Fatalf("in entry=%+v", in)
	}
	if in.Updates[0].TilesRLE == "" || in.Updates[0].TileList != nil {
		t.Fatalf("setTiles should be stored compacted: %+v", in.Updates[0])
	}
	u, err := in.Updates[0].Expand()
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(u.TileList) != 4 || u.TileList[3] != 145 || u.TileList[0] != 128 {
		t.Fatalf("tiles=%v", u.TileList)
	}
	chat, _ := in.Updates[1].Expand()
	if chat.Username != "ann" || chat.Text != "hi" {
		t.Fatalf("chat=%+v", chat)
	}
	if got[2].Success || got[2].Message != "bad" {
		t.Fatalf("reject entry=%+v", got[2])
	}
}

func TestTrace_AppendAfterReopen(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		l := newTestTrace(dir, &clock)
		if err := l.WriteOutbound(uint64(i), 0, []protocol.Command{protocol.Walk(i)}); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := l.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	var ticks []uint64
	if err := ReadTrace(dir, func(e TraceEntry) error {
		ticks = append(ticks, e.Tick)
		return nil
	}); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(ticks) != 2 || ticks[0] != 0 || ticks[1] != 1 {
		t.Fatalf("ticks=%v", ticks)
	}
}

func TestReadTrace_StopsOnCallbackError(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := newTestTrace(dir, &clock)
	for i := 0; i < 3; i++ {
		_ = l.WriteOutbound(uint64(i), 0, nil)
	}
	_ = l.Close()

	stop := errors.New("stop")
	n := 0
	err := ReadTrace(dir, func(TraceEntry) error {
		n++
		return stop
	})
	if !errors.Is(err, stop) || n != 1 {
		t.Fatalf("err=%v n=%d", err, n)
	}
}

func TestTrace_FlushAndCloseWithoutEntries(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := newTestTrace(dir, &clock)
	if err := l.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	files, err := ListTraceFiles(dir)
	if err != nil || len(files) != 0 {
		t.Fatalf("files=%v err=%v", files, err)
	}
}

func TestTrace_SegmentNamedByUTCHour(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2026, 3, 1, 23, 30, 0, 0, time.FixedZone("east", 2*3600))
	l := newTestTrace(dir, &clock)
	if err := l.WriteOutbound(1, 0, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	files, err := ListTraceFiles(dir)
	if err != nil || len(files) != 1 || filepath.Base(files[0]) != "trace-2026-03-01-21.jsonl.zst" {
		t.Fatalf("files=%v err=%v", files, err)
	}
}
