package world

import (
	"testing"

	"bqclient/internal/sim/tiles"
)

func TestChunkStore_UnwrittenReadsZero(t *testing.T) {
	s := NewChunkStore(DefaultChunkSize)
	for _, p := range []Pos{{0, 0}, {-1, -1}, {1 << 20, -(1 << 20)}, {127, 128}} {
		if got := s.Get(p.X, p.Y); got != 0 {
			t.Fatalf("Get(%v)=%d want 0", p, got)
		}
	}
	if s.ChunkCount() != 0 {
		t.Fatalf("reads must not allocate chunks: count=%d", s.ChunkCount())
	}
}

func TestChunkStore_SetGetRoundTrip(t *testing.T) {
	s := NewChunkStore(DefaultChunkSize)
	cases := []struct {
		x, y int
		t    uint8
	}{
		{0, 0, tiles.Empty},
		{-1, -1, tiles.BlockStart},
		{-128, 127, tiles.Flour},
		{129, -129, 'Z'},
		{5000, 5000, tiles.TrailStart + 3},
	}
	for _, c := range cases {
		s.Set(c.x, c.y, c.t)
		if got := s.Get(c.x, c.y); got != c.t {
			t.Fatalf("Get(%d,%d)=%d want %d", c.x, c.y, got, c.t)
		}
	}
	// Neighbouring cells across the chunk boundary stay untouched.
	if got := s.Get(-2, -1); got != 0 {
		t.Fatalf("neighbour overwritten: %d", got)
	}
}

func TestChunkStore_IdempotentChunkCreation(t *testing.T) {
	s := NewChunkStore(16)
	s.Set(1, 1, tiles.Empty)
	if s.ChunkCount() != 1 {
		t.Fatalf("count=%d want 1", s.ChunkCount())
	}
	s.Set(15, 15, tiles.Empty)
	s.Set(1, 1, tiles.Water)
	if s.ChunkCount() != 1 {
		t.Fatalf("same chunk must be reused: count=%d", s.ChunkCount())
	}
	s.Set(-1, 0, tiles.Empty)
	if s.ChunkCount() != 2 || !s.HasChunk(-1, 0) {
		t.Fatalf("negative chunk not created: count=%d", s.ChunkCount())
	}
}

func TestChunkStore_DirtyTracking(t *testing.T) {
	s := NewChunkStore(8)
	s.Set(3, 4, tiles.Empty)
	s.Set(-1, 0, tiles.Bread)

	seen := map[Pos]uint8{}
	n := s.FlushDirty(func(x, y int, tile uint8) { seen[Pos{x, y}] = tile })
	if n != 2 || len(seen) != 2 {
		t.Fatalf("flushed %d cells (%v) want 2", n, seen)
	}
	if seen[Pos{3, 4}] != tiles.Empty || seen[Pos{-1, 0}] != tiles.Bread {
		t.Fatalf("flushed values wrong: %v", seen)
	}
	if n := s.FlushDirty(nil); n != 0 {
		t.Fatalf("second flush visited %d cells", n)
	}

	// Unchanged write is a no-op.
	s.Set(3, 4, tiles.Empty)
	if ch := s.ChunkAt(3, 4); ch.NeedsRedraw() {
		t.Fatalf("unchanged write flagged redraw")
	}

	s.Set(3, 4, tiles.Water)
	ch := s.ChunkAt(3, 4)
	if !ch.NeedsRedraw() || !ch.Dirty(3, 4) || ch.Dirty(2, 4) {
		t.Fatalf("only the written cell should be dirty")
	}
}

func TestChunkStore_NotableFixtures(t *testing.T) {
	s := NewChunkStore(DefaultChunkSize)
	var got []Pos
	s.OnNotable = func(x, y int, tile uint8) { got = append(got, Pos{x, y}) }

	s.Set(1, 2, tiles.Oven)
	s.Set(1, 2, tiles.Oven) // unchanged
	s.Set(3, 4, tiles.Empty)
	s.Set(-5, -6, tiles.Hospital)

	if len(got) != 2 || got[0] != (Pos{1, 2}) || got[1] != (Pos{-5, -6}) {
		t.Fatalf("notable=%v", got)
	}
}

func TestChunkStore_ApplyBlock(t *testing.T) {
	s := NewChunkStore(4)
	list := []uint8{
		tiles.Empty, tiles.BlockStart, tiles.Empty,
		tiles.Flour, tiles.Empty, tiles.Empty,
		tiles.Empty, tiles.Empty, tiles.Oven,
	}
	if err := s.ApplyBlock(-1, -1, 3, list); err != nil {
		t.Fatalf("ApplyBlock: %v", err)
	}
	if s.Get(0, -1) != tiles.BlockStart || s.Get(-1, 0) != tiles.Flour || s.Get(1, 1) != tiles.Oven {
		t.Fatalf("row-major layout not honoured")
	}
	if err := s.ApplyBlock(10, 10, 3, list[:8]); err == nil {
		t.Fatalf("short block accepted")
	}
	if s.Get(10, 10) != 0 {
		t.Fatalf("rejected block partially applied")
	}
}

func TestChunkKeyOf(t *testing.T) {
	if ChunkKeyOf(3, 2) != 2*65536+3 {
		t.Fatalf("key layout")
	}
	if ChunkKeyOf(-1, 0) == ChunkKeyOf(0, 0) {
		t.Fatalf("distinct chunks share a key")
	}
}
