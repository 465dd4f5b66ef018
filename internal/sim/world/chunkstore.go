package world

import (
	"fmt"
	"sort"

	"bqclient/internal/sim/mathx"
	"bqclient/internal/sim/tiles"
)

// ChunkStore is the sparse tile plane. Chunks are created on first write
// and live for the whole session. Accessed only from the session loop
// goroutine.
type ChunkStore struct {
	size   int
	chunks map[ChunkKey]*Chunk

	// OnNotable fires after a write stores an oven or hospital tile.
	OnNotable func(x, y int, t uint8)
}

func NewChunkStore(size int) *ChunkStore {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &ChunkStore{
		size:   size,
		chunks: map[ChunkKey]*Chunk{},
	}
}

func (s *ChunkStore) ChunkSize() int { return s.size }

func (s *ChunkStore) ChunkCount() int { return len(s.chunks) }

func (s *ChunkStore) locate(x, y int) (cx, cy, lx, ly int) {
	cx = mathx.FloorDiv(x, s.size)
	cy = mathx.FloorDiv(y, s.size)
	lx = mathx.Mod(x, s.size)
	ly = mathx.Mod(y, s.size)
	return
}

// Get never fails: cells in chunks that were never written read as 0.
func (s *ChunkStore) Get(x, y int) uint8 {
	cx, cy, lx, ly := s.locate(x, y)
	ch, ok := s.chunks[ChunkKeyOf(cx, cy)]
	if !ok {
		return tiles.Void
	}
	return ch.Get(lx, ly)
}

func (s *ChunkStore) Set(x, y int, t uint8) {
	cx, cy, lx, ly := s.locate(x, y)
	k := ChunkKeyOf(cx, cy)
	ch, ok := s.chunks[k]
	if !ok {
		ch = newChunk(cx, cy, s.size)
		s.chunks[k] = ch
	}
	if !ch.Set(lx, ly, t) {
		return
	}
	if tiles.IsFixture(t) && s.OnNotable != nil {
		s.OnNotable(x, y, t)
	}
}

// ApplyBlock writes a size*size row-major block whose top-left cell is
// (originX, originY). A malformed block is rejected before any write.
func (s *ChunkStore) ApplyBlock(originX, originY, size int, list []uint8) error {
	if size < 0 || len(list) != size*size {
		return fmt.Errorf("tile block: size=%d len=%d", size, len(list))
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			s.Set(originX+x, originY+y, list[y*size+x])
		}
	}
	return nil
}

func (s *ChunkStore) HasChunk(cx, cy int) bool {
	_, ok := s.chunks[ChunkKeyOf(cx, cy)]
	return ok
}

// ChunkAt returns the chunk owning world cell (x, y), or nil.
func (s *ChunkStore) ChunkAt(x, y int) *Chunk {
	cx, cy, _, _ := s.locate(x, y)
	return s.chunks[ChunkKeyOf(cx, cy)]
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// FlushDirty visits every cell changed since the previous flush, in chunk
// key order, and marks it rendered.
func (s *ChunkStore) FlushDirty(fn func(x, y int, t uint8)) int {
	n := 0
	for _, k := range s.LoadedChunkKeys() {
		ch := s.chunks[k]
		if !ch.needsRedraw {
			continue
		}
		ch.needsRedraw = false
		for ly := 0; ly < ch.size; ly++ {
			for lx := 0; lx < ch.size; lx++ {
				i := ch.index(lx, ly)
				t := ch.data[i]
				if ch.rendered[i] == t {
					continue
				}
				ch.rendered[i] = t
				n++
				if fn != nil {
					fn(ch.CX*ch.size+lx, ch.CY*ch.size+ly, t)
				}
			}
		}
	}
	return n
}
