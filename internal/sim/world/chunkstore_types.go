package world

// DefaultChunkSize is the edge length of a chunk in tiles.
const DefaultChunkSize = 128

// ChunkKey packs chunk coordinates as cy*2^16 + cx.
type ChunkKey int64

func ChunkKeyOf(cx, cy int) ChunkKey {
	return ChunkKey(int64(cy)*(1<<16) + int64(cx))
}

type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Pos) Add(dx, dy int) Pos { return Pos{X: p.X + dx, Y: p.Y + dy} }

// Chunk is a square block of tile values. rendered mirrors data as of the
// last FlushDirty; a cell is dirty while the two disagree.
type Chunk struct {
	CX, CY int

	size        int
	data        []uint8
	rendered    []uint8
	needsRedraw bool
}

func newChunk(cx, cy, size int) *Chunk {
	return &Chunk{
		CX:       cx,
		CY:       cy,
		size:     size,
		data:     make([]uint8, size*size),
		rendered: make([]uint8, size*size),
	}
}

func (c *Chunk) index(lx, ly int) int {
	// x fastest, then y
	return ly*c.size + lx
}

func (c *Chunk) Get(lx, ly int) uint8 {
	return c.data[c.index(lx, ly)]
}

// Set writes a cell and reports whether the value changed.
func (c *Chunk) Set(lx, ly int, t uint8) bool {
	i := c.index(lx, ly)
	if c.data[i] == t {
		return false
	}
	c.data[i] = t
	c.needsRedraw = true
	return true
}

func (c *Chunk) NeedsRedraw() bool { return c.needsRedraw }

// Dirty reports whether the cell differs from its last rendered value.
func (c *Chunk) Dirty(lx, ly int) bool {
	i := c.index(lx, ly)
	return c.data[i] != c.rendered[i]
}
