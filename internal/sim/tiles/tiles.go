// Package tiles classifies the 8-bit tile codes used by the world grid.
//
// Every rule that depends on what a tile "is" lives here. Pathfinding and
// movement execution both call Walkable; neither keeps its own copy.
package tiles

const (
	Void uint8 = 0

	SymbolStart  uint8 = 33
	SymbolAmount       = 94

	Empty uint8 = 128

	BlockStart  uint8 = 129
	BlockAmount       = 8

	TrailStart  uint8 = 137
	TrailAmount       = 8

	Flour  uint8 = 145
	Water  uint8 = 146
	Powder uint8 = 147
	Bread  uint8 = 148

	Oven     uint8 = 149
	Hospital uint8 = 150
)

type Category int

const (
	CategoryUnknown Category = iota
	CategoryVoid
	CategorySymbol
	CategoryEmpty
	CategoryBlock
	CategoryTrail
	CategoryResource
	CategoryFixture
)

func (c Category) String() string {
	switch c {
	case CategoryVoid:
		return "VOID"
	case CategorySymbol:
		return "SYMBOL"
	case CategoryEmpty:
		return "EMPTY"
	case CategoryBlock:
		return "BLOCK"
	case CategoryTrail:
		return "TRAIL"
	case CategoryResource:
		return "RESOURCE"
	case CategoryFixture:
		return "FIXTURE"
	default:
		return "UNKNOWN"
	}
}

func IsBlock(t uint8) bool { return t >= BlockStart && int(t) < int(BlockStart)+BlockAmount }

func IsTrail(t uint8) bool { return t >= TrailStart && int(t) < int(TrailStart)+TrailAmount }

func IsResource(t uint8) bool { return t >= Flour && t <= Bread }

func IsSymbol(t uint8) bool { return t >= SymbolStart && int(t) < int(SymbolStart)+SymbolAmount }

func IsFixture(t uint8) bool { return t == Oven || t == Hospital }

// Walkable reports whether a player may step onto t. Void reads the same as
// an unloaded chunk, so unexplored cells are never walkable here; the
// pathfinder prices them as breakable instead.
func Walkable(t uint8) bool {
	return t != Void && !IsFixture(t) && !IsBlock(t)
}

func Classify(t uint8) Category {
	switch {
	case t == Void:
		return CategoryVoid
	case t == Empty:
		return CategoryEmpty
	case IsBlock(t):
		return CategoryBlock
	case IsTrail(t):
		return CategoryTrail
	case IsResource(t):
		return CategoryResource
	case IsFixture(t):
		return CategoryFixture
	case IsSymbol(t):
		return CategorySymbol
	default:
		return CategoryUnknown
	}
}

var blockNames = [BlockAmount]string{"Red", "Orange", "Yellow", "Green", "Teal", "Blue", "Purple", "Gray"}

// Name returns the inventory display name of t, or "" for tiles that are
// never held as items.
func Name(t uint8) string {
	switch {
	case t == Empty:
		return "Empty Tile"
	case t == Flour:
		return "Flour"
	case t == Water:
		return "Water"
	case t == Powder:
		return "Baking Powder"
	case t == Bread:
		return "Bread"
	case t == Oven:
		return "Oven"
	case t == Hospital:
		return "Hospital"
	case IsBlock(t):
		return blockNames[t-BlockStart] + " Block"
	}
	return ""
}
