package tiles

import "testing"

func TestWalkable_TotalAndStable(t *testing.T) {
	for v := 0; v <= 255; v++ {
		tile := uint8(v)
		want := true
		if tile == 0 || tile == Oven || tile == Hospital || (v >= 129 && v < 137) {
			want = false
		}
		got := Walkable(tile)
		if got != want {
			t.Fatalf("Walkable(%d)=%v want %v", v, got, want)
		}
		if Walkable(tile) != got {
			t.Fatalf("Walkable(%d) not stable", v)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := map[uint8]Category{
		0:   CategoryVoid,
		33:  CategorySymbol,
		126: CategorySymbol,
		127: CategoryUnknown,
		128: CategoryEmpty,
		129: CategoryBlock,
		136: CategoryBlock,
		137: CategoryTrail,
		144: CategoryTrail,
		145: CategoryResource,
		148: CategoryResource,
		149: CategoryFixture,
		150: CategoryFixture,
		151: CategoryUnknown,
		32:  CategoryUnknown,
	}
	for tile, want := range cases {
		if got := Classify(tile); got != want {
			t.Fatalf("Classify(%d)=%s want %s", tile, got, want)
		}
	}
}

func TestName(t *testing.T) {
	if got := Name(BlockStart + 5); got != "Blue Block" {
		t.Fatalf("Name(block+5)=%q", got)
	}
	if got := Name(Powder); got != "Baking Powder" {
		t.Fatalf("Name(powder)=%q", got)
	}
	if got := Name(TrailStart); got != "" {
		t.Fatalf("Name(trail)=%q want empty", got)
	}
}

func TestGlyph(t *testing.T) {
	if r, _, ok := Glyph('A'); !ok || r != 'A' {
		t.Fatalf("symbol glyph=%q ok=%v", r, ok)
	}
	if _, _, ok := Glyph(Empty); ok {
		t.Fatalf("empty tile should have no glyph")
	}
	if _, fg, ok := Glyph(BlockStart); !ok || fg != (RGB{255, 64, 64}) {
		t.Fatalf("red block colour=%v ok=%v", fg, ok)
	}
}
