package tiles

// RGB is a display colour.
type RGB [3]uint8

// Palette: 8 block colours, 2 misc, 8 trail colours.
var palette = [...]RGB{
	{255, 64, 64},
	{255, 128, 0},
	{192, 192, 64},
	{0, 192, 0},
	{0, 192, 192},
	{64, 64, 255},
	{192, 0, 192},
	{128, 128, 128},

	{0, 0, 0},
	{64, 64, 64},

	{255, 128, 128},
	{255, 192, 64},
	{224, 224, 64},
	{64, 255, 64},
	{64, 224, 224},
	{128, 128, 255},
	{255, 64, 255},
	{192, 192, 192},
}

const (
	paletteVoid  = 9
	paletteTrail = 10
)

var resourceGlyphs = [...]rune{'f', 'w', 'p', 'B'}

// Glyph maps a tile to a terminal cell. ok is false for codes with no
// visual (empty ground and unassigned codes).
func Glyph(t uint8) (r rune, fg RGB, ok bool) {
	switch {
	case t == Void:
		return '█', palette[paletteVoid], true
	case IsBlock(t):
		return '█', palette[t-BlockStart], true
	case IsTrail(t):
		return '·', palette[paletteTrail+int(t-TrailStart)], true
	case IsResource(t):
		return resourceGlyphs[t-Flour], RGB{255, 255, 255}, true
	case t == Oven:
		return 'O', RGB{255, 160, 64}, true
	case t == Hospital:
		return 'H', RGB{255, 255, 255}, true
	case IsSymbol(t):
		return rune(t), RGB{192, 192, 192}, true
	}
	return ' ', RGB{}, false
}
