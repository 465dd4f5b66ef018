// Package term is the interactive terminal front end.
package term

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"bqclient/internal/client"
	"bqclient/internal/sim/mathx"
	"bqclient/internal/sim/pathfind"
	"bqclient/internal/sim/simctx"
	"bqclient/internal/sim/tiles"
	"bqclient/internal/sim/world"
)

// Canvas is the drawing surface; tcell.Screen implements it.
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (int, int)
}

const (
	sidebarWidth = 24
	chatHeight   = 6
	minZoom      = 1
	maxZoom      = 3
)

var (
	styleDefault = tcell.StyleDefault
	styleStatus  = tcell.StyleDefault.Reverse(true)
	styleSelf    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	stylePlayer  = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleEnemy   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleCrack   = tcell.StyleDefault.Foreground(tcell.ColorOrange)
	styleRoute   = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleActive  = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

type cell struct {
	r     rune
	style tcell.Style
}

func glyphCell(t uint8) cell {
	r, fg, ok := tiles.Glyph(t)
	if !ok {
		return cell{r: ' ', style: styleDefault}
	}
	return cell{r: r, style: styleDefault.Foreground(tcell.NewRGBColor(int32(fg[0]), int32(fg[1]), int32(fg[2])))}
}

var voidCell = glyphCell(tiles.Void)

// glyphCache mirrors the chunk store as drawable cells. It is updated from
// the store's dirty cells only.
type glyphCache struct {
	size   int
	chunks map[world.ChunkKey][]cell
}

func newGlyphCache(size int) *glyphCache {
	return &glyphCache{size: size, chunks: map[world.ChunkKey][]cell{}}
}

func (g *glyphCache) sync(store *world.ChunkStore) int {
	return store.FlushDirty(g.set)
}

func (g *glyphCache) set(x, y int, t uint8) {
	k := world.ChunkKeyOf(mathx.FloorDiv(x, g.size), mathx.FloorDiv(y, g.size))
	ch, ok := g.chunks[k]
	if !ok {
		ch = make([]cell, g.size*g.size)
		for i := range ch {
			ch[i] = voidCell
		}
		g.chunks[k] = ch
	}
	ch[mathx.Mod(y, g.size)*g.size+mathx.Mod(x, g.size)] = glyphCell(t)
}

func (g *glyphCache) at(x, y int) cell {
	k := world.ChunkKeyOf(mathx.FloorDiv(x, g.size), mathx.FloorDiv(y, g.size))
	ch, ok := g.chunks[k]
	if !ok {
		return voidCell
	}
	return ch[mathx.Mod(y, g.size)*g.size+mathx.Mod(x, g.size)]
}

// View renders the session. It is only touched on the session goroutine.
type View struct {
	cache *glyphCache
	zoom  int

	chatting bool
	input    []rune
	button   bool
}

func NewView(chunkSize int) *View {
	return &View{cache: newGlyphCache(chunkSize), zoom: 2}
}

type layout struct {
	w, h       int
	mapX, mapY int
	mapW, mapH int
	sideX      int
	chatY      int
}

func (v *View) layout(c Canvas) layout {
	w, h := c.Size()
	l := layout{w: w, h: h, mapY: 1}
	l.sideX = w - sidebarWidth
	if l.sideX < 0 {
		l.sideX = w
	}
	l.mapW = l.sideX
	l.chatY = h - chatHeight - 1
	if l.chatY < l.mapY {
		l.chatY = l.mapY
	}
	l.mapH = l.chatY - l.mapY
	return l
}

// ScreenToWorld maps a canvas cell inside the map area to the world cell
// drawn there.
func (v *View) ScreenToWorld(c Canvas, cam world.Pos, sx, sy int) (world.Pos, bool) {
	l := v.layout(c)
	if sx < l.mapX || sx >= l.mapX+l.mapW || sy < l.mapY || sy >= l.mapY+l.mapH {
		return world.Pos{}, false
	}
	tilesW := l.mapW / v.zoom
	col := (sx - l.mapX) / v.zoom
	row := sy - l.mapY
	return world.Pos{X: cam.X - tilesW/2 + col, Y: cam.Y - l.mapH/2 + row}, true
}

func (v *View) worldToScreen(l layout, cam, p world.Pos) (int, int, bool) {
	tilesW := l.mapW / v.zoom
	col := p.X - (cam.X - tilesW/2)
	row := p.Y - (cam.Y - l.mapH/2)
	if col < 0 || col >= tilesW || row < 0 || row >= l.mapH {
		return 0, 0, false
	}
	return l.mapX + col*v.zoom, l.mapY + row, true
}

func (v *View) Zoom(delta int) {
	v.zoom += delta
	if v.zoom < minZoom {
		v.zoom = minZoom
	}
	if v.zoom > maxZoom {
		v.zoom = maxZoom
	}
}

// Draw paints the whole frame.
func (v *View) Draw(c Canvas, s *client.Session) {
	st := s.State()
	v.cache.sync(st.Store)
	l := v.layout(c)
	blank(c, l)

	cam := st.Player.Predicted
	v.drawMap(c, l, cam)
	v.drawRoute(c, l, cam, st)
	v.drawEntities(c, l, cam, st)
	v.drawStatus(c, l, s)
	v.drawSidebar(c, l, st)
	v.drawChat(c, l, s)
}

func blank(c Canvas, l layout) {
	for y := 0; y < l.h; y++ {
		for x := 0; x < l.w; x++ {
			c.SetContent(x, y, ' ', nil, styleDefault)
		}
	}
}

func (v *View) putTile(c Canvas, x, y int, ce cell) {
	c.SetContent(x, y, ce.r, nil, ce.style)
	for i := 1; i < v.zoom; i++ {
		r := ' '
		if ce.r == '█' {
			r = '█'
		}
		c.SetContent(x+i, y, r, nil, ce.style)
	}
}

func (v *View) drawMap(c Canvas, l layout, cam world.Pos) {
	tilesW := l.mapW / v.zoom
	x0 := cam.X - tilesW/2
	y0 := cam.Y - l.mapH/2
	for row := 0; row < l.mapH; row++ {
		for col := 0; col < tilesW; col++ {
			v.putTile(c, l.mapX+col*v.zoom, l.mapY+row, v.cache.at(x0+col, y0+row))
		}
	}
}

func (v *View) drawRoute(c Canvas, l layout, cam world.Pos, st *simctx.State) {
	for _, p := range pathfind.Trace(st.Player.Predicted, st.Path) {
		if st.Store.Get(p.X, p.Y) != tiles.Empty {
			continue
		}
		if sx, sy, ok := v.worldToScreen(l, cam, p); ok {
			c.SetContent(sx, sy, '∙', nil, styleRoute)
		}
	}
}

func (v *View) drawEntities(c Canvas, l layout, cam world.Pos, st *simctx.State) {
	ents := st.VisibleEntities()
	for i, e := range ents {
		sx, sy, ok := v.worldToScreen(l, cam, e.Pos)
		if !ok {
			continue
		}
		switch e.Kind {
		case world.KindEnemy:
			c.SetContent(sx, sy, 'E', nil, styleEnemy)
		case world.KindCrack:
			c.SetContent(sx, sy, 'x', nil, styleCrack)
		default:
			style := stylePlayer
			// The local player is appended after the transient entities.
			if i == st.Entities.Len() {
				style = styleSelf
			}
			c.SetContent(sx, sy, '@', nil, style)
		}
	}
}

func puts(c Canvas, x, y, maxW int, text string, style tcell.Style) {
	i := 0
	for _, r := range text {
		if i >= maxW {
			return
		}
		c.SetContent(x+i, y, r, nil, style)
		i++
	}
}

func statusLine(s *client.Session) string {
	st := s.State()
	stats := s.Stats()
	brk := "off"
	if st.BreakMode {
		brk = "on"
	}
	return fmt.Sprintf(" %s  pos [%d, %d]  hp %d  bread %d  mode %s  break %s  %s  ping %dms  tps %d  %.1fKB/s",
		st.Player.Username,
		st.Player.Predicted.X, st.Player.Predicted.Y,
		st.Player.Health, st.Player.Bread,
		st.Mode, brk, s.Executor().State(),
		stats.Ping.Milliseconds(), stats.TPS, float64(stats.BytesPerSec)/1000)
}

func (v *View) drawStatus(c Canvas, l layout, s *client.Session) {
	for x := 0; x < l.w; x++ {
		c.SetContent(x, 0, ' ', nil, styleStatus)
	}
	puts(c, 0, 0, l.w, statusLine(s), styleStatus)
}

func (v *View) drawSidebar(c Canvas, l layout, st *simctx.State) {
	if l.sideX >= l.w {
		return
	}
	x := l.sideX + 1
	w := sidebarWidth - 1
	y := l.mapY
	puts(c, x, y, w, "Inventory", styleDim)
	y++
	for i, id := range st.InventoryItems() {
		if y >= l.chatY {
			return
		}
		style := styleDefault
		if st.HasSelected && st.Selected == id {
			style = styleActive
		}
		key := " "
		if i < 9 {
			key = fmt.Sprint(i + 1)
		}
		name := tiles.Name(id)
		if name == "" {
			name = fmt.Sprintf("#%d", id)
		}
		puts(c, x, y, w, fmt.Sprintf("%s %-14s %4d", key, name, st.Inventory[id]), style)
		y++
	}
	y++
	if y >= l.chatY {
		return
	}
	puts(c, x, y, w, "Online", styleDim)
	y++
	for _, name := range st.OnlinePlayers {
		if y >= l.chatY {
			return
		}
		puts(c, x, y, w, name, styleDefault)
		y++
	}
}

func (v *View) drawChat(c Canvas, l layout, s *client.Session) {
	lines := s.Chat().Tail(chatHeight)
	y := l.chatY
	for _, line := range lines {
		puts(c, 0, y, l.w, line.String(), styleDefault)
		y++
	}
	if v.chatting {
		puts(c, 0, l.h-1, l.w, "> "+string(v.input), styleActive)
	} else {
		puts(c, 0, l.h-1, l.w, "wasd move  b break  h hunt  1-9 item  0 none  +/- zoom  enter chat  q quit", styleDim)
	}
}
