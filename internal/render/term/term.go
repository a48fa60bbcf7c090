// Package term draws the scene graph onto a terminal with tcell: a top-down
// projection of the ecliptic plane, body markers and every visible line.
package term

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/orrery/orbitviz/internal/core/event"
	"github.com/orrery/orbitviz/internal/line"
	"github.com/orrery/orbitviz/internal/scene"
)

const (
	bodyGlyph      = 'o'
	highlightGlyph = '@'
	lineGlyph      = '.'
	keyBuffer      = 32
)

// HUD is the status shown on the bottom row.
type HUD struct {
	Mode                  string // "keplerian" or "verlet"
	TrailLengthMultiplier float64
	Highlighted           string
	Visible               bool
	SimDays               float64
}

type keyPress struct {
	key tcell.Key
	r   rune
}

// Terminal owns a tcell screen. Draw and HandleInput run on the frame loop
// goroutine; Listen runs the blocking event poll on its own goroutine.
type Terminal struct {
	screen tcell.Screen
	bus    *event.Bus
	log    *zap.Logger
	zoom   float64 // columns per scene unit
	keys   chan keyPress

	hud    HUD
	bodies []string // body ids seen by the last Draw, sorted
}

func New(screen tcell.Screen, bus *event.Bus, zoom float64, log *zap.Logger) *Terminal {
	if zoom <= 0 {
		zoom = 1
	}
	return &Terminal{
		screen: screen,
		bus:    bus,
		log:    log,
		zoom:   zoom,
		keys:   make(chan keyPress, keyBuffer),
	}
}

// Listen forwards key presses until the screen is finalised.
func (t *Terminal) Listen() {
	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			t.Enqueue(ev.Key(), ev.Rune())
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

// Enqueue queues a key for the next HandleInput. Keys beyond the buffer are
// dropped.
func (t *Terminal) Enqueue(key tcell.Key, r rune) {
	select {
	case t.keys <- keyPress{key: key, r: r}:
	default:
		t.log.Debug("key dropped", zap.String("key", tcell.KeyNames[key]))
	}
}

// HandleInput turns queued keys into bus events.
func (t *Terminal) HandleInput() {
	for {
		select {
		case kp := <-t.keys:
			t.handleKey(kp)
		default:
			return
		}
	}
}

func (t *Terminal) handleKey(kp keyPress) {
	switch {
	case kp.key == tcell.KeyEscape, kp.key == tcell.KeyCtrlC, kp.key == tcell.KeyRune && kp.r == 'q':
		event.Emit(t.bus, event.QuitRequested{})
	case kp.key == tcell.KeyTab:
		event.Emit(t.bus, event.HighlightRequested{BodyID: t.nextBody(1)})
	case kp.key == tcell.KeyBacktab:
		event.Emit(t.bus, event.HighlightRequested{BodyID: t.nextBody(-1)})
	case kp.key == tcell.KeyRune && kp.r == 'm':
		engine := "verlet"
		if t.hud.Mode == "verlet" {
			engine = "keplerian"
		}
		t.emitSettings(engine, t.hud.TrailLengthMultiplier)
	case kp.key == tcell.KeyRune && kp.r == ']':
		t.emitSettings(t.hud.Mode, t.hud.TrailLengthMultiplier*2)
	case kp.key == tcell.KeyRune && kp.r == '[':
		t.emitSettings(t.hud.Mode, t.hud.TrailLengthMultiplier/2)
	case kp.key == tcell.KeyRune && kp.r == 'v':
		event.Emit(t.bus, event.VisibilityToggled{})
	case kp.key == tcell.KeyRune && kp.r == 'x':
		event.Emit(t.bus, event.HighlightRequested{})
	case kp.key == tcell.KeyRune && (kp.r == '+' || kp.r == '='):
		t.zoom *= 1.25
	case kp.key == tcell.KeyRune && kp.r == '-':
		t.zoom /= 1.25
	}
}

func (t *Terminal) emitSettings(engine string, mult float64) {
	if mult <= 0 {
		mult = 1
	}
	event.Emit(t.bus, event.SettingsChanged{PhysicsEngine: engine, TrailLengthMultiplier: mult})
}

// nextBody steps the selection through the known bodies, wrapping around.
// With nothing selected it starts at the first (or last) body.
func (t *Terminal) nextBody(dir int) string {
	n := len(t.bodies)
	if n == 0 {
		return ""
	}
	cur := -1
	for i, id := range t.bodies {
		if id == t.hud.Highlighted {
			cur = i
			break
		}
	}
	if cur < 0 {
		if dir > 0 {
			return t.bodies[0]
		}
		return t.bodies[n-1]
	}
	return t.bodies[((cur+dir)%n+n)%n]
}

func (t *Terminal) Zoom() float64 { return t.zoom }

// Draw renders one frame. Lines go first so body markers stay on top.
func (t *Terminal) Draw(g *scene.Graph, hud HUD) {
	t.hud = hud
	t.bodies = t.bodies[:0]
	t.screen.Clear()

	var bodies []*scene.BodyNode
	g.Each(func(obj scene.Object) {
		switch o := obj.(type) {
		case *line.Polyline:
			if o.Visible() && !o.Disposed() {
				t.drawLine(o)
			}
		case *scene.BodyNode:
			bodies = append(bodies, o)
			t.bodies = append(t.bodies, o.ID)
		}
	})
	for _, b := range bodies {
		glyph, style := bodyGlyph, tcell.StyleDefault.Foreground(tcell.ColorWhite)
		if b.ID == hud.Highlighted {
			glyph, style = highlightGlyph, style.Bold(true).Foreground(tcell.ColorYellow)
		}
		x, y := t.project(b.Position)
		t.set(x, y, glyph, style)
	}
	t.drawStatus(hud)
	t.screen.Show()
}

func (t *Terminal) drawLine(l *line.Polyline) {
	m := l.Material()
	style := tcell.StyleDefault.Foreground(toTcell(m.Color))
	if m.Opacity < 0.5 {
		style = style.Dim(true)
	}
	pts := l.Points()
	for i := 1; i < len(pts); i++ {
		if m.Dashed && i%2 == 0 {
			continue
		}
		x0, y0 := t.project(pts[i-1])
		x1, y1 := t.project(pts[i])
		t.segment(x0, y0, x1, y1, style)
	}
	if len(pts) == 1 {
		x, y := t.project(pts[0])
		t.set(x, y, lineGlyph, style)
	}
}

// segment rasterises with Bresenham. Segments far off screen are skipped.
func (t *Terminal) segment(x0, y0, x1, y1 int, style tcell.Style) {
	w, h := t.screen.Size()
	if (x0 < 0 && x1 < 0) || (y0 < 0 && y1 < 0) || (x0 >= w && x1 >= w) || (y0 >= h && y1 >= h) {
		return
	}
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		t.set(x0, y0, lineGlyph, style)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// project maps the x/y plane onto cells around the screen centre. Terminal
// cells are about twice as tall as wide, so y is halved.
func (t *Terminal) project(p r3.Vec) (int, int) {
	w, h := t.screen.Size()
	x := float64(w)/2 + p.X*t.zoom
	y := float64(h-1)/2 - p.Y*t.zoom/2
	return clampCell(x), clampCell(y)
}

func (t *Terminal) set(x, y int, r rune, style tcell.Style) {
	w, h := t.screen.Size()
	if x < 0 || y < 0 || x >= w || y >= h-1 { // last row is the status bar
		return
	}
	t.screen.SetContent(x, y, r, nil, style)
}

func (t *Terminal) drawStatus(hud HUD) {
	w, h := t.screen.Size()
	sel := hud.Highlighted
	if sel == "" {
		sel = "-"
	}
	vis := "on"
	if !hud.Visible {
		vis = "off"
	}
	status := fmt.Sprintf(" %s | day %.0f | selected %s | lines %s | trail x%g | m:mode tab:select v:lines []:trail q:quit",
		hud.Mode, hud.SimDays, sel, vis, hud.TrailLengthMultiplier)
	style := tcell.StyleDefault.Reverse(true)
	for x := 0; x < w; x++ {
		r := ' '
		if x < len(status) {
			r = rune(status[x])
		}
		t.screen.SetContent(x, h-1, r, nil, style)
	}
}

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func clampCell(v float64) int {
	const lim = 1 << 20
	if math.IsNaN(v) {
		return -1
	}
	return int(math.Max(-lim, math.Min(lim, math.Floor(v))))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
