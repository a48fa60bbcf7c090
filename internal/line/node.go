package line

import (
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// Renderable is the capability a scene-graph line node must offer. Managers
// only ever talk to lines through this interface.
type Renderable interface {
	ObjectID() string
	WorldPosition() r3.Vec
	SetPosition(pos r3.Vec)

	// Buffer is the x,y,z vertex array; Capacity is its size in points.
	Buffer() []float32
	Capacity() int
	SetBuffer(buf []float32, capacity int)
	DrawRange() int
	SetDrawRange(n int)
	MarkDirty()
	Dirty() bool
	ClearDirty()

	Visible() bool
	SetVisible(v bool)
	Color() colorful.Color
	SetColor(c colorful.Color)
	Material() Material
	SetFrustumCulled(on bool)

	// Dispose releases the material resource. The buffer is handled by Builder.
	Dispose()
}

// NodeFactory creates the concrete node type of the target renderer.
type NodeFactory interface {
	NewNode(name string, m Material) Renderable
}

// PolylineFactory creates in-memory Polyline nodes.
type PolylineFactory struct{}

func (PolylineFactory) NewNode(name string, m Material) Renderable {
	return NewPolyline(name, m)
}

// Polyline is a renderer-neutral line node. Readers (the terminal renderer,
// tests) consume Points; writers go through Builder.
type Polyline struct {
	name          string
	pos           r3.Vec
	buf           []float32
	capacity      int
	drawRange     int
	dirty         bool
	visible       bool
	frustumCulled bool
	material      Material
	disposed      bool
}

func NewPolyline(name string, m Material) *Polyline {
	return &Polyline{
		name:          name,
		material:      m,
		frustumCulled: true,
	}
}

func (l *Polyline) ObjectID() string          { return l.name }
func (l *Polyline) WorldPosition() r3.Vec     { return l.pos }
func (l *Polyline) SetPosition(pos r3.Vec)    { l.pos = pos }
func (l *Polyline) Buffer() []float32         { return l.buf }
func (l *Polyline) Capacity() int             { return l.capacity }
func (l *Polyline) DrawRange() int            { return l.drawRange }
func (l *Polyline) MarkDirty()                { l.dirty = true }
func (l *Polyline) Dirty() bool               { return l.dirty }
func (l *Polyline) ClearDirty()               { l.dirty = false }
func (l *Polyline) Visible() bool             { return l.visible }
func (l *Polyline) SetVisible(v bool)         { l.visible = v }
func (l *Polyline) Color() colorful.Color     { return l.material.Color }
func (l *Polyline) SetColor(c colorful.Color) { l.material.Color = c }
func (l *Polyline) Material() Material        { return l.material }
func (l *Polyline) SetFrustumCulled(on bool)  { l.frustumCulled = on }
func (l *Polyline) FrustumCulled() bool       { return l.frustumCulled }
func (l *Polyline) Disposed() bool            { return l.disposed }

func (l *Polyline) SetBuffer(buf []float32, capacity int) {
	l.buf = buf
	l.capacity = capacity
	if l.drawRange > capacity {
		l.drawRange = capacity
	}
}

func (l *Polyline) SetDrawRange(n int) {
	if n < 0 {
		n = 0
	}
	if n > l.capacity {
		n = l.capacity
	}
	l.drawRange = n
}

func (l *Polyline) Dispose() {
	l.disposed = true
	l.material = Material{Kind: l.material.Kind}
}

// Points returns the drawn points in world space (object position applied).
func (l *Polyline) Points() []r3.Vec {
	out := make([]r3.Vec, l.drawRange)
	for i := range out {
		out[i] = r3.Vec{
			X: float64(l.buf[i*3]) + l.pos.X,
			Y: float64(l.buf[i*3+1]) + l.pos.Y,
			Z: float64(l.buf[i*3+2]) + l.pos.Z,
		}
	}
	return out
}
