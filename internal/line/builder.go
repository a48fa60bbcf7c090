package line

import "gonum.org/v1/gonum/spatial/r3"

// Builder creates, streams into, resizes and disposes pooled line nodes.
type Builder struct {
	pool  *Pool
	nodes NodeFactory
}

func NewBuilder(pool *Pool, nodes NodeFactory) *Builder {
	if nodes == nil {
		nodes = PolylineFactory{}
	}
	return &Builder{pool: pool, nodes: nodes}
}

func (b *Builder) Pool() *Pool { return b.pool }

// CreateLine allocates a line with room for capacity points and nothing drawn.
// Frustum culling is off: the bounding box of a partially drawn buffer is unreliable.
func (b *Builder) CreateLine(capacity int, m Material, name string) Renderable {
	l := b.nodes.NewNode(name, m)
	if capacity < 0 {
		capacity = 0
	}
	l.SetBuffer(b.pool.Get(capacity), capacity)
	l.SetDrawRange(0)
	l.SetFrustumCulled(false)
	return l
}

// UpdateLine copies min(len(points), maxPoints, capacity) points and sets the
// draw range to that count.
func (b *Builder) UpdateLine(l Renderable, points []r3.Vec, maxPoints int) Renderable {
	n := min(len(points), maxPoints, l.Capacity())
	if n < 0 {
		n = 0
	}
	buf := l.Buffer()
	for i := 0; i < n; i++ {
		p := points[i]
		buf[i*3] = float32(p.X)
		buf[i*3+1] = float32(p.Y)
		buf[i*3+2] = float32(p.Z)
	}
	l.MarkDirty()
	l.SetDrawRange(n)
	return l
}

// ResizeLineBuffer grows the buffer to newCapacity, keeping drawn data.
func (b *Builder) ResizeLineBuffer(l Renderable, newCapacity int) Renderable {
	oldCap := l.Capacity()
	if oldCap >= newCapacity {
		return l
	}
	old := l.Buffer()
	buf := b.pool.Get(newCapacity)
	copy(buf, old[:oldCap*3])
	drawn := l.DrawRange()
	l.SetBuffer(buf, newCapacity)
	l.SetDrawRange(drawn)
	l.MarkDirty()
	b.pool.Release(old, oldCap)
	return l
}

// DisposeLine returns the buffer to the pool and releases the material.
func (b *Builder) DisposeLine(l Renderable) {
	if l == nil {
		return
	}
	if buf := l.Buffer(); buf != nil {
		b.pool.Release(buf, l.Capacity())
	}
	l.SetBuffer(nil, 0)
	l.Dispose()
}
