package nbody

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// node is an octree cell. Leaves hold one body, or several once MaxDepth is
// reached. children index into the arena; 0 means no child (root is 0).
type node struct {
	center   r3.Vec
	half     float64
	mass     float64
	com      r3.Vec // mass-weighted sum while building, centre of mass after
	body     int    // -1 when empty
	bucket   []int  // extra bodies in a max-depth leaf
	children [8]int32
	internal bool
}

// Octree is a Barnes-Hut tree rebuilt for every integration step. Nodes live
// in one arena slice so rebuilding does not allocate once warmed up.
type Octree struct {
	nodes    []node
	pos      []r3.Vec
	mass     []float64
	maxDepth int
	g        float64
}

func newOctree(maxDepth int, g float64) *Octree {
	return &Octree{
		nodes:    make([]node, 0, 64),
		maxDepth: maxDepth,
		g:        g,
	}
}

// Build indexes the given bodies. size is the minimum edge length of the root
// cube; the cube always grows to cover every body.
func (t *Octree) Build(pos []r3.Vec, mass []float64, size float64) {
	t.pos, t.mass = pos, mass
	t.nodes = t.nodes[:0]
	if len(pos) == 0 {
		return
	}

	lo, hi := pos[0], pos[0]
	for _, p := range pos[1:] {
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	center := r3.Scale(0.5, r3.Add(lo, hi))
	extent := math.Max(hi.X-lo.X, math.Max(hi.Y-lo.Y, hi.Z-lo.Z))
	half := math.Max(size, extent*1.001) / 2
	if half <= 0 {
		half = 1
	}

	t.nodes = append(t.nodes, node{center: center, half: half, body: -1})
	for i := range pos {
		t.insert(i)
	}
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.mass > 0 {
			n.com = r3.Scale(1/n.mass, n.com)
		} else {
			n.com = n.center
		}
	}
}

func (t *Octree) insert(b int) {
	p, m := t.pos[b], t.mass[b]
	idx := int32(0)
	for depth := 0; ; depth++ {
		n := &t.nodes[idx]
		n.mass += m
		n.com = r3.Add(n.com, r3.Scale(m, p))

		if n.internal {
			idx = t.child(idx, octant(p, n.center))
			continue
		}
		if n.body < 0 {
			n.body = b
			return
		}
		if depth >= t.maxDepth {
			n.bucket = append(n.bucket, b)
			return
		}

		// Split: push the resident body one level down, then keep descending.
		resident := n.body
		n.body = -1
		n.internal = true
		rp, rm := t.pos[resident], t.mass[resident]
		c := t.child(idx, octant(rp, t.nodes[idx].center))
		cn := &t.nodes[c]
		cn.body = resident
		cn.mass = rm
		cn.com = r3.Scale(rm, rp)
		idx = t.child(idx, octant(p, t.nodes[idx].center))
	}
}

// child returns the arena index of octant o of node idx, creating it.
func (t *Octree) child(idx int32, o int) int32 {
	if c := t.nodes[idx].children[o]; c != 0 {
		return c
	}
	parent := t.nodes[idx]
	q := parent.half / 2
	center := parent.center
	if o&1 != 0 {
		center.X += q
	} else {
		center.X -= q
	}
	if o&2 != 0 {
		center.Y += q
	} else {
		center.Y -= q
	}
	if o&4 != 0 {
		center.Z += q
	} else {
		center.Z -= q
	}
	c := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{center: center, half: q, body: -1})
	t.nodes[idx].children[o] = c
	return c
}

func octant(p, center r3.Vec) int {
	o := 0
	if p.X >= center.X {
		o |= 1
	}
	if p.Y >= center.Y {
		o |= 2
	}
	if p.Z >= center.Z {
		o |= 4
	}
	return o
}

// ForceOn returns the Barnes-Hut approximation of the gravitational force on
// body self if it stood at `at`. self's own mass is removed from every cell it
// was indexed in, so the same tree serves a query at a predicted position.
// Smaller theta is more accurate; theta <= 0 opens every cell.
func (t *Octree) ForceOn(self int, at r3.Vec, theta float64) r3.Vec {
	if len(t.nodes) == 0 || self < 0 || self >= len(t.mass) || t.mass[self] == 0 {
		return r3.Vec{}
	}
	return t.walk(0, self, at, theta, true)
}

func (t *Octree) walk(idx int32, self int, at r3.Vec, theta float64, onPath bool) r3.Vec {
	n := &t.nodes[idx]
	if !n.internal {
		var f r3.Vec
		if n.body >= 0 && n.body != self {
			f = r3.Add(f, t.pairForce(self, at, t.pos[n.body], t.mass[n.body]))
		}
		for _, b := range n.bucket {
			if b != self {
				f = r3.Add(f, t.pairForce(self, at, t.pos[b], t.mass[b]))
			}
		}
		return f
	}

	mass, com := n.mass, n.com
	if onPath {
		mass -= t.mass[self]
		if mass <= 0 {
			com = n.center
		} else {
			com = r3.Scale(1/mass, r3.Sub(r3.Scale(n.mass, n.com), r3.Scale(t.mass[self], t.pos[self])))
		}
	}
	if mass <= 0 {
		return r3.Vec{}
	}
	if d := r3.Norm(r3.Sub(com, at)); d > 0 && 2*n.half/d < theta {
		return t.pairForce(self, at, com, mass)
	}

	var f r3.Vec
	selfOct := -1
	if onPath {
		selfOct = octant(t.pos[self], n.center)
	}
	for o, c := range n.children {
		if c != 0 {
			f = r3.Add(f, t.walk(c, self, at, theta, o == selfOct))
		}
	}
	return f
}

// pairForce is Newtonian attraction of mass m at p on body self standing at `at`.
func (t *Octree) pairForce(self int, at, p r3.Vec, m float64) r3.Vec {
	d := r3.Sub(p, at)
	r2 := r3.Norm2(d)
	if r2 == 0 || m == 0 {
		return r3.Vec{}
	}
	f := t.g * t.mass[self] * m / r2
	return r3.Scale(f/math.Sqrt(r2), d)
}
