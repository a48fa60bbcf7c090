package nbody

import (
	"errors"
	"fmt"
	"math"

	"github.com/orrery/orbitviz/internal/body"
	"gonum.org/v1/gonum/spatial/r3"
)

// G is the Newtonian constant of gravitation in m^3 kg^-1 s^-2.
const G = 6.67430e-11

// Options tunes the Barnes-Hut integrator.
type Options struct {
	G          float64 // 0 means G
	Theta      float64 // opening angle; smaller is more accurate
	OctreeSize float64 // minimum root cube edge, m
	MaxDepth   int     // leaves at this depth hold several bodies
	Scale      float64 // metres to rendering units for predicted points; 0 means 1
}

// DefaultOptions returns the settings used for solar-system scale work.
func DefaultOptions() Options {
	return Options{
		G:          G,
		Theta:      0.7,
		OctreeSize: 5e13,
		MaxDepth:   48,
		Scale:      1,
	}
}

func (o Options) normalized() Options {
	if o.G == 0 {
		o.G = G
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = 48
	}
	if o.Scale == 0 {
		o.Scale = 1
	}
	return o
}

// ErrNumericalInstability marks an integration that produced NaN or Inf.
var ErrNumericalInstability = errors.New("numerical instability")

// InstabilityError reports the step and body where integration blew up.
type InstabilityError struct {
	Step   int
	BodyID string
}

func (e *InstabilityError) Error() string {
	return fmt.Sprintf("non-finite state for body %q at step %d", e.BodyID, e.Step)
}

func (e *InstabilityError) Unwrap() error { return ErrNumericalInstability }

// Integrator owns the scratch space for repeated velocity-Verlet steps.
// Not safe for concurrent use.
type Integrator struct {
	opts Options
	tree *Octree
	pos  []r3.Vec
	mass []float64
	next []body.PhysicsState
}

func NewIntegrator(opts Options) *Integrator {
	opts = opts.normalized()
	return &Integrator{
		opts: opts,
		tree: newOctree(opts.MaxDepth, opts.G),
	}
}

func (it *Integrator) ensure(n int) {
	if cap(it.pos) < n {
		it.pos = make([]r3.Vec, n)
		it.mass = make([]float64, n)
		it.next = make([]body.PhysicsState, n)
	}
	it.pos, it.mass, it.next = it.pos[:n], it.mass[:n], it.next[:n]
}

// Advance moves states forward by dt in place. On a non-finite result states
// are left unchanged and an *InstabilityError is returned.
func (it *Integrator) Advance(states []body.PhysicsState, dt float64) error {
	if len(states) == 0 || dt == 0 {
		return nil
	}
	if bad := it.step(states, dt); bad >= 0 {
		return &InstabilityError{Step: 1, BodyID: states[bad].ID}
	}
	return nil
}

// step advances states by dt in place. It returns the index of the first body
// whose integrated state is not finite, or -1; on failure states are untouched.
func (it *Integrator) step(states []body.PhysicsState, dt float64) int {
	it.ensure(len(states))
	for i := range states {
		it.pos[i] = states[i].Position
		it.mass[i] = states[i].MassKg
	}
	it.tree.Build(it.pos, it.mass, it.opts.OctreeSize)

	half := 0.5 * dt
	for i := range states {
		s := states[i]
		a0 := it.accel(i, s.Position)
		x := r3.Add(s.Position, r3.Add(r3.Scale(dt, s.Velocity), r3.Scale(half*dt, a0)))
		// Corrector: same tree, so the field is consistent across both evaluations.
		a1 := it.accel(i, x)
		v := r3.Add(s.Velocity, r3.Scale(half, r3.Add(a0, a1)))

		it.next[i] = body.PhysicsState{ID: s.ID, MassKg: s.MassKg, Position: x, Velocity: v}
	}

	for i := range states {
		if !finiteVec(it.next[i].Position) || !finiteVec(it.next[i].Velocity) {
			return i
		}
	}
	copy(states, it.next)
	return -1
}

func (it *Integrator) accel(i int, at r3.Vec) r3.Vec {
	m := it.mass[i]
	if m == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/m, it.tree.ForceOn(i, at, it.opts.Theta))
}

func finiteVec(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
