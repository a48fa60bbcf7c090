package nbody

import (
	"errors"
	"math"
	"testing"

	"github.com/orrery/orbitviz/internal/body"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	au        = 1.495978707e11
	sunMass   = 1.98847e30
	earthMass = 5.9722e24
	day       = 86400.0
)

func sunEarth() []body.PhysicsState {
	v := math.Sqrt(G * sunMass / au)
	return []body.PhysicsState{
		{ID: "sun", MassKg: sunMass},
		{ID: "earth", MassKg: earthMass, Position: r3.Vec{X: au}, Velocity: r3.Vec{Y: v}},
	}
}

func solarSystem() []body.PhysicsState {
	states := []body.PhysicsState{{ID: "sun", MassKg: sunMass}}
	radii := []float64{0.39, 0.72, 1, 1.52, 5.2, 9.5}
	masses := []float64{3.3e23, 4.87e24, 5.97e24, 6.42e23, 1.9e27, 5.68e26}
	names := []string{"mercury", "venus", "earth", "mars", "jupiter", "saturn"}
	for i, r := range radii {
		d := r * au
		ang := float64(i) * 1.3
		v := math.Sqrt(G * sunMass / d)
		states = append(states, body.PhysicsState{
			ID:       names[i],
			MassKg:   masses[i],
			Position: r3.Vec{X: d * math.Cos(ang), Y: d * math.Sin(ang), Z: d * 0.01 * float64(i)},
			Velocity: r3.Vec{X: -v * math.Sin(ang), Y: v * math.Cos(ang)},
		})
	}
	return states
}

func directForce(states []body.PhysicsState, i int) r3.Vec {
	var f r3.Vec
	for j := range states {
		if j == i {
			continue
		}
		d := r3.Sub(states[j].Position, states[i].Position)
		r := r3.Norm(d)
		f = r3.Add(f, r3.Scale(G*states[i].MassKg*states[j].MassKg/(r*r*r), d))
	}
	return f
}

func buildTree(states []body.PhysicsState, size float64) *Octree {
	pos := make([]r3.Vec, len(states))
	mass := make([]float64, len(states))
	for i, s := range states {
		pos[i], mass[i] = s.Position, s.MassKg
	}
	t := newOctree(48, G)
	t.Build(pos, mass, size)
	return t
}

func TestOctreeExactWhenThetaZero(t *testing.T) {
	states := solarSystem()
	tree := buildTree(states, 5e13)
	for i := range states {
		got := tree.ForceOn(i, states[i].Position, 0)
		want := directForce(states, i)
		if r3.Norm(r3.Sub(got, want)) > 1e-9*r3.Norm(want) {
			t.Errorf("%s: force %v, want %v", states[i].ID, got, want)
		}
	}
}

func TestOctreeBarnesHutApproximation(t *testing.T) {
	states := solarSystem()
	tree := buildTree(states, 0)
	for i := range states {
		got := tree.ForceOn(i, states[i].Position, 0.5)
		want := directForce(states, i)
		if rel := r3.Norm(r3.Sub(got, want)) / r3.Norm(want); rel > 0.05 {
			t.Errorf("%s: relative error %.3f too large", states[i].ID, rel)
		}
	}
}

func TestOctreeForceAtOffsetExcludesOwnMass(t *testing.T) {
	states := sunEarth()
	tree := buildTree(states, 5e13)
	// Sample the earth a little further out: only the sun may pull on it.
	at := r3.Vec{X: 1.01 * au}
	got := tree.ForceOn(1, at, 0.7)
	want := G * sunMass * earthMass / (1.01 * au * 1.01 * au)
	if math.Abs(-got.X-want)/want > 1e-9 || got.Y != 0 || got.Z != 0 {
		t.Errorf("force %v, want (-%g, 0, 0)", got, want)
	}
}

func TestOctreeCoincidentBodiesTerminate(t *testing.T) {
	states := []body.PhysicsState{
		{ID: "a", MassKg: 1, Position: r3.Vec{X: 1}},
		{ID: "b", MassKg: 1, Position: r3.Vec{X: 1}},
		{ID: "c", MassKg: 1, Position: r3.Vec{X: 2}},
	}
	tree := buildTree(states, 10)
	if f := tree.ForceOn(0, states[0].Position, 0.5); f.X <= 0 {
		t.Errorf("expected pull towards c, got %v", f)
	}
}

func TestZeroMassBodyHasZeroAcceleration(t *testing.T) {
	states := []body.PhysicsState{
		{ID: "sun", MassKg: sunMass},
		{ID: "dust", MassKg: 0, Position: r3.Vec{X: au}, Velocity: r3.Vec{Y: 1000}},
	}
	if err := NewIntegrator(DefaultOptions()).Advance(states, day); err != nil {
		t.Fatal(err)
	}
	want := r3.Vec{X: au, Y: 1000 * day}
	if states[1].Position != want || states[1].Velocity != (r3.Vec{Y: 1000}) {
		t.Errorf("zero-mass body accelerated: %+v", states[1])
	}
}

func TestPredictTrajectoryBasics(t *testing.T) {
	states := sunEarth()
	opts := DefaultOptions()
	opts.Scale = 1 / au

	pts, err := PredictTrajectory("earth", states, 365.25*day, 365, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 366 {
		t.Fatalf("expected 366 points, got %d", len(pts))
	}
	if r3.Norm(r3.Sub(pts[0], r3.Vec{X: 1})) > 1e-12 {
		t.Errorf("point 0 should be the scaled start, got %v", pts[0])
	}
	for i, p := range pts {
		if r := r3.Norm(p); math.Abs(r-1) > 0.01 {
			t.Fatalf("point %d drifted to radius %g", i, r)
		}
	}
	// After roughly one year the earth is back near its start.
	if d := r3.Norm(r3.Sub(pts[len(pts)-1], pts[0])); d > 0.05 {
		t.Errorf("orbit did not close, gap %g AU", d)
	}
	if states[1].Position != (r3.Vec{X: au}) {
		t.Error("input states were mutated")
	}
}

func TestPredictTrajectoryDeterministic(t *testing.T) {
	states := solarSystem()
	a, errA := PredictTrajectory("mars", states, 200*day, 150, DefaultOptions())
	b, errB := PredictTrajectory("mars", states, 200*day, 150, DefaultOptions())
	if errA != nil || errB != nil {
		t.Fatal(errA, errB)
	}
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestPredictTrajectoryDegenerateInputs(t *testing.T) {
	states := sunEarth()
	tests := []struct {
		name     string
		target   string
		states   []body.PhysicsState
		duration float64
		steps    int
	}{
		{"zero steps", "earth", states, day, 0},
		{"negative steps", "earth", states, day, -3},
		{"no bodies", "earth", nil, day, 10},
		{"unknown target", "pluto", states, day, 10},
		{"negative duration", "earth", states, -day, 10},
		{"infinite duration", "earth", states, math.Inf(1), 10},
		{"NaN duration", "earth", states, math.NaN(), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts, err := PredictTrajectory(tt.target, tt.states, tt.duration, tt.steps, DefaultOptions())
			if err != nil || len(pts) != 0 {
				t.Errorf("expected empty result, got %d points, err %v", len(pts), err)
			}
		})
	}
}

func TestPredictTrajectoryZeroDurationIsStationary(t *testing.T) {
	states := sunEarth()
	pts, err := PredictTrajectory("earth", states, 0, 10, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 11 {
		t.Fatalf("got %d points, want 11", len(pts))
	}
	for i, p := range pts {
		if p != states[1].Position {
			t.Errorf("point %d = %v, want %v", i, p, states[1].Position)
		}
	}
}

func TestPredictTrajectoryTruncatesOnInstability(t *testing.T) {
	states := []body.PhysicsState{
		{ID: "a", MassKg: 1e300},
		{ID: "b", MassKg: 1e300, Position: r3.Vec{X: 1e-10, Y: 1e-10}},
	}
	const steps = 100
	pts, err := PredictTrajectory("b", states, 1000, steps, DefaultOptions())
	if !errors.Is(err, ErrNumericalInstability) {
		t.Fatalf("expected instability error, got %v", err)
	}
	var ie *InstabilityError
	if !errors.As(err, &ie) || ie.Step < 1 {
		t.Errorf("unexpected error detail %v", err)
	}
	if len(pts) == 0 || len(pts) >= steps {
		t.Fatalf("expected truncated non-empty trajectory, got %d points", len(pts))
	}
	for i, p := range pts {
		if !finiteVec(p) {
			t.Fatalf("point %d is not finite: %v", i, p)
		}
	}
}

func TestPredictTrajectoryRejectsNonFiniteInput(t *testing.T) {
	states := sunEarth()
	states[0].Velocity = r3.Vec{X: math.NaN()}
	pts, err := PredictTrajectory("earth", states, day, 10, DefaultOptions())
	if !errors.Is(err, ErrNumericalInstability) || len(pts) != 0 {
		t.Errorf("expected empty result with instability error, got %d points, %v", len(pts), err)
	}
}

func TestIntegratorConservesCircularOrbit(t *testing.T) {
	states := sunEarth()
	it := NewIntegrator(DefaultOptions())
	for i := 0; i < 3650; i++ {
		if err := it.Advance(states, day/10); err != nil {
			t.Fatal(err)
		}
	}
	rel := r3.Norm(r3.Sub(states[1].Position, states[0].Position))
	if math.Abs(rel-au)/au > 0.005 {
		t.Errorf("orbital radius drifted to %g AU", rel/au)
	}
}
