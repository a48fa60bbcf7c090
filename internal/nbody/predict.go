package nbody

import (
	"math"

	"github.com/orrery/orbitviz/internal/body"
	"gonum.org/v1/gonum/spatial/r3"
)

// PredictTrajectory forward-simulates every body for duration seconds in
// `steps` equal steps and returns the target's path in rendering units
// (opts.Scale). Point 0 is the current position.
//
// The inputs are never mutated. Zero steps, no bodies, an unknown target or a
// negative or non-finite duration yield no points. A zero duration yields
// steps+1 copies of the current position. If the integration produces a
// non-finite value the points gathered so far are returned together with an
// error wrapping ErrNumericalInstability; the points themselves are always finite.
func PredictTrajectory(targetID string, states []body.PhysicsState, duration float64, steps int, opts Options) ([]r3.Vec, error) {
	if steps <= 0 || len(states) == 0 || !(duration >= 0) || math.IsInf(duration, 0) {
		return nil, nil
	}
	target := -1
	for i := range states {
		if states[i].ID == targetID {
			target = i
			break
		}
	}
	if target < 0 {
		return nil, nil
	}

	sim := make([]body.PhysicsState, len(states))
	copy(sim, states)
	for i := range sim {
		if !finiteVec(sim[i].Position) || !finiteVec(sim[i].Velocity) || math.IsNaN(sim[i].MassKg) || math.IsInf(sim[i].MassKg, 0) {
			return nil, &InstabilityError{Step: 0, BodyID: sim[i].ID}
		}
	}

	it := NewIntegrator(opts)
	scale := it.opts.Scale
	dt := duration / float64(steps)

	points := make([]r3.Vec, 0, steps+1)
	points = append(points, r3.Scale(scale, sim[target].Position))
	for s := 1; s <= steps; s++ {
		if bad := it.step(sim, dt); bad >= 0 {
			return points, &InstabilityError{Step: s, BodyID: sim[bad].ID}
		}
		p := r3.Scale(scale, sim[target].Position)
		if !finiteVec(p) {
			return points, &InstabilityError{Step: s, BodyID: targetID}
		}
		points = append(points, p)
	}
	return points, nil
}
