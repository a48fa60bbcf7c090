package body

import "gonum.org/v1/gonum/spatial/r3"

// PhysicsState is a body's state as owned by the physics engine. SI units.
type PhysicsState struct {
	ID       string
	MassKg   float64
	Position r3.Vec // m
	Velocity r3.Vec // m/s
}

// OrbitalParameters holds classical orbital elements relative to the parent body.
// Semi-major axis in metres, angles in radians, period in seconds.
type OrbitalParameters struct {
	SemiMajorAxis            float64
	Eccentricity             float64
	Inclination              float64
	LongitudeOfAscendingNode float64
	ArgumentOfPeriapsis      float64
	MeanAnomaly              float64
	Period                   float64
}

// Renderable is the per-frame snapshot of a body as the rendering layer sees it.
// Position is already in scene units.
type Renderable struct {
	ID       string
	ParentID string
	Position r3.Vec
	Orbit    *OrbitalParameters
	Radius   float64
}

// HasOrbit reports whether the body can be drawn as a Keplerian orbit.
func (r *Renderable) HasOrbit() bool {
	return r.Orbit != nil && r.ParentID != ""
}
