package orbit

import (
	"math"

	"github.com/orrery/orbitviz/internal/body"
	"gonum.org/v1/gonum/spatial/r3"
)

const twoPi = 2 * math.Pi

// GravitationalParameter derives mu (m^3/s^2) from the semi-major axis and
// period. Returns 0 when the period is unknown.
func GravitationalParameter(p body.OrbitalParameters) float64 {
	if p.Period <= 0 || !finite(p.Period) {
		return 0
	}
	a := p.SemiMajorAxis
	return 4 * math.Pi * math.Pi * a * a * a / (p.Period * p.Period)
}

// StateAt returns the parent-relative position (m) and velocity (m/s) of a body
// at the orbit's mean anomaly. ok is false for invalid orbits or mu <= 0.
func StateAt(p body.OrbitalParameters, mu float64) (pos, vel r3.Vec, ok bool) {
	if !Valid(p) || !finite(p.MeanAnomaly) || mu <= 0 {
		return r3.Vec{}, r3.Vec{}, false
	}
	a, e := p.SemiMajorAxis, p.Eccentricity
	nu := TrueAnomalyFromMean(p.MeanAnomaly, e)
	semiLatus := a * (1 - e*e)
	r := semiLatus / (1 + e*math.Cos(nu))

	f := newFrame(p)
	pos = f.toParent(r, nu)

	k := math.Sqrt(mu / semiLatus)
	vel = f.dirToParent(-k*math.Sin(nu), k*(e+math.Cos(nu)))
	return pos, vel, true
}

// EccentricAnomalyFromMean solves Kepler's equation by Newton-Raphson.
func EccentricAnomalyFromMean(meanAnomaly, e float64) float64 {
	m := normalizeAngle(meanAnomaly)
	if e == 0 {
		return m
	}
	E := m
	if e >= 0.8 {
		E = math.Pi
	}
	for i := 0; i < 50; i++ {
		delta := (E - e*math.Sin(E) - m) / (1 - e*math.Cos(E))
		E -= delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}
	return normalizeAngle(E)
}

// TrueAnomalyFromMean converts a mean anomaly to the true anomaly.
func TrueAnomalyFromMean(meanAnomaly, e float64) float64 {
	E := EccentricAnomalyFromMean(meanAnomaly, e)
	if e == 0 {
		return E
	}
	return normalizeAngle(math.Atan2(math.Sqrt(1-e*e)*math.Sin(E), math.Cos(E)-e))
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	return a
}
