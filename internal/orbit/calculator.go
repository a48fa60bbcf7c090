package orbit

import (
	"math"

	"github.com/orrery/orbitviz/internal/body"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultSegments is the angular resolution of a drawn orbit.
const DefaultSegments = 360

// CalculateOrbitPoints samples the ellipse described by p at DefaultSegments
// steps, in the units of the semi-major axis. The first and last points
// coincide so the line closes.
func CalculateOrbitPoints(p body.OrbitalParameters) []r3.Vec {
	return CalculatePoints(p, DefaultSegments, 1)
}

// CalculatePoints samples the ellipse at the given resolution and multiplies
// every point by scale. Points are relative to the parent body.
// Open or otherwise invalid orbits yield nil.
func CalculatePoints(p body.OrbitalParameters, segments int, scale float64) []r3.Vec {
	if !Valid(p) || segments < 3 || !finite(scale) {
		return nil
	}
	a, e := p.SemiMajorAxis, p.Eccentricity
	semiLatus := a * (1 - e*e)
	f := newFrame(p)

	pts := make([]r3.Vec, segments+1)
	step := 2 * math.Pi / float64(segments)
	for i := 0; i <= segments; i++ {
		nu := float64(i) * step
		r := semiLatus / (1 + e*math.Cos(nu))
		pts[i] = r3.Scale(scale, f.toParent(r, nu))
	}
	return pts
}

// Valid reports whether p describes a closed, finite orbit.
func Valid(p body.OrbitalParameters) bool {
	if !finite(p.SemiMajorAxis) || p.SemiMajorAxis <= 0 {
		return false
	}
	if !finite(p.Eccentricity) || p.Eccentricity < 0 || p.Eccentricity >= 1 {
		return false
	}
	return finite(p.Inclination) && finite(p.LongitudeOfAscendingNode) && finite(p.ArgumentOfPeriapsis)
}

// frame caches the trigonometry of the orbital plane orientation.
type frame struct {
	cosO, sinO float64 // longitude of ascending node
	cosI, sinI float64 // inclination
	w          float64 // argument of periapsis
}

func newFrame(p body.OrbitalParameters) frame {
	return frame{
		cosO: math.Cos(p.LongitudeOfAscendingNode),
		sinO: math.Sin(p.LongitudeOfAscendingNode),
		cosI: math.Cos(p.Inclination),
		sinI: math.Sin(p.Inclination),
		w:    p.ArgumentOfPeriapsis,
	}
}

// toParent rotates the in-plane point (r, nu) into parent-relative space.
func (f frame) toParent(r, nu float64) r3.Vec {
	u := f.w + nu
	cu, su := math.Cos(u), math.Sin(u)
	return r3.Vec{
		X: r * (f.cosO*cu - f.sinO*su*f.cosI),
		Y: r * (f.sinO*cu + f.cosO*su*f.cosI),
		Z: r * (su * f.sinI),
	}
}

// dirToParent rotates an in-plane direction given in perifocal axes.
func (f frame) dirToParent(px, py float64) r3.Vec {
	cw, sw := math.Cos(f.w), math.Sin(f.w)
	// perifocal -> node frame
	x := px*cw - py*sw
	y := px*sw + py*cw
	return r3.Vec{
		X: f.cosO*x - f.sinO*y*f.cosI,
		Y: f.sinO*x + f.cosO*y*f.cosI,
		Z: y * f.sinI,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
