package orbits

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// smoothCentripetal resamples pts through a centripetal Catmull-Rom spline
// into n evenly parameterised points. The ends are extrapolated so the curve
// passes through the first and last control points.
func smoothCentripetal(pts []r3.Vec, n int) []r3.Vec {
	l := len(pts)
	if l < 2 || n < 2 {
		out := make([]r3.Vec, len(pts))
		copy(out, pts)
		return out
	}
	out := make([]r3.Vec, n)
	for k := 0; k < n; k++ {
		out[k] = catmullRomAt(pts, float64(k)/float64(n-1))
	}
	return out
}

func catmullRomAt(pts []r3.Vec, t float64) r3.Vec {
	l := len(pts)
	p := float64(l-1) * t
	i := int(math.Floor(p))
	w := p - float64(i)
	if i >= l-1 {
		i, w = l-2, 1
	}

	var p0, p3 r3.Vec
	if i > 0 {
		p0 = pts[i-1]
	} else {
		p0 = r3.Sub(r3.Scale(2, pts[0]), pts[1])
	}
	p1, p2 := pts[i], pts[i+1]
	if i+2 < l {
		p3 = pts[i+2]
	} else {
		p3 = r3.Sub(r3.Scale(2, pts[l-1]), pts[l-2])
	}

	dt0 := math.Pow(r3.Norm2(r3.Sub(p0, p1)), 0.25)
	dt1 := math.Pow(r3.Norm2(r3.Sub(p1, p2)), 0.25)
	dt2 := math.Pow(r3.Norm2(r3.Sub(p2, p3)), 0.25)
	// Guard against repeated points.
	if dt1 < 1e-4 {
		dt1 = 1
	}
	if dt0 < 1e-4 {
		dt0 = dt1
	}
	if dt2 < 1e-4 {
		dt2 = dt1
	}

	return r3.Vec{
		X: nonUniformCubic(p0.X, p1.X, p2.X, p3.X, dt0, dt1, dt2, w),
		Y: nonUniformCubic(p0.Y, p1.Y, p2.Y, p3.Y, dt0, dt1, dt2, w),
		Z: nonUniformCubic(p0.Z, p1.Z, p2.Z, p3.Z, dt0, dt1, dt2, w),
	}
}

// nonUniformCubic evaluates the Hermite segment x1..x2 with tangents from the
// non-uniform Catmull-Rom knot spacing dt0..dt2.
func nonUniformCubic(x0, x1, x2, x3, dt0, dt1, dt2, t float64) float64 {
	t1 := (x1-x0)/dt0 - (x2-x0)/(dt0+dt1) + (x2-x1)/dt1
	t2 := (x2-x1)/dt1 - (x3-x1)/(dt1+dt2) + (x3-x2)/dt2
	t1 *= dt1
	t2 *= dt1

	c0 := x1
	c1 := t1
	c2 := -3*x1 + 3*x2 - 2*t1 - t2
	c3 := 2*x1 - 2*x2 + t1 + t2
	t2x := t * t
	return c0 + c1*t + c2*t2x + c3*t2x*t
}
