// Package control implements trajectory tracking: a cubic Bézier reference
// curve with Newton's-method closest-point projection, a Stanley-type
// lateral steering law and a PID speed regulator.
package control

import "github.com/derweg/eagleeye/vehicle/geom"

// Projection tuning. Newton converges in a handful of iterations when seeded
// from the previous cycle's parameter; the cap only matters after a curve
// switch.
const (
	projectionMaxIterations = 32
	projectionTolerance     = 1e-9
)

// BezierCurve is a cubic Bézier reference curve over four control points.
type BezierCurve struct {
	P0, P1, P2, P3 geom.Vec
}

// Eval returns the curve point at parameter t.
func (c BezierCurve) Eval(t float64) geom.Vec {
	u := 1 - t
	p := c.P0.Scale(u * u * u)
	p = p.Add(c.P1.Scale(3 * u * u * t))
	p = p.Add(c.P2.Scale(3 * u * t * t))
	return p.Add(c.P3.Scale(t * t * t))
}

// Prime returns the first derivative at t.
func (c BezierCurve) Prime(t float64) geom.Vec {
	u := 1 - t
	d := c.P1.Sub(c.P0).Scale(3 * u * u)
	d = d.Add(c.P2.Sub(c.P1).Scale(6 * u * t))
	return d.Add(c.P3.Sub(c.P2).Scale(3 * t * t))
}

// DoublePrime returns the second derivative at t.
func (c BezierCurve) DoublePrime(t float64) geom.Vec {
	d := c.P2.Sub(c.P1.Scale(2)).Add(c.P0).Scale(6 * (1 - t))
	return d.Add(c.P3.Sub(c.P2.Scale(2)).Add(c.P1).Scale(6 * t))
}

// Project returns the parameter of the curve point closest to p, found by
// Newton's method on ⟨c(t)−p, c′(t)⟩ = 0 seeded with t0 and clamped to
// [0, 1].
func (c BezierCurve) Project(p geom.Vec, t0 float64) float64 {
	t := clamp01(t0)
	for i := 0; i < projectionMaxIterations; i++ {
		diff := c.Eval(t).Sub(p)
		prime := c.Prime(t)

		g := diff.Dot(prime)
		dg := prime.Dot(prime) + diff.Dot(c.DoublePrime(t))
		if dg == 0 {
			break
		}
		step := g / dg
		t = clamp01(t - step)
		if step < projectionTolerance && step > -projectionTolerance {
			break
		}
	}
	return t
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
