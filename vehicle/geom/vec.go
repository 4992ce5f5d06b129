// Package geom provides the 2D primitives shared by the planner, the
// controllers and the estimator. All distances are in metres.
package geom

import "math"

// Vec is a 2D vector / point in the global frame.
type Vec struct {
	X, Y float64
}

func (v Vec) Add(w Vec) Vec { return Vec{v.X + w.X, v.Y + w.Y} }

func (v Vec) Sub(w Vec) Vec { return Vec{v.X - w.X, v.Y - w.Y} }

func (v Vec) Scale(s float64) Vec { return Vec{s * v.X, s * v.Y} }

// Dot returns the scalar product.
func (v Vec) Dot(w Vec) float64 { return v.X*w.X + v.Y*w.Y }

// Cross returns the z component of the 3D cross product. Positive when w
// lies counterclockwise of v.
func (v Vec) Cross(w Vec) float64 { return v.X*w.Y - v.Y*w.X }

func (v Vec) Length() float64 { return math.Hypot(v.X, v.Y) }

// Unit returns the direction of v and true, or the zero vector and false
// when v has no direction.
func (v Vec) Unit() (Vec, bool) {
	l := v.Length()
	if l == 0 {
		return Vec{}, false
	}
	return Vec{v.X / l, v.Y / l}, true
}

// Rotate rotates v counterclockwise by a.
func (v Vec) Rotate(a Angle) Vec {
	sin, cos := math.Sincos(a.Rad())
	return Vec{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}

// RotateQuarter rotates v counterclockwise by 90 degrees.
func (v Vec) RotateQuarter() Vec { return Vec{-v.Y, v.X} }

// Inbetween reports whether the bearing of v lies inside the
// counterclockwise sector from a to b. Sectors wider than a half turn are
// handled.
func (v Vec) Inbetween(a, b Vec) bool {
	if a.Cross(b) >= 0 {
		return a.Cross(v) >= 0 && v.Cross(b) >= 0
	}
	// Reflex sector: inside unless v falls in the complement.
	return a.Cross(v) >= 0 || v.Cross(b) >= 0
}
