package geom

import "math"

// Angle is an orientation normalized to [0, 2π). The zero value is a zero
// angle.
type Angle struct {
	rad float64
}

// Rad constructs an Angle from radians.
func Rad(r float64) Angle {
	r = math.Mod(r, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return Angle{rad: r}
}

// Deg constructs an Angle from degrees.
func Deg(d float64) Angle { return Rad(d * math.Pi / 180) }

// Rad returns the angle in [0, 2π).
func (a Angle) Rad() float64 { return a.rad }

// RadPi returns the angle in (−π, π].
func (a Angle) RadPi() float64 {
	if a.rad > math.Pi {
		return a.rad - 2*math.Pi
	}
	return a.rad
}

// Deg180 returns the angle in degrees in (−180, 180].
func (a Angle) Deg180() float64 { return a.RadPi() * 180 / math.Pi }

func (a Angle) Add(b Angle) Angle { return Rad(a.rad + b.rad) }
func (a Angle) Sub(b Angle) Angle { return Rad(a.rad - b.rad) }
