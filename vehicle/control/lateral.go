package control

import (
	"math"

	"github.com/derweg/eagleeye/vehicle/geom"
)

// CurveData is the controller input derived from projecting the vehicle onto
// the reference curve.
type CurveData struct {
	// Distance is the signed cross-track error: positive when the vehicle
	// is left of the curve regarding the moving direction.
	Distance float64
	// HeadingError is the angle from the curve tangent to the vehicle
	// heading.
	HeadingError geom.Angle
	// Curvature of the reference curve at the projection point.
	Curvature float64
}

// LateralConfig tunes the Stanley steering law.
type LateralConfig struct {
	GainCrossTrack float64 // k, 1/s
	GainSoftening  float64 // ks, m/s, keeps the law finite at standstill
	Wheelbase      float64 // metres
	MaxSteerDeg    float64 // output clamp
}

// Lateral tracks a Bézier reference curve with a Stanley-type steering law.
// It keeps the previous projection parameter across cycles to seed Newton's
// method; switching the curve resets the seed.
type Lateral struct {
	cfg   LateralConfig
	curve BezierCurve
	lastT float64
}

// NewLateral builds a controller for the given reference curve.
func NewLateral(cfg LateralConfig, curve BezierCurve) *Lateral {
	return &Lateral{cfg: cfg, curve: curve}
}

// SetCurve switches the reference curve. The projection seed is reset only
// when the curve actually changes.
func (l *Lateral) SetCurve(curve BezierCurve) {
	if curve == l.curve {
		return
	}
	l.curve = curve
	l.lastT = 0
}

// CurveData projects the pose onto the reference curve and derives the
// signed cross-track distance, the heading error and the curve curvature.
func (l *Lateral) CurveData(position geom.Vec, orientation geom.Angle) CurveData {
	l.lastT = l.curve.Project(position, l.lastT)

	f := l.curve.Eval(l.lastT)
	df := l.curve.Prime(l.lastT)
	ddf := l.curve.DoublePrime(l.lastT)

	// The difference vector is normal to the tangent at the projection
	// point; its side of the tangent signs the distance.
	diff := position.Sub(f)
	distance := diff.Length()
	if diff.Dot(df.RotateQuarter()) < 0 {
		distance = -distance
	}

	// Tangent direction. For steep tangents the coordinate system is
	// rotated a quarter turn to stay clear of the atan singularities.
	var phi float64
	if df.X != 0 && math.Abs(df.Y/df.X) < 1 {
		phi = math.Atan2(df.Y, df.X)
	} else {
		phi = math.Pi/2 + math.Atan2(-df.X, df.Y)
	}
	headingError := orientation.Sub(geom.Rad(phi))

	curvature := 0.0
	if l2 := df.Dot(df); l2 > 0 {
		curvature = (ddf.Y*df.X - ddf.X*df.Y) / math.Pow(l2, 1.5)
	}

	return CurveData{Distance: distance, HeadingError: headingError, Curvature: curvature}
}

// Steer returns the steering angle tracking the reference curve from the
// given pose at the given speed: heading correction, cross-track correction
// softened at low speed, and curvature feed-forward, clamped to the
// configured bound.
func (l *Lateral) Steer(position geom.Vec, orientation geom.Angle, velocity float64) geom.Angle {
	data := l.CurveData(position, orientation)

	crossTrack := math.Atan(l.cfg.GainCrossTrack * data.Distance / (l.cfg.GainSoftening + math.Abs(velocity)))
	feedForward := math.Atan(l.cfg.Wheelbase * data.Curvature)
	steer := -data.HeadingError.RadPi() - crossTrack + feedForward

	bound := l.cfg.MaxSteerDeg * math.Pi / 180
	steer = math.Max(-bound, math.Min(bound, steer))
	return geom.Rad(steer)
}
