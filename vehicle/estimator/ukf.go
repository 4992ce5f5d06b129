// Package estimator fuses positioning-beacon fixes into a smooth vehicle
// state with an unscented (sigma-point) Kalman filter over the CTRV model:
// state [px, py, v, ψ, ψ̇], measurements [px, py, ψ].
package estimator

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/derweg/eagleeye/vehicle/geom"
	"github.com/derweg/eagleeye/vehicle/planner"
)

const (
	nState = 5
	nAug   = 7
	nSigma = 2*nAug + 1

	// Below this yaw rate the CTRV propagation switches to its straight
	// (constant-heading) limit to avoid dividing by ψ̇.
	yawRateEpsilon = 0.001
)

// Config holds the filter's noise model.
type Config struct {
	StdAccel    float64 // process noise std, longitudinal acceleration, m/s²
	StdYawAccel float64 // process noise std, yaw acceleration, rad/s²
	StdPosX     float64 // beacon position noise, m
	StdPosY     float64 // beacon position noise, m
	StdYaw      float64 // beacon heading noise, rad
}

// DefaultConfig returns the noise model tuned for the StarGazer-class
// beacon.
func DefaultConfig() Config {
	return Config{StdAccel: 2.0, StdYawAccel: 0.7, StdPosX: 0.15, StdPosY: 0.15, StdYaw: 0.03}
}

// Pose is the filter's current belief. Position refers to the beacon mount,
// which coincides with the vehicle's front reference point.
type Pose struct {
	Position geom.Vec
	Velocity float64
	Yaw      geom.Angle
	YawRate  float64
}

// UKF is an unscented Kalman filter. Not safe for concurrent use.
type UKF struct {
	cfg     Config
	lambda  float64
	weights [nSigma]float64

	x        *mat.VecDense // state mean, 5
	p        *mat.Dense    // state covariance, 5×5
	xsigPred *mat.Dense    // predicted sigma points, 5×nSigma
	r        *mat.Dense    // measurement noise, 3×3

	initialized bool
}

// New builds an uninitialized filter; the first measurement sets the state.
func New(cfg Config) *UKF {
	u := &UKF{
		cfg:      cfg,
		lambda:   3 - nAug,
		x:        mat.NewVecDense(nState, nil),
		p:        mat.NewDense(nState, nState, nil),
		xsigPred: mat.NewDense(nState, nSigma, nil),
		r:        mat.NewDense(3, 3, nil),
	}
	for i := 0; i < nState; i++ {
		u.p.Set(i, i, 1)
	}
	u.r.Set(0, 0, cfg.StdPosX*cfg.StdPosX)
	u.r.Set(1, 1, cfg.StdPosY*cfg.StdPosY)
	u.r.Set(2, 2, cfg.StdYaw*cfg.StdYaw)

	u.weights[0] = u.lambda / (u.lambda + nAug)
	for i := 1; i < nSigma; i++ {
		u.weights[i] = 1 / (2 * (u.lambda + nAug))
	}
	return u
}

// ProcessMeasurement feeds one beacon fix taken dt seconds after the
// previous one. The first fix initializes the state directly.
func (u *UKF) ProcessMeasurement(position geom.Vec, yaw geom.Angle, dt float64) {
	if !u.initialized {
		u.x.SetVec(0, position.X)
		u.x.SetVec(1, position.Y)
		u.x.SetVec(3, yaw.RadPi())
		u.initialized = true
		return
	}
	u.predict(dt)
	u.update(position, yaw)
}

// Pose returns the current belief.
func (u *UKF) Pose() Pose {
	return Pose{
		Position: geom.Vec{X: u.x.AtVec(0), Y: u.x.AtVec(1)},
		Velocity: u.x.AtVec(2),
		Yaw:      geom.Rad(u.x.AtVec(3)),
		YawRate:  u.x.AtVec(4),
	}
}

// Snapshot converts the belief into a settled planner state: the beacon
// mount is the front reference point, the rear axle sits one wheelbase
// behind it along the heading. steer is carried through unchanged since the
// filter does not observe it.
func (u *UKF) Snapshot(wheelbase float64, steer geom.Angle) planner.State {
	pose := u.Pose()
	heading := geom.Vec{X: 1}.Rotate(pose.Yaw)
	return planner.State{
		Rear:        pose.Position.Sub(heading.Scale(wheelbase)),
		Front:       pose.Position,
		Orientation: pose.Yaw,
		Velocity:    pose.Velocity,
		Steer:       steer,
	}
}

// predict generates the augmented sigma points, propagates them through the
// CTRV model and recomputes the state mean and covariance.
func (u *UKF) predict(dt float64) {
	xsigAug, ok := u.augmentedSigmaPoints()
	if !ok {
		// Covariance lost positive definiteness; skip this prediction
		// rather than propagate garbage. The next update still corrects.
		return
	}

	for i := 0; i < nSigma; i++ {
		px := xsigAug.At(0, i)
		py := xsigAug.At(1, i)
		v := xsigAug.At(2, i)
		psi := xsigAug.At(3, i)
		psiDot := xsigAug.At(4, i)
		nuA := xsigAug.At(5, i)
		nuPsiDD := xsigAug.At(6, i)

		sin, cos := math.Sincos(psi)
		var dx, dy float64
		if math.Abs(psiDot) < yawRateEpsilon {
			dx = v * cos * dt
			dy = v * sin * dt
		} else {
			dx = v / psiDot * (math.Sin(psi+psiDot*dt) - sin)
			dy = v / psiDot * (-math.Cos(psi+psiDot*dt) + cos)
		}

		// Deterministic motion plus the noise terms.
		u.xsigPred.Set(0, i, px+dx+0.5*dt*dt*cos*nuA)
		u.xsigPred.Set(1, i, py+dy+0.5*dt*dt*sin*nuA)
		u.xsigPred.Set(2, i, v+dt*nuA)
		u.xsigPred.Set(3, i, psi+psiDot*dt+0.5*dt*dt*nuPsiDD)
		u.xsigPred.Set(4, i, psiDot+dt*nuPsiDD)
	}

	// Predicted mean.
	for j := 0; j < nState; j++ {
		mean := 0.0
		for i := 0; i < nSigma; i++ {
			mean += u.weights[i] * u.xsigPred.At(j, i)
		}
		u.x.SetVec(j, mean)
	}

	// Predicted covariance, yaw residuals renormalized.
	u.p.Zero()
	diff := mat.NewVecDense(nState, nil)
	outer := mat.NewDense(nState, nState, nil)
	for i := 0; i < nSigma; i++ {
		for j := 0; j < nState; j++ {
			diff.SetVec(j, u.xsigPred.At(j, i)-u.x.AtVec(j))
		}
		diff.SetVec(3, normalizeAngle(diff.AtVec(3)))
		outer.Outer(u.weights[i], diff, diff)
		u.p.Add(u.p, outer)
	}
}

// augmentedSigmaPoints builds the 7-dimensional sigma point set around the
// process-noise-augmented state via the Cholesky square root.
func (u *UKF) augmentedSigmaPoints() (*mat.Dense, bool) {
	xAug := mat.NewVecDense(nAug, nil)
	for j := 0; j < nState; j++ {
		xAug.SetVec(j, u.x.AtVec(j))
	}

	pAug := mat.NewSymDense(nAug, nil)
	for i := 0; i < nState; i++ {
		for j := i; j < nState; j++ {
			pAug.SetSym(i, j, 0.5*(u.p.At(i, j)+u.p.At(j, i)))
		}
	}
	pAug.SetSym(5, 5, u.cfg.StdAccel*u.cfg.StdAccel)
	pAug.SetSym(6, 6, u.cfg.StdYawAccel*u.cfg.StdYawAccel)

	var chol mat.Cholesky
	if !chol.Factorize(pAug) {
		return nil, false
	}
	l := mat.NewTriDense(nAug, mat.Lower, nil)
	chol.LTo(l)

	scale := math.Sqrt(u.lambda + nAug)
	xsigAug := mat.NewDense(nAug, nSigma, nil)
	for j := 0; j < nAug; j++ {
		xsigAug.Set(j, 0, xAug.AtVec(j))
	}
	for i := 0; i < nAug; i++ {
		for j := 0; j < nAug; j++ {
			xsigAug.Set(j, i+1, xAug.AtVec(j)+scale*l.At(j, i))
			xsigAug.Set(j, i+1+nAug, xAug.AtVec(j)-scale*l.At(j, i))
		}
	}
	return xsigAug, true
}

// update folds one [px, py, ψ] measurement into the predicted state.
func (u *UKF) update(position geom.Vec, yaw geom.Angle) {
	const nz = 3

	// Measurement sigma points are a plain projection of the state sigma
	// points.
	zsig := mat.NewDense(nz, nSigma, nil)
	for i := 0; i < nSigma; i++ {
		zsig.Set(0, i, u.xsigPred.At(0, i))
		zsig.Set(1, i, u.xsigPred.At(1, i))
		zsig.Set(2, i, u.xsigPred.At(3, i))
	}

	zPred := mat.NewVecDense(nz, nil)
	for j := 0; j < nz; j++ {
		mean := 0.0
		for i := 0; i < nSigma; i++ {
			mean += u.weights[i] * zsig.At(j, i)
		}
		zPred.SetVec(j, mean)
	}

	s := mat.NewDense(nz, nz, nil)
	tc := mat.NewDense(nState, nz, nil)
	zDiff := mat.NewVecDense(nz, nil)
	xDiff := mat.NewVecDense(nState, nil)
	outerZ := mat.NewDense(nz, nz, nil)
	outerX := mat.NewDense(nState, nz, nil)
	for i := 0; i < nSigma; i++ {
		for j := 0; j < nz; j++ {
			zDiff.SetVec(j, zsig.At(j, i)-zPred.AtVec(j))
		}
		zDiff.SetVec(2, normalizeAngle(zDiff.AtVec(2)))
		for j := 0; j < nState; j++ {
			xDiff.SetVec(j, u.xsigPred.At(j, i)-u.x.AtVec(j))
		}
		xDiff.SetVec(3, normalizeAngle(xDiff.AtVec(3)))

		outerZ.Outer(u.weights[i], zDiff, zDiff)
		s.Add(s, outerZ)
		outerX.Outer(u.weights[i], xDiff, zDiff)
		tc.Add(tc, outerX)
	}
	s.Add(s, u.r)

	var sInv mat.Dense
	if err := sInv.Inverse(s); err != nil {
		return
	}
	var k mat.Dense
	k.Mul(tc, &sInv)

	// Residual, heading renormalized.
	y := mat.NewVecDense(nz, []float64{
		position.X - zPred.AtVec(0),
		position.Y - zPred.AtVec(1),
		normalizeAngle(yaw.RadPi() - zPred.AtVec(2)),
	})

	var ky mat.VecDense
	ky.MulVec(&k, y)
	u.x.AddVec(u.x, &ky)
	u.x.SetVec(3, normalizeAngle(u.x.AtVec(3)))

	var ks, ksk mat.Dense
	ks.Mul(&k, s)
	ksk.Mul(&ks, k.T())
	u.p.Sub(u.p, &ksk)
}

// normalizeAngle wraps a into (−π, π].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
