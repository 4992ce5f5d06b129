package estimator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derweg/eagleeye/vehicle/geom"
)

func TestFirstMeasurementInitializes(t *testing.T) {
	u := New(DefaultConfig())
	u.ProcessMeasurement(geom.Vec{X: 3, Y: -2}, geom.Deg(45), 0.1)

	pose := u.Pose()
	assert.Equal(t, geom.Vec{X: 3, Y: -2}, pose.Position)
	assert.InDelta(t, 45, pose.Yaw.Deg180(), 1e-9)
	assert.Zero(t, pose.Velocity)
}

func TestStationaryConvergence(t *testing.T) {
	u := New(DefaultConfig())

	// A static vehicle measured repeatedly: position converges to the fix,
	// velocity stays near zero.
	for i := 0; i < 50; i++ {
		u.ProcessMeasurement(geom.Vec{X: 1, Y: 2}, geom.Deg(10), 0.1)
	}
	pose := u.Pose()
	assert.InDelta(t, 1, pose.Position.X, 0.05)
	assert.InDelta(t, 2, pose.Position.Y, 0.05)
	assert.InDelta(t, 10, pose.Yaw.Deg180(), 1.0)
	assert.InDelta(t, 0, pose.Velocity, 0.2)
}

func TestStraightMotionVelocityEstimate(t *testing.T) {
	u := New(DefaultConfig())

	// 1 m/s along +X, fixes every 100 ms.
	for i := 0; i <= 60; i++ {
		x := float64(i) * 0.1
		u.ProcessMeasurement(geom.Vec{X: x, Y: 0}, geom.Deg(0), 0.1)
	}
	pose := u.Pose()
	assert.InDelta(t, 6.0, pose.Position.X, 0.2)
	assert.InDelta(t, 1.0, pose.Velocity, 0.3)
	assert.InDelta(t, 0, pose.Yaw.RadPi(), 0.05)
}

func TestYawWrapAround(t *testing.T) {
	u := New(DefaultConfig())

	// Fixes oscillating around the ±180° seam must not tear the estimate.
	u.ProcessMeasurement(geom.Vec{}, geom.Deg(179), 0.1)
	for i := 0; i < 20; i++ {
		u.ProcessMeasurement(geom.Vec{}, geom.Deg(-179), 0.1)
		u.ProcessMeasurement(geom.Vec{}, geom.Deg(179), 0.1)
	}
	pose := u.Pose()
	assert.Greater(t, math.Abs(pose.Yaw.Deg180()), 170.0,
		"estimate must stay near the seam, not average to zero")
}

func TestSnapshotSettlesWheelbase(t *testing.T) {
	u := New(DefaultConfig())
	u.ProcessMeasurement(geom.Vec{X: 5, Y: 5}, geom.Deg(90), 0.1)

	s := u.Snapshot(2.5, geom.Deg(5))
	require.Equal(t, geom.Vec{X: 5, Y: 5}, s.Front)
	assert.InDelta(t, 2.5, s.Front.Sub(s.Rear).Length(), 1e-9)
	assert.InDelta(t, 5, s.Rear.X, 1e-9)
	assert.InDelta(t, 2.5, s.Rear.Y, 1e-9)
	assert.InDelta(t, 5, s.Steer.Deg180(), 1e-12)
}

func TestNormalizeAngle(t *testing.T) {
	assert.InDelta(t, -math.Pi/2, normalizeAngle(3*math.Pi/2), 1e-12)
	assert.InDelta(t, math.Pi, normalizeAngle(math.Pi), 1e-12)
	assert.InDelta(t, 0, normalizeAngle(4*math.Pi), 1e-12)
}
