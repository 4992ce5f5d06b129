package drive

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derweg/eagleeye/vehicle/beacon"
	"github.com/derweg/eagleeye/vehicle/blackboard"
	"github.com/derweg/eagleeye/vehicle/config"
	"github.com/derweg/eagleeye/vehicle/geom"
	"github.com/derweg/eagleeye/vehicle/telemetry"
)

// scriptedFixes replays a fixed sequence of beacon readings.
type scriptedFixes struct {
	fixes []beacon.Fix
	errs  []error
	i     int
}

func (s *scriptedFixes) ReadFix() (beacon.Fix, error) {
	if s.i >= len(s.fixes) {
		return beacon.Fix{}, errors.New("out of fixes")
	}
	fix, err := s.fixes[s.i], s.errs[s.i]
	s.i++
	return fix, err
}

type appliedCommand struct {
	velocity float64
	steer    geom.Angle
}

type recordingActuator struct {
	applied []appliedCommand
	fail    error
}

func (a *recordingActuator) Apply(velocity float64, steer geom.Angle) error {
	if a.fail != nil {
		return a.fail
	}
	a.applied = append(a.applied, appliedCommand{velocity, steer})
	return nil
}

func fixAt(x, y float64) beacon.Fix {
	return beacon.Fix{Marker: 1062, Position: geom.Vec{X: x, Y: y}}
}

func newTestLoop(t *testing.T, fixes *scriptedFixes, act *recordingActuator) (*Loop, *blackboard.Blackboard) {
	t.Helper()
	board := blackboard.New()
	loop, err := New(config.Default(), board, fixes, act, nil, nil)
	require.NoError(t, err)
	return loop, board
}

func TestLoopSeedsTrajectoryAndObstaclesFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Obstacles = []config.Obstacle{{X: 4, Y: 0.5, Radius: 0.4}}

	board := blackboard.New()
	_, err := New(cfg, board, &scriptedFixes{}, &recordingActuator{}, nil, nil)
	require.NoError(t, err)

	// The live binary reads both from the config; neither may stay at its
	// zero value after construction.
	assert.Equal(t, cfg.Trajectory.Curve(), board.Trajectory())
	require.Len(t, board.Obstacles(), 1)
	assert.Equal(t, 0.4, board.Obstacles()[0].Radius)
}

func TestLoopHoldsSteerWithoutTrajectory(t *testing.T) {
	cfg := config.Default()
	cfg.Trajectory = config.TrajectoryConfig{}

	fixes := &scriptedFixes{
		fixes: []beacon.Fix{fixAt(5, 0)},
		errs:  []error{nil},
	}
	board := blackboard.New()
	loop, err := New(cfg, board, fixes, &recordingActuator{}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, loop.Step(0.1))

	// With no reference curve the lateral law must stay out of the loop:
	// the nominal steering angle is carried over unchanged, not computed
	// against a degenerate curve.
	assert.Zero(t, board.State().Steer.Deg180())
}

func TestLoopStepAppliesCommand(t *testing.T) {
	fixes := &scriptedFixes{
		fixes: []beacon.Fix{fixAt(5, 0)},
		errs:  []error{nil},
	}
	act := &recordingActuator{}
	loop, board := newTestLoop(t, fixes, act)

	require.NoError(t, loop.Step(0.1))

	require.Len(t, act.applied, 1)
	// Standing start toward the cruise target: the speed loop commands
	// forward motion within its limit.
	assert.Greater(t, act.applied[0].velocity, 0.0)
	assert.LessOrEqual(t, act.applied[0].velocity, 3.0)
	bound := 30 * math.Pi / 180
	assert.LessOrEqual(t, math.Abs(act.applied[0].steer.RadPi()), bound+1e-9)

	state := board.State()
	assert.InDelta(t, 5, state.Front.X, 1e-6)
	assert.InDelta(t, 0, state.Front.Y, 1e-6)
	assert.InDelta(t, 2.5, state.Rear.X, 1e-6)
	assert.Equal(t, uint64(1), loop.Tick())
}

func TestLoopDeadZoneBeforeFirstFixFails(t *testing.T) {
	fixes := &scriptedFixes{
		fixes: []beacon.Fix{{}},
		errs:  []error{beacon.ErrDeadZone},
	}
	loop, _ := newTestLoop(t, fixes, &recordingActuator{})

	err := loop.Step(0.1)
	require.Error(t, err)
	assert.ErrorIs(t, err, beacon.ErrDeadZone)
}

func TestLoopDeadZoneReusesLastPose(t *testing.T) {
	fixes := &scriptedFixes{
		fixes: []beacon.Fix{fixAt(5, 0), {}},
		errs:  []error{nil, beacon.ErrDeadZone},
	}
	act := &recordingActuator{}
	loop, board := newTestLoop(t, fixes, act)

	require.NoError(t, loop.Step(0.1))
	require.NoError(t, loop.Step(0.1))

	assert.Len(t, act.applied, 2)
	state := board.State()
	assert.InDelta(t, 5, state.Front.X, 1e-6)
	assert.Equal(t, uint64(2), loop.Tick())
}

func TestLoopReadErrorStopsStep(t *testing.T) {
	fixes := &scriptedFixes{
		fixes: []beacon.Fix{{}},
		errs:  []error{errors.New("port gone")},
	}
	loop, _ := newTestLoop(t, fixes, &recordingActuator{})

	err := loop.Step(0.1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read fix")
}

func TestLoopActuatorErrorPropagates(t *testing.T) {
	fixes := &scriptedFixes{
		fixes: []beacon.Fix{fixAt(5, 0)},
		errs:  []error{nil},
	}
	loop, _ := newTestLoop(t, fixes, &recordingActuator{fail: errors.New("nack")})

	err := loop.Step(0.1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply command")
}

func TestLoopRecordsDriveLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drive.log")
	dlog, err := telemetry.NewRecorder(path)
	require.NoError(t, err)

	fixes := &scriptedFixes{
		fixes: []beacon.Fix{fixAt(5, 0), fixAt(5.1, 0), fixAt(5.2, 0)},
		errs:  []error{nil, nil, nil},
	}
	board := blackboard.New()
	loop, err := New(config.Default(), board, fixes, &recordingActuator{}, nil, dlog)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, loop.Step(0.1))
	}
	require.NoError(t, dlog.Close())

	loaded, err := telemetry.LoadDriveLog(path)
	require.NoError(t, err)
	for tick := uint64(0); tick < 3; tick++ {
		rec, ok := loaded.At(tick)
		require.True(t, ok, "missing record for tick %d", tick)
		assert.Equal(t, tick, rec.Tick)
	}
	_, ok := loaded.At(3)
	assert.False(t, ok)
}
