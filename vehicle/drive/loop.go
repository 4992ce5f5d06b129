// Package drive runs the fixed-period control cycle: it reads a beacon fix,
// folds it into the state estimate, plans a steering command around the known
// obstacles, regulates speed and hands the result to the actuator.
package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/derweg/eagleeye/vehicle/actuator"
	"github.com/derweg/eagleeye/vehicle/beacon"
	"github.com/derweg/eagleeye/vehicle/blackboard"
	"github.com/derweg/eagleeye/vehicle/config"
	"github.com/derweg/eagleeye/vehicle/control"
	"github.com/derweg/eagleeye/vehicle/estimator"
	"github.com/derweg/eagleeye/vehicle/planner"
	"github.com/derweg/eagleeye/vehicle/telemetry"
)

// FixSource supplies one position fix per cycle. The beacon device
// implements it; tests script it.
type FixSource interface {
	ReadFix() (beacon.Fix, error)
}

// Loop is the single-threaded control loop. It must not be stepped
// concurrently; the planner provides no reentrancy guard.
type Loop struct {
	cfg     *config.Config
	board   *blackboard.Blackboard
	planner *planner.Planner
	lateral *control.Lateral
	speed   *control.Speed
	filter  *estimator.UKF
	fixes   FixSource
	act     actuator.Actuator
	log     *slog.Logger

	// both optional
	emitter *telemetry.Emitter
	dlog    *telemetry.DriveLog

	tick     uint64
	haveFix  bool
	lastPose planner.State
}

// New assembles a loop from its collaborators. emitter and dlog may be nil.
func New(cfg *config.Config, board *blackboard.Blackboard, fixes FixSource, act actuator.Actuator, emitter *telemetry.Emitter, dlog *telemetry.DriveLog) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var plannerEmitter planner.Emitter
	if emitter != nil {
		plannerEmitter = emitter
	}
	p, err := planner.New(cfg.Planner.Core(), board, plannerEmitter)
	if err != nil {
		return nil, err
	}

	board.SetObstacles(cfg.Circles())
	board.SetTrajectory(cfg.Trajectory.Curve())

	lateral := control.NewLateral(control.LateralConfig{
		GainCrossTrack: cfg.Controller.GainCrossTrack,
		GainSoftening:  cfg.Controller.GainSoftening,
		Wheelbase:      cfg.Planner.AxisDistance,
		MaxSteerDeg:    cfg.Planner.MaxSteerDeg,
	}, board.Trajectory())

	speed := control.NewSpeed(cfg.Controller.SpeedP, cfg.Controller.SpeedI, cfg.Controller.SpeedD, cfg.Controller.SpeedLimit)
	speed.SetTarget(cfg.Controller.CruiseSpeed)

	return &Loop{
		cfg:     cfg,
		board:   board,
		planner: p,
		lateral: lateral,
		speed:   speed,
		filter:  estimator.New(cfg.Estimator.Core()),
		fixes:   fixes,
		act:     act,
		emitter: emitter,
		dlog:    dlog,
		log:     slog.With("component", "drive"),
	}, nil
}

// Run steps the loop on the configured period until ctx is cancelled. A
// cycle overrunning the period is logged; the planner's depth and branching
// are the knobs to bring it back inside the budget.
func (l *Loop) Run(ctx context.Context) error {
	period := time.Duration(l.cfg.Planner.TimeStep * float64(time.Second))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	l.log.Info("loop started", "period", period, "max_depth", l.cfg.Planner.MaxDepth)
	for {
		select {
		case <-ctx.Done():
			l.log.Info("loop stopped", "ticks", l.tick)
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := l.Step(l.cfg.Planner.TimeStep); err != nil {
				return err
			}
			if took := time.Since(start); took > period {
				l.log.Warn("cycle overran period", "took", took, "period", period)
			}
		}
	}
}

// Step runs one control cycle of dt seconds.
func (l *Loop) Step(dt float64) error {
	pose, err := l.observe(dt)
	if err != nil {
		return err
	}

	// Nominal steering tracks the reference curve; the planner then searches
	// the candidate fan around it for the best-clearance command. Without a
	// published curve the lateral law has nothing to track, so the current
	// steering angle is held instead.
	nominal := pose.Steer
	if curve := l.board.Trajectory(); curve != (control.BezierCurve{}) {
		l.lateral.SetCurve(curve)
		nominal = l.lateral.Steer(pose.Front, pose.Orientation, pose.Velocity)
	}

	// The speed loop decides the velocity we are about to command, and the
	// lookahead simulates at that same velocity.
	velocity := l.speed.Update(pose.Velocity, time.Duration(dt*float64(time.Second)))

	pose.Steer = nominal
	pose.Velocity = velocity
	l.board.SetState(pose)

	cmd := l.planner.FindPath(l.board.Obstacles())
	l.board.SetCommand(cmd)

	if err := l.act.Apply(cmd.Velocity, cmd.Steer); err != nil {
		return fmt.Errorf("drive: apply command: %w", err)
	}

	if l.emitter != nil {
		for _, o := range l.board.Obstacles() {
			l.emitter.EmitObstacle(o)
		}
	}
	if l.dlog != nil {
		rec := telemetry.Record{
			Tick:      l.tick,
			X:         pose.Front.X,
			Y:         pose.Front.Y,
			OrientDeg: pose.Orientation.Deg180(),
			Velocity:  cmd.Velocity,
			SteerDeg:  cmd.Steer.Deg180(),
		}
		if err := l.dlog.Record(rec); err != nil {
			l.log.Warn("drive log write failed", "err", err)
		}
	}
	l.tick++
	return nil
}

// Tick returns the number of completed cycles.
func (l *Loop) Tick() uint64 { return l.tick }

// observe folds the next beacon fix into the filter and returns the settled
// pose. In a dead zone the previous pose is reused; the filter is not fed.
func (l *Loop) observe(dt float64) (planner.State, error) {
	fix, err := l.fixes.ReadFix()
	switch {
	case errors.Is(err, beacon.ErrDeadZone):
		if !l.haveFix {
			return planner.State{}, fmt.Errorf("drive: no fix yet: %w", err)
		}
		l.log.Debug("dead zone, reusing last pose", "tick", l.tick)
		return l.lastPose, nil
	case err != nil:
		return planner.State{}, fmt.Errorf("drive: read fix: %w", err)
	}

	l.filter.ProcessMeasurement(fix.Position, fix.Theta, dt)
	pose := l.filter.Snapshot(l.cfg.Planner.AxisDistance, l.board.State().Steer)
	l.haveFix = true
	l.lastPose = pose
	return pose, nil
}
