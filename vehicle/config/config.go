// Package config loads and validates the stack's YAML configuration. The
// configuration is read once at startup and treated as immutable thereafter.
package config

import (
	"fmt"

	"github.com/derweg/eagleeye/vehicle/control"
	"github.com/derweg/eagleeye/vehicle/estimator"
	"github.com/derweg/eagleeye/vehicle/geom"
	"github.com/derweg/eagleeye/vehicle/planner"
)

// Config is the root of the configuration tree.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Planner    PlannerConfig    `mapstructure:"planner"`
	Controller ControllerConfig `mapstructure:"controller"`
	Estimator  EstimatorConfig  `mapstructure:"estimator"`
	Beacon     BeaconConfig     `mapstructure:"beacon"`
	Actuator   ActuatorConfig   `mapstructure:"actuator"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Trajectory TrajectoryConfig `mapstructure:"trajectory"`
	Obstacles  []Obstacle       `mapstructure:"obstacles"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// PlannerConfig mirrors planner.Config with YAML keys.
type PlannerConfig struct {
	TimeStep         float64 `mapstructure:"time_step"`
	CollisionPenalty float64 `mapstructure:"collision_penalty"`
	MaxDepth         int     `mapstructure:"max_depth"`
	AxisDistance     float64 `mapstructure:"axis_distance"`
	CarCircleRadius  float64 `mapstructure:"car_circle_radius"`
	SteerStepDeg     float64 `mapstructure:"steer_step_deg"`
	MaxSteerDeg      float64 `mapstructure:"max_steer_deg"`
}

// Core converts to the planner's own configuration type.
func (p PlannerConfig) Core() planner.Config {
	return planner.Config{
		TimeStep:         p.TimeStep,
		CollisionPenalty: p.CollisionPenalty,
		MaxDepth:         p.MaxDepth,
		Wheelbase:        p.AxisDistance,
		CarCircleRadius:  p.CarCircleRadius,
		SteerStepDeg:     p.SteerStepDeg,
		MaxSteerDeg:      p.MaxSteerDeg,
	}
}

type ControllerConfig struct {
	GainCrossTrack float64 `mapstructure:"gain_cross_track"`
	GainSoftening  float64 `mapstructure:"gain_softening"`
	CruiseSpeed    float64 `mapstructure:"cruise_speed"`
	SpeedP         float64 `mapstructure:"speed_p"`
	SpeedI         float64 `mapstructure:"speed_i"`
	SpeedD         float64 `mapstructure:"speed_d"`
	SpeedLimit     float64 `mapstructure:"speed_limit"`
}

type EstimatorConfig struct {
	StdAccel    float64 `mapstructure:"std_accel"`
	StdYawAccel float64 `mapstructure:"std_yaw_accel"`
	StdPosX     float64 `mapstructure:"std_pos_x"`
	StdPosY     float64 `mapstructure:"std_pos_y"`
	StdYaw      float64 `mapstructure:"std_yaw"`
}

// Core converts to the estimator's own configuration type.
func (e EstimatorConfig) Core() estimator.Config {
	return estimator.Config{
		StdAccel:    e.StdAccel,
		StdYawAccel: e.StdYawAccel,
		StdPosX:     e.StdPosX,
		StdPosY:     e.StdPosY,
		StdYaw:      e.StdYaw,
	}
}

type BeaconConfig struct {
	Port string `mapstructure:"port"`
	Baud int    `mapstructure:"baud"`
}

type ActuatorConfig struct {
	// Port empty selects the no-op actuator (bench mode).
	Port string `mapstructure:"port"`
	Baud int    `mapstructure:"baud"`
}

type TelemetryConfig struct {
	Addr       string `mapstructure:"addr"` // empty disables the server
	BufferSize int    `mapstructure:"buffer_size"`
	DriveLog   string `mapstructure:"drive_log"` // empty disables recording
}

// Point is one Bézier control point in the map frame, metres.
type Point struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
}

// TrajectoryConfig is the reference curve the lateral controller tracks. All
// four points zero means no reference curve: the loop holds the current
// steering angle instead of tracking.
type TrajectoryConfig struct {
	P0 Point `mapstructure:"p0"`
	P1 Point `mapstructure:"p1"`
	P2 Point `mapstructure:"p2"`
	P3 Point `mapstructure:"p3"`
}

// Curve converts the configured control points to the controller's type.
func (t TrajectoryConfig) Curve() control.BezierCurve {
	return control.BezierCurve{
		P0: geom.Vec{X: t.P0.X, Y: t.P0.Y},
		P1: geom.Vec{X: t.P1.X, Y: t.P1.Y},
		P2: geom.Vec{X: t.P2.X, Y: t.P2.Y},
		P3: geom.Vec{X: t.P3.X, Y: t.P3.Y},
	}
}

// Obstacle is one known static obstacle in the map frame, metres.
type Obstacle struct {
	X      float64 `mapstructure:"x"`
	Y      float64 `mapstructure:"y"`
	Radius float64 `mapstructure:"radius"`
}

// Circles converts the configured obstacles to geometry.
func (c *Config) Circles() []geom.Circle {
	out := make([]geom.Circle, len(c.Obstacles))
	for i, o := range c.Obstacles {
		out[i] = geom.Circle{Center: geom.Vec{X: o.X, Y: o.Y}, Radius: o.Radius}
	}
	return out
}

// Default returns the configuration used when no file is present: a bench
// setup with the planner tuned for the model vehicle.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Planner: PlannerConfig{
			TimeStep:         0.1,
			CollisionPenalty: 1000,
			MaxDepth:         3,
			AxisDistance:     2.5,
			CarCircleRadius:  0.3,
			SteerStepDeg:     5,
			MaxSteerDeg:      30,
		},
		Controller: ControllerConfig{
			GainCrossTrack: 1.5,
			GainSoftening:  1.0,
			CruiseSpeed:    1.0,
			SpeedP:         0.8,
			SpeedI:         0.5,
			SpeedD:         0,
			SpeedLimit:     3,
		},
		Estimator: EstimatorConfig{
			StdAccel:    2.0,
			StdYawAccel: 0.7,
			StdPosX:     0.15,
			StdPosY:     0.15,
			StdYaw:      0.03,
		},
		Beacon:    BeaconConfig{Port: "", Baud: 115200},
		Actuator:  ActuatorConfig{Port: "", Baud: 115200},
		Telemetry: TelemetryConfig{Addr: "localhost:8642", BufferSize: 1024},
		Trajectory: TrajectoryConfig{
			P0: Point{X: 0, Y: 0},
			P1: Point{X: 3, Y: 0},
			P2: Point{X: 7, Y: 0},
			P3: Point{X: 10, Y: 0},
		},
	}
}

// Validate reports the first implausible setting.
func (c *Config) Validate() error {
	if err := c.Planner.Core().Validate(); err != nil {
		return err
	}
	if c.Controller.GainCrossTrack <= 0 {
		return fmt.Errorf("config: controller cross-track gain must be positive, got %g", c.Controller.GainCrossTrack)
	}
	if c.Controller.GainSoftening <= 0 {
		return fmt.Errorf("config: controller softening gain must be positive, got %g", c.Controller.GainSoftening)
	}
	if c.Controller.SpeedLimit <= 0 {
		return fmt.Errorf("config: speed limit must be positive, got %g", c.Controller.SpeedLimit)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"std_accel", c.Estimator.StdAccel},
		{"std_yaw_accel", c.Estimator.StdYawAccel},
		{"std_pos_x", c.Estimator.StdPosX},
		{"std_pos_y", c.Estimator.StdPosY},
		{"std_yaw", c.Estimator.StdYaw},
	} {
		if f.v <= 0 {
			return fmt.Errorf("config: estimator %s must be positive, got %g", f.name, f.v)
		}
	}
	if c.Telemetry.Addr != "" && c.Telemetry.BufferSize <= 0 {
		return fmt.Errorf("config: telemetry buffer size must be positive, got %d", c.Telemetry.BufferSize)
	}
	for i, o := range c.Obstacles {
		if o.Radius < 0 {
			return fmt.Errorf("config: obstacle %d has negative radius %g", i, o.Radius)
		}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Logging.Level)
	}
	return nil
}
