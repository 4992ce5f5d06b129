// Package actuator carries planner commands to the drive electronics.
package actuator

import (
	"github.com/derweg/eagleeye/vehicle/geom"
)

// Actuator applies one (velocity, steering angle) command per control cycle.
type Actuator interface {
	Apply(velocity float64, steer geom.Angle) error
}

// Noop discards commands. Used for bench runs and tests.
type Noop struct{}

func (Noop) Apply(float64, geom.Angle) error { return nil }
