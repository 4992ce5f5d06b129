package control

import (
	"time"

	"github.com/felixge/pidctrl"
)

// Speed regulates the longitudinal velocity toward a cruise target with a
// PID loop.
type Speed struct {
	pid *pidctrl.PIDController
}

// NewSpeed builds a speed regulator with the given gains and symmetric
// output limit (m/s).
func NewSpeed(p, i, d, limit float64) *Speed {
	return &Speed{pid: pidctrl.NewPIDController(p, i, d).SetOutputLimits(-limit, limit)}
}

// SetTarget changes the cruise velocity setpoint.
func (s *Speed) SetTarget(v float64) { s.pid.Set(v) }

// Update advances the loop with the measured velocity over dt and returns
// the commanded velocity.
func (s *Speed) Update(measured float64, dt time.Duration) float64 {
	return s.pid.UpdateDuration(measured, dt)
}
