// Package planner contains the short-horizon obstacle-avoidance planner: a
// kinematic motion simulator combined with a depth-bounded tree search that
// chooses, once per control cycle, the steering command maximizing the
// accumulated worst-case clearance from known obstacles.
//
// All geometry is in metres and expressed in the global frame.
package planner

import "github.com/derweg/eagleeye/vehicle/geom"

// State is the vehicle's kinematic state at one point in time. Front and Rear
// are the two reference points of the bicycle model; whenever a state is
// settled they are separated by exactly the wheelbase along Orientation.
// Simulate re-establishes that invariant at the end of every step.
type State struct {
	Rear        geom.Vec   // rear-axle reference point
	Front       geom.Vec   // steering reference point ahead of the rear axle
	Orientation geom.Angle // heading
	Velocity    float64    // signed, forward positive, m/s
	Steer       geom.Angle // current steering angle
}

// Command is a (velocity, steering angle) pair the vehicle would execute for
// the next time step.
type Command struct {
	Velocity float64
	Steer    geom.Angle
}

// StateSource supplies the current vehicle state, one read-only snapshot per
// planning cycle. The blackboard implements it.
type StateSource interface {
	State() State
}

// Emitter receives debug pose markers during simulation. Implementations
// must not block; the planner runs inside the control loop's latency budget.
type Emitter interface {
	EmitMarker(p geom.Vec)
}
