package planner

import (
	"math"

	"github.com/derweg/eagleeye/vehicle/geom"
)

// Simulate applies cmd to s for one time step and returns the end state
// together with the minimum clearance observed between any footprint circle
// and any obstacle over the swept motion. With no obstacles it returns the
// sentinel 2×collisionPenalty so any collision-free motion is preferred a
// priori over any colliding one.
//
// The step is straight for an exactly zero steering angle and a circular arc
// about the instantaneous center of motion otherwise (see classify). A state
// whose reference points coincide cannot define a heading; such a step is
// treated as no motion with the sentinel clearance.
func (p *Planner) Simulate(s State, cmd Command, obstacles []geom.Circle) (State, float64) {
	s.Velocity = cmd.Velocity
	s.Steer = cmd.Steer
	kind := classify(cmd.Steer)

	// Arc length driven within this step.
	distance := s.Velocity * p.cfg.TimeStep

	start := p.footprint(s)

	var icm geom.Vec
	if kind == motionStraight {
		heading, ok := s.Front.Sub(s.Rear).Unit()
		if !ok {
			return s, 2 * p.cfg.CollisionPenalty
		}
		movement := heading.Scale(distance)
		s.Front = s.Front.Add(movement)
		s.Rear = s.Rear.Add(movement)
	} else {
		// Signed turning radius of the rear axle, bicycle model. The ICM
		// sits at (0, R) in the vehicle frame.
		radius := p.cfg.Wheelbase / math.Tan(cmd.Steer.RadPi())
		icm = geom.Vec{X: 0, Y: radius}.Rotate(s.Orientation).Add(s.Rear)

		alpha := geom.Rad(distance / radius)
		s.Front = s.Front.Sub(icm).Rotate(alpha).Add(icm)
		s.Rear = s.Rear.Sub(icm).Rotate(alpha).Add(icm)
		s.Orientation = s.Orientation.Add(alpha)
	}

	// Settle the state: pin the front point back onto the wheelbase circle
	// so the rigid-separation invariant survives accumulated rounding.
	if heading, ok := s.Front.Sub(s.Rear).Unit(); ok {
		s.Front = s.Rear.Add(heading.Scale(p.cfg.Wheelbase))
	}

	if p.emitter != nil {
		p.emitter.EmitMarker(s.Front)
	}

	end := p.footprint(s)
	minClearance := 2 * p.cfg.CollisionPenalty
	for i := range start {
		for _, obstacle := range obstacles {
			c := sweptClearance(icm, obstacle, start[i], end[i], kind)
			minClearance = math.Min(minClearance, c)
		}
	}
	return s, minClearance
}
