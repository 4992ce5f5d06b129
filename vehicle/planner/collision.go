package planner

import (
	"math"

	"github.com/derweg/eagleeye/vehicle/geom"
)

// motionKind classifies one simulation step by the commanded steering angle.
type motionKind int

const (
	motionStraight motionKind = iota
	motionLeft
	motionRight
)

// classify applies an exact-equality test on the commanded angle: very small
// but nonzero steering is still curved motion with a very large turning
// radius. The sharp boundary is intentional, not a tolerance decision.
func classify(steer geom.Angle) motionKind {
	switch r := steer.RadPi(); {
	case r == 0:
		return motionStraight
	case r > 0:
		return motionLeft
	default:
		return motionRight
	}
}

// sweptClearance returns the signed minimum distance between an obstacle and
// one vehicle footprint circle over a single motion step from start to end.
// Negative means penetration. icm is only meaningful for curved motion.
//
// The curved case exploits that a vehicle point keeps a constant distance to
// the ICM throughout an arc, so the closest approach inside the swept sector
// is |R_point − d| without any iterative search.
func sweptClearance(icm geom.Vec, obstacle, start, end geom.Circle, kind motionKind) float64 {
	if kind == motionStraight {
		travel := end.Center.Sub(start.Center)
		// The obstacle's orthogonal projection falls between the endpoints
		// iff it lies on the forward side of start and the rear side of end.
		inbetween := obstacle.Center.Sub(start.Center).Dot(travel) >= 0 &&
			obstacle.Center.Sub(end.Center).Dot(start.Center.Sub(end.Center)) >= 0
		if inbetween {
			if normal, ok := travel.RotateQuarter().Unit(); ok {
				perp := math.Abs(obstacle.Center.Sub(start.Center).Dot(normal))
				return perp - obstacle.Radius - start.Radius
			}
			// Zero-length sweep: the endpoint check below covers it.
		}
		return math.Min(obstacle.Distance(start), obstacle.Distance(end))
	}

	toObstacle := obstacle.Center.Sub(icm)
	toStart := start.Center.Sub(icm)
	toEnd := end.Center.Sub(icm)

	// "Between" must mean "within the swept sector in the direction of
	// travel", so the bearing order flips with the turn direction.
	var inbetween bool
	if kind == motionLeft {
		inbetween = toObstacle.Inbetween(toStart, toEnd)
	} else {
		inbetween = toObstacle.Inbetween(toEnd, toStart)
	}
	if inbetween {
		rPoint := toStart.Length()
		d := toObstacle.Length()
		return math.Abs(rPoint-d) - obstacle.Radius - start.Radius
	}
	return math.Min(obstacle.Distance(start), obstacle.Distance(end))
}

// footprint approximates the vehicle's occupied area with three circles of
// one configured radius at the front point, the rear point and their
// midpoint. It is a fixed safety envelope, not an exact hull.
func (p *Planner) footprint(s State) [3]geom.Circle {
	r := p.cfg.CarCircleRadius
	return [3]geom.Circle{
		{Center: s.Front, Radius: r},
		{Center: s.Rear, Radius: r},
		{Center: s.Front.Add(s.Rear).Scale(0.5), Radius: r},
	}
}
