package planner

import (
	"math"

	"github.com/derweg/eagleeye/vehicle/geom"
)

// Candidates enumerates the commands reachable from the current steering
// angle in one decision step: offsets {-2,-1,0,+1,+2}×stepDeg, velocity
// unchanged, ascending offset order. A nonzero offset is admitted only while
// its absolute angle stays strictly below maxDeg. The zero offset is always
// included, even when the current angle already sits outside the bound, so
// the search never faces an empty candidate set.
func Candidates(steer geom.Angle, velocity, stepDeg, maxDeg float64) []Command {
	cur := steer.Deg180()
	cmds := make([]Command, 0, 5)
	for i := -2; i <= 2; i++ {
		d := cur + float64(i)*stepDeg
		if i != 0 && math.Abs(d) >= maxDeg {
			continue
		}
		cmds = append(cmds, Command{Velocity: velocity, Steer: geom.Deg(d)})
	}
	return cmds
}
