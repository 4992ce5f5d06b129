// Package blackboard is the shared state hub between the estimator, the
// planner and the controllers. Each subsystem reads a consistent snapshot
// and writes its own outputs without knowing its peers.
package blackboard

import (
	"sync"

	"github.com/derweg/eagleeye/vehicle/control"
	"github.com/derweg/eagleeye/vehicle/geom"
	"github.com/derweg/eagleeye/vehicle/planner"
)

// Blackboard is safe for concurrent use.
type Blackboard struct {
	mu         sync.RWMutex
	state      planner.State
	trajectory control.BezierCurve
	obstacles  []geom.Circle
	command    planner.Command
}

func New() *Blackboard { return &Blackboard{} }

// State returns the latest vehicle state. Implements planner.StateSource.
func (b *Blackboard) State() planner.State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// SetState publishes a new vehicle state.
func (b *Blackboard) SetState(s planner.State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// Trajectory returns the active reference curve.
func (b *Blackboard) Trajectory() control.BezierCurve {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trajectory
}

// SetTrajectory publishes a new reference curve.
func (b *Blackboard) SetTrajectory(c control.BezierCurve) {
	b.mu.Lock()
	b.trajectory = c
	b.mu.Unlock()
}

// Obstacles returns a copy of the current obstacle snapshot.
func (b *Blackboard) Obstacles() []geom.Circle {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]geom.Circle, len(b.obstacles))
	copy(out, b.obstacles)
	return out
}

// SetObstacles publishes a new obstacle snapshot. The slice is copied.
func (b *Blackboard) SetObstacles(obstacles []geom.Circle) {
	snapshot := make([]geom.Circle, len(obstacles))
	copy(snapshot, obstacles)
	b.mu.Lock()
	b.obstacles = snapshot
	b.mu.Unlock()
}

// Command returns the most recent planner command.
func (b *Blackboard) Command() planner.Command {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.command
}

// SetCommand publishes the command chosen this cycle.
func (b *Blackboard) SetCommand(c planner.Command) {
	b.mu.Lock()
	b.command = c
	b.mu.Unlock()
}
